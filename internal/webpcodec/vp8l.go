// Package webpcodec implements WebP encode/decode atop internal/container
// (RIFF framing), internal/bitio (VP8 arithmetic coding, VP8L bit packing)
// and internal/dsp (YUV conversion and clipping). Per spec, the lossless (VP8L) path only
// implements the "simple" raw-sample stream libwebp's own encoder actually
// emits (no prefix coding, no LZ77 — that richer branch is present in
// libwebp but unreachable from its encoder); the lossy (VP8) path writes a
// keyframe-only, fixed-probability-128 bitstream with no coefficient model.
package webpcodec

import (
	"github.com/deepteams/imageio/internal/bitio"
	"github.com/deepteams/imageio/internal/raster"
)

const vp8lMagicByte = 0x2f

// EncodeVP8L writes the raw-sample VP8L payload (not wrapped in RIFF) for
// im: signature, packed width-1/height-1/alpha/version, transform and
// color-cache flag bits (always 0), then one G,R,B,A byte quadruple per
// pixel with no entropy coding.
func EncodeVP8L(im *raster.Image) []byte {
	w := bitio.NewLosslessWriter(im.Width*im.Height*4 + 8)
	w.WriteBits(vp8lMagicByte, 8)
	w.WriteBits(uint32(im.Width-1), 14)
	w.WriteBits(uint32(im.Height-1), 14)
	hasAlpha := im.HasAlpha()
	if hasAlpha {
		w.WriteBits(1, 1)
	} else {
		w.WriteBits(0, 1)
	}
	w.WriteBits(0, 3) // version
	w.WriteBits(0, 1) // transform flag: none
	w.WriteBits(0, 1) // color cache flag: none

	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			r, g, b, a := im.At(x, y)
			if !hasAlpha {
				a = 255
			}
			w.WriteBits(uint32(g), 8)
			w.WriteBits(uint32(r), 8)
			w.WriteBits(uint32(b), 8)
			w.WriteBits(uint32(a), 8)
		}
	}
	return w.Finish()
}

// DecodeVP8L reverses EncodeVP8L's simple raw-sample stream. It does not
// accept the full Huffman+LZ77 VP8L bitstream (per spec, only the simple
// path is required).
func DecodeVP8L(data []byte) (*raster.Image, error) {
	if len(data) < 5 || data[0] != vp8lMagicByte {
		return nil, ErrInvalidVP8L
	}
	r := bitio.NewLosslessReader(data[1:])
	width := int(r.ReadBits(14)) + 1
	height := int(r.ReadBits(14)) + 1
	hasAlpha := r.ReadBits(1) != 0
	_ = r.ReadBits(3) // version
	transform := r.ReadBits(1)
	colorCache := r.ReadBits(1)
	if transform != 0 || colorCache != 0 {
		return nil, ErrUnsupportedVP8L
	}

	alpha := raster.AlphaNone
	if hasAlpha {
		alpha = raster.AlphaLast
	}
	im := raster.NewImage(width, height, alpha)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := byte(r.ReadBits(8))
			red := byte(r.ReadBits(8))
			b := byte(r.ReadBits(8))
			a := byte(r.ReadBits(8))
			if !hasAlpha {
				a = 255
			}
			im.Set(x, y, red, g, b, a)
		}
	}
	return im, nil
}
