// Package gifcodec implements GIF87a/GIF89a decode and (single- and
// multi-frame) encode atop internal/lzw and internal/quantize.
package gifcodec

import (
	"encoding/binary"
	"errors"

	"github.com/deepteams/imageio/internal/lzw"
	"github.com/deepteams/imageio/internal/quantize"
	"github.com/deepteams/imageio/internal/raster"
)

var (
	ErrNotGIF      = errors.New("gifcodec: missing GIF87a/GIF89a header")
	ErrTruncated   = errors.New("gifcodec: truncated block")
	ErrNoImage     = errors.New("gifcodec: no image descriptor found")
	ErrTooManyColors = errors.New("gifcodec: more than 256 distinct colors")
)

const (
	extIntroducer   = 0x21
	extGraphicCtrl  = 0xF9
	extApplication  = 0xFF
	imageSeparator  = 0x2C
	trailer         = 0x3B
)

// Frame is one decoded GIF image: RGBA pixels at the frame's own
// dimensions and offset within the logical screen, plus its delay.
type Frame struct {
	Image        *raster.Image
	Left, Top    int
	DelayCenti   int
	Disposal     int
}

// Decode parses a GIF byte stream into its logical screen size and decoded
// frames.
func Decode(data []byte) (width, height int, frames []Frame, err error) {
	if len(data) < 13 || (string(data[:6]) != "GIF87a" && string(data[:6]) != "GIF89a") {
		return 0, 0, nil, ErrNotGIF
	}
	width = int(binary.LittleEndian.Uint16(data[6:]))
	height = int(binary.LittleEndian.Uint16(data[8:]))
	packed := data[10]
	hasGlobalTable := packed&0x80 != 0
	globalTableSize := 2 << uint(packed&0x07)
	pos := 13

	var globalTable [][3]byte
	if hasGlobalTable {
		if pos+globalTableSize*3 > len(data) {
			return 0, 0, nil, ErrTruncated
		}
		globalTable = readColorTable(data[pos:], globalTableSize)
		pos += globalTableSize * 3
	}

	var pendingDelay int
	var pendingTransparent = -1
	var pendingDisposal int

	for pos < len(data) {
		switch data[pos] {
		case trailer:
			return width, height, frames, nil
		case extIntroducer:
			if pos+2 > len(data) {
				return 0, 0, nil, ErrTruncated
			}
			label := data[pos+1]
			pos += 2
			if label == extGraphicCtrl {
				if pos+1 > len(data) || data[pos] < 4 {
					return 0, 0, nil, ErrTruncated
				}
				block := data[pos+1:]
				flags := block[0]
				pendingDisposal = int(flags>>2) & 0x07
				pendingDelay = int(binary.LittleEndian.Uint16(block[1:]))
				if flags&0x01 != 0 {
					pendingTransparent = int(block[3])
				} else {
					pendingTransparent = -1
				}
			}
			pos = skipSubBlocks(data, pos)
		case imageSeparator:
			frame, next, ferr := decodeFrame(data, pos, globalTable, pendingTransparent, pendingDelay, pendingDisposal)
			if ferr != nil {
				return 0, 0, nil, ferr
			}
			frames = append(frames, frame)
			pos = next
			pendingTransparent = -1
			pendingDelay = 0
			pendingDisposal = 0
		default:
			pos++ // tolerate stray bytes between blocks
		}
	}
	return width, height, frames, nil
}

func readColorTable(data []byte, n int) [][3]byte {
	table := make([][3]byte, n)
	for i := 0; i < n; i++ {
		table[i] = [3]byte{data[i*3], data[i*3+1], data[i*3+2]}
	}
	return table
}

// skipSubBlocks advances pos (currently at a block's first length byte)
// past the length-prefixed sub-block sequence, including its terminator.
func skipSubBlocks(data []byte, pos int) int {
	for pos < len(data) {
		n := int(data[pos])
		pos++
		if n == 0 {
			break
		}
		pos += n
	}
	return pos
}

func decodeFrame(data []byte, pos int, globalTable [][3]byte, transparent, delay, disposal int) (Frame, int, error) {
	if pos+10 > len(data) {
		return Frame{}, 0, ErrTruncated
	}
	left := int(binary.LittleEndian.Uint16(data[pos+1:]))
	top := int(binary.LittleEndian.Uint16(data[pos+3:]))
	w := int(binary.LittleEndian.Uint16(data[pos+5:]))
	h := int(binary.LittleEndian.Uint16(data[pos+7:]))
	flags := data[pos+9]
	pos += 10

	table := globalTable
	if flags&0x80 != 0 {
		localSize := 2 << uint(flags&0x07)
		if pos+localSize*3 > len(data) {
			return Frame{}, 0, ErrTruncated
		}
		table = readColorTable(data[pos:], localSize)
		pos += localSize * 3
	}

	if pos >= len(data) {
		return Frame{}, 0, ErrTruncated
	}
	minCodeSize := int(data[pos])
	pos++

	subBlockStart := pos
	pos = skipSubBlocks(data, pos)
	lzwData := lzw.UnpackSubBlocks(data[subBlockStart:pos])

	indices, err := lzw.Decode(lzwData, minCodeSize)
	if err != nil {
		return Frame{}, 0, err
	}
	if len(indices) < w*h {
		return Frame{}, 0, ErrTruncated
	}

	im := raster.NewImage(w, h, raster.AlphaLast)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := int(indices[y*w+x])
			if idx >= len(table) {
				continue
			}
			c := table[idx]
			a := byte(255)
			if idx == transparent {
				a = 0
			}
			im.Set(x, y, c[0], c[1], c[2], a)
		}
	}

	return Frame{Image: im, Left: left, Top: top, DelayCenti: delay, Disposal: disposal}, pos, nil
}

// EncodeOptions configures GIF encoding.
type EncodeOptions struct {
	DelayCenti int // per-frame delay, centiseconds
}

// Encode writes one or more frames as a GIF89a. When there is more than
// one frame, a NETSCAPE2.0 infinite-loop application extension precedes them.
func Encode(frames []*raster.Image, opts EncodeOptions) ([]byte, error) {
	if len(frames) == 0 {
		return nil, ErrNoImage
	}
	width, height := frames[0].Width, frames[0].Height

	var out []byte
	out = append(out, "GIF89a"...)
	out = appendUint16(out, width)
	out = appendUint16(out, height)
	out = append(out, 0x00) // no global color table
	out = append(out, 0x00) // background color index
	out = append(out, 0x00) // pixel aspect ratio

	if len(frames) > 1 {
		out = appendNetscapeLoop(out)
	}

	for _, im := range frames {
		pal, indices, transparentIdx, err := quantizeFrame(im)
		if err != nil {
			return nil, err
		}

		out = appendGCE(out, opts.DelayCenti, transparentIdx)
		out = appendImageDescriptor(out, width, height, pal)
		out = append(out, lzw.Encode(indices, 8)...)
	}

	out = append(out, trailer)
	return out, nil
}

func appendUint16(out []byte, v int) []byte {
	return append(out, byte(v), byte(v>>8))
}

func appendNetscapeLoop(out []byte) []byte {
	out = append(out, extIntroducer, extApplication)
	out = append(out, 11)
	out = append(out, "NETSCAPE2.0"...)
	out = append(out, 3, 1, 0, 0)
	out = append(out, 0)
	return out
}

func appendGCE(out []byte, delayCenti, transparentIdx int) []byte {
	out = append(out, extIntroducer, extGraphicCtrl, 4)
	flags := byte(0x01) << 2 // disposal = "do not dispose"
	if transparentIdx != 0xFF {
		flags |= 0x01
	}
	out = append(out, flags)
	out = appendUint16(out, delayCenti)
	if transparentIdx == 0xFF {
		out = append(out, 0x00)
	} else {
		out = append(out, byte(transparentIdx))
	}
	out = append(out, 0)
	return out
}

func appendImageDescriptor(out []byte, width, height int, pal quantize.Palette) []byte {
	out = append(out, imageSeparator)
	out = appendUint16(out, 0)
	out = appendUint16(out, 0)
	out = appendUint16(out, width)
	out = appendUint16(out, height)

	sizeBits := 0
	for (1 << uint(sizeBits+1)) < len(pal) {
		sizeBits++
	}
	out = append(out, 0x80|byte(sizeBits))
	for _, c := range pal {
		out = append(out, c.R, c.G, c.B)
	}
	return out
}

// quantizeFrame builds a <=256-entry palette (direct if the image already
// has few enough distinct colors, else Median-Cut) and maps every pixel to
// a palette index. If the image has any transparency, index 0xFF is
// reserved as the transparent color and the real palette is built from the
// remaining <=255 slots.
func quantizeFrame(im *raster.Image) (pal quantize.Palette, indices []byte, transparentIdx int, err error) {
	rgb := im.ToRGB()
	hist := quantize.BuildHistogram(rgb)

	hasAlpha := im.HasAlpha()
	maxColors := 256
	if hasAlpha {
		maxColors = 255
	}
	pal = quantize.MedianCut(hist, maxColors)

	transparentIdx = 0xFF
	if hasAlpha {
		transparentIdx = len(pal)
		pal = append(pal, quantize.RGB{})
		// The color table size field only encodes powers of two; re-pad
		// now that the transparent slot has been appended.
		for !isPowerOfTwo(len(pal)) {
			pal = append(pal, quantize.RGB{})
		}
	}

	indices = make([]byte, im.Width*im.Height)
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			r, g, b, a := im.At(x, y)
			if a == 0 && hasAlpha {
				indices[y*im.Width+x] = byte(transparentIdx)
				continue
			}
			indices[y*im.Width+x] = byte(quantize.NearestIndex(pal, quantize.RGB{R: r, G: g, B: b}))
		}
	}
	return pal, indices, transparentIdx, nil
}

func isPowerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }
