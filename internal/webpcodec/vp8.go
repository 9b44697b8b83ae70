package webpcodec

import (
	"github.com/deepteams/imageio/internal/bitio"
	"github.com/deepteams/imageio/internal/dsp"
	"github.com/deepteams/imageio/internal/raster"
)

// vp8Bias centers the signed per-block DC residual index in an unsigned
// field so it can be carried with BoolWriter/BoolReader's uniform-probability
// (prob=128) bit routines, matching the spec's fixed-probability model.
const (
	vp8Bias    = 512
	vp8IdxBits = 10
)

// EncodeVP8 writes a keyframe-only VP8 lossy payload for im (not wrapped in
// RIFF): a 10-byte uncompressed frame header (tag, start code, dimensions)
// followed by a bool-coded partition carrying one DC-predicted, quantized
// residual per macroblock per plane. There is no mode tree, no AC
// coefficients, and no real probability model — every bit is coded at
// probability 128, and prediction is always DC, per the lossy path's stated
// scope.
func EncodeVP8(im *raster.Image, quality int) []byte {
	quant := quantFromQuality(quality)
	mbCols := (im.Width + 15) / 16
	mbRows := (im.Height + 15) / 16
	yStride := mbCols * 16
	cStride := mbCols * 8

	srcY, srcU, srcV := toYUV420(im, mbCols*16, mbRows*16)
	reconY := make([]byte, yStride*mbRows*16)
	reconU := make([]byte, cStride*mbRows*8)
	reconV := make([]byte, cStride*mbRows*8)

	bw := bitio.NewBoolWriter(mbCols * mbRows * 4)
	for mbY := 0; mbY < mbRows; mbY++ {
		for mbX := 0; mbX < mbCols; mbX++ {
			encodeBlock(bw, srcY, reconY, yStride, mbX*16, mbY*16, 16, quant)
			encodeBlock(bw, srcU, reconU, cStride, mbX*8, mbY*8, 8, quant)
			encodeBlock(bw, srcV, reconV, cStride, mbX*8, mbY*8, 8, quant)
		}
	}
	partition := bw.Finish()

	out := make([]byte, 0, 10+len(partition))
	out = appendFrameTag(out)
	out = append(out, 0x9d, 0x01, 0x2a)
	out = appendDim(out, im.Width)
	out = appendDim(out, im.Height)
	out = append(out, partition...)
	return out
}

// DecodeVP8 reverses EncodeVP8's bool-coded DC-residual stream for an image
// of the given dimensions. payload is the raw VP8 chunk contents (frame
// header included). alphaData is the raw payload of a sibling ALPH chunk
// (nil if the extended container carried none); only its uncompressed,
// unfiltered form is understood, matching the VP8L "simple path" restriction
// the rest of this package documents.
func DecodeVP8(payload []byte, width, height int, alphaData []byte) (*raster.Image, error) {
	if len(payload) < 10 {
		return nil, ErrTruncatedVP8
	}
	quant := quantFromQuality(0) // decoder has no quality signal, matches encoder's default path
	mbCols := (width + 15) / 16
	mbRows := (height + 15) / 16
	yStride := mbCols * 16
	cStride := mbCols * 8

	reconY := make([]byte, yStride*mbRows*16)
	reconU := make([]byte, cStride*mbRows*8)
	reconV := make([]byte, cStride*mbRows*8)

	br := bitio.NewBoolReader(payload[10:])
	for mbY := 0; mbY < mbRows; mbY++ {
		for mbX := 0; mbX < mbCols; mbX++ {
			decodeBlock(br, reconY, yStride, mbX*16, mbY*16, 16, quant)
			decodeBlock(br, reconU, cStride, mbX*8, mbY*8, 8, quant)
			decodeBlock(br, reconV, cStride, mbX*8, mbY*8, 8, quant)
		}
	}

	alpha := decodeALPH(alphaData, width, height)
	layout := raster.AlphaNone
	if alpha != nil {
		layout = raster.AlphaLast
	}
	im := raster.NewImage(width, height, layout)
	var rgb [3]byte
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			yy := int(reconY[y*yStride+x])
			cu := int(reconU[(y/2)*cStride+(x/2)])
			cv := int(reconV[(y/2)*cStride+(x/2)])
			dsp.YUVToRGB(yy, cu, cv, rgb[:])
			a := byte(255)
			if alpha != nil {
				a = alpha[y*width+x]
			}
			im.Set(x, y, rgb[0], rgb[1], rgb[2], a)
		}
	}
	return im, nil
}

// decodeALPH returns the per-pixel alpha plane (row-major, width*height
// bytes) an ALPH chunk carries, or nil if data is absent or uses a
// compression/filtering method this package doesn't implement (lossless
// ALPH payloads are themselves a restricted VP8L stream, and filtered
// payloads need the predictor math libwebp's alpha_dec.c applies — neither
// has a caller elsewhere in this package's simple-path lossy/lossless
// codecs, so untangling them here isn't worth the risk of getting the
// un-testable math wrong).
func decodeALPH(data []byte, width, height int) []byte {
	if len(data) < 1 {
		return nil
	}
	header := data[0]
	compression := header & 0x3
	filter := (header >> 2) & 0x3
	if compression != 0 || filter != 0 {
		return nil
	}
	plane := data[1:]
	if len(plane) < width*height {
		return nil
	}
	return plane[:width*height]
}

func quantFromQuality(quality int) int {
	if quality <= 0 {
		quality = 75
	}
	q := 127 - (quality*127)/100
	if q < 1 {
		q = 1
	}
	if q > 127 {
		q = 127
	}
	return q
}

func appendFrameTag(out []byte) []byte {
	// keyframe (bit0=0), version 0, show_frame=1, first_part_size unused (0).
	tag := uint32(1) << 4
	return append(out, byte(tag), byte(tag>>8), byte(tag>>16))
}

func appendDim(out []byte, v int) []byte {
	return append(out, byte(v), byte(v>>8))
}

// predictDC averages the already-reconstructed row above and column to the
// left of a block (rounded mean, 128 when neither exists), reading directly
// from a full-frame plane.
func predictDC(plane []byte, stride, bx, by, size int) int {
	sum, count := 0, 0
	if by > 0 {
		row := (by - 1) * stride
		for i := 0; i < size; i++ {
			sum += int(plane[row+bx+i])
			count++
		}
	}
	if bx > 0 {
		col := bx - 1
		for j := 0; j < size; j++ {
			sum += int(plane[(by+j)*stride+col])
			count++
		}
	}
	if count == 0 {
		return 128
	}
	return (sum + count/2) / count
}

func blockAverage(plane []byte, stride, bx, by, size int) int {
	sum := 0
	for j := 0; j < size; j++ {
		row := (by + j) * stride
		for i := 0; i < size; i++ {
			sum += int(plane[row+bx+i])
		}
	}
	return sum / (size * size)
}

func fillBlock(plane []byte, stride, bx, by, size int, v byte) {
	for j := 0; j < size; j++ {
		row := (by + j) * stride
		for i := 0; i < size; i++ {
			plane[row+bx+i] = v
		}
	}
}

func encodeBlock(bw *bitio.BoolWriter, src, recon []byte, stride, bx, by, size, quant int) {
	pred := predictDC(recon, stride, bx, by, size)
	avg := blockAverage(src, stride, bx, by, size)
	qIndex := (avg - pred) / quant
	qIndex = clampIdx(qIndex)
	v := dsp.Clip8b(pred + qIndex*quant)
	fillBlock(recon, stride, bx, by, size, v)
	bw.PutBits(uint32(qIndex+vp8Bias), vp8IdxBits)
}

func decodeBlock(br *bitio.BoolReader, recon []byte, stride, bx, by, size, quant int) {
	pred := predictDC(recon, stride, bx, by, size)
	qIndex := int(br.GetValue(vp8IdxBits)) - vp8Bias
	v := dsp.Clip8b(pred + qIndex*quant)
	fillBlock(recon, stride, bx, by, size, v)
}

func clampIdx(v int) int {
	if v < -vp8Bias {
		return -vp8Bias
	}
	if v > vp8Bias-1 {
		return vp8Bias - 1
	}
	return v
}

// toYUV420 converts im into padded Y (full resolution) and 4:2:0-subsampled
// U/V planes (box-averaged, not real pixel filtering) sized paddedW x
// paddedH / (paddedW/2 x paddedH/2).
func toYUV420(im *raster.Image, paddedW, paddedH int) (y, u, v []byte) {
	y = make([]byte, paddedW*paddedH)
	cw, ch := paddedW/2, paddedH/2
	u = make([]byte, cw*ch)
	v = make([]byte, cw*ch)

	at := func(x, yy int) (r, g, b uint8) {
		if x >= im.Width {
			x = im.Width - 1
		}
		if yy >= im.Height {
			yy = im.Height - 1
		}
		r, g, b, _ = im.At(x, yy)
		return
	}

	for yy := 0; yy < paddedH; yy++ {
		for x := 0; x < paddedW; x++ {
			r, g, b := at(x, yy)
			y[yy*paddedW+x] = dsp.RGBToY(int(r), int(g), int(b))
		}
	}
	rounding := 1 << (dsp.YUVFix - 1)
	for cy := 0; cy < ch; cy++ {
		for cx := 0; cx < cw; cx++ {
			var su, sv int
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					r, g, b := at(cx*2+dx, cy*2+dy)
					su += int(dsp.RGBToU(int(r), int(g), int(b), rounding))
					sv += int(dsp.RGBToV(int(r), int(g), int(b), rounding))
				}
			}
			u[cy*cw+cx] = byte(su / 4)
			v[cy*cw+cx] = byte(sv / 4)
		}
	}
	return y, u, v
}
