package jpegcodec

import (
	"math"

	"github.com/deepteams/imageio/internal/bitio"
	"github.com/deepteams/imageio/internal/raster"
)

// EncodeOptions configures baseline JPEG encoding.
type EncodeOptions struct {
	// Quality is the IJG-style quality factor, 1..100.
	Quality int
}

// Encode writes a baseline sequential, 4:4:4, 8-bit JPEG for im.
func Encode(im *raster.Image, opts EncodeOptions) []byte {
	quality := opts.Quality
	if quality <= 0 {
		quality = 75
	}
	lumaQ := scaleQuantTable(stdLuminanceQuantTable, quality)
	chromaQ := scaleQuantTable(stdChrominanceQuantTable, quality)

	w := im.Width
	h := im.Height
	padW := (w + 7) &^ 7
	padH := (h + 7) &^ 7

	yPlane := make([]uint8, padW*padH)
	cbPlane := make([]uint8, padW*padH)
	crPlane := make([]uint8, padW*padH)
	for y := 0; y < padH; y++ {
		sy := y
		if sy >= h {
			sy = h - 1
		}
		for x := 0; x < padW; x++ {
			sx := x
			if sx >= w {
				sx = w - 1
			}
			r, g, b, _ := im.At(sx, sy)
			yy, cb, cr := rgbToYCbCr(r, g, b)
			yPlane[y*padW+x] = yy
			cbPlane[y*padW+x] = cb
			crPlane[y*padW+x] = cr
		}
	}

	var out []byte
	out = append(out, 0xFF, 0xD8) // SOI
	out = appendJFIFHeader(out)
	out = appendDQT(out, 0, lumaQ)
	out = appendDQT(out, 1, chromaQ)
	out = appendSOF0(out, w, h)

	dcLumaEnc := buildEncodeTable(stdDCLuminanceTable())
	dcChromaEnc := buildEncodeTable(stdDCChrominanceTable())
	acLumaEnc := buildEncodeTable(stdACLuminanceTable())
	acChromaEnc := buildEncodeTable(stdACChrominanceTable())

	out = appendDHT(out, 0, 0, stdDCLuminanceBits, stdDCLuminanceValues)
	out = appendDHT(out, 1, 0, stdACLuminanceBits, stdACLuminanceValues)
	out = appendDHT(out, 0, 1, stdDCChrominanceBits, stdDCChrominanceValues)
	out = appendDHT(out, 1, 1, stdACChrominanceBits, stdACChrominanceValues)

	out = appendSOS(out)

	bw := bitio.NewMSBWriter(padW * padH)
	var dcPredY, dcPredCb, dcPredCr int

	for by := 0; by < padH; by += 8 {
		for bx := 0; bx < padW; bx += 8 {
			encodeBlock(bw, extractBlock(yPlane, padW, bx, by), lumaQ, dcLumaEnc, acLumaEnc, &dcPredY)
			encodeBlock(bw, extractBlock(cbPlane, padW, bx, by), chromaQ, dcChromaEnc, acChromaEnc, &dcPredCb)
			encodeBlock(bw, extractBlock(crPlane, padW, bx, by), chromaQ, dcChromaEnc, acChromaEnc, &dcPredCr)
		}
	}

	out = append(out, bw.Bytes()...)
	out = append(out, 0xFF, 0xD9) // EOI
	return out
}

func extractBlock(plane []uint8, stride, bx, by int) [64]int {
	var block [64]int
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			block[y*8+x] = int(plane[(by+y)*stride+bx+x]) - 128
		}
	}
	return block
}

func encodeBlock(bw *bitio.MSBWriter, block [64]int, quant [64]int, dcEnc, acEnc *huffmanEncodeTable, dcPred *int) {
	coeff := forwardDCT8x8(block)

	var quantized [64]int
	for i, v := range coeff {
		quantized[i] = int(math.Round(v / float64(quant[i])))
	}

	var zz [64]int
	for i, z := range zigzag {
		zz[i] = quantized[z]
	}

	dc := zz[0]
	diff := dc - *dcPred
	*dcPred = dc
	cat := bitSize(diff)
	dcEnc.write(bw, byte(cat))
	if cat > 0 {
		bw.WriteBits(signedBits(diff, cat), uint(cat))
	}

	run := 0
	for k := 1; k < 64; k++ {
		v := zz[k]
		if v == 0 {
			run++
			continue
		}
		for run > 15 {
			acEnc.write(bw, 0xF0) // ZRL
			run -= 16
		}
		cat := bitSize(v)
		acEnc.write(bw, byte(run<<4|cat))
		bw.WriteBits(signedBits(v, cat), uint(cat))
		run = 0
	}
	if run > 0 {
		acEnc.write(bw, 0x00) // EOB
	}
}

// signedBits encodes v (nonzero) into its category's bit pattern (Annex
// F.1.2.1): positive values are their own bits; negative values are
// one's-complemented.
func signedBits(v, category int) uint32 {
	if v < 0 {
		v += 1<<uint(category) - 1
	}
	return uint32(v)
}
