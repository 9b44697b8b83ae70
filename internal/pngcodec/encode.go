package pngcodec

import (
	"encoding/binary"

	"github.com/deepteams/imageio/internal/checksum"
	"github.com/deepteams/imageio/internal/deflate"
	"github.com/deepteams/imageio/internal/raster"
)

// Encode writes im as a PNG: signature, IHDR, one filtered+DEFLATEd IDAT,
// IEND. Alpha (if present) encodes as color type 6 (RGBA); otherwise color
// type 2 (RGB), both 8-bit.
func Encode(im *raster.Image) []byte {
	hasAlpha := im.Alpha == raster.AlphaLast || im.Alpha == raster.AlphaPremultipliedLast
	colorType := byte(colorRGB)
	bpp := 3
	if hasAlpha {
		colorType = colorRGBA
		bpp = 4
	}

	rowBytes := im.Width * bpp
	filtered := make([]byte, im.Height*(rowBytes+1))
	prevRow := make([]byte, rowBytes)

	for y := 0; y < im.Height; y++ {
		row := make([]byte, rowBytes)
		for x := 0; x < im.Width; x++ {
			r, g, b, a := im.At(x, y)
			off := x * bpp
			row[off], row[off+1], row[off+2] = r, g, b
			if hasAlpha {
				row[off+3] = a
			}
		}

		ft, data := chooseFilter(row, prevRow, bpp)
		out := filtered[y*(rowBytes+1) : (y+1)*(rowBytes+1)]
		out[0] = ft
		copy(out[1:], data)
		prevRow = row
	}

	compressed := deflate.ZlibCompress(filtered, deflate.BestSpeed)
	if len(compressed) == 0 {
		compressed = deflate.ZlibCompress(filtered, deflate.NoCompression)
	}

	out := append([]byte(nil), signature[:]...)
	out = appendChunk(out, "IHDR", ihdrPayload(im.Width, im.Height, colorType))
	out = appendChunk(out, "IDAT", compressed)
	out = appendChunk(out, "IEND", nil)
	return out
}

func ihdrPayload(width, height int, colorType byte) []byte {
	p := make([]byte, 13)
	binary.BigEndian.PutUint32(p[0:], uint32(width))
	binary.BigEndian.PutUint32(p[4:], uint32(height))
	p[8] = 8 // bit depth
	p[9] = colorType
	p[10] = 0 // compression method
	p[11] = 0 // filter method
	p[12] = 0 // no interlace
	return p
}

func appendChunk(out []byte, typ string, payload []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	out = append(out, lenBuf[:]...)
	start := len(out)
	out = append(out, typ...)
	out = append(out, payload...)
	crc := checksum.CRC32(out[start:])
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], crc)
	out = append(out, crcBuf[:]...)
	return out
}
