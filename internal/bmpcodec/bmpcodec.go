// Package bmpcodec implements BMP decode (BITMAPINFOHEADER/BITMAPV4HEADER,
// 24-bit BGR and 32-bit BGRA) and encode (24-bit BGR, or 32-bit BGRA with
// BITMAPV4HEADER color masks when the source has alpha).
package bmpcodec

import (
	"encoding/binary"
	"errors"

	"github.com/deepteams/imageio/internal/raster"
)

var (
	ErrNotBMP      = errors.New("bmpcodec: missing BM signature")
	ErrTruncated   = errors.New("bmpcodec: truncated header or pixel data")
	ErrUnsupported = errors.New("bmpcodec: unsupported bit depth or compression")
)

const fileHeaderSize = 14

// Decode parses a BMP byte stream into a pixel buffer.
func Decode(data []byte) (*raster.Image, error) {
	if len(data) < fileHeaderSize+4 || data[0] != 'B' || data[1] != 'M' {
		return nil, ErrNotBMP
	}
	pixelOffset := int(binary.LittleEndian.Uint32(data[10:]))
	dibHeaderSize := int(binary.LittleEndian.Uint32(data[14:]))
	if len(data) < fileHeaderSize+dibHeaderSize {
		return nil, ErrTruncated
	}
	dib := data[fileHeaderSize:]

	width := int(int32(binary.LittleEndian.Uint32(dib[4:])))
	height := int(int32(binary.LittleEndian.Uint32(dib[8:])))
	bitsPerPixel := int(binary.LittleEndian.Uint16(dib[14:]))
	compression := binary.LittleEndian.Uint32(dib[16:])

	if compression != 0 && compression != 3 { // 0 = BI_RGB, 3 = BI_BITFIELDS
		return nil, ErrUnsupported
	}
	if bitsPerPixel != 24 && bitsPerPixel != 32 {
		return nil, ErrUnsupported
	}

	topDown := height < 0
	if topDown {
		height = -height
	}

	bpp := bitsPerPixel / 8
	rowSize := ((width*bitsPerPixel + 31) / 32) * 4
	needed := pixelOffset + rowSize*height
	if len(data) < needed {
		return nil, ErrTruncated
	}

	alpha := raster.AlphaNone
	if bpp == 4 {
		alpha = raster.AlphaLast
	}
	im := raster.NewImage(width, height, alpha)

	for row := 0; row < height; row++ {
		srcRow := row
		if !topDown {
			srcRow = height - 1 - row
		}
		base := pixelOffset + srcRow*rowSize
		for x := 0; x < width; x++ {
			off := base + x*bpp
			b, g, r := data[off], data[off+1], data[off+2]
			a := byte(255)
			if bpp == 4 {
				a = data[off+3]
			}
			im.Set(x, row, r, g, b, a)
		}
	}
	return im, nil
}

// Encode writes im as BMP: 24-bit BGR if preserveAlpha is false or im has
// no alpha, otherwise 32-bit BGRA with a BITMAPV4HEADER and explicit color
// masks.
func Encode(im *raster.Image, preserveAlpha bool) []byte {
	hasAlpha := preserveAlpha && im.HasAlpha()
	if hasAlpha {
		return encodeV4(im)
	}
	return encode24(im)
}

func encode24(im *raster.Image) []byte {
	bpp := 3
	rowSize := ((im.Width*24 + 31) / 32) * 4
	pixelOffset := fileHeaderSize + 40
	fileSize := pixelOffset + rowSize*im.Height

	out := make([]byte, 0, fileSize)
	out = appendFileHeader(out, fileSize, pixelOffset)
	out = appendBITMAPINFOHEADER(out, im.Width, im.Height, 24, 0)
	out = appendPixels(out, im, bpp, rowSize, false)
	return out
}

func encodeV4(im *raster.Image) []byte {
	bpp := 4
	rowSize := ((im.Width*32 + 31) / 32) * 4
	pixelOffset := fileHeaderSize + 108
	fileSize := pixelOffset + rowSize*im.Height

	out := make([]byte, 0, fileSize)
	out = appendFileHeader(out, fileSize, pixelOffset)
	out = appendBITMAPV4HEADER(out, im.Width, im.Height)
	out = appendPixels(out, im, bpp, rowSize, true)
	return out
}

func appendFileHeader(out []byte, fileSize, pixelOffset int) []byte {
	out = append(out, 'B', 'M')
	out = appendU32(out, uint32(fileSize))
	out = appendU32(out, 0) // reserved
	out = appendU32(out, uint32(pixelOffset))
	return out
}

func appendBITMAPINFOHEADER(out []byte, width, height, bpp int, compression uint32) []byte {
	out = appendU32(out, 40)
	out = appendU32(out, uint32(width))
	out = appendU32(out, uint32(height))
	out = appendU16(out, 1) // planes
	out = appendU16(out, uint16(bpp))
	out = appendU32(out, compression)
	out = appendU32(out, 0) // image size (0 = unspecified for BI_RGB)
	out = appendU32(out, 2835)
	out = appendU32(out, 2835)
	out = appendU32(out, 0)
	out = appendU32(out, 0)
	return out
}

func appendBITMAPV4HEADER(out []byte, width, height int) []byte {
	out = appendU32(out, 108)
	out = appendU32(out, uint32(width))
	out = appendU32(out, uint32(height))
	out = appendU16(out, 1)
	out = appendU16(out, 32)
	out = appendU32(out, 3) // BI_BITFIELDS
	out = appendU32(out, 0)
	out = appendU32(out, 2835)
	out = appendU32(out, 2835)
	out = appendU32(out, 0)
	out = appendU32(out, 0)
	out = appendU32(out, 0x00FF0000) // red mask
	out = appendU32(out, 0x0000FF00) // green mask
	out = appendU32(out, 0x000000FF) // blue mask
	out = appendU32(out, 0xFF000000) // alpha mask
	out = append(out, "sRGB"...)     // colorspace tag (LCS_sRGB), stored as 4 ASCII bytes little-endian
	out = append(out, make([]byte, 36)...) // endpoints (ignored for sRGB)
	out = appendU32(out, 0)                // gamma red
	out = appendU32(out, 0)                // gamma green
	out = appendU32(out, 0)                // gamma blue
	return out
}

func appendPixels(out []byte, im *raster.Image, bpp, rowSize int, alpha bool) []byte {
	for row := 0; row < im.Height; row++ {
		srcY := im.Height - 1 - row // bottom-up
		rowStart := len(out)
		for x := 0; x < im.Width; x++ {
			r, g, b, a := im.At(x, srcY)
			out = append(out, b, g, r)
			if alpha {
				out = append(out, a)
			}
		}
		for len(out)-rowStart < rowSize {
			out = append(out, 0)
		}
	}
	return out
}

func appendU16(out []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(out, b[:]...)
}

func appendU32(out []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(out, b[:]...)
}
