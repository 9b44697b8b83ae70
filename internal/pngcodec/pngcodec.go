// Package pngcodec implements PNG decode and encode: chunk framing,
// paeth/sub/up/average row filters, and the zlib-wrapped DEFLATE IDAT
// stream (via internal/deflate).
package pngcodec

import (
	"encoding/binary"
	"errors"

	"github.com/deepteams/imageio/internal/checksum"
	"github.com/deepteams/imageio/internal/deflate"
	"github.com/deepteams/imageio/internal/metadata"
	"github.com/deepteams/imageio/internal/raster"
)

var signature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

var (
	ErrNotPNG           = errors.New("pngcodec: missing PNG signature")
	ErrUnknownCritical  = errors.New("pngcodec: unrecognized critical chunk")
	ErrTruncated        = errors.New("pngcodec: truncated chunk")
	ErrBadCRC           = errors.New("pngcodec: chunk CRC mismatch")
	ErrUnsupportedDepth = errors.New("pngcodec: unsupported bit depth or color type")
	ErrMissingIHDR      = errors.New("pngcodec: missing IHDR")
)

const (
	colorGray       = 0
	colorRGB        = 2
	colorPalette    = 3
	colorGrayAlpha  = 4
	colorRGBA       = 6
)

type ihdr struct {
	width, height       int
	bitDepth, colorType byte
	interlace           byte
}

func bytesPerPixelFor(colorType byte) int {
	switch colorType {
	case colorGray:
		return 1
	case colorRGB:
		return 3
	case colorPalette:
		return 1
	case colorGrayAlpha:
		return 2
	case colorRGBA:
		return 4
	}
	return 0
}

// Decode parses a PNG byte stream into a pixel buffer and any metadata
// recovered from tEXt/zTXt/pHYs/gAMA/cHRM chunks.
func Decode(data []byte) (*raster.Image, *metadata.Metadata, error) {
	if len(data) < 8 || [8]byte(data[:8]) != signature {
		return nil, nil, ErrNotPNG
	}
	pos := 8
	var hdr *ihdr
	var palette [][3]byte
	var trns []byte
	var idat []byte
	meta := metadata.New()

	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos:]))
		typ := string(data[pos+4 : pos+8])
		if pos+8+length+4 > len(data) {
			return nil, nil, ErrTruncated
		}
		payload := data[pos+8 : pos+8+length]
		crcWant := binary.BigEndian.Uint32(data[pos+8+length:])
		crcGot := checksum.CRC32(data[pos+4 : pos+8+length])
		if crcGot != crcWant {
			return nil, nil, ErrBadCRC
		}

		switch typ {
		case "IHDR":
			if len(payload) < 13 {
				return nil, nil, ErrTruncated
			}
			hdr = &ihdr{
				width:     int(binary.BigEndian.Uint32(payload[0:])),
				height:    int(binary.BigEndian.Uint32(payload[4:])),
				bitDepth:  payload[8],
				colorType: payload[9],
				interlace: payload[12],
			}
		case "PLTE":
			for i := 0; i+2 < len(payload); i += 3 {
				palette = append(palette, [3]byte{payload[i], payload[i+1], payload[i+2]})
			}
		case "tRNS":
			trns = append([]byte(nil), payload...)
		case "IDAT":
			idat = append(idat, payload...)
		case "gAMA":
			if len(payload) >= 4 {
				meta.SetInt("png:gAMA", int64(binary.BigEndian.Uint32(payload)))
			}
		case "cHRM":
			meta.SetString("png:cHRM", "present")
		case "pHYs":
			if len(payload) >= 9 {
				meta.SetInt("png:pHYsX", int64(binary.BigEndian.Uint32(payload[0:])))
				meta.SetInt("png:pHYsY", int64(binary.BigEndian.Uint32(payload[4:])))
			}
		case "tEXt":
			parseTEXt(meta, payload)
		case "zTXt":
			parseZTXt(meta, payload)
		case "IEND":
			pos += 8 + length + 4
			goto parsed
		default:
			if isCritical(typ) {
				return nil, nil, ErrUnknownCritical
			}
			// unknown ancillary: skip
		}
		pos += 8 + length + 4
	}
parsed:
	if hdr == nil {
		return nil, nil, ErrMissingIHDR
	}
	if hdr.bitDepth != 8 {
		return nil, nil, ErrUnsupportedDepth
	}

	raw, err := deflate.ZlibDecompress(idat)
	if err != nil {
		return nil, nil, err
	}

	im, err := unfilterAndConvert(raw, hdr, palette, trns)
	if err != nil {
		return nil, nil, err
	}
	return im, meta, nil
}

func isCritical(typ string) bool {
	return typ[0] >= 'A' && typ[0] <= 'Z'
}

func parseTEXt(meta *metadata.Metadata, payload []byte) {
	for i, b := range payload {
		if b == 0 {
			meta.SetString("png:text:"+string(payload[:i]), string(payload[i+1:]))
			return
		}
	}
}

func parseZTXt(meta *metadata.Metadata, payload []byte) {
	for i, b := range payload {
		if b == 0 {
			if i+1 >= len(payload) {
				return
			}
			// payload[i+1] is the compression method (always 0 = zlib/deflate).
			text, err := deflate.ZlibDecompress(payload[i+2:])
			if err != nil {
				return
			}
			meta.SetString("png:text:"+string(payload[:i]), string(text))
			return
		}
	}
}
