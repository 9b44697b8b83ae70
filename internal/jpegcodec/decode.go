package jpegcodec

import (
	"encoding/binary"
	"errors"

	"github.com/deepteams/imageio/internal/bitio"
	"github.com/deepteams/imageio/internal/raster"
)

var (
	ErrNotJPEG       = errors.New("jpegcodec: missing SOI marker")
	ErrNoSOF         = errors.New("jpegcodec: no SOF0 segment found")
	ErrUnsupported   = errors.New("jpegcodec: unsupported JPEG feature (progressive, arithmetic coding, or non-4:4:4 subsampling)")
	ErrTruncated     = errors.New("jpegcodec: truncated segment")
)

// Properties holds what a property query needs without a full pixel
// decode: always extractable from any syntactically valid baseline or
// extended SOF header.
type Properties struct {
	Width, Height int
	NumComponents int // 1 = gray, 3 = YCbCr
}

type component struct {
	id       byte
	hSamp    byte
	vSamp    byte
	quantSel byte
	dcSel    byte
	acSel    byte
}

// ReadProperties scans just far enough to find SOF0/SOF1 and extract
// dimensions and component count, without touching quantization/Huffman
// tables or entropy data.
func ReadProperties(data []byte) (Properties, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return Properties{}, ErrNotJPEG
	}
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			pos++
			continue
		}
		marker := data[pos+1]
		if marker == 0xD8 || marker == 0xD9 || (marker >= 0xD0 && marker <= 0xD7) {
			pos += 2
			continue
		}
		if pos+4 > len(data) {
			break
		}
		segLen := int(binary.BigEndian.Uint16(data[pos+2:]))
		if marker == 0xC0 || marker == 0xC1 {
			seg := data[pos+4:]
			if len(seg) < 5 {
				return Properties{}, ErrTruncated
			}
			height := int(binary.BigEndian.Uint16(seg[1:]))
			width := int(binary.BigEndian.Uint16(seg[3:]))
			numComp := int(seg[5])
			return Properties{Width: width, Height: height, NumComponents: numComp}, nil
		}
		if marker == 0xC2 || (marker >= 0xC3 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC) {
			return Properties{}, ErrUnsupported
		}
		pos += 2 + segLen
	}
	return Properties{}, ErrNoSOF
}

// decodedFrame carries everything needed to reconstruct pixels after the
// header segments have been parsed.
type decodedFrame struct {
	width, height int
	components    []component
	quantTables    [4]*[64]int
	dcTables       [4]*huffmanTable
	acTables       [4]*huffmanTable
	scanData       []byte
}

// Decode fully reconstructs pixels for a baseline, 4:4:4, 8-bit JPEG
// (the only shape this package's own encoder emits). Other syntactically
// valid JPEGs still succeed via ReadProperties but return ErrUnsupported
// here.
func Decode(data []byte) (*raster.Image, error) {
	frame, err := parseFrame(data)
	if err != nil {
		return nil, err
	}
	if len(frame.components) != 3 && len(frame.components) != 1 {
		return nil, ErrUnsupported
	}
	for _, c := range frame.components {
		if c.hSamp != 1 || c.vSamp != 1 {
			return nil, ErrUnsupported // only 4:4:4 fully decodes
		}
	}

	w, h := frame.width, frame.height
	padW := (w + 7) &^ 7
	padH := (h + 7) &^ 7

	planes := make([][]uint8, len(frame.components))
	for i := range planes {
		planes[i] = make([]uint8, padW*padH)
	}

	br := bitio.NewMSBReader(frame.scanData)
	dcPred := make([]int, len(frame.components))

	for by := 0; by < padH; by += 8 {
		for bx := 0; bx < padW; bx += 8 {
			for ci, c := range frame.components {
				quant := frame.quantTables[c.quantSel]
				dcTab := frame.dcTables[c.dcSel]
				acTab := frame.acTables[c.acSel]
				if quant == nil || dcTab == nil || acTab == nil {
					return nil, ErrTruncated
				}
				block, err := decodeBlock(br, *quant, dcTab, acTab, &dcPred[ci])
				if err != nil {
					return nil, err
				}
				writeBlockToPlane(planes[ci], padW, bx, by, block)
			}
		}
	}

	im := raster.NewImage(w, h, raster.AlphaNone)
	if len(frame.components) == 1 {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := planes[0][y*padW+x]
				im.Set(x, y, v, v, v, 255)
			}
		}
		return im, nil
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			yy := planes[0][y*padW+x]
			cb := planes[1][y*padW+x]
			cr := planes[2][y*padW+x]
			r, g, b := yCbCrToRGB(yy, cb, cr)
			im.Set(x, y, r, g, b, 255)
		}
	}
	return im, nil
}

func writeBlockToPlane(plane []uint8, stride, bx, by int, block [64]int) {
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := block[y*8+x] + 128
			plane[(by+y)*stride+bx+x] = clampByte(float64(v))
		}
	}
}

func decodeBlock(br *bitio.MSBReader, quant [64]int, dcTab, acTab *huffmanTable, dcPred *int) ([64]int, error) {
	var zz [64]int

	cat, ok := dcTab.decode(br)
	if !ok {
		return [64]int{}, ErrTruncated
	}
	diff := 0
	if cat > 0 {
		bits := br.ReadBits(uint(cat))
		diff = receiveExtend(bits, int(cat))
	}
	*dcPred += diff
	zz[0] = *dcPred

	k := 1
	for k < 64 {
		rs, ok := acTab.decode(br)
		if !ok {
			return [64]int{}, ErrTruncated
		}
		run := int(rs >> 4)
		size := int(rs & 0x0F)
		if size == 0 {
			if run == 15 {
				k += 16 // ZRL
				continue
			}
			break // EOB
		}
		k += run
		if k >= 64 {
			break
		}
		bits := br.ReadBits(uint(size))
		zz[k] = receiveExtend(bits, size)
		k++
	}

	var natural [64]int
	for i, z := range zigzag {
		natural[z] = zz[i] * quant[z]
	}
	coeff := [64]float64{}
	for i, v := range natural {
		coeff[i] = float64(v)
	}
	return inverseDCT8x8(coeff), nil
}
