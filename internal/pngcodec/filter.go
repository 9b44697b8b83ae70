package pngcodec

import (
	"github.com/deepteams/imageio/internal/pool"
	"github.com/deepteams/imageio/internal/raster"
)

const (
	filterNone = iota
	filterSub
	filterUp
	filterAverage
	filterPaeth
)

func paeth(a, b, c byte) byte {
	pa := abs(int(b) - int(c))
	pb := abs(int(a) - int(c))
	pc := abs(int(a) + int(b) - 2*int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// unfilterAndConvert reverses the per-row PNG filter and maps the result
// through the color type (gray/RGB/palette/gray-alpha/RGBA) into a
// raster.Image.
func unfilterAndConvert(raw []byte, hdr *ihdr, palette [][3]byte, trns []byte) (*raster.Image, error) {
	bpp := bytesPerPixelFor(hdr.colorType)
	if bpp == 0 {
		return nil, ErrUnsupportedDepth
	}
	rowBytes := hdr.width * bpp
	expected := hdr.height * (rowBytes + 1)
	if len(raw) < expected {
		return nil, ErrTruncated
	}

	pixels := make([]byte, hdr.height*rowBytes)
	prevRow := make([]byte, rowBytes)
	pos := 0
	for y := 0; y < hdr.height; y++ {
		ft := raw[pos]
		pos++
		row := raw[pos : pos+rowBytes]
		pos += rowBytes
		out := pixels[y*rowBytes : (y+1)*rowBytes]

		for x := 0; x < rowBytes; x++ {
			var a, c byte
			if x >= bpp {
				a = out[x-bpp]
				c = prevRow[x-bpp]
			}
			b := prevRow[x]
			var raw2 byte
			switch ft {
			case filterNone:
				raw2 = row[x]
			case filterSub:
				raw2 = row[x] + a
			case filterUp:
				raw2 = row[x] + b
			case filterAverage:
				raw2 = row[x] + byte((int(a)+int(b))/2)
			case filterPaeth:
				raw2 = row[x] + paeth(a, b, c)
			default:
				return nil, ErrTruncated
			}
			out[x] = raw2
		}
		prevRow = out
	}

	hasAlpha := hdr.colorType == colorRGBA || hdr.colorType == colorGrayAlpha || (hdr.colorType == colorPalette && len(trns) > 0)
	alphaLayout := raster.AlphaNone
	if hasAlpha {
		alphaLayout = raster.AlphaLast
	}
	im := raster.NewImage(hdr.width, hdr.height, alphaLayout)

	for y := 0; y < hdr.height; y++ {
		for x := 0; x < hdr.width; x++ {
			off := y*rowBytes + x*bpp
			switch hdr.colorType {
			case colorGray:
				v := pixels[off]
				im.Set(x, y, v, v, v, 255)
			case colorGrayAlpha:
				v, a := pixels[off], pixels[off+1]
				im.Set(x, y, v, v, v, a)
			case colorRGB:
				im.Set(x, y, pixels[off], pixels[off+1], pixels[off+2], 255)
			case colorRGBA:
				im.Set(x, y, pixels[off], pixels[off+1], pixels[off+2], pixels[off+3])
			case colorPalette:
				idx := int(pixels[off])
				if idx >= len(palette) {
					return nil, ErrTruncated
				}
				p := palette[idx]
				a := byte(255)
				if idx < len(trns) {
					a = trns[idx]
				}
				im.Set(x, y, p[0], p[1], p[2], a)
			}
		}
	}
	return im, nil
}

// chooseFilter picks, per row, the filter minimizing the sum of the
// filtered bytes interpreted as signed (two's-complement) values — the
// standard "minimum sum of absolute differences" heuristic.
func chooseFilter(row, prevRow []byte, bpp int) (byte, []byte) {
	var candidates [5][]byte
	for ft := filterNone; ft <= filterPaeth; ft++ {
		candidates[ft] = applyFilter(ft, row, prevRow, bpp)
	}

	best := byte(filterNone)
	bestSum := sumSignedAbs(candidates[filterNone])
	for ft := filterSub; ft <= filterPaeth; ft++ {
		s := sumSignedAbs(candidates[ft])
		if s < bestSum {
			bestSum = s
			best = byte(ft)
		}
	}

	result := make([]byte, len(row))
	copy(result, candidates[best])
	for _, c := range candidates {
		pool.Put(c)
	}
	return best, result
}

func sumSignedAbs(filtered []byte) int {
	sum := 0
	for _, b := range filtered {
		v := int(int8(b))
		if v < 0 {
			v = -v
		}
		sum += v
	}
	return sum
}

func applyFilter(ft int, row, prevRow []byte, bpp int) []byte {
	out := pool.Get(len(row))
	for x := 0; x < len(row); x++ {
		var a, c byte
		if x >= bpp {
			a = row[x-bpp]
			c = prevRow[x-bpp]
		}
		b := prevRow[x]
		switch ft {
		case filterNone:
			out[x] = row[x]
		case filterSub:
			out[x] = row[x] - a
		case filterUp:
			out[x] = row[x] - b
		case filterAverage:
			out[x] = row[x] - byte((int(a)+int(b))/2)
		case filterPaeth:
			out[x] = row[x] - paeth(a, b, c)
		}
	}
	return out
}
