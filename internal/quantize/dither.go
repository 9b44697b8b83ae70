package quantize

// FloydSteinberg quantizes an RGB image (width*height*3 bytes, row-major)
// against pal using Floyd-Steinberg error diffusion and returns one palette
// index per pixel.
//
// Scan order is left-to-right, top-to-bottom (no serpentine). A two-row
// rolling buffer of signed error accumulates in R/G/B separately; nearest
// color is chosen by the weighted distance 2*dr^2 + 4*dg^2 + 3*db^2, which
// approximates luminance sensitivity better than plain Euclidean distance
// without pulling in a general color-space conversion.
func FloydSteinberg(pixels []byte, width, height int, pal Palette) []byte {
	type errPixel struct{ r, g, b int32 }

	curRow := make([]errPixel, width)
	nextRow := make([]errPixel, width)
	indices := make([]byte, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := (y*width + x) * 3
			r := int32(pixels[off]) + curRow[x].r
			g := int32(pixels[off+1]) + curRow[x].g
			b := int32(pixels[off+2]) + curRow[x].b

			cr := clampToByte(r)
			cg := clampToByte(g)
			cb := clampToByte(b)

			idx := nearestPerceptual(pal, cr, cg, cb)
			indices[y*width+x] = byte(idx)

			chosen := pal[idx]
			er := r - int32(chosen.R)
			eg := g - int32(chosen.G)
			eb := b - int32(chosen.B)

			if x+1 < width {
				curRow[x+1].r += er * 7 / 16
				curRow[x+1].g += eg * 7 / 16
				curRow[x+1].b += eb * 7 / 16
			}
			if y+1 < height {
				if x > 0 {
					nextRow[x-1].r += er * 3 / 16
					nextRow[x-1].g += eg * 3 / 16
					nextRow[x-1].b += eb * 3 / 16
				}
				nextRow[x].r += er * 5 / 16
				nextRow[x].g += eg * 5 / 16
				nextRow[x].b += eb * 5 / 16
				if x+1 < width {
					nextRow[x+1].r += er * 1 / 16
					nextRow[x+1].g += eg * 1 / 16
					nextRow[x+1].b += eb * 1 / 16
				}
			}
		}
		curRow, nextRow = nextRow, curRow
		for i := range nextRow {
			nextRow[i] = errPixel{}
		}
	}
	return indices
}

func clampToByte(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// nearestPerceptual finds the palette entry minimizing
// 2*(dr)^2 + 4*(dg)^2 + 3*(db)^2 against (r,g,b).
func nearestPerceptual(pal Palette, r, g, b uint8) int {
	best := 0
	bestDist := -1
	for i, p := range pal {
		dr := int(r) - int(p.R)
		dg := int(g) - int(p.G)
		db := int(b) - int(p.B)
		d := 2*dr*dr + 4*dg*dg + 3*db*db
		if d == 0 {
			return i
		}
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}
