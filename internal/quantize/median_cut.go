// Package quantize implements Median-Cut color quantization and
// Floyd-Steinberg dithering, the palette backend shared by GIF encode and
// any other indexed-color output path.
package quantize

import (
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is a 24-bit color triple.
type RGB struct {
	R, G, B uint8
}

// Palette is an ordered list of colors; its length is always a power of
// two between 2 and 256, per spec.
type Palette []RGB

// histEntry pairs a color with its pixel count.
type histEntry struct {
	color RGB
	count int
}

// box is an axis-aligned bounding box over a slice of histogram entries.
type box struct {
	entries          []histEntry
	rMin, rMax       uint8
	gMin, gMax       uint8
	bMin, bMax       uint8
	pixelCount       int
}

func newBox(entries []histEntry) box {
	b := box{entries: entries, rMin: 255, gMin: 255, bMin: 255}
	for _, e := range entries {
		if e.color.R < b.rMin {
			b.rMin = e.color.R
		}
		if e.color.R > b.rMax {
			b.rMax = e.color.R
		}
		if e.color.G < b.gMin {
			b.gMin = e.color.G
		}
		if e.color.G > b.gMax {
			b.gMax = e.color.G
		}
		if e.color.B < b.bMin {
			b.bMin = e.color.B
		}
		if e.color.B > b.bMax {
			b.bMax = e.color.B
		}
		b.pixelCount += e.count
	}
	return b
}

func (b box) volume() int {
	return (int(b.rMax)-int(b.rMin)+1)*
		(int(b.gMax)-int(b.gMin)+1)*
		(int(b.bMax)-int(b.bMin)+1)
}

// longestAxis returns 0=R, 1=G, 2=B, with ties broken red > green > blue.
func (b box) longestAxis() int {
	rRange := int(b.rMax) - int(b.rMin)
	gRange := int(b.gMax) - int(b.gMin)
	bRange := int(b.bMax) - int(b.bMin)
	if rRange >= gRange && rRange >= bRange {
		return 0
	}
	if gRange >= bRange {
		return 1
	}
	return 2
}

// BuildHistogram counts unique colors among rgb triples (len(pixels) must
// be a multiple of 3).
func BuildHistogram(pixels []byte) map[RGB]int {
	hist := make(map[RGB]int)
	for i := 0; i+2 < len(pixels); i += 3 {
		hist[RGB{pixels[i], pixels[i+1], pixels[i+2]}]++
	}
	return hist
}

// MedianCut builds a palette of at most maxColors colors (clamped to
// [2,256]) from hist. If the histogram already has <= maxColors entries,
// they are used directly (no quantization loss). The result is padded with
// zero (black) entries up to the next power of two >= the number of
// distinct colors actually produced.
func MedianCut(hist map[RGB]int, maxColors int) Palette {
	if maxColors < 2 {
		maxColors = 2
	}
	if maxColors > 256 {
		maxColors = 256
	}

	entries := make([]histEntry, 0, len(hist))
	for c, n := range hist {
		entries = append(entries, histEntry{color: c, count: n})
	}

	if len(entries) <= maxColors {
		pal := make(Palette, len(entries))
		for i, e := range entries {
			pal[i] = e.color
		}
		return padToPowerOfTwo(pal)
	}

	boxes := []box{newBox(entries)}
	for len(boxes) < maxColors {
		idx := pickBoxToSplit(boxes)
		if idx < 0 {
			break
		}
		left, right := splitBox(boxes[idx])
		boxes[idx] = left
		boxes = append(boxes, right)
	}

	pal := make(Palette, len(boxes))
	for i, b := range boxes {
		pal[i] = boxMeanColor(b)
	}
	return padToPowerOfTwo(pal)
}

// pickBoxToSplit returns the index of the splittable box (>= 2 entries)
// maximizing volume * pixel_count, or -1 if none can be split.
func pickBoxToSplit(boxes []box) int {
	best := -1
	bestScore := -1
	for i, b := range boxes {
		if len(b.entries) < 2 {
			continue
		}
		score := b.volume() * b.pixelCount
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}

// splitBox sorts the box's entries along its longest axis and splits at the
// index nearest to half the total pixel mass, clamped so neither half is
// empty.
func splitBox(b box) (box, box) {
	axis := b.longestAxis()
	entries := append([]histEntry(nil), b.entries...)
	sort.Slice(entries, func(i, j int) bool {
		return axisValue(entries[i].color, axis) < axisValue(entries[j].color, axis)
	})

	target := b.pixelCount / 2
	acc := 0
	splitAt := 1
	for i, e := range entries {
		acc += e.count
		if acc >= target {
			splitAt = i + 1
			break
		}
	}
	if splitAt < 1 {
		splitAt = 1
	}
	if splitAt > len(entries)-1 {
		splitAt = len(entries) - 1
	}

	return newBox(entries[:splitAt]), newBox(entries[splitAt:])
}

func axisValue(c RGB, axis int) uint8 {
	switch axis {
	case 0:
		return c.R
	case 1:
		return c.G
	default:
		return c.B
	}
}

// boxMeanColor computes the pixel-weighted mean color of a box, clamped to
// 0..255 (the clamp is a no-op for well-formed input; it guards rounding).
func boxMeanColor(b box) RGB {
	var rSum, gSum, bSum, total int64
	for _, e := range b.entries {
		n := int64(e.count)
		rSum += int64(e.color.R) * n
		gSum += int64(e.color.G) * n
		bSum += int64(e.color.B) * n
		total += n
	}
	if total == 0 {
		return RGB{}
	}
	return RGB{
		R: clampMeanComponent(rSum / total),
		G: clampMeanComponent(gSum / total),
		B: clampMeanComponent(bSum / total),
	}
}

func clampMeanComponent(v int64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func padToPowerOfTwo(pal Palette) Palette {
	n := len(pal)
	size := 2
	for size < n {
		size <<= 1
	}
	if size > 256 {
		size = 256
	}
	for len(pal) < size {
		pal = append(pal, RGB{})
	}
	return pal
}

// NearestIndex returns the index in pal closest to c by squared-Euclidean
// distance in RGB space, with an early exit on an exact match. The distance
// itself is computed via go-colorful's RGB-space metric rather than a
// hand-rolled sum of squares.
func NearestIndex(pal Palette, c RGB) int {
	cc := toColorful(c)
	best := 0
	bestDist := -1.0
	for i, p := range pal {
		d := cc.DistanceRgb(toColorful(p))
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

func toColorful(c RGB) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}
