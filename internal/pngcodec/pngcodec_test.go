package pngcodec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepteams/imageio/internal/raster"
)

func checkerboard(width, height int, alpha raster.AlphaLayout) *raster.Image {
	im := raster.NewImage(width, height, alpha)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x+y)%2 == 0 {
				im.Set(x, y, 200, 40, 10, 128)
			} else {
				im.Set(x, y, 5, 220, 90, 255)
			}
		}
	}
	return im
}

func TestEncodeDecode_RoundTrip_RGB(t *testing.T) {
	im := checkerboard(17, 9, raster.AlphaNone)
	data := Encode(im)
	got, _, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, im.Width, got.Width)
	require.Equal(t, im.Height, got.Height)
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			wr, wg, wb, _ := im.At(x, y)
			gr, gg, gb, _ := got.At(x, y)
			require.Equal(t, [3]uint8{wr, wg, wb}, [3]uint8{gr, gg, gb}, "pixel (%d,%d)", x, y)
		}
	}
}

func TestEncodeDecode_RoundTrip_RGBA(t *testing.T) {
	im := checkerboard(12, 12, raster.AlphaLast)
	data := Encode(im)
	got, _, err := Decode(data)
	require.NoError(t, err)
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			wr, wg, wb, wa := im.At(x, y)
			gr, gg, gb, ga := got.At(x, y)
			require.Equal(t, [4]uint8{wr, wg, wb, wa}, [4]uint8{gr, gg, gb, ga}, "pixel (%d,%d)", x, y)
		}
	}
}

func TestDecode_RejectsMissingSignature(t *testing.T) {
	_, _, err := Decode([]byte("not a png"))
	require.ErrorIs(t, err, ErrNotPNG)
}

func TestDecode_ParsesTextualData(t *testing.T) {
	im := checkerboard(4, 4, raster.AlphaNone)
	data := Encode(im)
	data = insertTEXt(data, "Comment", "hello world")

	_, meta, err := Decode(data)
	require.NoError(t, err)

	found := false
	for _, tag := range meta.Enumerate(false) {
		if tag.Path == "png:text:Comment" {
			require.Equal(t, "hello world", tag.Value.String())
			found = true
		}
	}
	require.True(t, found, "expected a png:text:Comment tag")
}

// insertTEXt splices a tEXt chunk into an already-encoded PNG, right after
// the IHDR chunk, for TestDecode_ParsesTextualData.
func insertTEXt(png []byte, key, value string) []byte {
	ihdrEnd := 8 + 8 + 13 + 4 // signature + chunk header + IHDR payload + CRC
	payload := append(append([]byte(key), 0), []byte(value)...)
	chunk := appendChunk(nil, "tEXt", payload)
	out := append([]byte{}, png[:ihdrEnd]...)
	out = append(out, chunk...)
	out = append(out, png[ihdrEnd:]...)
	return out
}
