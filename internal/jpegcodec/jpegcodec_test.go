package jpegcodec

import (
	"testing"

	"github.com/deepteams/imageio/internal/raster"
)

func gradientImage(width, height int) *raster.Image {
	im := raster.NewImage(width, height, raster.AlphaNone)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			im.Set(x, y, byte(x*255/width), byte(y*255/height), byte((x+y)*255/(width+height)), 255)
		}
	}
	return im
}

// TestEncodeDecode_Dimensions asserts the lossy codec's required contract:
// decode must reconstruct the correct dimensions. Pixel-exactness is not
// required for a DCT-lossy path.
func TestEncodeDecode_Dimensions(t *testing.T) {
	im := gradientImage(32, 24)
	data := Encode(im, EncodeOptions{Quality: 80})

	props, err := ReadProperties(data)
	if err != nil {
		t.Fatalf("ReadProperties: %v", err)
	}
	if props.Width != im.Width || props.Height != im.Height {
		t.Fatalf("properties = %dx%d, want %dx%d", props.Width, props.Height, im.Width, im.Height)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Width != im.Width || got.Height != im.Height {
		t.Fatalf("decoded = %dx%d, want %dx%d", got.Width, got.Height, im.Width, im.Height)
	}
}

func TestEncode_FileLayout(t *testing.T) {
	im := gradientImage(16, 16)
	data := Encode(im, EncodeOptions{Quality: 75})
	if data[0] != 0xFF || data[1] != 0xD8 {
		t.Fatalf("missing SOI marker")
	}
	if data[len(data)-2] != 0xFF || data[len(data)-1] != 0xD9 {
		t.Fatalf("missing EOI marker")
	}
}

// TestEncode_QualityMonotonicity guards the spec's corrected bug: output
// size must be non-decreasing in quality for non-flat input.
func TestEncode_QualityMonotonicity(t *testing.T) {
	im := gradientImage(64, 64)
	prevSize := 0
	for _, q := range []int{10, 30, 50, 70, 90} {
		data := Encode(im, EncodeOptions{Quality: q})
		if len(data) < prevSize {
			t.Fatalf("quality %d produced %d bytes, smaller than a lower quality's %d bytes", q, len(data), prevSize)
		}
		prevSize = len(data)
	}
}

func TestReadProperties_ColorComponentCount(t *testing.T) {
	im := gradientImage(8, 8)
	data := Encode(im, EncodeOptions{Quality: 75})
	props, err := ReadProperties(data)
	if err != nil {
		t.Fatalf("ReadProperties: %v", err)
	}
	if props.NumComponents != 3 {
		t.Fatalf("NumComponents = %d, want 3 (YCbCr)", props.NumComponents)
	}
}

func TestReadProperties_RejectsMissingSOI(t *testing.T) {
	if _, err := ReadProperties([]byte{0x00, 0x01, 0x02, 0x03}); err != ErrNotJPEG {
		t.Fatalf("expected ErrNotJPEG, got %v", err)
	}
}
