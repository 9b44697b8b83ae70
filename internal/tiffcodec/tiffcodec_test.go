package tiffcodec

import (
	"bytes"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/deepteams/imageio/internal/raster"
)

func sampleImage(width, height int, alpha raster.AlphaLayout) *raster.Image {
	im := raster.NewImage(width, height, alpha)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			im.Set(x, y, byte(x*20), byte(y*20), byte((x*y)%256), 255)
		}
	}
	return im
}

func TestEncodeDecode_RoundTrip_RGB(t *testing.T) {
	im := sampleImage(11, 8, raster.AlphaNone)
	data := Encode(im)
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Width != im.Width || got.Height != im.Height {
		t.Fatalf("dims = %dx%d, want %dx%d", got.Width, got.Height, im.Width, im.Height)
	}
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			wr, wg, wb, _ := im.At(x, y)
			gr, gg, gb, _ := got.At(x, y)
			if wr != gr || wg != gg || wb != gb {
				t.Fatalf("pixel (%d,%d) mismatch", x, y)
			}
		}
	}
}

// TestEncode_CrossDecodesWithXImageTiff checks that a file this package
// writes is also readable by golang.org/x/image/tiff, the pack's reference
// TIFF decoder, as an independent check on the IFD/strip layout.
func TestEncode_CrossDecodesWithXImageTiff(t *testing.T) {
	im := sampleImage(6, 5, raster.AlphaNone)
	data := Encode(im)

	decoded, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("golang.org/x/image/tiff.Decode: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != im.Width || bounds.Dy() != im.Height {
		t.Fatalf("cross-decoded dims = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), im.Width, im.Height)
	}

	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			wr, wg, wb, _ := im.At(x, y)
			r, g, b, _ := decoded.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if uint8(r>>8) != wr || uint8(g>>8) != wg || uint8(b>>8) != wb {
				t.Fatalf("cross-decoded pixel (%d,%d) mismatch", x, y)
			}
		}
	}
}

func TestDecode_RejectsBigEndian(t *testing.T) {
	data := []byte{'M', 'M', 0, 42, 0, 0, 0, 8}
	if _, err := Decode(data); err != ErrBigEndian {
		t.Fatalf("expected ErrBigEndian, got %v", err)
	}
}

func TestDecode_RejectsMissingMagic(t *testing.T) {
	if _, err := Decode([]byte("not a tiff")); err != ErrNotTIFF {
		t.Fatalf("expected ErrNotTIFF, got %v", err)
	}
}
