package bmpcodec

import (
	"testing"

	"github.com/deepteams/imageio/internal/raster"
)

func sampleImage(width, height int, alpha raster.AlphaLayout) *raster.Image {
	im := raster.NewImage(width, height, alpha)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			im.Set(x, y, byte(x*10), byte(y*10), byte(x+y), 200)
		}
	}
	return im
}

func TestEncodeDecode_RoundTrip_24Bit(t *testing.T) {
	im := sampleImage(13, 7, raster.AlphaNone)
	data := Encode(im, false)
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
				t.Fatalf("pixel (%d,%d): got (%d,%d,%d), want (%d,%d,%d)", x, y, gr, gg, gb, wr, wg, wb)
			}
		}
	}
}

func TestEncodeDecode_RoundTrip_32BitAlpha(t *testing.T) {
	im := sampleImage(9, 9, raster.AlphaLast)
	data := Encode(im, true)
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			wr, wg, wb, wa := im.At(x, y)
			gr, gg, gb, ga := got.At(x, y)
			if wr != gr || wg != gg || wb != gb || wa != ga {
				t.Fatalf("pixel (%d,%d) mismatch", x, y)
			}
		}
	}
}

func TestEncode_RespectsStrideNotJustWidthTimesFour(t *testing.T) {
	// Regression guard for the spec's flagged bug: a 24-bit encode's row
	// size must be rounded to a multiple of 4, not assumed to equal
	// width*4 (which would be wrong for a non-alpha encode).
	im := sampleImage(5, 3, raster.AlphaNone) // row = 15 bytes -> padded to 16
	data := Encode(im, false)
	if want := fileHeaderSize + 40 + 16*3; len(data) != want {
		t.Fatalf("len(data) = %d, want %d (16-byte rows)", len(data), want)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Width != 5 || got.Height != 3 {
		t.Fatalf("dims = %dx%d, want 5x3", got.Width, got.Height)
	}
}

func TestDecode_RejectsMissingSignature(t *testing.T) {
	if _, err := Decode([]byte("nope")); err != ErrNotBMP {
		t.Fatalf("expected ErrNotBMP, got %v", err)
	}
}
