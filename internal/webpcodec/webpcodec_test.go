package webpcodec

import (
	"testing"

	"github.com/deepteams/imageio/internal/raster"
)

func sampleImage(width, height int, alpha raster.AlphaLayout) *raster.Image {
	im := raster.NewImage(width, height, alpha)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			im.Set(x, y, byte(x*7), byte(y*13), byte((x^y)&0xFF), 180)
		}
	}
	return im
}

// TestVP8L_RoundTrip_Lossless exercises the lossless path, which must
// round-trip pixel-exactly per spec.
func TestVP8L_RoundTrip_Lossless(t *testing.T) {
	im := sampleImage(10, 6, raster.AlphaLast)
	data := Encode(im, EncodeOptions{Lossless: true})

	got, _, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Width != im.Width || got.Height != im.Height {
		t.Fatalf("dims = %dx%d, want %dx%d", got.Width, got.Height, im.Width, im.Height)
	}
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			wr, wg, wb, wa := im.At(x, y)
			gr, gg, gb, ga := got.At(x, y)
			if wr != gr || wg != gg || wb != gb || wa != ga {
				t.Fatalf("pixel (%d,%d): got (%d,%d,%d,%d), want (%d,%d,%d,%d)", x, y, gr, gg, gb, ga, wr, wg, wb, wa)
			}
		}
	}
}

// TestVP8_RoundTrip_Lossy only checks dimensions, per the lossy path's
// relaxed (DC-only, fixed-probability) contract.
func TestVP8_RoundTrip_Lossy(t *testing.T) {
	im := sampleImage(33, 17, raster.AlphaNone)
	data := Encode(im, EncodeOptions{Lossless: false, Quality: 80})

	got, _, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Width != im.Width || got.Height != im.Height {
		t.Fatalf("dims = %dx%d, want %dx%d", got.Width, got.Height, im.Width, im.Height)
	}
}

func TestDecodeVP8L_RejectsBadSignature(t *testing.T) {
	if _, err := DecodeVP8L([]byte{0x00, 0, 0, 0, 0}); err != ErrInvalidVP8L {
		t.Fatalf("expected ErrInvalidVP8L, got error")
	}
}

func TestDecode_RejectsNonRIFF(t *testing.T) {
	if _, _, err := Decode([]byte("not a webp")); err == nil {
		t.Fatalf("expected an error for a non-RIFF buffer")
	}
}
