package imageio

import "testing"

func TestDetectFormat_PNG(t *testing.T) {
	buf := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}, make([]byte, 8)...)
	f, matched := detectFormat(buf)
	if f != FormatPNG || !matched {
		t.Fatalf("got (%q, %v), want (%q, true)", f, matched, FormatPNG)
	}
}

func TestDetectFormat_WebP(t *testing.T) {
	buf := append([]byte("RIFF\x00\x00\x00\x00WEBP"), 0, 0, 0, 0)
	f, matched := detectFormat(buf)
	if f != FormatWebP || !matched {
		t.Fatalf("got (%q, %v), want (%q, true)", f, matched, FormatWebP)
	}
}

func TestDetectFormat_Unknown(t *testing.T) {
	buf := []byte("this is definitely not an image format at all")
	f, matched := detectFormat(buf)
	if f != "" || !matched {
		t.Fatalf("got (%q, %v), want (\"\", true)", f, matched)
	}
}

func TestDetectFormat_TooShort(t *testing.T) {
	f, matched := detectFormat([]byte{0x89, 'P', 'N'})
	if f != "" || matched {
		t.Fatalf("got (%q, %v), want (\"\", false)", f, matched)
	}
}
