package imageio

import "bytes"

// Format is a recognized container type tag, matching the reverse-DNS style
// UTIs the spec names rather than a file extension.
type Format string

const (
	FormatPNG  Format = "public.png"
	FormatJPEG Format = "public.jpeg"
	FormatGIF  Format = "com.compuserve.gif"
	FormatBMP  Format = "com.microsoft.bmp"
	FormatTIFF Format = "public.tiff"
	FormatWebP Format = "org.webmproject.webp"
)

// detectFormat inspects the leading bytes of buf and returns the matching
// Format, or ("", false) if nothing matched yet (buf may simply be short)
// or ("", true) if buf is long enough that no pattern will ever match.
//
// Order matters only where one prefix could be mistaken for another; none
// of these six collide, so the table is checked in spec order.
func detectFormat(buf []byte) (Format, bool) {
	if len(buf) >= 8 && bytes.Equal(buf[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}) {
		return FormatPNG, true
	}
	if len(buf) >= 3 && buf[0] == 0xFF && buf[1] == 0xD8 && buf[2] == 0xFF {
		return FormatJPEG, true
	}
	if len(buf) >= 6 && (bytes.Equal(buf[:6], []byte("GIF87a")) || bytes.Equal(buf[:6], []byte("GIF89a"))) {
		return FormatGIF, true
	}
	if len(buf) >= 2 && buf[0] == 'B' && buf[1] == 'M' {
		return FormatBMP, true
	}
	if len(buf) >= 4 {
		if buf[0] == 'I' && buf[1] == 'I' && buf[2] == 0x2A && buf[3] == 0x00 {
			return FormatTIFF, true
		}
		if buf[0] == 'M' && buf[1] == 'M' && buf[2] == 0x00 && buf[3] == 0x2A {
			return FormatTIFF, true
		}
	}
	if len(buf) >= 12 && bytes.Equal(buf[:4], []byte("RIFF")) && bytes.Equal(buf[8:12], []byte("WEBP")) {
		return FormatWebP, true
	}
	if len(buf) < 12 {
		return "", false
	}
	return "", true
}

// detectionMinimum is the spec's "at least 12 bytes" threshold: below it,
// a Source stays in reading_header rather than committing to unknown_type.
const detectionMinimum = 12
