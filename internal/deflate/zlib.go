package deflate

import (
	"errors"

	"github.com/deepteams/imageio/internal/checksum"
)

var (
	errBadZlibHeader  = errors.New("deflate: invalid zlib header")
	errPresetDict     = errors.New("deflate: zlib preset dictionary not supported")
	errAdlerMismatch  = errors.New("deflate: zlib adler-32 checksum mismatch")
)

const (
	zlibCM8   = 8 // CM=8 (deflate), CINFO=7 (32KiB window) -> CMF = 0x78
	zlibCMF   = 0x78
	zlibFDict = 0x20
)

// ZlibCompress wraps data (compressed at the given level) in a zlib header
// and Adler-32 trailer per RFC 1950.
func ZlibCompress(data []byte, level Level) []byte {
	compressed := Deflate(data, level)

	flevel := flevelForLevel(level)
	flg := byte(flevel) << 6
	// Choose FCHECK so that (CMF*256 + FLG) mod 31 == 0.
	check := (int(zlibCMF)*256 + int(flg)) % 31
	if check != 0 {
		flg += byte(31 - check)
	}

	out := make([]byte, 0, len(compressed)+6)
	out = append(out, zlibCMF, flg)
	out = append(out, compressed...)

	adler := checksum.Adler32(data)
	out = append(out, byte(adler>>24), byte(adler>>16), byte(adler>>8), byte(adler))
	return out
}

func flevelForLevel(level Level) int {
	switch {
	case level < 2:
		return 0
	case level < 6:
		return 1
	case level < 8:
		return 2
	default:
		return 3
	}
}

// ZlibDecompress validates the zlib header, inflates the payload, and — if
// a 4-byte trailer is present — verifies the Adler-32 checksum. A missing
// trailer (truncated stream) is tolerated and the decompressed data is
// still returned, per spec.
func ZlibDecompress(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, errBadZlibHeader
	}
	cmf, flg := data[0], data[1]
	if (int(cmf)*256+int(flg))%31 != 0 {
		return nil, errBadZlibHeader
	}
	if cmf&0x0F != zlibCM8 {
		return nil, errBadZlibHeader
	}
	if flg&zlibFDict != 0 {
		return nil, errPresetDict
	}

	payload := data[2:]
	out, consumed, err := inflateStream(payload)
	if err != nil {
		return nil, err
	}

	trailer := payload[consumed:]
	if len(trailer) >= 4 {
		want := uint32(trailer[0])<<24 | uint32(trailer[1])<<16 | uint32(trailer[2])<<8 | uint32(trailer[3])
		if got := checksum.Adler32(out); got != want {
			return nil, errAdlerMismatch
		}
	}
	return out, nil
}
