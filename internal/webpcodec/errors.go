package webpcodec

import "errors"

var (
	ErrInvalidVP8L     = errors.New("webpcodec: invalid VP8L signature or truncated header")
	ErrUnsupportedVP8L = errors.New("webpcodec: VP8L transform or color-cache bitstream not supported")
	ErrTruncatedVP8    = errors.New("webpcodec: truncated VP8 frame header")
)
