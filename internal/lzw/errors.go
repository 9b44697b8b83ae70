package lzw

import "errors"

var errInvalidCode = errors.New("lzw: code references an entry not yet in the dictionary")
