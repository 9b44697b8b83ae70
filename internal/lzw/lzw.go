// Package lzw implements the GIF-flavored variable-width LZW codec: codes
// start at minCodeSize+1 bits, a clear code resets the dictionary, and
// output is LSB-first packed into length-prefixed sub-blocks of up to 255
// bytes (see internal/gifcodec, the only consumer).
package lzw

import "github.com/deepteams/imageio/internal/bitio"

const maxCodeBits = 12
const maxDictSize = 1 << maxCodeBits

// Encode LZW-compresses indices (palette indices, one byte per pixel) using
// the given minimum code size (2..8, per GIF's image-data sub-block header)
// and returns the result already split into 255-byte sub-blocks, each
// prefixed with its length byte, terminated by a zero-length block.
func Encode(indices []byte, minCodeSize int) []byte {
	clearCode := 1 << minCodeSize
	eoiCode := clearCode + 1
	firstFree := clearCode + 2

	w := bitio.NewLSBWriter(len(indices))
	codeWidth := uint(minCodeSize + 1)

	dict := newEncodeDict(firstFree)
	writeCode(w, clearCode, codeWidth)

	if len(indices) == 0 {
		writeCode(w, eoiCode, codeWidth)
		return packSubBlocks(w.Bytes())
	}

	prefix := int(indices[0])
	for _, b := range indices[1:] {
		k := int(b)
		if next, ok := dict.lookup(prefix, k); ok {
			prefix = next
			continue
		}

		writeCode(w, prefix, codeWidth)

		code := dict.insert(prefix, k)
		if code == maxDictSize {
			writeCode(w, clearCode, codeWidth)
			dict = newEncodeDict(firstFree)
			codeWidth = uint(minCodeSize + 1)
		} else if code+1 > (1<<codeWidth) && codeWidth < maxCodeBits {
			codeWidth++
		}

		prefix = k
	}
	writeCode(w, prefix, codeWidth)
	writeCode(w, eoiCode, codeWidth)

	return packSubBlocks(w.Bytes())
}

func writeCode(w *bitio.LSBWriter, code int, width uint) {
	w.WriteBits(uint32(code), width)
}

// packSubBlocks splits raw into 255-byte chunks, each preceded by its
// length, terminated by a zero-length block (GIF's sub-block framing).
func packSubBlocks(raw []byte) []byte {
	out := make([]byte, 0, len(raw)+len(raw)/255+2)
	for len(raw) > 0 {
		n := len(raw)
		if n > 255 {
			n = 255
		}
		out = append(out, byte(n))
		out = append(out, raw[:n]...)
		raw = raw[n:]
	}
	out = append(out, 0x00)
	return out
}

// encodeDict is a simple (prefix,k)->code map used during encoding. GIF's
// small alphabet (<=256 symbols, <=4096 codes) makes a map fast enough
// without a trie.
type encodeDict struct {
	table    map[[2]int]int
	nextCode int
}

func newEncodeDict(firstFree int) *encodeDict {
	return &encodeDict{table: make(map[[2]int]int, 512), nextCode: firstFree}
}

func (d *encodeDict) lookup(prefix, k int) (int, bool) {
	code, ok := d.table[[2]int{prefix, k}]
	return code, ok
}

func (d *encodeDict) insert(prefix, k int) int {
	if d.nextCode >= maxDictSize {
		return maxDictSize
	}
	code := d.nextCode
	d.table[[2]int{prefix, k}] = code
	d.nextCode++
	return code
}

// Decode reverses Encode: data is the raw LZW bitstream already
// extracted from its sub-blocks (see UnpackSubBlocks).
func Decode(data []byte, minCodeSize int) ([]byte, error) {
	clearCode := 1 << minCodeSize
	eoiCode := clearCode + 1
	firstFree := clearCode + 2

	r := bitio.NewLSBReader(data)
	codeWidth := uint(minCodeSize + 1)

	type entry struct {
		prefix int // -1 for root symbols
		suffix byte
	}
	dict := make([]entry, firstFree, maxDictSize)
	for i := 0; i < clearCode; i++ {
		dict[i] = entry{prefix: -1, suffix: byte(i)}
	}

	out := make([]byte, 0, len(data)*2)
	expand := func(code int) []byte {
		var buf []byte
		for code != -1 {
			e := dict[code]
			buf = append(buf, e.suffix)
			code = e.prefix
		}
		for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
			buf[i], buf[j] = buf[j], buf[i]
		}
		return buf
	}

	var prevCode = -1
	for {
		code := int(r.ReadBits(codeWidth))
		if r.Overrun() {
			return out, nil
		}
		switch {
		case code == clearCode:
			dict = dict[:firstFree]
			codeWidth = uint(minCodeSize + 1)
			prevCode = -1
			continue
		case code == eoiCode:
			return out, nil
		}

		var entryBytes []byte
		if code < len(dict) {
			entryBytes = expand(code)
		} else if code == len(dict) && prevCode != -1 {
			entryBytes = append(expand(prevCode), expand(prevCode)[0])
		} else {
			return nil, errInvalidCode
		}
		out = append(out, entryBytes...)

		if prevCode != -1 && len(dict) < maxDictSize {
			dict = append(dict, entry{prefix: prevCode, suffix: entryBytes[0]})
			if len(dict) == (1<<codeWidth) && codeWidth < maxCodeBits {
				codeWidth++
			}
		}
		prevCode = code
	}
}

// UnpackSubBlocks concatenates GIF's length-prefixed sub-blocks (starting
// at data[0], a length byte) into one contiguous LZW bitstream, stopping at
// the first zero-length block.
func UnpackSubBlocks(data []byte) []byte {
	out := make([]byte, 0, len(data))
	pos := 0
	for pos < len(data) {
		n := int(data[pos])
		pos++
		if n == 0 {
			break
		}
		if pos+n > len(data) {
			n = len(data) - pos
		}
		out = append(out, data[pos:pos+n]...)
		pos += n
	}
	return out
}
