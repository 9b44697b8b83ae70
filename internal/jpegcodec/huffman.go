package jpegcodec

import "github.com/deepteams/imageio/internal/bitio"

// huffmanTable is a JPEG Huffman table: bits[i] counts codes of length i+1
// (1-indexed), values lists the symbols in code-assignment order (shortest
// codes first, and for codes of equal length, in values[] order). Codes are
// assigned per Annex C: code 0 starts at the shortest length, incrementing
// by 1 within a length and shifting left by 1 between lengths.
type huffmanTable struct {
	bits   [16]byte
	values []byte

	// decode tables, filled in by buildDecodeTables as soon as the table is constructed.
	minCode   [17]int32
	maxCode   [17]int32 // -1 means no codes of that length
	valPtr    [17]int32
	maxLength int
}

// huffmanEncodeTable maps symbol -> (code, length) for encoding.
type huffmanEncodeTable struct {
	code   map[byte]uint16
	length map[byte]byte
}

func buildEncodeTable(t *huffmanTable) *huffmanEncodeTable {
	enc := &huffmanEncodeTable{code: map[byte]uint16{}, length: map[byte]byte{}}
	code := uint16(0)
	k := 0
	for length := 1; length <= 16; length++ {
		for i := 0; i < int(t.bits[length-1]); i++ {
			sym := t.values[k]
			enc.code[sym] = code
			enc.length[sym] = byte(length)
			code++
			k++
		}
		code <<= 1
	}
	return enc
}

func (e *huffmanEncodeTable) write(w *bitio.MSBWriter, sym byte) {
	w.WriteBits(uint32(e.code[sym]), uint(e.length[sym]))
}

// buildDecodeTables computes the min/max-code-per-length arrays (Annex F,
// Figure F.16 flowchart) used to decode one symbol per call.
func (t *huffmanTable) buildDecodeTables() {
	code := int32(0)
	k := 0
	for length := 1; length <= 16; length++ {
		n := int32(t.bits[length-1])
		if n == 0 {
			t.maxCode[length] = -1
		} else {
			t.valPtr[length] = int32(k)
			t.minCode[length] = code
			code += n
			k += int(n)
			t.maxCode[length] = code - 1
		}
		code <<= 1
		if n > 0 {
			t.maxLength = length
		}
	}
}

func (t *huffmanTable) decode(r *bitio.MSBReader) (byte, bool) {
	code := int32(r.ReadBit())
	for length := 1; length <= 16; length++ {
		if t.maxCode[length] >= 0 && code <= t.maxCode[length] && code >= t.minCode[length] {
			idx := t.valPtr[length] + (code - t.minCode[length])
			if int(idx) >= len(t.values) {
				return 0, false
			}
			return t.values[idx], true
		}
		code = (code << 1) | int32(r.ReadBit())
	}
	return 0, false
}

func stdDCLuminanceTable() *huffmanTable {
	t := &huffmanTable{bits: stdDCLuminanceBits, values: stdDCLuminanceValues}
	t.buildDecodeTables()
	return t
}

func stdDCChrominanceTable() *huffmanTable {
	t := &huffmanTable{bits: stdDCChrominanceBits, values: stdDCChrominanceValues}
	t.buildDecodeTables()
	return t
}

func stdACLuminanceTable() *huffmanTable {
	t := &huffmanTable{bits: stdACLuminanceBits, values: stdACLuminanceValues}
	t.buildDecodeTables()
	return t
}

func stdACChrominanceTable() *huffmanTable {
	t := &huffmanTable{bits: stdACChrominanceBits, values: stdACChrominanceValues}
	t.buildDecodeTables()
	return t
}
