package deflate

// Package-level canonical Huffman machinery shared by inflate and deflate.
//
// A canonical Huffman code is fully determined by a per-symbol code-length
// vector: symbols are assigned codes in order of (length, symbol), which
// means decoding only needs the length table, never a pointer-chased tree
// (see spec's note on flat, table-driven Huffman over chained nodes).

// huffmanDecoder is a table-driven canonical Huffman decoder. It maps the
// next `bits` bits of input (peeked, not yet consumed) directly to a
// (symbol, length) pair for codes up to `bits` long; a code of length L
// occupies 2^(bits-L) table slots (every 2^L-th slot, since the table is
// indexed by the bit-reversed code) so that the peeked lookup is a single
// array index.
type huffmanDecoder struct {
	bits    uint
	symbol  []uint16
	length  []uint8
	maxCode int
}

const maxHuffBits = 15

// buildHuffmanDecoder constructs a decoder from a per-symbol code-length
// vector (0 meaning "symbol unused"). This implements RFC 1951 §3.2.2's
// canonical-code assignment algorithm.
func buildHuffmanDecoder(lengths []int) *huffmanDecoder {
	var blCount [maxHuffBits + 1]int
	maxLen := 0
	for _, l := range lengths {
		if l > 0 {
			blCount[l]++
			if l > maxLen {
				maxLen = l
			}
		}
	}
	if maxLen == 0 {
		maxLen = 1
	}

	var nextCode [maxHuffBits + 2]int
	code := 0
	for bits := 1; bits <= maxLen; bits++ {
		code = (code + blCount[bits-1]) << 1
		nextCode[bits] = code
	}

	d := &huffmanDecoder{
		bits:   uint(maxLen),
		symbol: make([]uint16, 1<<uint(maxLen)),
		length: make([]uint8, 1<<uint(maxLen)),
	}
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		c := nextCode[l]
		nextCode[l]++
		// Reverse the code's bits: DEFLATE huffman codes are packed
		// MSB-first within the symbol but consumed LSB-first from the
		// bitstream, so the table is indexed by the bit-reversed code.
		rev := reverseBits(c, l)
		step := 1 << uint(l)
		for idx := rev; idx < (1 << uint(maxLen)); idx += step {
			d.symbol[idx] = uint16(sym)
			d.length[idx] = uint8(l)
		}
	}
	return d
}

func reverseBits(v, n int) int {
	r := 0
	for i := 0; i < n; i++ {
		r = (r << 1) | (v & 1)
		v >>= 1
	}
	return r
}

// decode reads one symbol from r using d. It peeks d.bits bits (padding
// with zeros near the end of the stream is harmless: the padding can never
// match a valid longer code because canonical assignment exhausts the
// short codes first) and consumes only the matched code's actual length.
func (d *huffmanDecoder) decode(r *bitReader) (int, error) {
	peek := r.peekBits(d.bits)
	length := d.length[peek]
	if length == 0 {
		return 0, errInvalidHuffmanCode
	}
	r.consumeBits(uint(length))
	return int(d.symbol[peek]), nil
}

// fixedLiteralLengths builds the RFC 1951 §3.2.6 fixed literal/length table.
func fixedLiteralLengths() []int {
	lengths := make([]int, 288)
	for i := 0; i < 144; i++ {
		lengths[i] = 8
	}
	for i := 144; i < 256; i++ {
		lengths[i] = 9
	}
	for i := 256; i < 280; i++ {
		lengths[i] = 7
	}
	for i := 280; i < 288; i++ {
		lengths[i] = 8
	}
	return lengths
}

// fixedDistanceLengths builds the fixed 5-bit distance table (30 codes).
func fixedDistanceLengths() []int {
	lengths := make([]int, 30)
	for i := range lengths {
		lengths[i] = 5
	}
	return lengths
}

var (
	fixedLitDecoder  = buildHuffmanDecoder(fixedLiteralLengths())
	fixedDistDecoder = buildHuffmanDecoder(fixedDistanceLengths())
)

// codeLengthOrder is the order in which dynamic-block code-length code
// lengths are transmitted (RFC 1951 §3.2.7).
var codeLengthOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// lengthBase and lengthExtra give, for length symbols 257..285, the base
// length (257 maps to index 0) and number of extra bits to read.
var lengthBase = [29]int{3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31, 35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258}
var lengthExtra = [29]int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0}

// distBase and distExtra give, for distance symbols 0..29, the base
// distance and number of extra bits.
var distBase = [30]int{1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193, 257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577}
var distExtra = [30]int{0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13}
