package deflate

import "github.com/deepteams/imageio/internal/bitio"

// Level selects a Deflate compression policy.
type Level int

const (
	// NoCompression emits one or more stored blocks (copied verbatim,
	// 65535 bytes max each).
	NoCompression Level = 0
	// BestSpeed emits a single fixed-Huffman block with literals only: no
	// LZ77 match search. This is the only non-stored policy this encoder
	// implements (see spec's note that a full match search is optional and
	// must not be assumed by the decoder).
	BestSpeed Level = 1
)

const maxStoredBlockSize = 65535

// Deflate compresses data at the given level and returns a raw DEFLATE
// stream (no zlib wrapper).
func Deflate(data []byte, level Level) []byte {
	if level <= NoCompression {
		return deflateStored(data)
	}
	return deflateFixedHuffman(data)
}

func deflateStored(data []byte) []byte {
	w := bitio.NewLSBWriter(len(data) + len(data)/maxStoredBlockSize*5 + 16)
	if len(data) == 0 {
		writeStoredBlock(w, nil, true)
		return w.Bytes()
	}
	for len(data) > 0 {
		n := len(data)
		if n > maxStoredBlockSize {
			n = maxStoredBlockSize
		}
		chunk := data[:n]
		data = data[n:]
		writeStoredBlock(w, chunk, len(data) == 0)
	}
	return w.Bytes()
}

func writeStoredBlock(w *bitio.LSBWriter, chunk []byte, final bool) {
	if final {
		w.WriteBits(1, 1)
	} else {
		w.WriteBits(0, 1)
	}
	w.WriteBits(0, 2) // BTYPE = 00
	w.AlignToByte()
	n := len(chunk)
	w.WriteByte(byte(n))
	w.WriteByte(byte(n >> 8))
	w.WriteByte(byte(^n))
	w.WriteByte(byte(^n >> 8))
	w.WriteBytes(chunk)
}

// deflateFixedHuffman writes data as a single final block using the fixed
// literal/length table (RFC 1951 §3.2.6), with no back-references: every
// input byte becomes a literal symbol, followed by the end-of-block symbol.
// This trades compression ratio for simplicity, matching the contract this
// spec requires of level >= 1.
func deflateFixedHuffman(data []byte) []byte {
	w := bitio.NewLSBWriter(len(data) + 16)
	w.WriteBits(1, 1) // final block
	w.WriteBits(1, 2) // BTYPE = 01 (fixed Huffman)

	enc := fixedLiteralEncoder()
	for _, b := range data {
		writeSymbol(w, enc, int(b))
	}
	writeSymbol(w, enc, endBlockMarker)
	return w.Bytes()
}

// huffmanEncoder maps a symbol to its canonical (code, length) pair, stored
// bit-reversed (LSB-first) the way the bitstream expects it.
type huffmanEncoder struct {
	code   []uint16
	length []uint8
}

func buildHuffmanEncoder(lengths []int) *huffmanEncoder {
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
	var nextCode [maxHuffBits + 2]int
	code := 0
	for bits := 1; bits <= maxLen; bits++ {
		code = (code + blCount[bits-1]) << 1
		nextCode[bits] = code
	}

	enc := &huffmanEncoder{code: make([]uint16, len(lengths)), length: make([]uint8, len(lengths))}
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		c := nextCode[l]
		nextCode[l]++
		enc.code[sym] = uint16(reverseBits(c, l))
		enc.length[sym] = uint8(l)
	}
	return enc
}

var fixedLitEncoderInstance = buildHuffmanEncoder(fixedLiteralLengths())

func fixedLiteralEncoder() *huffmanEncoder { return fixedLitEncoderInstance }

func writeSymbol(w *bitio.LSBWriter, enc *huffmanEncoder, sym int) {
	w.WriteBits(uint32(enc.code[sym]), uint(enc.length[sym]))
}
