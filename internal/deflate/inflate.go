// Package deflate implements RFC 1951 DEFLATE and the RFC 1950 zlib
// container atop it. It is the shared compression backend for PNG's IDAT
// stream (see internal/pngcodec); nothing else in this module depends on it.
package deflate

import (
	"errors"

	"github.com/deepteams/imageio/internal/bitio"
)

var (
	errInvalidBlockType    = errors.New("deflate: invalid block type")
	errInvalidHuffmanCode  = errors.New("deflate: invalid huffman code")
	errInvalidStoredLength = errors.New("deflate: stored block LEN/NLEN mismatch")
	errInvalidDistance     = errors.New("deflate: distance code refers before start of output")
	errTruncatedInput      = errors.New("deflate: truncated input")
	errInvalidCodeLengths  = errors.New("deflate: invalid code length sequence")
)

// bitReader adapts bitio.LSBReader with the peek/consume split huffmanDecoder
// needs: look up a symbol by its maximum-length peek, then consume only the
// bits the matched code actually occupies.
type bitReader struct {
	r       *bitio.LSBReader
	overran bool
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{r: bitio.NewLSBReader(data)}
}

func (b *bitReader) peekBits(n uint) uint32  { return b.r.PeekBits(n) }
func (b *bitReader) consumeBits(n uint)      { b.r.ConsumeBits(n) }
func (b *bitReader) readBits(n uint) uint32  { return b.r.ReadBits(n) }
func (b *bitReader) alignToByte()            { b.r.AlignToByte() }
func (b *bitReader) readByte() byte          { return b.r.ReadByte() }
func (b *bitReader) pos() int                { return b.r.AlignedPos() }

// Inflate decodes a raw DEFLATE stream (no zlib wrapper) and returns the
// decompressed bytes.
func Inflate(data []byte) ([]byte, error) {
	out, _, err := inflateStream(data)
	return out, err
}

// inflateStream decodes a raw DEFLATE stream and additionally reports, via
// pos(), the byte offset in data immediately following the last consumed
// block — the point where a container format's trailer (e.g. zlib's
// Adler-32) begins. DEFLATE doesn't byte-align after its final block, but
// a zlib-style container always does, so pos() rounds up past any
// leftover sub-byte bits before reporting.
func inflateStream(data []byte) (out []byte, consumed int, err error) {
	br := newBitReader(data)
	out = make([]byte, 0, len(data)*3)

	for {
		final := br.readBits(1)
		btype := br.readBits(2)

		out, err = inflateBlock(br, btype, out)
		if err != nil {
			return nil, 0, err
		}
		if br.r.Overrun() {
			return nil, 0, errTruncatedInput
		}
		if final == 1 {
			break
		}
	}
	return out, br.pos(), nil
}

func inflateBlock(br *bitReader, btype uint32, out []byte) ([]byte, error) {
	switch btype {
	case 0: // stored
		br.alignToByte()
		lenLo := br.readByte()
		lenHi := br.readByte()
		nlenLo := br.readByte()
		nlenHi := br.readByte()
		length := int(lenLo) | int(lenHi)<<8
		nlength := int(nlenLo) | int(nlenHi)<<8
		if length != nlength^0xFFFF {
			return nil, errInvalidStoredLength
		}
		for i := 0; i < length; i++ {
			out = append(out, br.readByte())
		}
		return out, nil

	case 1: // fixed Huffman
		return inflateHuffmanBlock(br, fixedLitDecoder, fixedDistDecoder, out)

	case 2: // dynamic Huffman
		litDec, distDec, err := readDynamicTables(br)
		if err != nil {
			return nil, err
		}
		return inflateHuffmanBlock(br, litDec, distDec, out)

	default:
		return nil, errInvalidBlockType
	}
}

func inflateHuffmanBlock(br *bitReader, litDec, distDec *huffmanDecoder, out []byte) ([]byte, error) {
	for {
		sym, err := litDec.decode(br)
		if err != nil {
			return nil, err
		}
		switch {
		case sym < 256:
			out = append(out, byte(sym))
		case sym == endBlockMarker:
			return out, nil
		default:
			idx := sym - 257
			if idx >= len(lengthBase) {
				return nil, errInvalidHuffmanCode
			}
			length := lengthBase[idx] + int(br.readBits(uint(lengthExtra[idx])))

			distSym, err := distDec.decode(br)
			if err != nil {
				return nil, err
			}
			if distSym >= len(distBase) {
				return nil, errInvalidDistance
			}
			distance := distBase[distSym] + int(br.readBits(uint(distExtra[distSym])))
			if distance > len(out) {
				return nil, errInvalidDistance
			}

			start := len(out) - distance
			for i := 0; i < length; i++ {
				out = append(out, out[start+i])
			}
		}
	}
}

const endBlockMarker = 256

// readDynamicTables reads a dynamic block's header (RFC 1951 §3.2.7): the
// HLIT/HDIST/HCLEN counts, the code-length-code lengths (in
// codeLengthOrder), then the literal/length and distance code lengths
// themselves, which are run-length encoded using symbols 16/17/18 over the
// code-length Huffman tree just built.
func readDynamicTables(br *bitReader) (lit, dist *huffmanDecoder, err error) {
	hlit := int(br.readBits(5)) + 257
	hdist := int(br.readBits(5)) + 1
	hclen := int(br.readBits(4)) + 4

	var clLengths [19]int
	for i := 0; i < hclen; i++ {
		clLengths[codeLengthOrder[i]] = int(br.readBits(3))
	}
	clDecoder := buildHuffmanDecoder(clLengths[:])

	total := hlit + hdist
	lengths := make([]int, 0, total)
	for len(lengths) < total {
		sym, derr := clDecoder.decode(br)
		if derr != nil {
			return nil, nil, derr
		}
		switch {
		case sym < 16:
			lengths = append(lengths, sym)
		case sym == 16:
			if len(lengths) == 0 {
				return nil, nil, errInvalidCodeLengths
			}
			prev := lengths[len(lengths)-1]
			n := int(br.readBits(2)) + 3
			for i := 0; i < n; i++ {
				lengths = append(lengths, prev)
			}
		case sym == 17:
			n := int(br.readBits(3)) + 3
			for i := 0; i < n; i++ {
				lengths = append(lengths, 0)
			}
		case sym == 18:
			n := int(br.readBits(7)) + 11
			for i := 0; i < n; i++ {
				lengths = append(lengths, 0)
			}
		default:
			return nil, nil, errInvalidCodeLengths
		}
	}
	if len(lengths) != total {
		return nil, nil, errInvalidCodeLengths
	}

	lit = buildHuffmanDecoder(lengths[:hlit])
	dist = buildHuffmanDecoder(lengths[hlit:])
	return lit, dist, nil
}
