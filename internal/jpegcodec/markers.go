package jpegcodec

func be16(v int) []byte { return []byte{byte(v >> 8), byte(v)} }

func appendJFIFHeader(out []byte) []byte {
	out = append(out, 0xFF, 0xE0) // APP0
	out = append(out, be16(16)...)
	out = append(out, 'J', 'F', 'I', 'F', 0x00)
	out = append(out, 1, 1)    // version 1.1
	out = append(out, 0)       // density units: none
	out = append(out, be16(1)...)
	out = append(out, be16(1)...)
	out = append(out, 0, 0) // no thumbnail
	return out
}

// appendDQT writes a single quantization table in zig-zag order (the wire
// order, distinct from the natural order used internally for division).
func appendDQT(out []byte, id int, table [64]int) []byte {
	out = append(out, 0xFF, 0xDB)
	out = append(out, be16(2+1+64)...)
	out = append(out, byte(id)) // precision 0 (8-bit) << 4 | id
	for _, z := range zigzag {
		out = append(out, byte(table[z]))
	}
	return out
}

func appendSOF0(out []byte, width, height int) []byte {
	out = append(out, 0xFF, 0xC0)
	out = append(out, be16(2+1+2+2+1+3*3)...)
	out = append(out, 8) // precision
	out = append(out, be16(height)...)
	out = append(out, be16(width)...)
	out = append(out, 3) // components: Y, Cb, Cr
	out = append(out, 1, 0x11, 0)
	out = append(out, 2, 0x11, 1)
	out = append(out, 3, 0x11, 1)
	return out
}

func appendDHT(out []byte, class, id int, bits [16]byte, values []byte) []byte {
	out = append(out, 0xFF, 0xC4)
	length := 2 + 1 + 16 + len(values)
	out = append(out, be16(length)...)
	out = append(out, byte(class<<4|id))
	out = append(out, bits[:]...)
	out = append(out, values...)
	return out
}

func appendSOS(out []byte) []byte {
	out = append(out, 0xFF, 0xDA)
	out = append(out, be16(2+1+2*3+3)...)
	out = append(out, 3) // 3 components
	out = append(out, 1, 0x00)
	out = append(out, 2, 0x11)
	out = append(out, 3, 0x11)
	out = append(out, 0, 63, 0) // Ss, Se, Ah/Al
	return out
}
