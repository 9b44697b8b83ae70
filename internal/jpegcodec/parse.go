package jpegcodec

import "encoding/binary"

// parseFrame walks every marker segment, filling in quantization/Huffman
// tables as DQT/DHT segments are encountered, and returns once SOS is
// reached with the entropy-coded data (from just after SOS's header to the
// EOI marker, exclusive).
func parseFrame(data []byte) (*decodedFrame, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, ErrNotJPEG
	}
	frame := &decodedFrame{}
	pos := 2

	for pos+2 <= len(data) {
		if data[pos] != 0xFF {
			pos++
			continue
		}
		marker := data[pos+1]
		if marker == 0xD8 {
			pos += 2
			continue
		}
		if marker == 0xD9 {
			break
		}
		if pos+4 > len(data) {
			return nil, ErrTruncated
		}
		segLen := int(binary.BigEndian.Uint16(data[pos+2:]))
		if pos+2+segLen > len(data) {
			return nil, ErrTruncated
		}
		seg := data[pos+4 : pos+2+segLen]

		switch marker {
		case 0xDB: // DQT, may hold multiple tables
			if err := parseDQT(frame, seg); err != nil {
				return nil, err
			}
		case 0xC4: // DHT, may hold multiple tables
			if err := parseDHT(frame, seg); err != nil {
				return nil, err
			}
		case 0xC0, 0xC1: // SOF0/SOF1 (baseline/extended sequential)
			if err := parseSOF(frame, seg); err != nil {
				return nil, err
			}
		case 0xC2:
			return nil, ErrUnsupported // progressive
		case 0xDA: // SOS
			if err := parseSOS(frame, seg); err != nil {
				return nil, err
			}
			scanStart := pos + 2 + segLen
			scanEnd := findEOI(data, scanStart)
			frame.scanData = stripRestartMarkers(data[scanStart:scanEnd])
			return frame, nil
		}
		pos += 2 + segLen
	}
	return nil, ErrNoSOF
}

func findEOI(data []byte, from int) int {
	for i := from; i+1 < len(data); i++ {
		if data[i] == 0xFF && data[i+1] == 0xD9 {
			return i
		}
	}
	return len(data)
}

// stripRestartMarkers removes RST0..RST7 markers from the entropy segment;
// this decoder does not implement restart-interval resynchronization (DC
// predictors simply continue across the removed marker), which is
// sufficient for single-scan images with no DRI segment.
func stripRestartMarkers(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == 0xFF && i+1 < len(data) && data[i+1] >= 0xD0 && data[i+1] <= 0xD7 {
			i++
			continue
		}
		out = append(out, data[i])
	}
	return out
}

func parseDQT(frame *decodedFrame, seg []byte) error {
	pos := 0
	for pos < len(seg) {
		pq := seg[pos] >> 4
		tq := seg[pos] & 0x0F
		pos++
		var table [64]int
		if pq == 0 {
			if pos+64 > len(seg) {
				return ErrTruncated
			}
			for i, z := range zigzag {
				table[z] = int(seg[pos+i])
			}
			pos += 64
		} else {
			if pos+128 > len(seg) {
				return ErrTruncated
			}
			for i, z := range zigzag {
				table[z] = int(binary.BigEndian.Uint16(seg[pos+2*i:]))
			}
			pos += 128
		}
		if tq < 4 {
			frame.quantTables[tq] = &table
		}
	}
	return nil
}

func parseDHT(frame *decodedFrame, seg []byte) error {
	pos := 0
	for pos < len(seg) {
		if pos+17 > len(seg) {
			return ErrTruncated
		}
		class := seg[pos] >> 4
		id := seg[pos] & 0x0F
		var bits [16]byte
		copy(bits[:], seg[pos+1:pos+17])
		total := 0
		for _, b := range bits {
			total += int(b)
		}
		pos += 17
		if pos+total > len(seg) {
			return ErrTruncated
		}
		values := append([]byte(nil), seg[pos:pos+total]...)
		pos += total

		t := &huffmanTable{bits: bits, values: values}
		t.buildDecodeTables()
		if id < 4 {
			if class == 0 {
				frame.dcTables[id] = t
			} else {
				frame.acTables[id] = t
			}
		}
	}
	return nil
}

// parseSOS reads the scan header's per-component DC/AC table selectors and
// assigns them onto the matching frame.components entry (matched by
// component id).
func parseSOS(frame *decodedFrame, seg []byte) error {
	if len(seg) < 1 {
		return ErrTruncated
	}
	n := int(seg[0])
	if len(seg) < 1+2*n {
		return ErrTruncated
	}
	for i := 0; i < n; i++ {
		id := seg[1+2*i]
		sel := seg[1+2*i+1]
		for ci := range frame.components {
			if frame.components[ci].id == id {
				frame.components[ci].dcSel = sel >> 4
				frame.components[ci].acSel = sel & 0x0F
			}
		}
	}
	return nil
}

func parseSOF(frame *decodedFrame, seg []byte) error {
	if len(seg) < 6 {
		return ErrTruncated
	}
	frame.height = int(binary.BigEndian.Uint16(seg[1:]))
	frame.width = int(binary.BigEndian.Uint16(seg[3:]))
	numComp := int(seg[5])
	if len(seg) < 6+3*numComp {
		return ErrTruncated
	}
	frame.components = make([]component, numComp)
	for i := 0; i < numComp; i++ {
		off := 6 + 3*i
		frame.components[i] = component{
			id:       seg[off],
			hSamp:    seg[off+1] >> 4,
			vSamp:    seg[off+1] & 0x0F,
			quantSel: seg[off+2],
		}
	}
	return nil
}
