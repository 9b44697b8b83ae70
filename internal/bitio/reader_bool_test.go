package bitio

import (
	"testing"
)

func TestNewBoolReader_InitialState(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	br := NewBoolReader(data)

	if br.Range != 254 {
		t.Errorf("initial Range = %d, want 254", br.Range)
	}
	if br.EOF() {
		t.Error("unexpected eof after init")
	}
}

func TestBoolReader_GetBit_AllZeroData(t *testing.T) {
	// All-zero data should produce consistent results with prob 0x80.
	data := make([]byte, 16)
	br := NewBoolReader(data)

	// With all-zero data and prob 0x80, the decoded value should be 0
	// because value (0) is never > split.
	for i := 0; i < 20; i++ {
		bit := br.GetBit(0x80)
		if bit != 0 {
			t.Errorf("bit %d: got %d, want 0 (all-zero data)", i, bit)
		}
	}
}

func TestBoolReader_GetBit_AllOnesData(t *testing.T) {
	// All-0xff data should produce 1s with prob 0x80.
	data := make([]byte, 16)
	for i := range data {
		data[i] = 0xff
	}
	br := NewBoolReader(data)

	for i := 0; i < 20; i++ {
		bit := br.GetBit(0x80)
		if bit != 1 {
			t.Errorf("bit %d: got %d, want 1 (all-ones data)", i, bit)
		}
	}
}

func TestBoolReader_GetValue(t *testing.T) {
	// Use a known byte sequence and verify multi-bit reads.
	data := []byte{0xAB, 0xCD, 0xEF, 0x01, 0x23, 0x45, 0x67, 0x89, 0x00, 0x00}
	br := NewBoolReader(data)

	// Read several small values and verify they are within range.
	for i := 1; i <= 8; i++ {
		v := br.GetValue(i)
		if v >= (1 << uint(i)) {
			t.Errorf("GetValue(%d) = %d, exceeds max %d", i, v, (1<<uint(i))-1)
		}
	}
}

func TestBoolReader_GetSignedValue(t *testing.T) {
	data := make([]byte, 16)
	for i := range data {
		data[i] = 0xAA
	}
	br := NewBoolReader(data)

	// Read signed values and verify magnitude is within range.
	for i := 1; i <= 8; i++ {
		sv := br.GetSignedValue(i)
		max := int32(1) << uint(i)
		if sv < -max+1 || sv > max-1 {
			t.Errorf("GetSignedValue(%d) = %d, out of expected range [%d, %d]",
				i, sv, -max+1, max-1)
		}
	}
}

func TestBoolReader_EOF_EmptyData(t *testing.T) {
	br := NewBoolReader([]byte{})

	if !br.EOF() {
		t.Error("expected eof on empty data")
	}
}

func TestBoolReader_EOF_ShortData(t *testing.T) {
	br := NewBoolReader([]byte{0x42})

	// Read enough bits to exhaust the single byte.
	for i := 0; i < 16; i++ {
		br.GetBit(0x80)
	}

	if !br.EOF() {
		t.Error("expected eof after exhausting single byte")
	}
}

func TestBoolReader_Range_StaysInBounds(t *testing.T) {
	// Range must stay within [127, 254] (libwebp's VP8GetBit invariant)
	// across a long mixed-probability run — a real exercise of the
	// normalisation path now that GetBit is the reader's only decode path.
	data := []byte{
		0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0,
		0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88,
	}
	probs := []uint8{128, 1, 255, 64, 192, 100, 200, 50}
	br := NewBoolReader(data)
	for i := 0; i < 64; i++ {
		br.GetBit(probs[i%len(probs)])
		if br.Range < 127 || br.Range > 254 {
			t.Fatalf("bit %d: Range = %d, out of [127, 254]", i, br.Range)
		}
	}
}
