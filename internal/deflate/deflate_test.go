package deflate

import (
	"bytes"
	"testing"
)

func TestInflate_RoundTrip_Stored(t *testing.T) {
	data := []byte("hello, stored deflate block, round trip please")
	compressed := Deflate(data, NoCompression)
	got, err := Inflate(compressed)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestInflate_RoundTrip_FixedHuffman(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 50)
	compressed := Deflate(data, BestSpeed)
	got, err := Inflate(compressed)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch, lengths got=%d want=%d", len(got), len(data))
	}
}

func TestDeflate_EmptyInput(t *testing.T) {
	compressed := Deflate(nil, BestSpeed)
	got, err := Inflate(compressed)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d bytes, want 0", len(got))
	}
}

func TestZlib_RoundTrip(t *testing.T) {
	data := []byte("zlib-wrapped payload with a trailer adler32 checksum")
	compressed := ZlibCompress(data, BestSpeed)
	if compressed[0] != 0x78 {
		t.Fatalf("CMF byte = %#x, want 0x78", compressed[0])
	}
	if (int(compressed[0])*256+int(compressed[1]))%31 != 0 {
		t.Fatalf("zlib header check bits invalid: %02x %02x", compressed[0], compressed[1])
	}
	got, err := ZlibDecompress(compressed)
	if err != nil {
		t.Fatalf("ZlibDecompress: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch")
	}
}

func TestZlib_RejectsPresetDictionary(t *testing.T) {
	compressed := ZlibCompress([]byte("x"), BestSpeed)
	compressed[1] |= 0x20 // set FDICT
	if _, err := ZlibDecompress(compressed); err == nil {
		t.Fatalf("expected error for FDICT=1")
	}
}
