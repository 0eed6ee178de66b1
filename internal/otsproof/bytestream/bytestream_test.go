package bytestream

import (
	"bytes"
	"testing"
)

func TestWriteReadU8(t *testing.T) {
	w := NewWriter()
	w.WriteU8(0x42)
	r := NewReader(w.Bytes())
	got, err := r.ReadU8()
	if err != nil {
		t.Fatalf("ReadU8: %v", err)
	}
	if got != 0x42 {
		t.Fatalf("got %#x, want 0x42", got)
	}
	if !r.EOF() {
		t.Fatal("expected EOF after consuming the only byte")
	}
}

func TestReadU8UnexpectedEOF(t *testing.T) {
	r := NewReader(nil)
	if _, err := r.ReadU8(); err != ErrUnexpectedEOF {
		t.Fatalf("got %v, want ErrUnexpectedEOF", err)
	}
}

func TestWriteReadBytes(t *testing.T) {
	data := []byte("timestamp-proof-payload")
	w := NewWriter()
	w.WriteBytes(data)
	r := NewReader(w.Bytes())
	got, err := r.ReadBytes(len(data))
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestReadBytesUnexpectedEOF(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.ReadBytes(3); err != ErrUnexpectedEOF {
		t.Fatalf("got %v, want ErrUnexpectedEOF", err)
	}
}

func TestVarUintRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 127, 128, 255, 256, 16383, 16384,
		1 << 20, 1 << 32, 1<<64 - 1, 800000,
	}
	for _, v := range values {
		w := NewWriter()
		w.WriteVarUint(v)
		r := NewReader(w.Bytes())
		got, err := r.ReadVarUint()
		if err != nil {
			t.Fatalf("ReadVarUint(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip %d: got %d", v, got)
		}
		if !r.EOF() {
			t.Fatalf("round trip %d: trailing bytes", v)
		}
	}
}

func TestVarUintEncodingIsMinimal(t *testing.T) {
	w := NewWriter()
	w.WriteVarUint(300)
	// 300 = 0b100101100 -> low 7 bits 0101100 with continuation, then 0b10
	want := []byte{0xAC, 0x02}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("got % x, want % x", w.Bytes(), want)
	}
}

func TestVarUintTooLong(t *testing.T) {
	// Ten continuation bytes with the high bit always set never terminate.
	buf := bytes.Repeat([]byte{0xFF}, 10)
	r := NewReader(buf)
	if _, err := r.ReadVarUint(); err != ErrVarUintTooLong {
		t.Fatalf("got %v, want ErrVarUintTooLong", err)
	}
}

func TestPeekU8DoesNotAdvance(t *testing.T) {
	r := NewReader([]byte{0x07, 0x08})
	peeked, err := r.PeekU8()
	if err != nil {
		t.Fatalf("PeekU8: %v", err)
	}
	if peeked != 0x07 {
		t.Fatalf("got %#x, want 0x07", peeked)
	}
	if r.Position() != 0 {
		t.Fatal("PeekU8 must not advance the cursor")
	}
	read, _ := r.ReadU8()
	if read != peeked {
		t.Fatal("ReadU8 after PeekU8 should return the same byte")
	}
}
