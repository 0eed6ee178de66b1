package ops

import (
	"bytes"
	"testing"

	"otsproof/internal/otsproof/bytestream"
)

func apply(t *testing.T, op Op, msg []byte) []byte {
	t.Helper()
	out, err := op.Apply(msg)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return out
}

func TestDigestLengths(t *testing.T) {
	msg := []byte("the quick brown fox")
	if got := len(apply(t, SHA1Op{}, msg)); got != 20 {
		t.Errorf("SHA1 length = %d, want 20", got)
	}
	if got := len(apply(t, RIPEMD160Op{}, msg)); got != 20 {
		t.Errorf("RIPEMD160 length = %d, want 20", got)
	}
	if got := len(apply(t, SHA256Op{}, msg)); got != 32 {
		t.Errorf("SHA256 length = %d, want 32", got)
	}
	if got := len(apply(t, Keccak256Op{}, msg)); got != 32 {
		t.Errorf("Keccak256 length = %d, want 32", got)
	}
}

func TestAppendPrepend(t *testing.T) {
	msg := []byte("msg")
	data := []byte("data")

	got := apply(t, AppendOp{Data: data}, msg)
	if !bytes.Equal(got, append(append([]byte{}, msg...), data...)) {
		t.Errorf("APPEND: got %q", got)
	}

	got = apply(t, PrependOp{Data: data}, msg)
	if !bytes.Equal(got, append(append([]byte{}, data...), msg...)) {
		t.Errorf("PREPEND: got %q", got)
	}
}

func TestReverseInvolution(t *testing.T) {
	msg := []byte("not-a-palindrome-1234")
	once := apply(t, ReverseOp{}, msg)
	twice := apply(t, ReverseOp{}, once)
	if !bytes.Equal(twice, msg) {
		t.Fatalf("REVERSE(REVERSE(m)) = %q, want %q", twice, msg)
	}
}

func TestXorInvolution(t *testing.T) {
	msg := []byte("some message bytes")
	key := []byte{0x0F, 0xAB, 0x77}
	once := apply(t, XorOp{Key: key}, msg)
	twice := apply(t, XorOp{Key: key}, once)
	if !bytes.Equal(twice, msg) {
		t.Fatalf("XOR(k)(XOR(k)(m)) = %q, want %q", twice, msg)
	}
}

func TestHexlifyUnhexlifyRoundTrip(t *testing.T) {
	msg := []byte{0x00, 0x01, 0xFE, 0xFF, 0xAB}
	hexed := apply(t, HexlifyOp{}, msg)
	back := apply(t, UnhexlifyOp{}, hexed)
	if !bytes.Equal(back, msg) {
		t.Fatalf("hexlify/unhexlify round trip: got %x, want %x", back, msg)
	}
}

func TestUnhexlifyBadHex(t *testing.T) {
	_, err := UnhexlifyOp{}.Apply([]byte("zz"))
	if err == nil {
		t.Fatal("expected error for non-hex input")
	}
}

func TestSubstr(t *testing.T) {
	msg := []byte("0123456789")
	got := apply(t, SubstrOp{Start: 2, Len: 3}, msg)
	if !bytes.Equal(got, []byte("234")) {
		t.Fatalf("SUBSTR(2,3) = %q, want 234", got)
	}

	got = apply(t, SubstrOp{Start: 5, Len: SubstrToEnd}, msg)
	if !bytes.Equal(got, []byte("56789")) {
		t.Fatalf("SUBSTR(5,toEnd) = %q, want 56789", got)
	}
}

func TestSubstrMessageTooShort(t *testing.T) {
	msg := []byte("short")
	_, err := SubstrOp{Start: 2, Len: 100}.Apply(msg)
	if err != ErrMessageTooShort {
		t.Fatalf("got %v, want ErrMessageTooShort", err)
	}
}

func TestLeftRight(t *testing.T) {
	msg := []byte("0123456789")
	if got := apply(t, LeftOp{Len: 4}, msg); !bytes.Equal(got, []byte("0123")) {
		t.Fatalf("LEFT(4) = %q", got)
	}
	if got := apply(t, RightOp{Len: 4}, msg); !bytes.Equal(got, []byte("6789")) {
		t.Fatalf("RIGHT(4) = %q", got)
	}
	if _, err := (LeftOp{Len: 100}).Apply(msg); err != ErrMessageTooShort {
		t.Fatalf("LEFT overflow: got %v", err)
	}
	if _, err := (RightOp{Len: 100}).Apply(msg); err != ErrMessageTooShort {
		t.Fatalf("RIGHT overflow: got %v", err)
	}
}

func TestAndOr(t *testing.T) {
	msg := []byte{0xFF, 0x0F, 0xAA}
	mask := []byte{0x0F}
	if got := apply(t, AndOp{Mask: mask}, msg); !bytes.Equal(got, []byte{0x0F, 0x0F, 0x0A}) {
		t.Fatalf("AND: got % x", got)
	}
	if got := apply(t, OrOp{Mask: mask}, msg); !bytes.Equal(got, []byte{0xFF, 0x0F, 0xAF}) {
		t.Fatalf("OR: got % x", got)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Op{
		SHA1Op{}, RIPEMD160Op{}, SHA256Op{}, Keccak256Op{},
		ReverseOp{}, HexlifyOp{}, UnhexlifyOp{},
		AppendOp{Data: []byte("x")},
		PrependOp{Data: []byte("y")},
		SubstrOp{Start: 1, Len: 5},
		SubstrOp{Start: 0, Len: SubstrToEnd},
		LeftOp{Len: 3},
		RightOp{Len: 3},
		XorOp{Key: []byte{0x01, 0x02}},
		AndOp{Mask: []byte{0xF0}},
		OrOp{Mask: []byte{0x0F}},
	}
	for _, op := range cases {
		w := bytestream.NewWriter()
		op.Encode(w)
		r := bytestream.NewReader(w.Bytes())
		decoded, err := Decode(op.Tag(), r)
		if err != nil {
			t.Fatalf("Decode(%#x): %v", op.Tag(), err)
		}
		if !op.Equal(decoded) {
			t.Fatalf("round trip mismatch for tag %#x", op.Tag())
		}
		if !r.EOF() {
			t.Fatalf("trailing bytes decoding tag %#x", op.Tag())
		}
	}
}

func TestDecodeRejectsOversizedBody(t *testing.T) {
	w := bytestream.NewWriter()
	w.WriteVarUint(MaxVariableDataLen + 1)
	w.WriteBytes(make([]byte, MaxVariableDataLen+1))
	r := bytestream.NewReader(w.Bytes())
	if _, err := Decode(TagAppend, r); err != ErrBodyTooLong {
		t.Fatalf("got %v, want ErrBodyTooLong", err)
	}
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	r := bytestream.NewReader(nil)
	if _, err := Decode(0x99, r); err != ErrUnknownOpTag {
		t.Fatalf("got %v, want ErrUnknownOpTag", err)
	}
}

func TestDecodeRejectsZeroLenSubstr(t *testing.T) {
	w := bytestream.NewWriter()
	w.WriteVarUint(0)
	w.WriteVarUint(0)
	r := bytestream.NewReader(w.Bytes())
	if _, err := Decode(TagSubstr, r); err != ErrBadSubstrLen {
		t.Fatalf("got %v, want ErrBadSubstrLen", err)
	}
}
