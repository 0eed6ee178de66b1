// Package ops implements the fifteen pure message-to-message operations
// that label edges of a timestamp tree.
package ops

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required for OTS wire compatibility
	"golang.org/x/crypto/sha3"

	"crypto/sha1"
	"crypto/sha256"

	"otsproof/internal/otsproof/bytestream"
)

// Wire tags. Structural tags (operation introducer 0x00, end-of-timestamp
// 0xF0) live in the codec package and are disjoint from this table only
// positionally: APPEND reuses 0xF0 but only ever appears immediately after
// the 0x00 introducer.
const (
	TagSHA1      = 0x02
	TagRIPEMD160 = 0x03
	TagSHA256    = 0x08
	TagKeccak256 = 0x67
	TagAppend    = 0xF0
	TagPrepend   = 0xF1
	TagReverse   = 0x0A
	TagHexlify   = 0x0B
	TagUnhexlify = 0x0C
	TagSubstr    = 0x0D
	TagLeft      = 0x0E
	TagRight     = 0x0F
	TagXor       = 0x10
	TagAnd       = 0x11
	TagOr        = 0x12
)

// SubstrToEnd is the canonical SUBSTR length sentinel meaning "to the end
// of the message." Both encode and decode agree on this value; a decoded
// length of zero that isn't this sentinel is rejected (see spec Open
// Question 3).
const SubstrToEnd = math.MaxUint32

// MaxVariableDataLen bounds the immediate data body of APPEND, PREPEND,
// XOR, AND, and OR on deserialization.
const MaxVariableDataLen = 1024

var (
	// ErrMessageTooShort is a fatal evaluation error: SUBSTR/LEFT/RIGHT
	// requested more bytes than the message holds.
	ErrMessageTooShort = errors.New("ops: message too short")
	// ErrBadHex is a fatal evaluation error from UNHEXLIFY.
	ErrBadHex = errors.New("ops: invalid hex")
	// ErrBodyTooLong is a fatal codec error: a variable-length operation
	// body exceeded MaxVariableDataLen on deserialization.
	ErrBodyTooLong = errors.New("ops: operation body exceeds maximum length")
	// ErrUnknownOpTag is a fatal codec error for an unrecognized op tag.
	ErrUnknownOpTag = errors.New("ops: unknown operation tag")
	// ErrBadSubstrLen is a fatal codec error: SUBSTR length was zero but
	// not the "to end" sentinel.
	ErrBadSubstrLen = errors.New("ops: substr length must be positive or the to-end sentinel")
)

// Op is a pure, total, non-mutating message transform with a wire tag.
type Op interface {
	// Tag returns the operation's one-byte wire tag.
	Tag() byte
	// Encode writes the operation's immediate body (not including the
	// 0x00 introducer or the tag byte, which the codec writes).
	Encode(w *bytestream.Writer)
	// Apply returns a new message; it never mutates msg and never panics
	// on well-formed parameters.
	Apply(msg []byte) ([]byte, error)
	// Equal reports whether two operations have byte-identical encodings,
	// the equality relation the tree merge algorithm uses to match
	// siblings.
	Equal(other Op) bool
}

func encodedEqual(a, b Op) bool {
	if a.Tag() != b.Tag() {
		return false
	}
	wa := bytestream.NewWriter()
	a.Encode(wa)
	wb := bytestream.NewWriter()
	b.Encode(wb)
	return bytes.Equal(wa.Bytes(), wb.Bytes())
}

// --- Parameterless hash operations ---

// SHA1Op computes the 20-byte SHA-1 digest.
type SHA1Op struct{}

func (SHA1Op) Tag() byte                    { return TagSHA1 }
func (SHA1Op) Encode(*bytestream.Writer)    {}
func (o SHA1Op) Equal(other Op) bool        { return encodedEqual(o, other) }
func (SHA1Op) Apply(msg []byte) ([]byte, error) {
	sum := sha1.Sum(msg)
	return sum[:], nil
}

// RIPEMD160Op computes the 20-byte RIPEMD-160 digest.
type RIPEMD160Op struct{}

func (RIPEMD160Op) Tag() byte                 { return TagRIPEMD160 }
func (RIPEMD160Op) Encode(*bytestream.Writer) {}
func (o RIPEMD160Op) Equal(other Op) bool     { return encodedEqual(o, other) }
func (RIPEMD160Op) Apply(msg []byte) ([]byte, error) {
	h := ripemd160.New()
	h.Write(msg)
	return h.Sum(nil), nil
}

// SHA256Op computes the 32-byte SHA-256 digest.
type SHA256Op struct{}

func (SHA256Op) Tag() byte                 { return TagSHA256 }
func (SHA256Op) Encode(*bytestream.Writer) {}
func (o SHA256Op) Equal(other Op) bool     { return encodedEqual(o, other) }
func (SHA256Op) Apply(msg []byte) ([]byte, error) {
	sum := sha256.Sum256(msg)
	return sum[:], nil
}

// Keccak256Op computes the 32-byte Keccak-256 digest (the pre-standard
// variant Ethereum uses, not NIST SHA3-256).
type Keccak256Op struct{}

func (Keccak256Op) Tag() byte                 { return TagKeccak256 }
func (Keccak256Op) Encode(*bytestream.Writer) {}
func (o Keccak256Op) Equal(other Op) bool     { return encodedEqual(o, other) }
func (Keccak256Op) Apply(msg []byte) ([]byte, error) {
	h := sha3.NewLegacyKeccak256()
	h.Write(msg)
	return h.Sum(nil), nil
}

// --- Variable-data operations ---

// AppendOp appends fixed Data to the message.
type AppendOp struct{ Data []byte }

func (AppendOp) Tag() byte { return TagAppend }
func (o AppendOp) Encode(w *bytestream.Writer) {
	w.WriteVarUint(uint64(len(o.Data)))
	w.WriteBytes(o.Data)
}
func (o AppendOp) Equal(other Op) bool { return encodedEqual(o, other) }
func (o AppendOp) Apply(msg []byte) ([]byte, error) {
	out := make([]byte, 0, len(msg)+len(o.Data))
	out = append(out, msg...)
	out = append(out, o.Data...)
	return out, nil
}

// PrependOp prepends fixed Data to the message.
type PrependOp struct{ Data []byte }

func (PrependOp) Tag() byte { return TagPrepend }
func (o PrependOp) Encode(w *bytestream.Writer) {
	w.WriteVarUint(uint64(len(o.Data)))
	w.WriteBytes(o.Data)
}
func (o PrependOp) Equal(other Op) bool { return encodedEqual(o, other) }
func (o PrependOp) Apply(msg []byte) ([]byte, error) {
	out := make([]byte, 0, len(msg)+len(o.Data))
	out = append(out, o.Data...)
	out = append(out, msg...)
	return out, nil
}

// --- Structural transforms ---

// ReverseOp byte-reverses the message.
type ReverseOp struct{}

func (ReverseOp) Tag() byte                 { return TagReverse }
func (ReverseOp) Encode(*bytestream.Writer) {}
func (o ReverseOp) Equal(other Op) bool     { return encodedEqual(o, other) }
func (ReverseOp) Apply(msg []byte) ([]byte, error) {
	out := make([]byte, len(msg))
	for i, b := range msg {
		out[len(msg)-1-i] = b
	}
	return out, nil
}

// HexlifyOp renders the message as lowercase hex bytes.
type HexlifyOp struct{}

func (HexlifyOp) Tag() byte                 { return TagHexlify }
func (HexlifyOp) Encode(*bytestream.Writer) {}
func (o HexlifyOp) Equal(other Op) bool     { return encodedEqual(o, other) }
func (HexlifyOp) Apply(msg []byte) ([]byte, error) {
	return []byte(hex.EncodeToString(msg)), nil
}

// UnhexlifyOp decodes lowercase (or uppercase) hex bytes back to binary.
type UnhexlifyOp struct{}

func (UnhexlifyOp) Tag() byte                 { return TagUnhexlify }
func (UnhexlifyOp) Encode(*bytestream.Writer) {}
func (o UnhexlifyOp) Equal(other Op) bool     { return encodedEqual(o, other) }
func (UnhexlifyOp) Apply(msg []byte) ([]byte, error) {
	out, err := hex.DecodeString(string(msg))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHex, err)
	}
	return out, nil
}

// --- Slicing operations ---

// SubstrOp extracts msg[Start:Start+Len]; Len == SubstrToEnd means "to the
// end of the message."
type SubstrOp struct {
	Start uint64
	Len   uint64
}

func (SubstrOp) Tag() byte { return TagSubstr }
func (o SubstrOp) Encode(w *bytestream.Writer) {
	w.WriteVarUint(o.Start)
	w.WriteVarUint(o.Len)
}
func (o SubstrOp) Equal(other Op) bool { return encodedEqual(o, other) }
func (o SubstrOp) Apply(msg []byte) ([]byte, error) {
	start := o.Start
	if start > uint64(len(msg)) {
		return nil, ErrMessageTooShort
	}
	end := uint64(len(msg))
	if o.Len != SubstrToEnd {
		end = start + o.Len
		if end > uint64(len(msg)) {
			return nil, ErrMessageTooShort
		}
	}
	out := make([]byte, end-start)
	copy(out, msg[start:end])
	return out, nil
}

// LeftOp extracts msg[:Len].
type LeftOp struct{ Len uint64 }

func (LeftOp) Tag() byte                 { return TagLeft }
func (o LeftOp) Encode(w *bytestream.Writer) { w.WriteVarUint(o.Len) }
func (o LeftOp) Equal(other Op) bool     { return encodedEqual(o, other) }
func (o LeftOp) Apply(msg []byte) ([]byte, error) {
	if o.Len > uint64(len(msg)) {
		return nil, ErrMessageTooShort
	}
	out := make([]byte, o.Len)
	copy(out, msg[:o.Len])
	return out, nil
}

// RightOp extracts msg[len(msg)-Len:].
type RightOp struct{ Len uint64 }

func (RightOp) Tag() byte                 { return TagRight }
func (o RightOp) Encode(w *bytestream.Writer) { w.WriteVarUint(o.Len) }
func (o RightOp) Equal(other Op) bool     { return encodedEqual(o, other) }
func (o RightOp) Apply(msg []byte) ([]byte, error) {
	if o.Len > uint64(len(msg)) {
		return nil, ErrMessageTooShort
	}
	start := uint64(len(msg)) - o.Len
	out := make([]byte, o.Len)
	copy(out, msg[start:])
	return out, nil
}

// --- Byte-cycled bitwise operations ---

// XorOp XORs each byte of the message with Key, cycling Key.
type XorOp struct{ Key []byte }

func (XorOp) Tag() byte { return TagXor }
func (o XorOp) Encode(w *bytestream.Writer) {
	w.WriteVarUint(uint64(len(o.Key)))
	w.WriteBytes(o.Key)
}
func (o XorOp) Equal(other Op) bool { return encodedEqual(o, other) }
func (o XorOp) Apply(msg []byte) ([]byte, error) {
	return cycledOp(msg, o.Key, func(a, b byte) byte { return a ^ b })
}

// AndOp ANDs each byte of the message with Mask, cycling Mask.
type AndOp struct{ Mask []byte }

func (AndOp) Tag() byte { return TagAnd }
func (o AndOp) Encode(w *bytestream.Writer) {
	w.WriteVarUint(uint64(len(o.Mask)))
	w.WriteBytes(o.Mask)
}
func (o AndOp) Equal(other Op) bool { return encodedEqual(o, other) }
func (o AndOp) Apply(msg []byte) ([]byte, error) {
	return cycledOp(msg, o.Mask, func(a, b byte) byte { return a & b })
}

// OrOp ORs each byte of the message with Mask, cycling Mask.
type OrOp struct{ Mask []byte }

func (OrOp) Tag() byte { return TagOr }
func (o OrOp) Encode(w *bytestream.Writer) {
	w.WriteVarUint(uint64(len(o.Mask)))
	w.WriteBytes(o.Mask)
}
func (o OrOp) Equal(other Op) bool { return encodedEqual(o, other) }
func (o OrOp) Apply(msg []byte) ([]byte, error) {
	return cycledOp(msg, o.Mask, func(a, b byte) byte { return a | b })
}

func cycledOp(msg, key []byte, f func(a, b byte) byte) ([]byte, error) {
	if len(key) == 0 {
		out := make([]byte, len(msg))
		copy(out, msg)
		return out, nil
	}
	out := make([]byte, len(msg))
	for i, b := range msg {
		out[i] = f(b, key[i%len(key)])
	}
	return out, nil
}
