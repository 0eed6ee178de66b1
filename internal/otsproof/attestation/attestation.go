// Package attestation implements the OpenTimestamps attestation sum type:
// typed anchors that a timestamp tree's evaluated messages are checked
// against, each with a wire tag, a length-prefixed body, and a verify
// contract.
package attestation

import (
	"bytes"
	"errors"

	"otsproof/internal/otsproof/bytestream"
)

// Wire tags. 0x08 collides on purpose with ops.TagSHA256; disambiguation
// is positional per the codec grammar, never by unifying the tag space.
const (
	TagBitcoin  = 0x08
	TagPending  = 0x09
	TagLitecoin = 0x30
	TagEthereum = 0x20
)

var (
	// ErrUnknownAttestationTag is returned by Decode for a tag outside
	// the four known variants; callers that need forward-compatible
	// skipping should read the length-prefixed body themselves instead.
	ErrUnknownAttestationTag = errors.New("attestation: unknown tag")
	// ErrBadEthereumTxHash is returned when an Ethereum attestation body
	// does not contain exactly 32 bytes of transaction hash.
	ErrBadEthereumTxHash = errors.New("attestation: ethereum tx hash must be exactly 32 bytes")
)

// Kind identifies which chain (or calendar promise) an Attestation anchors
// to, independent of its wire encoding.
type Kind string

const (
	KindBitcoin  Kind = "bitcoin"
	KindLitecoin Kind = "litecoin"
	KindEthereum Kind = "ethereum"
	KindPending  Kind = "pending"
)

// Weight is this kind's contribution to the consensus scorer's confidence
// score, per spec §4.9.
func (k Kind) Weight() float64 {
	switch k {
	case KindBitcoin:
		return 1.0
	case KindLitecoin:
		return 0.8
	case KindEthereum:
		return 0.7
	case KindPending:
		return 0.1
	default:
		return 0
	}
}

// Attestation is a typed anchor: BitcoinBlockHeader, LitecoinBlockHeader,
// Ethereum, or Pending.
type Attestation interface {
	// Tag returns the attestation's one-byte wire tag.
	Tag() byte
	// Kind identifies the chain this attestation targets.
	Kind() Kind
	// Encode writes the length-prefixed body (not the tag byte, which
	// the codec writes) so unknown variants remain skippable.
	Encode(w *bytestream.Writer)
	// Equal reports whether two attestations have byte-identical
	// encodings — the equality relation tree merge dedups against.
	Equal(other Attestation) bool
}

func encodedBody(a Attestation) []byte {
	w := bytestream.NewWriter()
	a.Encode(w)
	return w.Bytes()
}

func encodedEqual(a, b Attestation) bool {
	if a.Tag() != b.Tag() {
		return false
	}
	return bytes.Equal(encodedBody(a), encodedBody(b))
}

// Bitcoin commits that the evaluated message appears in the block at
// Height on the Bitcoin main chain.
type Bitcoin struct{ Height uint64 }

func (Bitcoin) Tag() byte         { return TagBitcoin }
func (Bitcoin) Kind() Kind        { return KindBitcoin }
func (a Bitcoin) Equal(o Attestation) bool { return encodedEqual(a, o) }
func (a Bitcoin) Encode(w *bytestream.Writer) {
	body := bytestream.NewWriter()
	body.WriteVarUint(a.Height)
	w.WriteVarUint(uint64(body.Len()))
	w.WriteBytes(body.Bytes())
}

// Litecoin commits that the evaluated message appears in the block at
// Height on the Litecoin main chain.
type Litecoin struct{ Height uint64 }

func (Litecoin) Tag() byte         { return TagLitecoin }
func (Litecoin) Kind() Kind        { return KindLitecoin }
func (a Litecoin) Equal(o Attestation) bool { return encodedEqual(a, o) }
func (a Litecoin) Encode(w *bytestream.Writer) {
	body := bytestream.NewWriter()
	body.WriteVarUint(a.Height)
	w.WriteVarUint(uint64(body.Len()))
	w.WriteBytes(body.Bytes())
}

// Ethereum commits that the evaluated message is embedded in the input
// data of transaction TxHash, mined in BlockNumber.
type Ethereum struct {
	TxHash      [32]byte
	BlockNumber uint64
}

func (Ethereum) Tag() byte         { return TagEthereum }
func (Ethereum) Kind() Kind        { return KindEthereum }
func (a Ethereum) Equal(o Attestation) bool { return encodedEqual(a, o) }
func (a Ethereum) Encode(w *bytestream.Writer) {
	body := bytestream.NewWriter()
	body.WriteBytes(a.TxHash[:])
	body.WriteVarUint(a.BlockNumber)
	w.WriteVarUint(uint64(body.Len()))
	w.WriteBytes(body.Bytes())
}

// Pending commits only that the calendar at URI has accepted the leaf and
// will later be able to produce the concrete attestations replacing this
// one; it is not trust-bearing on its own.
type Pending struct{ URI []byte }

func (Pending) Tag() byte         { return TagPending }
func (Pending) Kind() Kind        { return KindPending }
func (a Pending) Equal(o Attestation) bool { return encodedEqual(a, o) }
func (a Pending) Encode(w *bytestream.Writer) {
	body := bytestream.NewWriter()
	body.WriteBytes(a.URI)
	w.WriteVarUint(uint64(body.Len()))
	w.WriteBytes(body.Bytes())
}

// Decode reads a length-prefixed attestation body for the given tag. If
// the tag is unrecognized, it returns a nil Attestation and
// ErrUnknownAttestationTag; the body has already been consumed from r and
// is not returned.
func Decode(tag byte, r *bytestream.Reader) (Attestation, error) {
	length, err := r.ReadVarUint()
	if err != nil {
		return nil, err
	}
	body, err := r.ReadBytes(int(length))
	if err != nil {
		return nil, err
	}
	br := bytestream.NewReader(body)

	switch tag {
	case TagBitcoin:
		height, err := br.ReadVarUint()
		if err != nil {
			return nil, err
		}
		return Bitcoin{Height: height}, nil
	case TagLitecoin:
		height, err := br.ReadVarUint()
		if err != nil {
			return nil, err
		}
		return Litecoin{Height: height}, nil
	case TagEthereum:
		txHash, err := br.ReadBytes(32)
		if err != nil {
			return nil, ErrBadEthereumTxHash
		}
		blockNumber, err := br.ReadVarUint()
		if err != nil {
			return nil, err
		}
		var eth Ethereum
		copy(eth.TxHash[:], txHash)
		eth.BlockNumber = blockNumber
		return eth, nil
	case TagPending:
		return Pending{URI: body}, nil
	default:
		return nil, ErrUnknownAttestationTag
	}
}
