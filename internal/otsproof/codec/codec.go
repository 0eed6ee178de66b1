// Package codec implements the OpenTimestamps wire grammar: the envelope
// (magic, version, optional privacy nonce) and the recursive timestamp
// tree encoding built from bytestream and the ops/attestation tag spaces.
package codec

import (
	"bytes"
	"errors"

	"otsproof/internal/otsproof/attestation"
	"otsproof/internal/otsproof/bytestream"
	"otsproof/internal/otsproof/ops"
	"otsproof/internal/otsproof/tree"
)

// Magic is the 16-byte header every OpenTimestamps proof begins with.
var Magic = []byte{0x00, 'O', 'p', 'e', 'n', 'T', 'i', 'm', 'e', 's', 't', 'a', 'm', 'p', 's', 0x00}

const (
	// VersionLegacy carries no privacy nonce.
	VersionLegacy = 0x00
	// VersionNonce is followed by a one-byte nonce length and the privacy
	// nonce.
	VersionNonce = 0x01

	// NonceLen is the fixed length of the privacy nonce.
	NonceLen = 16

	// opIntroducer precedes every (OpTag, OpBody, Timestamp) triple.
	opIntroducer = 0x00
	// terminator ends a Timestamp node's edge list. It collides on the
	// wire with ops.TagAppend, but a bare terminator byte only ever
	// appears where an op tag could not: op tags are only read
	// immediately after opIntroducer.
	terminator = 0xF0
)

var (
	ErrBadMagic       = errors.New("codec: bad magic bytes")
	ErrUnknownVersion = errors.New("codec: unknown envelope version")
)

func isAttestationTag(tag byte) bool {
	switch tag {
	case attestation.TagBitcoin, attestation.TagLitecoin, attestation.TagEthereum, attestation.TagPending:
		return true
	default:
		return false
	}
}

// EncodeEnvelope serializes a detached proof: the magic header, version
// byte, optional nonce-length-prefixed nonce, and the timestamp tree. Use
// EncodeAttached to append this same envelope to a document's bytes.
func EncodeEnvelope(nonce []byte, root *tree.Timestamp) []byte {
	w := bytestream.NewWriter()
	w.WriteBytes(Magic)
	if nonce != nil {
		w.WriteU8(VersionNonce)
		w.WriteU8(byte(len(nonce)))
		w.WriteBytes(nonce)
	} else {
		w.WriteU8(VersionLegacy)
	}
	EncodeNode(w, root)
	return w.Bytes()
}

// DecodeEnvelope parses a full detached proof, returning the nonce (nil
// if the envelope carried none) and the decoded timestamp tree.
func DecodeEnvelope(data []byte) (nonce []byte, root *tree.Timestamp, err error) {
	r := bytestream.NewReader(data)
	if err := readMagic(r); err != nil {
		return nil, nil, err
	}
	nonce, err = readVersionAndNonce(r)
	if err != nil {
		return nil, nil, err
	}
	root, err = DecodeNode(r)
	if err != nil {
		return nil, nil, err
	}
	return nonce, root, nil
}

// EncodeAttached appends EncodeEnvelope's output directly after document,
// per spec §3: an attached timestamp file is the original file's bytes
// followed by the envelope, with the envelope's leading magic acting as
// the trailer separator a reader splits on.
func EncodeAttached(document, nonce []byte, root *tree.Timestamp) []byte {
	envelope := EncodeEnvelope(nonce, root)
	out := make([]byte, 0, len(document)+len(envelope))
	out = append(out, document...)
	out = append(out, envelope...)
	return out
}

// ErrMagicNotFound is returned by DecodeAttached when no occurrence of
// Magic is present in data, so the document/envelope split point cannot
// be located.
var ErrMagicNotFound = errors.New("codec: magic bytes not found in attached file")

// DecodeAttached splits an attached timestamp file into the original
// document bytes and its parsed envelope, locating the split point by the
// last occurrence of Magic (the envelope's leading trailer separator).
// Searching from the end means a document that happens to contain the
// magic sequence itself does not get mistaken for the envelope boundary,
// provided the envelope is the most recently appended occurrence.
func DecodeAttached(data []byte) (document, nonce []byte, root *tree.Timestamp, err error) {
	idx := bytes.LastIndex(data, Magic)
	if idx < 0 {
		return nil, nil, nil, ErrMagicNotFound
	}
	document = data[:idx]
	nonce, root, err = DecodeEnvelope(data[idx:])
	if err != nil {
		return nil, nil, nil, err
	}
	return document, nonce, root, nil
}

func readMagic(r *bytestream.Reader) error {
	magic, err := r.ReadBytes(len(Magic))
	if err != nil {
		return err
	}
	if !bytes.Equal(magic, Magic) {
		return ErrBadMagic
	}
	return nil
}

func readVersionAndNonce(r *bytestream.Reader) ([]byte, error) {
	version, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	switch version {
	case VersionLegacy:
		return nil, nil
	case VersionNonce:
		nonceLen, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		return r.ReadBytes(int(nonceLen))
	default:
		return nil, ErrUnknownVersion
	}
}

// EncodeNode writes one Timestamp node's attestations, then its edges,
// then the terminator byte.
func EncodeNode(w *bytestream.Writer, node *tree.Timestamp) {
	for _, a := range node.Attestations {
		w.WriteU8(a.Tag())
		a.Encode(w)
	}
	for _, e := range node.Edges {
		w.WriteU8(opIntroducer)
		w.WriteU8(e.Op.Tag())
		e.Op.Encode(w)
		EncodeNode(w, e.Child)
	}
	w.WriteU8(terminator)
}

// DecodeNode reads one Timestamp node per the grammar:
//
//	Timestamp := (Attestation)* (0x00 OpTag OpBody Timestamp)* Terminator
//
// An attestation tag this decoder doesn't recognize is skipped via its
// own length prefix, so future attestation kinds don't break old readers.
func DecodeNode(r *bytestream.Reader) (*tree.Timestamp, error) {
	node := tree.New()
	for {
		tag, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		switch {
		case tag == terminator:
			return node, nil
		case tag == opIntroducer:
			opTag, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			op, err := ops.Decode(opTag, r)
			if err != nil {
				return nil, err
			}
			child, err := DecodeNode(r)
			if err != nil {
				return nil, err
			}
			node.Edges = append(node.Edges, tree.Edge{Op: op, Child: child})
		case isAttestationTag(tag):
			a, err := attestation.Decode(tag, r)
			if err != nil {
				return nil, err
			}
			node.AddAttestation(a)
		default:
			length, err := r.ReadVarUint()
			if err != nil {
				return nil, err
			}
			if _, err := r.ReadBytes(int(length)); err != nil {
				return nil, err
			}
		}
	}
}
