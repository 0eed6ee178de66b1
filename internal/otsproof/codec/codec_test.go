package codec

import (
	"bytes"
	"testing"

	"otsproof/internal/otsproof/attestation"
	"otsproof/internal/otsproof/bytestream"
	"otsproof/internal/otsproof/ops"
	"otsproof/internal/otsproof/tree"
)

func TestEnvelopeRoundTripNoNonce(t *testing.T) {
	root := tree.New()
	root.AddAttestation(attestation.Bitcoin{Height: 700000})

	encoded := EncodeEnvelope(nil, root)
	nonce, decoded, err := DecodeEnvelope(encoded)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if nonce != nil {
		t.Fatalf("nonce = %v, want nil", nonce)
	}
	if !tree.Equal(root, decoded) {
		t.Fatal("decoded tree does not match original")
	}
}

func TestEnvelopeRoundTripWithNonce(t *testing.T) {
	root := tree.New()
	root.AddAttestation(attestation.Pending{URI: []byte("https://cal/1")})
	nonce := bytes.Repeat([]byte{0x42}, NonceLen)

	encoded := EncodeEnvelope(nonce, root)
	gotNonce, decoded, err := DecodeEnvelope(encoded)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if !bytes.Equal(gotNonce, nonce) {
		t.Fatalf("nonce = %x, want %x", gotNonce, nonce)
	}
	if !tree.Equal(root, decoded) {
		t.Fatal("decoded tree does not match original")
	}
}

func TestDecodeEnvelopeBadMagic(t *testing.T) {
	bad := append([]byte{}, Magic...)
	bad[0] = 0xFF
	if _, _, err := DecodeEnvelope(bad); err != ErrBadMagic {
		t.Fatalf("got %v, want ErrBadMagic", err)
	}
}

func TestDecodeEnvelopeUnknownVersion(t *testing.T) {
	data := append(append([]byte{}, Magic...), 0x02)
	if _, _, err := DecodeEnvelope(data); err != ErrUnknownVersion {
		t.Fatalf("got %v, want ErrUnknownVersion", err)
	}
}

func TestNodeRoundTripWithNestedOps(t *testing.T) {
	root := tree.New()
	child := root.AddEdge(ops.SHA256Op{})
	child.AddAttestation(attestation.Bitcoin{Height: 700000})
	grandchild := child.AddEdge(ops.AppendOp{Data: []byte("tail")})
	grandchild.AddAttestation(attestation.Litecoin{Height: 42})

	w := bytestream.NewWriter()
	EncodeNode(w, root)
	r := bytestream.NewReader(w.Bytes())
	decoded, err := DecodeNode(r)
	if err != nil {
		t.Fatalf("DecodeNode: %v", err)
	}
	if !tree.Equal(root, decoded) {
		t.Fatal("decoded node does not match original")
	}
}

func TestUnknownAttestationTagIsSkipped(t *testing.T) {
	w := bytestream.NewWriter()
	w.WriteU8(0xC1) // unrecognized attestation tag
	w.WriteVarUint(3)
	w.WriteBytes([]byte{0x01, 0x02, 0x03})
	w.WriteU8(terminator)

	r := bytestream.NewReader(w.Bytes())
	node, err := DecodeNode(r)
	if err != nil {
		t.Fatalf("DecodeNode: %v", err)
	}
	if len(node.Attestations) != 0 {
		t.Fatalf("got %d attestations, want 0 (unknown tag skipped)", len(node.Attestations))
	}
}

func TestEmptyLeafRoundTrip(t *testing.T) {
	root := tree.New()
	encoded := EncodeEnvelope(nil, root)
	_, decoded, err := DecodeEnvelope(encoded)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if !tree.Equal(root, decoded) {
		t.Fatal("empty leaf did not round trip")
	}
	if len(encoded) != 18 {
		t.Fatalf("empty leaf envelope length = %d, want 18", len(encoded))
	}
	if encoded[16] != VersionLegacy {
		t.Fatalf("version byte = %#x, want VersionLegacy", encoded[16])
	}
	if encoded[17] != terminator {
		t.Fatalf("final byte = %#x, want terminator", encoded[17])
	}
}

func TestEnvelopeByteLayoutWithNonce(t *testing.T) {
	root := tree.New()
	nonce := []byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10,
	}
	encoded := EncodeEnvelope(nonce, root)

	if !bytes.Equal(encoded[:16], Magic) {
		t.Fatalf("magic = % x, want % x", encoded[:16], Magic)
	}
	if encoded[16] != VersionNonce {
		t.Fatalf("version byte = %#x, want 0x01", encoded[16])
	}
	if encoded[17] != NonceLen {
		t.Fatalf("nonce length byte = %#x, want 0x10", encoded[17])
	}
	if !bytes.Equal(encoded[18:34], nonce) {
		t.Fatalf("nonce bytes = % x, want % x", encoded[18:34], nonce)
	}

	gotNonce, decoded, err := DecodeEnvelope(encoded)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if !bytes.Equal(gotNonce, nonce) {
		t.Fatalf("nonce = % x, want % x", gotNonce, nonce)
	}
	if !tree.Equal(root, decoded) {
		t.Fatal("decoded tree does not match original")
	}
}

func TestAttachedRoundTrip(t *testing.T) {
	root := tree.New()
	root.AddAttestation(attestation.Bitcoin{Height: 700000})
	nonce := bytes.Repeat([]byte{0x09}, NonceLen)
	document := []byte("the contents of some document")

	attached := EncodeAttached(document, nonce, root)

	gotDoc, gotNonce, decoded, err := DecodeAttached(attached)
	if err != nil {
		t.Fatalf("DecodeAttached: %v", err)
	}
	if !bytes.Equal(gotDoc, document) {
		t.Fatalf("document = %q, want %q", gotDoc, document)
	}
	if !bytes.Equal(gotNonce, nonce) {
		t.Fatalf("nonce = % x, want % x", gotNonce, nonce)
	}
	if !tree.Equal(root, decoded) {
		t.Fatal("decoded tree does not match original")
	}
}

func TestDecodeAttachedMissingMagic(t *testing.T) {
	if _, _, _, err := DecodeAttached([]byte("no envelope here")); err != ErrMagicNotFound {
		t.Fatalf("got %v, want ErrMagicNotFound", err)
	}
}
