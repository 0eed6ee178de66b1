// Package ots is the public entry point for stamping documents into an
// OpenTimestamps proof, verifying an existing proof, inspecting one, and
// upgrading a Pending attestation once a calendar has a concrete anchor.
package ots

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"otsproof/internal/otsproof/attestation"
	"otsproof/internal/otsproof/calendar"
	"otsproof/internal/otsproof/codec"
	"otsproof/internal/otsproof/consensus"
	"otsproof/internal/otsproof/tree"
	"otsproof/internal/otsproof/verifier"
)

// RNG is the injected source of the 16-byte privacy nonce mixed into a
// document's digest before it is submitted to a calendar.
type RNG interface {
	RandomBytes(n int) ([]byte, error)
}

// NonceLen matches codec.NonceLen; duplicated here so callers of this
// package don't need to import the codec package just for the constant.
const NonceLen = codec.NonceLen

// ErrCommitmentMismatch is returned by Verify when the supplied document
// does not hash to the digest the proof was built from.
var ErrCommitmentMismatch = verifier.ErrCommitmentMismatch

// StampOptions configures Stamp.
type StampOptions struct {
	Calendar *calendar.Client
	RNG      RNG
	// Nonce overrides RNG for tests that need a deterministic privacy
	// nonce; leave nil in production.
	Nonce []byte
	// Attached additionally produces an attached timestamp file
	// (document bytes followed by the envelope) in StampResult.AttachedFile.
	Attached bool
}

// StampResult is the outcome of stamping a document.
type StampResult struct {
	Digest    []byte
	Nonce     []byte
	ProofFile []byte

	// AttachedFile is document's bytes followed by the same envelope
	// serialized into ProofFile, set only when StampOptions.Attached.
	AttachedFile []byte
}

// Stamp hashes document with SHA-256, mixes in a 16-byte privacy nonce,
// submits the result to the configured calendars, and returns the
// resulting detached proof.
func Stamp(ctx context.Context, document []byte, opts StampOptions) (*StampResult, error) {
	if opts.Calendar == nil {
		return nil, errors.New("ots: StampOptions.Calendar is required")
	}

	digest := sha256Sum(document)

	nonce := opts.Nonce
	if nonce == nil {
		if opts.RNG == nil {
			return nil, errors.New("ots: StampOptions.RNG or StampOptions.Nonce is required")
		}
		var err error
		nonce, err = opts.RNG.RandomBytes(NonceLen)
		if err != nil {
			return nil, fmt.Errorf("ots: generating nonce: %w", err)
		}
	}

	// Per the commitment definition, the tree's root message is exactly
	// nonce ‖ digest; the envelope carries the nonce separately so a
	// reader can reconstruct this same value from the document alone.
	commitment := make([]byte, 0, len(nonce)+len(digest))
	commitment = append(commitment, nonce...)
	commitment = append(commitment, digest...)

	root := tree.New()

	subtree, err := opts.Calendar.Submit(ctx, commitment)
	if err != nil {
		return nil, fmt.Errorf("ots: submitting to calendars: %w", err)
	}
	tree.Merge(root, subtree)

	proofFile := codec.EncodeEnvelope(nonce, root)
	result := &StampResult{Digest: digest, Nonce: nonce, ProofFile: proofFile}
	if opts.Attached {
		result.AttachedFile = codec.EncodeAttached(document, nonce, root)
	}
	return result, nil
}

// VerifyResult is the outcome of verifying a proof against a document.
type VerifyResult struct {
	Valid  bool
	Score  consensus.Score
	Pairs  []verifier.PairResult
	Digest []byte
}

// Verify decodes proofFile, recomputes document's digest, and checks
// every attestation in the proof's tree. It returns ErrCommitmentMismatch
// immediately, without making any network call, if document does not
// hash to the digest the proof was produced for.
func Verify(ctx context.Context, document, proofFile []byte, vc *attestation.VerifyContext) (*VerifyResult, error) {
	nonce, root, err := codec.DecodeEnvelope(proofFile)
	if err != nil {
		return nil, fmt.Errorf("ots: decoding proof: %w", err)
	}

	digest := sha256Sum(document)
	commitment := make([]byte, 0, len(nonce)+len(digest))
	commitment = append(commitment, nonce...)
	commitment = append(commitment, digest...)

	v := verifier.New(vc)
	result, err := v.Verify(ctx, &verifier.Proof{RootMessage: commitment, Tree: root}, commitment)
	if err != nil {
		return nil, err
	}

	score := consensus.Evaluate(result)
	return &VerifyResult{
		Valid:  consensus.OverallValid(score, consensus.DefaultMinScore),
		Score:  score,
		Pairs:  result.Pairs,
		Digest: digest,
	}, nil
}

// VerifyAttached splits attachedFile into its document and envelope (per
// the attached timestamp file format) and verifies exactly as Verify
// does, so a caller that only has the combined file doesn't need to
// manage the document and detached proof separately.
func VerifyAttached(ctx context.Context, attachedFile []byte, vc *attestation.VerifyContext) (*VerifyResult, error) {
	document, nonce, root, err := codec.DecodeAttached(attachedFile)
	if err != nil {
		return nil, fmt.Errorf("ots: decoding attached file: %w", err)
	}

	digest := sha256Sum(document)
	commitment := make([]byte, 0, len(nonce)+len(digest))
	commitment = append(commitment, nonce...)
	commitment = append(commitment, digest...)

	v := verifier.New(vc)
	result, err := v.Verify(ctx, &verifier.Proof{RootMessage: commitment, Tree: root}, commitment)
	if err != nil {
		return nil, err
	}

	score := consensus.Evaluate(result)
	return &VerifyResult{
		Valid:  consensus.OverallValid(score, consensus.DefaultMinScore),
		Score:  score,
		Pairs:  result.Pairs,
		Digest: digest,
	}, nil
}

// InfoResult summarizes a proof without verifying any attestation.
type InfoResult struct {
	Nonce          []byte
	AttestationCount int
	Kinds          map[attestation.Kind]int
}

// Info decodes proofFile and reports its shape: which attestation kinds
// it contains and how many, without making any network call.
func Info(proofFile []byte) (*InfoResult, error) {
	nonce, root, err := codec.DecodeEnvelope(proofFile)
	if err != nil {
		return nil, fmt.Errorf("ots: decoding proof: %w", err)
	}
	kinds := make(map[attestation.Kind]int)
	count := 0
	var walk func(n *tree.Timestamp)
	walk = func(n *tree.Timestamp) {
		for _, a := range n.Attestations {
			kinds[a.Kind()]++
			count++
		}
		for _, e := range n.Edges {
			walk(e.Child)
		}
	}
	walk(root)
	return &InfoResult{Nonce: nonce, AttestationCount: count, Kinds: kinds}, nil
}

// Upgrade decodes proofFile, asks cal to replace any Pending attestation
// it can, and re-encodes the result. It reports whether anything changed.
func Upgrade(ctx context.Context, proofFile []byte, cal *calendar.Client) ([]byte, bool, error) {
	nonce, root, err := codec.DecodeEnvelope(proofFile)
	if err != nil {
		return nil, false, fmt.Errorf("ots: decoding proof: %w", err)
	}
	upgraded, err := cal.Upgrade(ctx, root)
	if err != nil {
		return nil, false, err
	}
	if !upgraded {
		return proofFile, false, nil
	}
	return codec.EncodeEnvelope(nonce, root), true, nil
}

func sha256Sum(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}
