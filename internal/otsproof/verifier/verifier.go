// Package verifier orchestrates checking a timestamp tree's attestations
// against their chains or calendars, short-circuiting on a commitment
// mismatch before making any network call.
package verifier

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"otsproof/internal/otsproof/attestation"
	"otsproof/internal/otsproof/bytestream"
	"otsproof/internal/otsproof/evaluator"
	"otsproof/internal/otsproof/tree"
)

// verdictCacheTTL bounds how long a Verified/Failed verdict is trusted
// from vc.Cache before verifyOne re-checks the network; a Pending
// attestation is never cached across calls since StatusPending is only
// ever correct until the next upgrade check.
const verdictCacheTTL = 1 * time.Hour

// ErrCommitmentMismatch is returned by Verify when the digest under test
// does not match the digest the proof was built from. It never triggers a
// network call.
var ErrCommitmentMismatch = errors.New("verifier: commitment does not match proof's root message")

// Proof bundles a timestamp tree with the exact message evaluation must
// start from, as recorded when the proof was produced (the document
// digest, or the digest combined with its privacy nonce).
type Proof struct {
	RootMessage []byte
	Tree        *tree.Timestamp
}

// PairResult is one attestation's verdict, alongside the evaluated
// message it was checked against.
type PairResult struct {
	Attestation attestation.Attestation
	Message     []byte
	Verdict     attestation.Verdict
}

// Result is the full outcome of verifying a proof against a commitment.
type Result struct {
	Pairs []PairResult
}

// verifiable is implemented by every concrete Attestation type; it is not
// part of the Attestation interface itself so that codec/tree code never
// needs to know about network collaborators.
type verifiable interface {
	Verify(ctx context.Context, commitment []byte, vc *attestation.VerifyContext) attestation.Verdict
}

// Verifier checks proofs, caching a verdict per (attestation, message)
// pair so repeated verification of the same proof does not repeat the
// same network calls.
type Verifier struct {
	ctx   *attestation.VerifyContext
	cache map[string]attestation.Verdict
}

// New returns a Verifier that uses vc for every network-backed check.
func New(vc *attestation.VerifyContext) *Verifier {
	return &Verifier{ctx: vc, cache: make(map[string]attestation.Verdict)}
}

// Verify checks commitment against proof: a CommitmentMismatch is
// returned immediately, before proof.Tree is evaluated or any attestation
// is looked up. Otherwise every attestation reachable from the tree is
// evaluated and checked, and the aggregate result is returned.
func (v *Verifier) Verify(ctx context.Context, proof *Proof, commitment []byte) (*Result, error) {
	if !bytes.Equal(commitment, proof.RootMessage) {
		return nil, ErrCommitmentMismatch
	}

	pairs, err := evaluator.Evaluate(proof.Tree, proof.RootMessage)
	if err != nil {
		return nil, err
	}

	result := &Result{Pairs: make([]PairResult, 0, len(pairs))}
	for _, p := range pairs {
		verdict := v.verifyOne(ctx, p.Attestation, p.Message)
		result.Pairs = append(result.Pairs, PairResult{
			Attestation: p.Attestation,
			Message:     p.Message,
			Verdict:     verdict,
		})
	}
	return result, nil
}

func (v *Verifier) verifyOne(ctx context.Context, a attestation.Attestation, msg []byte) attestation.Verdict {
	key := cacheKey(a, msg)
	if cached, ok := v.cache[key]; ok {
		return cached
	}
	if cached, ok := v.verdictFromStore(ctx, key); ok {
		v.cache[key] = cached
		return cached
	}
	vv, ok := a.(verifiable)
	if !ok {
		return attestation.Unknown("attestation kind has no verify strategy")
	}
	verdict := vv.Verify(ctx, msg, v.ctx)
	v.cache[key] = verdict
	v.storeVerdict(ctx, key, verdict)
	return verdict
}

// verdictFromStore consults the injected attestation.Cache for a verdict
// previously recorded under key, per the proof's durable verification
// history. A Pending verdict is never trusted from the store, since its
// whole point is to be re-checked until it stops being pending.
func (v *Verifier) verdictFromStore(ctx context.Context, key string) (attestation.Verdict, bool) {
	if v.ctx == nil || v.ctx.Cache == nil {
		return attestation.Verdict{}, false
	}
	raw, ok := v.ctx.Cache.Get(ctx, verdictCacheKey(key))
	if !ok {
		return attestation.Verdict{}, false
	}
	var verdict attestation.Verdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return attestation.Verdict{}, false
	}
	if verdict.Status == attestation.StatusPending {
		return attestation.Verdict{}, false
	}
	return verdict, true
}

func (v *Verifier) storeVerdict(ctx context.Context, key string, verdict attestation.Verdict) {
	if v.ctx == nil || v.ctx.Cache == nil {
		return
	}
	if verdict.Status != attestation.StatusVerified && verdict.Status != attestation.StatusFailed {
		return
	}
	raw, err := json.Marshal(verdict)
	if err != nil {
		return
	}
	v.ctx.Cache.Put(ctx, verdictCacheKey(key), raw, verdictCacheTTL)
}

func verdictCacheKey(key string) string {
	return "verifier:verdict:" + key
}

func cacheKey(a attestation.Attestation, msg []byte) string {
	w := bytestream.NewWriter()
	w.WriteU8(a.Tag())
	a.Encode(w)
	return hex.EncodeToString(w.Bytes()) + ":" + hex.EncodeToString(msg)
}
