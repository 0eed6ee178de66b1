package verifier

import (
	"context"
	"testing"
	"time"

	"otsproof/internal/otsproof/attestation"
	"otsproof/internal/otsproof/ops"
	"otsproof/internal/otsproof/tree"
)

type fakeBitcoinRPC struct {
	block *attestation.BitcoinBlock
}

func (f fakeBitcoinRPC) GetBlockHash(ctx context.Context, height uint64) (string, error) {
	return "hash", nil
}

func (f fakeBitcoinRPC) GetBlock(ctx context.Context, hash string) (*attestation.BitcoinBlock, error) {
	return f.block, nil
}

func opReturnScript(data []byte) []byte {
	return append([]byte{0x6a, byte(len(data))}, data...)
}

func TestVerifyCommitmentMismatchShortCircuits(t *testing.T) {
	proof := &Proof{RootMessage: []byte("expected"), Tree: tree.New()}
	v := New(&attestation.VerifyContext{})
	_, err := v.Verify(context.Background(), proof, []byte("wrong"))
	if err != ErrCommitmentMismatch {
		t.Fatalf("got %v, want ErrCommitmentMismatch", err)
	}
}

func TestVerifySucceedsForMatchingLeaf(t *testing.T) {
	root := tree.New()
	commitment := []byte{0xAA, 0xBB}
	root.AddAttestation(attestation.Bitcoin{Height: 700000})

	vc := &attestation.VerifyContext{
		Bitcoin: fakeBitcoinRPC{block: &attestation.BitcoinBlock{
			Hash:          "h",
			Time:          111,
			OutputScripts: [][]byte{opReturnScript(commitment)},
		}},
		RequestTimeout: time.Second,
	}
	v := New(vc)
	proof := &Proof{RootMessage: commitment, Tree: root}
	result, err := v.Verify(context.Background(), proof, commitment)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(result.Pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(result.Pairs))
	}
	if result.Pairs[0].Verdict.Status != attestation.StatusVerified {
		t.Fatalf("Status = %v, want Verified", result.Pairs[0].Verdict.Status)
	}
}

func TestVerifyAppliesOpsBeforeVerifyingChild(t *testing.T) {
	root := tree.New()
	commitment := []byte("root-msg")
	child := root.AddEdge(ops.ReverseOp{})
	child.AddAttestation(attestation.Pending{URI: []byte("uri")})

	v := New(&attestation.VerifyContext{})
	proof := &Proof{RootMessage: commitment, Tree: root}
	result, err := v.Verify(context.Background(), proof, commitment)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(result.Pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(result.Pairs))
	}
	// no HTTP client configured, so Pending.Verify reports Unknown rather
	// than crashing.
	if result.Pairs[0].Verdict.Status != attestation.StatusUnknown {
		t.Fatalf("Status = %v, want Unknown", result.Pairs[0].Verdict.Status)
	}
}

func TestVerifyCachesRepeatedPairs(t *testing.T) {
	root := tree.New()
	commitment := []byte("m")
	root.AddAttestation(attestation.Bitcoin{Height: 1})

	calls := 0
	vc := &attestation.VerifyContext{Bitcoin: countingRPC{n: &calls}}
	v := New(vc)
	proof := &Proof{RootMessage: commitment, Tree: root}

	if _, err := v.Verify(context.Background(), proof, commitment); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if _, err := v.Verify(context.Background(), proof, commitment); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if calls != 1 {
		t.Fatalf("RPC called %d times, want 1 (second Verify should hit cache)", calls)
	}
}

type countingRPC struct{ n *int }

func (c countingRPC) GetBlockHash(ctx context.Context, height uint64) (string, error) {
	*c.n++
	return "hash", nil
}

func (c countingRPC) GetBlock(ctx context.Context, hash string) (*attestation.BitcoinBlock, error) {
	return &attestation.BitcoinBlock{OutputScripts: nil}, nil
}

type fakeCache struct {
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, bool) {
	v, ok := f.entries[key]
	return v, ok
}

func (f *fakeCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	f.entries[key] = value
}

func (f *fakeCache) Delete(ctx context.Context, key string) {
	delete(f.entries, key)
}

func TestVerifyPersistsVerdictToInjectedCache(t *testing.T) {
	root := tree.New()
	commitment := []byte{0xAA, 0xBB}
	root.AddAttestation(attestation.Bitcoin{Height: 700000})

	cache := newFakeCache()
	vc := &attestation.VerifyContext{
		Bitcoin: fakeBitcoinRPC{block: &attestation.BitcoinBlock{
			Hash:          "h",
			Time:          111,
			OutputScripts: [][]byte{opReturnScript(commitment)},
		}},
		Cache: cache,
	}
	proof := &Proof{RootMessage: commitment, Tree: root}

	if _, err := New(vc).Verify(context.Background(), proof, commitment); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(cache.entries) != 1 {
		t.Fatalf("cache entries = %d, want 1", len(cache.entries))
	}

	// A fresh Verifier (empty in-memory cache) reusing the same injected
	// store should find the verdict without calling the RPC again.
	calls := 0
	vc2 := &attestation.VerifyContext{Bitcoin: countingRPC{n: &calls}, Cache: cache}
	// vc2's RPC would return a different, non-matching block; if the
	// cached verdict were not consulted this would produce a Failed
	// verdict instead of the cached Verified one, and calls would be 1.
	result, err := New(vc2).Verify(context.Background(), proof, commitment)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Pairs[0].Verdict.Status != attestation.StatusVerified {
		t.Fatalf("Status = %v, want Verified (from cache)", result.Pairs[0].Verdict.Status)
	}
	if calls != 0 {
		t.Fatalf("RPC called %d times, want 0 (should be served from injected cache)", calls)
	}
}

func TestVerifyDoesNotPersistPendingVerdict(t *testing.T) {
	root := tree.New()
	commitment := []byte("m")
	root.AddAttestation(attestation.Pending{URI: []byte("uri")})

	cache := newFakeCache()
	vc := &attestation.VerifyContext{Cache: cache}
	proof := &Proof{RootMessage: commitment, Tree: root}

	if _, err := New(vc).Verify(context.Background(), proof, commitment); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(cache.entries) != 0 {
		t.Fatalf("cache entries = %d, want 0 (Pending verdicts must not be persisted)", len(cache.entries))
	}
}
