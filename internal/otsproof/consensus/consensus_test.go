package consensus

import (
	"testing"

	"otsproof/internal/otsproof/attestation"
	"otsproof/internal/otsproof/verifier"
)

func u64(n uint64) *uint64 { return &n }

func TestEvaluateStrongSecurity(t *testing.T) {
	result := &verifier.Result{Pairs: []verifier.PairResult{
		{Attestation: attestation.Bitcoin{Height: 1}, Verdict: attestation.Verified("b", u64(1000))},
		{Attestation: attestation.Litecoin{Height: 1}, Verdict: attestation.Verified("l", u64(1500))},
	}}
	score := Evaluate(result)
	if score.Level != SecurityStrong {
		t.Fatalf("Level = %v, want strong (score=%v)", score.Level, score.Score)
	}
}

func TestEvaluateModerateSecurity(t *testing.T) {
	result := &verifier.Result{Pairs: []verifier.PairResult{
		{Attestation: attestation.Bitcoin{Height: 1}, Verdict: attestation.Verified("b", u64(1000))},
		{Attestation: attestation.Pending{}, Verdict: attestation.PendingVerdict("hint")},
	}}
	score := Evaluate(result)
	if score.Level != SecurityModerate && score.Level != SecurityStrong {
		t.Fatalf("Level = %v, want moderate or strong", score.Level)
	}
}

func TestEvaluateNoneWhenAllFailed(t *testing.T) {
	result := &verifier.Result{Pairs: []verifier.PairResult{
		{Attestation: attestation.Bitcoin{Height: 1}, Verdict: attestation.Failed(attestation.FailureCommitmentNotFound)},
	}}
	score := Evaluate(result)
	if score.Level != SecurityNone {
		t.Fatalf("Level = %v, want none", score.Level)
	}
	if score.Score != 0 {
		t.Fatalf("Score = %v, want 0", score.Score)
	}
}

func TestEvaluateExcludesUnknownFromDenominator(t *testing.T) {
	result := &verifier.Result{Pairs: []verifier.PairResult{
		{Attestation: attestation.Bitcoin{Height: 1}, Verdict: attestation.Verified("b", u64(1000))},
		{Attestation: attestation.Ethereum{}, Verdict: attestation.Unknown("network error")},
	}}
	score := Evaluate(result)
	if score.Score != 1.0 {
		t.Fatalf("Score = %v, want 1.0 (Unknown excluded from denominator)", score.Score)
	}
}

func TestTimeConsistencyWindows(t *testing.T) {
	consistent := &verifier.Result{Pairs: []verifier.PairResult{
		{Attestation: attestation.Bitcoin{Height: 1}, Verdict: attestation.Verified("b", u64(1000))},
		{Attestation: attestation.Litecoin{Height: 1}, Verdict: attestation.Verified("l", u64(1000+3600))},
	}}
	if got := Evaluate(consistent).TimeConsistency; got != TimeConsistent {
		t.Fatalf("TimeConsistency = %v, want consistent", got)
	}

	moderate := &verifier.Result{Pairs: []verifier.PairResult{
		{Attestation: attestation.Bitcoin{Height: 1}, Verdict: attestation.Verified("b", u64(1000))},
		{Attestation: attestation.Litecoin{Height: 1}, Verdict: attestation.Verified("l", u64(1000+10000))},
	}}
	if got := Evaluate(moderate).TimeConsistency; got != TimeModeratelyConsistent {
		t.Fatalf("TimeConsistency = %v, want moderately_consistent", got)
	}

	inconsistent := &verifier.Result{Pairs: []verifier.PairResult{
		{Attestation: attestation.Bitcoin{Height: 1}, Verdict: attestation.Verified("b", u64(1000))},
		{Attestation: attestation.Litecoin{Height: 1}, Verdict: attestation.Verified("l", u64(1000+20000))},
	}}
	if got := Evaluate(inconsistent).TimeConsistency; got != TimeInconsistent {
		t.Fatalf("TimeConsistency = %v, want inconsistent", got)
	}
}

func TestOverallValid(t *testing.T) {
	score := Score{VerifiedChains: 1, Score: 0.7}
	if !OverallValid(score, DefaultMinScore) {
		t.Fatal("expected valid")
	}
	score = Score{VerifiedChains: 0, Score: 1.0}
	if OverallValid(score, DefaultMinScore) {
		t.Fatal("expected invalid: no verified chains")
	}
	score = Score{VerifiedChains: 1, Score: 0.2}
	if OverallValid(score, DefaultMinScore) {
		t.Fatal("expected invalid: score below minimum")
	}
}
