package ots

import (
	"fmt"
	"strings"

	"otsproof/internal/otsproof/attestation"
)

// String renders a StampResult as a short human-readable summary.
func (r *StampResult) String() string {
	s := fmt.Sprintf("stamped digest=%x nonce=%x proof=%d bytes", r.Digest, r.Nonce, len(r.ProofFile))
	if r.AttachedFile != nil {
		s += fmt.Sprintf(" attached=%d bytes", len(r.AttachedFile))
	}
	return s
}

// String renders a VerifyResult as a multi-line report, one line per
// attestation checked.
func (r *VerifyResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "digest:  %x\n", r.Digest)
	fmt.Fprintf(&b, "valid:   %v\n", r.Valid)
	fmt.Fprintf(&b, "score:   %.2f (%s)\n", r.Score.Score, r.Score.Level)
	fmt.Fprintf(&b, "time:    %s\n", r.Score.TimeConsistency)
	for _, p := range r.Pairs {
		fmt.Fprintf(&b, "  %-10s %-10s", p.Attestation.Kind(), p.Verdict.Status)
		switch p.Verdict.Status {
		case attestation.StatusVerified:
			fmt.Fprintf(&b, " anchor=%s", p.Verdict.AnchorID)
		case attestation.StatusFailed:
			fmt.Fprintf(&b, " reason=%s", p.Verdict.Reason)
		case attestation.StatusPending:
			fmt.Fprintf(&b, " upgrade=%s", p.Verdict.UpgradeHint)
		case attestation.StatusUnknown:
			fmt.Fprintf(&b, " reason=%s", p.Verdict.UnknownReason)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// String renders an InfoResult as a one-line summary.
func (r *InfoResult) String() string {
	parts := make([]string, 0, len(r.Kinds))
	for kind, n := range r.Kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, n))
	}
	nonce := "none"
	if r.Nonce != nil {
		nonce = fmt.Sprintf("%x", r.Nonce)
	}
	return fmt.Sprintf("nonce=%s attestations=%d (%s)", nonce, r.AttestationCount, strings.Join(parts, ", "))
}
