package attestation

// FailureReason classifies why a Verified check did not pass.
type FailureReason string

const (
	FailureCommitmentNotFound FailureReason = "commitment_not_found"
	FailureWrongBlock         FailureReason = "wrong_block"
	FailureHTTPStatus         FailureReason = "http_status"
	FailureParseError         FailureReason = "parse_error"
)

// VerdictStatus is the discriminant of an AttestationVerdict.
type VerdictStatus string

const (
	// StatusVerified means the commitment was found in the anchor.
	StatusVerified VerdictStatus = "verified"
	// StatusPending applies only to the Pending variant: the calendar
	// has not yet produced a concrete replacement.
	StatusPending VerdictStatus = "pending"
	// StatusFailed means the fetch succeeded but the commitment was not
	// found, or was found in the wrong place.
	StatusFailed VerdictStatus = "failed"
	// StatusUnknown means the fetch itself failed (network, rate limit,
	// node unreachable); the caller may retry.
	StatusUnknown VerdictStatus = "unknown"
)

// Verdict is the outcome of verifying a single (evaluated message,
// attestation) pair.
type Verdict struct {
	Status VerdictStatus

	// Set when Status == StatusVerified.
	AnchorTime *uint64
	AnchorID   string

	// Set when Status == StatusPending.
	UpgradeHint string

	// Set when Status == StatusFailed.
	Reason FailureReason

	// Set when Status == StatusUnknown.
	UnknownReason string
}

// Verified builds a StatusVerified verdict.
func Verified(anchorID string, anchorTime *uint64) Verdict {
	return Verdict{Status: StatusVerified, AnchorID: anchorID, AnchorTime: anchorTime}
}

// PendingVerdict builds a StatusPending verdict.
func PendingVerdict(upgradeHint string) Verdict {
	return Verdict{Status: StatusPending, UpgradeHint: upgradeHint}
}

// Failed builds a StatusFailed verdict.
func Failed(reason FailureReason) Verdict {
	return Verdict{Status: StatusFailed, Reason: reason}
}

// Unknown builds a StatusUnknown verdict.
func Unknown(reason string) Verdict {
	return Verdict{Status: StatusUnknown, UnknownReason: reason}
}
