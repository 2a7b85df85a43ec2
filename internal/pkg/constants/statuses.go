package constants

// Submission lifecycle statuses. APPROVED and REJECTED are terminal.
const (
	SubPending     = "PENDING"
	SubInReview    = "IN_REVIEW"
	SubFieldCheck  = "FIELD_CHECK"
	SubAIVerified  = "AI_VERIFIED"
	SubAIFailed    = "AI_FAILED"
	SubNGOApproved = "NGO_APPROVED"
	SubApproved    = "APPROVED"
	SubRejected    = "REJECTED"
)

// Credit record statuses.
const (
	CreditAvailable = "AVAILABLE"
	CreditSold      = "SOLD"
	CreditFrozen    = "FROZEN"
)

// IsTerminalSubmissionStatus returns true for statuses with no outgoing transitions.
func IsTerminalSubmissionStatus(s string) bool {
	return s == SubApproved || s == SubRejected
}
