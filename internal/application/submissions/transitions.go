package submissions

import (
	"bluecarbon-backend/internal/pkg/constants"
)

// Edge is one directed transition in the submission lifecycle graph.
type Edge struct {
	From string
	To   string
}

// transitionRoles is the single authorization table: every legal edge and
// the roles that may perform it. The graph is acyclic and APPROVED/REJECTED
// have no outgoing edges. Community members create submissions; they never
// appear here.
var transitionRoles = map[Edge][]string{
	{constants.SubPending, constants.SubInReview}:   {constants.NGO},
	{constants.SubPending, constants.SubFieldCheck}: {constants.NGO},
	{constants.SubPending, constants.SubRejected}:   {constants.NGO},

	{constants.SubAIVerified, constants.SubNGOApproved}: {constants.NGO},
	{constants.SubAIVerified, constants.SubRejected}:    {constants.NGO},
	{constants.SubInReview, constants.SubNGOApproved}:   {constants.NGO},
	{constants.SubInReview, constants.SubRejected}:      {constants.NGO},
	{constants.SubFieldCheck, constants.SubNGOApproved}: {constants.NGO},
	{constants.SubFieldCheck, constants.SubRejected}:    {constants.NGO},

	// Final confirmation; REJECTED here is the admin override/rollback path.
	{constants.SubNGOApproved, constants.SubApproved}: {constants.Admin},
	{constants.SubNGOApproved, constants.SubRejected}: {constants.Admin},

	// No auto-retry out of AI_FAILED; resubmission creates a new record.
	{constants.SubAIFailed, constants.SubRejected}: {constants.NGO},
}

// AllowedEdge reports whether from -> to is a legal transition.
func AllowedEdge(from, to string) bool {
	_, ok := transitionRoles[Edge{From: from, To: to}]
	return ok
}

// RoleMayTransition reports whether role is authorized for the edge.
func RoleMayTransition(role, from, to string) bool {
	for _, r := range transitionRoles[Edge{From: from, To: to}] {
		if r == role {
			return true
		}
	}
	return false
}

// RoleMayEnter reports whether role is authorized for any edge into target.
// Used for the idempotent no-op check when a submission is already in the
// requested state.
func RoleMayEnter(role, target string) bool {
	for e, roles := range transitionRoles {
		if e.To != target {
			continue
		}
		for _, r := range roles {
			if r == role {
				return true
			}
		}
	}
	return false
}

// auditActions labels the single audit entry each applied transition writes.
var auditActions = map[string]string{
	constants.SubInReview:    "Moved To Review",
	constants.SubFieldCheck:  "Field Check Requested",
	constants.SubNGOApproved: "NGO Scientific Approval",
	constants.SubApproved:    "Final Admin Confirmation",
	constants.SubRejected:    "Submission Rejected",
	constants.SubAIFailed:    "Automated Verification Failed",
}

// AuditAction returns the ledger action label for entering target.
func AuditAction(target string) string {
	if a, ok := auditActions[target]; ok {
		return a
	}
	return "Status Changed"
}
