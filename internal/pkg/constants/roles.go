package constants

const (
	Community = "COMMUNITY"
	NGO       = "NGO"
	Admin     = "ADMIN"
	Corporate = "CORPORATE"
)

// ValidRoles is the set of allowed DB enum values for user role. Role is
// fixed at account creation and never changes afterwards.
var ValidRoles = []string{Community, NGO, Admin, Corporate}

// IsValidRole returns true if role is one of the allowed enum values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Account status values for User.Status.
const (
	AccountActive     = "ACTIVE"
	AccountFrozen     = "FROZEN"
	AccountPendingKYC = "PENDING_KYC"
)

// IsValidAccountStatus returns true if s is a known account status.
func IsValidAccountStatus(s string) bool {
	return s == AccountActive || s == AccountFrozen || s == AccountPendingKYC
}
