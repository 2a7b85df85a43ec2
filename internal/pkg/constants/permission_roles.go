package constants

// PermissionRoles maps each permission to the roles allowed to perform it.
// Route middleware consults this table; the state machine additionally checks
// the per-edge authorization table in the submissions service.
var PermissionRoles = map[string][]string{
	ViewData:         {Community, NGO, Admin, Corporate},
	CreateSubmission: {Community},
	ReviewSubmission: {NGO, Admin},
	ConfirmIssuance:  {Admin},
	PurchaseCredits:  {Corporate},
	FreezeCredit:     {Admin},
	PauseRegistry:    {Admin},
	ManageUsers:      {Admin},
	ViewRiskSignals:  {Admin},
	ViewAuditTrail:   {NGO, Admin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
