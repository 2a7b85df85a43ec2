package constants

const (
	ViewData         = "view_data"
	CreateSubmission = "create_submission"
	ReviewSubmission = "review_submission"
	ConfirmIssuance  = "confirm_issuance"
	PurchaseCredits  = "purchase_credits"
	FreezeCredit     = "freeze_credit"
	PauseRegistry    = "pause_registry"
	ManageUsers      = "manage_users"
	ViewRiskSignals  = "view_risk_signals"
	ViewAuditTrail   = "view_audit_trail"
)
