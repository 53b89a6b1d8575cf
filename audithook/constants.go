package audithook

// Action constants for audit events.
const (
	// Subscription actions
	ActionSubscriptionCreated = "subscription.created"
	ActionSubscriptionUpdated = "subscription.updated"
	ActionSubscriptionDeleted = "subscription.deleted"

	// Family actions
	ActionFamilyCreated  = "family.created"
	ActionInviteCreated  = "family.invite.created"
	ActionInviteAccepted = "family.invite.accepted"
	ActionMemberRemoved  = "family.member.removed"

	// Alert actions
	ActionAlertQueued      = "alert.queued"
	ActionAlertsDispatched = "alert.dispatched"

	// Report actions
	ActionReportBuilt = "report.built"
)

// Resource constants for audit events.
const (
	ResourceSubscription = "subscription"
	ResourceFamily       = "family"
	ResourceInvite       = "invite"
	ResourceMember       = "member"
	ResourceAlert        = "alert"
	ResourceReport       = "report"
)

// Category constants for audit events.
const (
	CategoryTracking = "tracking"
	CategorySharing  = "sharing"
	CategoryReminder = "reminder"
	CategoryReport   = "report"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
