package domain

type CallID string
type SessionID string

type CallStatus string

const (
	StatusActive    CallStatus = "active"
	StatusCompleted CallStatus = "completed"
	StatusExpired   CallStatus = "expired"
	StatusNotFound  CallStatus = "not_found"
)

// EndReason records why a call left the active state.
type EndReason string

const (
	EndReasonHangup  EndReason = "hangup"
	EndReasonPolicy  EndReason = "policy"
	EndReasonExpired EndReason = "expired"
)

type Role string

const (
	RoleCaller    Role = "caller"
	RoleAssistant Role = "assistant"
)

// Intent is the closed set of conversation categories the classifier may
// return. Anything the model produces outside this set collapses to
// IntentGeneral.
type Intent string

const (
	IntentEmergency  Intent = "emergency"
	IntentBilling    Intent = "billing"
	IntentFacilities Intent = "facilities"
	IntentEvents     Intent = "events"
	IntentGeneral    Intent = "general"
	IntentComplaint  Intent = "complaint"
)

// ParseIntent maps a raw classifier label onto the closed intent set.
func ParseIntent(s string) Intent {
	switch Intent(s) {
	case IntentEmergency, IntentBilling, IntentFacilities, IntentEvents, IntentGeneral, IntentComplaint:
		return Intent(s)
	default:
		return IntentGeneral
	}
}
