package audit

import "time"

// Category classifies audit events for routing and retention.
type Category string

const (
	// CategorySecurity covers events relevant to security monitoring:
	// bypasses, failed exchanges, unresolvable users.
	CategorySecurity Category = "security"

	// CategoryOperations covers routine routing decisions useful for
	// debugging and capacity planning.
	CategoryOperations Category = "operations"
)

// Actions emitted by the gateway pipeline.
const (
	ActionTrustBypass      = "trust_bypass"
	ActionAdminBypass      = "admin_bypass"
	ActionHandoffBuilt     = "handoff_built"
	ActionLocationNotFound = "location_not_found"
	ActionExchangeFailed   = "exchange_failed"
)

// Event captures one routing decision. Transport-agnostic so sinks can fan
// out; it must never carry credential material.
type Event struct {
	Category   Category  `json:"category"`
	Timestamp  time.Time `json:"timestamp"`
	UID        string    `json:"uid,omitempty"`
	Action     string    `json:"action"`
	ClientKind string    `json:"client_kind,omitempty"`
	Device     string    `json:"device,omitempty"`
	ClientIP   string    `json:"client_ip,omitempty"`
	Location   string    `json:"location,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
}
