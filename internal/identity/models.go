package identity

import "fedgate/internal/clientkind"

// Source tags where an attempt's credentials come from. Carrying the tag on
// the attempt keeps backend detection out of the extractor; the request
// layer knows which auth backend produced the attempt.
type Source int

const (
	// SourceDirect means uid/password arrived on the attempt itself.
	SourceDirect Source = iota
	// SourceFederated means an external identity backend (e.g. SAML)
	// supplied an attribute map instead of a credential pair.
	SourceFederated
)

// LoginAttempt is one inbound login, transient and owned by the gateway
// controller for the duration of the request.
type LoginAttempt struct {
	Source     Source
	UID        string
	Password   string
	Attributes map[string][]string // raw federated attributes, SourceFederated only
	ClientKind clientkind.Kind
	TrustToken string // existing jwt parameter, if any
}

// Identity is the canonical identity resolved from an attempt. Extra holds
// the formatted subset of federated attributes; raw attributes never leave
// the extractor.
type Identity struct {
	UID      string
	Password string
	Extra    map[string]string
}
