// Package identity normalizes inbound login attempts into a canonical
// identity plus an optional location hint.
package identity

import (
	dErrors "fedgate/pkg/domain-errors"
)

// AttributeMapping names the federated attributes the extractor reads. Both
// fields are optional; an empty Location disables the direct hint and the
// resolver falls back to directory lookup.
type AttributeMapping struct {
	UID      string
	Location string
}

// Extractor turns attempts into identities.
type Extractor struct {
	mapping AttributeMapping
}

// NewExtractor builds an Extractor with the configured attribute mapping.
func NewExtractor(mapping AttributeMapping) *Extractor {
	return &Extractor{mapping: mapping}
}

// Extract resolves the attempt into an Identity and a location hint.
//
// Direct attempts pass uid/password through unchanged; an empty password is
// permitted (passwordless continuation). Federated attempts take the uid
// from the mapped attribute, carry no local password, and may yield a
// location hint when the location attribute is mapped and present.
//
// A missing uid is a caller error, not a gateway failure.
func (e *Extractor) Extract(attempt LoginAttempt) (Identity, string, error) {
	if attempt.Source == SourceDirect {
		if attempt.UID == "" {
			return Identity{}, "", dErrors.New(dErrors.CodeBadRequest, "uid is required")
		}
		return Identity{
			UID:      attempt.UID,
			Password: attempt.Password,
			Extra:    map[string]string{},
		}, "", nil
	}

	uid := attempt.UID
	if uid == "" {
		uid = firstAttribute(attempt.Attributes, e.mapping.UID)
	}
	if uid == "" {
		return Identity{}, "", dErrors.New(dErrors.CodeBadRequest, "federated attempt carries no uid")
	}

	hint := firstAttribute(attempt.Attributes, e.mapping.Location)

	// Only the formatted subset of the attributes travels downstream.
	extra := map[string]string{"uid": uid}
	if hint != "" {
		extra["location"] = hint
	}

	return Identity{UID: uid, Password: "", Extra: extra}, hint, nil
}

func firstAttribute(attrs map[string][]string, name string) string {
	if name == "" || attrs == nil {
		return ""
	}
	values := attrs[name]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
