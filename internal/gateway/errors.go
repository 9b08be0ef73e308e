package gateway

import "fmt"

// UserLocationNotFoundError means neither the federated hint nor the
// directory knows which node owns the user. Surfaced to the user and never
// retried.
type UserLocationNotFoundError struct {
	UID string
}

func (e *UserLocationNotFoundError) Error() string {
	return fmt.Sprintf("no location found for user %q", e.UID)
}
