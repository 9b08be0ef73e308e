// Package directory resolves user identifiers to the base address of the
// node owning the account. Only the search contract is defined here; how
// the backing directory indexes users is its own concern.
package directory

import "context"

// Client is the directory search port. Search returns the owning node's
// base address, or the empty string when the directory does not know the
// user. Errors are reserved for infrastructure failures.
type Client interface {
	Search(ctx context.Context, uid string) (string, error)
}
