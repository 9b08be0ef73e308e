// Package resolver turns an identity into the normalized base URL of the
// node owning the account.
package resolver

import (
	"context"
	"log/slog"
	"strings"

	"fedgate/internal/directory"
	"fedgate/internal/identity"
)

// Resolver prefers the federated location hint and falls back to directory
// lookup. An empty result means the user is unknown everywhere.
type Resolver struct {
	directory directory.Client
	logger    *slog.Logger
}

// New builds a Resolver over the given directory client.
func New(dir directory.Client, logger *slog.Logger) *Resolver {
	return &Resolver{directory: dir, logger: logger}
}

// Resolve returns the raw (un-normalized) location for the identity, or
// empty when neither the hint nor the directory knows the user. The hint is
// not assumed normalized; callers run Normalize on whatever comes back.
func (r *Resolver) Resolve(ctx context.Context, id identity.Identity, hint string) (string, error) {
	if hint != "" {
		r.logger.DebugContext(ctx, "location resolved from federated hint", "uid", id.UID)
		return hint, nil
	}
	return r.directory.Search(ctx, id.UID)
}

// Normalize gives a location a scheme. Addresses already carrying http://
// or https:// pass through unchanged; anything else inherits the scheme the
// gateway itself was reached on.
func Normalize(location, requestScheme string) string {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location
	}
	if requestScheme != "http" {
		requestScheme = "https"
	}
	return requestScheme + "://" + location
}
