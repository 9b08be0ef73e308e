// Package handoff builds the redirect that moves a login attempt to the
// node owning the account. Native clients get a custom-scheme URL carrying
// a freshly minted app token; browsers get a trust-token autologin URL.
//
// The package only computes URLs. Emitting the actual HTTP redirect is the
// transport boundary's job, which keeps the decision logic pure.
//
// The app token embedded in the native URL is opaque to the gateway; its
// lifetime is whatever the target node's app-token policy grants, which is
// independent of the 300-second trust-token window.
package handoff

import (
	"context"

	"fedgate/internal/clientkind"
	"fedgate/internal/identity"
)

const (
	nativeSchemePrefix = "nc://login/"
	autologinPath      = "/index.php/apps/globalsiteselector/autologin?jwt="
)

// Result is the terminal artifact of one login attempt: the URL the client
// must be redirected to. Never persisted, never reused.
type Result struct {
	RedirectURL string
}

// TokenIssuer mints trust tokens for browser handoffs.
type TokenIssuer interface {
	Issue(uid, password string, options map[string]string) (string, error)
}

// TokenExchanger mints app tokens on target nodes for native handoffs.
type TokenExchanger interface {
	FetchAppToken(ctx context.Context, location, uid, password string) (string, error)
}

// Selector picks the handoff mechanism from the client kind. The decision
// is a pure function of the kind; there are no intermediate states.
type Selector struct {
	issuer    TokenIssuer
	exchanger TokenExchanger
}

// NewSelector builds a Selector.
func NewSelector(issuer TokenIssuer, exchanger TokenExchanger) *Selector {
	return &Selector{issuer: issuer, exchanger: exchanger}
}

// BuildRedirect computes the handoff URL for the attempt. location must
// already be normalized (scheme-qualified).
func (s *Selector) BuildRedirect(ctx context.Context, kind clientkind.Kind, location string, id identity.Identity, options map[string]string) (Result, error) {
	if kind.Native() {
		return s.nativeHandoff(ctx, location, id)
	}
	return s.browserHandoff(location, id, options)
}

// nativeHandoff mints an app token on the target node so the sync client
// never handles the real password, then assembles the custom-scheme URL the
// client opens directly. The literal field separators are part of the
// client protocol.
func (s *Selector) nativeHandoff(ctx context.Context, location string, id identity.Identity) (Result, error) {
	token, err := s.exchanger.FetchAppToken(ctx, location, id.UID, id.Password)
	if err != nil {
		return Result{}, err
	}
	return Result{
		RedirectURL: nativeSchemePrefix + "server:" + location + "&user:" + id.UID + "&password:" + token,
	}, nil
}

// browserHandoff issues a trust token carrying the encrypted credential and
// identity metadata, and points the browser at the target node's autologin
// endpoint.
func (s *Selector) browserHandoff(location string, id identity.Identity, options map[string]string) (Result, error) {
	token, err := s.issuer.Issue(id.UID, id.Password, options)
	if err != nil {
		return Result{}, err
	}
	return Result{RedirectURL: location + autologinPath + token}, nil
}
