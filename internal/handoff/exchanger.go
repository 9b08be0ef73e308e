package handoff

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const createTokenPath = "/ocs/v2.php/apps/globalsiteselector/v1/createapptoken?format=json"

// RemoteExchangeError reports a failed app-token exchange with the target
// node. The diagnostic never contains credential material; see newExchangeError.
type RemoteExchangeError struct {
	Location string
	Reason   string
}

func (e *RemoteExchangeError) Error() string {
	return fmt.Sprintf("app token exchange with %s failed: %s", e.Location, e.Reason)
}

// newExchangeError builds a RemoteExchangeError, scrubbing the credential
// from the diagnostic. Transport errors embed the request URL, which
// carries basic-auth userinfo.
func newExchangeError(location, password, reason string) *RemoteExchangeError {
	if password != "" {
		reason = strings.ReplaceAll(reason, password, "***")
	}
	return &RemoteExchangeError{Location: location, Reason: reason}
}

// Exchanger mints short-lived application tokens on target nodes, for
// native clients that must never see the user's real password.
type Exchanger struct {
	client *http.Client
}

// NewExchanger builds an Exchanger whose outbound call is bounded by
// timeout so an unreachable node cannot hang the login path.
func NewExchanger(timeout time.Duration) *Exchanger {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Exchanger{client: &http.Client{Timeout: timeout}}
}

// ocsResponse is the expected shape of the createapptoken reply.
type ocsResponse struct {
	Ocs struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	} `json:"ocs"`
}

// FetchAppToken authenticates as uid against location and returns the
// minted app token. Any transport failure, non-2xx status, unparseable
// body, or missing token field is a RemoteExchangeError; there is no retry.
func (e *Exchanger) FetchAppToken(ctx context.Context, location, uid, password string) (string, error) {
	authURL := BuildBasicAuthURL(location, uid, password)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL+createTokenPath, nil)
	if err != nil {
		return "", newExchangeError(location, password, "build request: "+err.Error())
	}
	req.Header.Set("OCS-APIRequest", "true")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", newExchangeError(location, password, "transport: "+err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", newExchangeError(location, password, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var body ocsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", newExchangeError(location, password, "parse response: "+err.Error())
	}
	if body.Ocs.Data.Token == "" {
		return "", newExchangeError(location, password, "response carries no ocs.data.token")
	}

	return body.Ocs.Data.Token, nil
}

// BuildBasicAuthURL injects uid:password basic-auth userinfo right after
// the scheme. Locations without a scheme default to https://; the literal
// credential form matches what the target node's OCS endpoint expects.
func BuildBasicAuthURL(location, uid, password string) string {
	userinfo := uid + ":" + password + "@"
	switch {
	case strings.HasPrefix(location, "https://"):
		return "https://" + userinfo + strings.TrimPrefix(location, "https://")
	case strings.HasPrefix(location, "http://"):
		return "http://" + userinfo + strings.TrimPrefix(location, "http://")
	default:
		return "https://" + userinfo + location
	}
}
