package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fedgate/pkg/platform/sentinel"
)

const defaultLookupTimeout = 5 * time.Second

// LookupClient queries a remote lookup server for the node owning a user.
type LookupClient struct {
	baseURL string
	client  *http.Client
}

// LookupOption configures a LookupClient.
type LookupOption func(*LookupClient)

// WithHTTPClient overrides the HTTP client, for tests.
func WithHTTPClient(client *http.Client) LookupOption {
	return func(l *LookupClient) {
		if client != nil {
			l.client = client
		}
	}
}

// NewLookupClient builds a client against the lookup server base URL.
func NewLookupClient(baseURL string, opts ...LookupOption) *LookupClient {
	l := &LookupClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultLookupTimeout},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// lookupRecord is the subset of the lookup server's user entry we consume.
type lookupRecord struct {
	FederationID string `json:"federationId"`
	Location     string `json:"location"`
}

// Search asks the lookup server for uid's owning node. An unknown user is
// an empty result, not an error.
func (l *LookupClient) Search(ctx context.Context, uid string) (string, error) {
	searchURL := l.baseURL + "/users?search=" + url.QueryEscape(uid) + "&exact=1"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("build lookup request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("lookup server: %w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lookup server: %w: status %d", sentinel.ErrUnavailable, resp.StatusCode)
	}

	var record lookupRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return "", fmt.Errorf("decode lookup response: %w", err)
	}

	if record.Location != "" {
		return record.Location, nil
	}
	return record.FederationID, nil
}
