package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fedgate/internal/credcrypto"
	"fedgate/internal/gateway"
	"fedgate/internal/handoff"
	"fedgate/internal/identity"
	"fedgate/internal/platform/middleware"
	"fedgate/internal/resolver"
	"fedgate/internal/trusttoken"
)

const (
	desktopUA = "Mozilla/5.0 (Linux) mirall/3.12.0"
	browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type stubDirectory struct {
	locations map[string]string
}

func (d stubDirectory) Search(_ context.Context, uid string) (string, error) {
	return d.locations[uid], nil
}

type stubExchanger struct {
	token string
	err   error
}

func (s stubExchanger) FetchAppToken(_ context.Context, _, _, _ string) (string, error) {
	return s.token, s.err
}

func newRouter(t *testing.T, exchanger handoff.TokenExchanger) (http.Handler, *trusttoken.Codec) {
	t.Helper()

	cipher, err := credcrypto.New("test-secret")
	require.NoError(t, err)
	codec := trusttoken.New("test-secret", cipher)

	logger := slog.Default()
	svc := gateway.NewService(
		[]string{"root"},
		codec,
		identity.NewExtractor(identity.AttributeMapping{UID: "uid", Location: "homeHost"}),
		resolver.New(stubDirectory{locations: map[string]string{
			"carol": "nodeA.example",
			"dave":  "nodeB.example",
		}}, logger),
		handoff.NewSelector(codec, exchanger),
		logger,
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestMetadata)
	New(svc, logger).Register(r)
	return r, codec
}

func TestBrowserHandoffRedirect(t *testing.T) {
	router, _ := newRouter(t, stubExchanger{token: "unused"})

	form := url.Values{"uid": {"carol"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "https://nodeA.example/index.php/apps/globalsiteselector/autologin?jwt="),
		"got %q", location)
}

func TestNativeHandoffRedirect(t *testing.T) {
	router, _ := newRouter(t, stubExchanger{token: "tok123"})

	form := url.Values{"uid": {"dave"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", desktopUA)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "nc://login/server:https://nodeB.example&user:dave&password:tok123",
		rec.Header().Get("Location"))
}

func TestTrustTokenBypass(t *testing.T) {
	router, codec := newRouter(t, stubExchanger{})

	token, err := codec.Issue("carol", "pw", nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/login?jwt="+url.QueryEscape(token), nil)
	req.Header.Set("User-Agent", browserUA)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestAdminStaysLocal(t *testing.T) {
	router, _ := newRouter(t, stubExchanger{})

	form := url.Values{"uid": {"root"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", browserUA)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUnknownUserIsNotFound(t *testing.T) {
	router, _ := newRouter(t, stubExchanger{})

	form := url.Values{"uid": {"bob"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", browserUA)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "not_found", body["error"])
	assert.Contains(t, body["error_description"], "bob")
	assert.NotContains(t, body["error_description"], "pw")
}

func TestExchangeFailureIsBadGateway(t *testing.T) {
	router, _ := newRouter(t, stubExchanger{err: &handoff.RemoteExchangeError{
		Location: "https://nodeB.example", Reason: "unexpected status 503",
	}})

	form := url.Values{"uid": {"dave"}, "password": {"secretpw"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", desktopUA)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "unavailable", body["error"])
	assert.NotContains(t, body["error_description"], "secretpw")
}

func TestFederatedAttemptViaJSON(t *testing.T) {
	router, _ := newRouter(t, stubExchanger{})

	payload := `{"saml_attributes": {"uid": ["carol"], "homeHost": ["nodeZ.example"]}}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"),
		"https://nodeZ.example/index.php/apps/globalsiteselector/autologin?jwt="))
}

func TestMissingUIDIsBadRequest(t *testing.T) {
	router, _ := newRouter(t, stubExchanger{})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", browserUA)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
