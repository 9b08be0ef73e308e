// Package handler is the thin HTTP boundary of the gateway. It translates
// the inbound request into a LoginAttempt, runs the decision pipeline, and
// performs the redirect the pipeline only computes. Keeping the side effect
// here leaves the decision logic pure and testable.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fedgate/internal/clientkind"
	"fedgate/internal/gateway"
	"fedgate/internal/handoff"
	"fedgate/internal/identity"
	dErrors "fedgate/pkg/domain-errors"
	"fedgate/pkg/platform/httputil"
	"fedgate/pkg/requestcontext"
)

// Service is the gateway decision pipeline.
type Service interface {
	Process(ctx context.Context, attempt identity.LoginAttempt) (*gateway.Result, error)
}

// Handler wires the login endpoint to the gateway service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the gateway endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/login", h.HandleLogin)
	r.Post("/login", h.HandleLogin)
}

// loginRequest is the JSON body shape for POSTed attempts. Form-encoded
// bodies use the uid/password fields directly.
type loginRequest struct {
	UID        string              `json:"uid"`
	Password   string              `json:"password"`
	Attributes map[string][]string `json:"saml_attributes,omitempty"`
}

// HandleLogin runs the pipeline for one attempt. A built handoff becomes a
// 303 redirect and ends the attempt; a bypass answers 204 and lets the
// local login proceed.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	attempt, err := h.decodeAttempt(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Process(ctx, attempt)
	if err != nil {
		h.logger.ErrorContext(ctx, "login attempt failed",
			"request_id", requestID,
			"client_kind", attempt.ClientKind.String(),
			"error", err,
		)
		httputil.WriteError(w, translate(err))
		return
	}

	if result.Handoff != nil {
		// Emit the redirect and terminate; nothing runs after a handoff.
		w.Header().Set("Location", result.Handoff.RedirectURL)
		w.WriteHeader(http.StatusSeeOther)
		return
	}

	// Bypass: the user stays on this node.
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeAttempt(r *http.Request) (identity.LoginAttempt, error) {
	attempt := identity.LoginAttempt{
		Source:     identity.SourceDirect,
		ClientKind: clientkind.FromUserAgent(r.UserAgent()),
		TrustToken: r.URL.Query().Get("jwt"),
	}

	if r.Method == http.MethodGet {
		return attempt, nil
	}

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return attempt, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
		}
		attempt.UID = req.UID
		attempt.Password = req.Password
		if req.Attributes != nil {
			attempt.Source = identity.SourceFederated
			attempt.Attributes = req.Attributes
		}
	default:
		if err := r.ParseForm(); err != nil {
			return attempt, dErrors.New(dErrors.CodeBadRequest, "invalid form body")
		}
		attempt.UID = r.PostFormValue("uid")
		attempt.Password = r.PostFormValue("password")
		if token := r.PostFormValue("jwt"); token != "" {
			attempt.TrustToken = token
		}
	}

	return attempt, nil
}

// translate maps domain failures onto the error taxonomy. Raw passwords
// never appear in these messages; the handoff package already redacts its
// diagnostics.
func translate(err error) error {
	var notFound *gateway.UserLocationNotFoundError
	if errors.As(err, &notFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, notFound.Error())
	}
	var exchange *handoff.RemoteExchangeError
	if errors.As(err, &exchange) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, exchange.Error())
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "login attempt failed")
}
