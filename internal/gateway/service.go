// Package gateway orchestrates the master-node login decision: does the
// user live here, or must the attempt be handed off to the node owning the
// account?
package gateway

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fedgate/internal/audit"
	"fedgate/internal/clientkind"
	"fedgate/internal/gateway/metrics"
	"fedgate/internal/handoff"
	"fedgate/internal/identity"
	"fedgate/internal/resolver"
	"fedgate/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// TokenVerifier recognizes already-federated inter-node requests.
type TokenVerifier interface {
	Verify(token string) bool
}

// Extractor normalizes an attempt into an identity and a location hint.
type Extractor interface {
	Extract(attempt identity.LoginAttempt) (identity.Identity, string, error)
}

// Resolver maps an identity to its owning node's raw location.
type Resolver interface {
	Resolve(ctx context.Context, id identity.Identity, hint string) (string, error)
}

// RedirectBuilder computes the handoff URL for a resolved location.
type RedirectBuilder interface {
	BuildRedirect(ctx context.Context, kind clientkind.Kind, location string, id identity.Identity, options map[string]string) (handoff.Result, error)
}

// AuditPublisher records routing decisions. May be nil.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// BypassReason says why an attempt stayed on the master node.
type BypassReason string

const (
	BypassNone    BypassReason = ""
	BypassTrusted BypassReason = "trusted"
	BypassAdmin   BypassReason = "admin"
)

// Result is the outcome of one attempt: either a handoff to emit, or a
// bypass (the attempt proceeds locally and the gateway stays out of it).
type Result struct {
	Handoff *handoff.Result
	Bypass  BypassReason
}

// Service is the gateway controller. All state is read-only after
// construction; one Service serves all requests concurrently.
type Service struct {
	admins    map[string]struct{}
	verifier  TokenVerifier
	extractor Extractor
	resolver  Resolver
	builder   RedirectBuilder
	audit     AuditPublisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithAuditPublisher wires the audit trail.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

// WithMetrics wires prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService builds the controller. masterAdmins is the exact-match,
// case-sensitive allowlist of uids that never leave the master node.
func NewService(
	masterAdmins []string,
	verifier TokenVerifier,
	extractor Extractor,
	resolver Resolver,
	builder RedirectBuilder,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	admins := make(map[string]struct{}, len(masterAdmins))
	for _, uid := range masterAdmins {
		admins[uid] = struct{}{}
	}
	s := &Service{
		admins:    admins,
		verifier:  verifier,
		extractor: extractor,
		resolver:  resolver,
		builder:   builder,
		logger:    logger,
		tracer:    otel.Tracer("fedgate/gateway"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process runs the short-circuit pipeline for one attempt. Each stage may
// end processing: a valid trust token or an allowlisted admin keeps the
// attempt local; an unresolvable user or a failed exchange aborts it; and a
// built handoff terminates the attempt with a redirect.
func (s *Service) Process(ctx context.Context, attempt identity.LoginAttempt) (*Result, error) {
	start := time.Now()
	defer func() { s.metrics.ObservePipelineLatency(time.Since(start)) }()

	ctx, span := s.tracer.Start(ctx, "gateway.Process",
		trace.WithAttributes(attribute.String("client_kind", attempt.ClientKind.String())))
	defer span.End()

	requestID := requestcontext.RequestID(ctx)

	// An already-federated inter-node request carries a valid trust token;
	// anything else (including expired or foreign tokens) proceeds normally.
	if s.verifier.Verify(attempt.TrustToken) {
		span.SetAttributes(attribute.String("outcome", "trust_bypass"))
		s.metrics.IncrementBypass(string(BypassTrusted))
		s.emit(ctx, audit.Event{
			Category:  audit.CategoryOperations,
			Action:    audit.ActionTrustBypass,
			RequestID: requestID,
		})
		return &Result{Bypass: BypassTrusted}, nil
	}

	id, hint, err := s.extractor.Extract(attempt)
	if err != nil {
		s.metrics.IncrementFailure("extract")
		return nil, err
	}

	if _, isAdmin := s.admins[id.UID]; isAdmin {
		span.SetAttributes(attribute.String("outcome", "admin_bypass"))
		s.metrics.IncrementBypass(string(BypassAdmin))
		s.logger.InfoContext(ctx, "master admin stays local", "uid", id.UID, "request_id", requestID)
		s.emit(ctx, audit.Event{
			Category:  audit.CategorySecurity,
			Action:    audit.ActionAdminBypass,
			UID:       id.UID,
			RequestID: requestID,
		})
		return &Result{Bypass: BypassAdmin}, nil
	}

	location, err := s.resolver.Resolve(ctx, id, hint)
	if err != nil {
		s.metrics.IncrementFailure("resolve")
		return nil, err
	}
	if location == "" {
		span.SetAttributes(attribute.String("outcome", "location_not_found"))
		s.metrics.IncrementFailure("resolve")
		s.emit(ctx, audit.Event{
			Category:  audit.CategorySecurity,
			Action:    audit.ActionLocationNotFound,
			UID:       id.UID,
			RequestID: requestID,
		})
		return nil, &UserLocationNotFoundError{UID: id.UID}
	}

	normalized := resolver.Normalize(location, requestcontext.Scheme(ctx))

	result, err := s.builder.BuildRedirect(ctx, attempt.ClientKind, normalized, id, id.Extra)
	if err != nil {
		s.metrics.IncrementFailure("handoff")
		s.emit(ctx, audit.Event{
			Category:   audit.CategorySecurity,
			Action:     audit.ActionExchangeFailed,
			UID:        id.UID,
			ClientKind: attempt.ClientKind.String(),
			Location:   normalized,
			RequestID:  requestID,
		})
		return nil, err
	}

	span.SetAttributes(attribute.String("outcome", "handoff"))
	s.metrics.IncrementHandoff(attempt.ClientKind.String())
	s.logger.InfoContext(ctx, "handoff built",
		"uid", id.UID,
		"client_kind", attempt.ClientKind.String(),
		"location", normalized,
		"request_id", requestID,
	)
	s.emit(ctx, audit.Event{
		Category:   audit.CategoryOperations,
		Action:     audit.ActionHandoffBuilt,
		UID:        id.UID,
		ClientKind: attempt.ClientKind.String(),
		Location:   normalized,
		RequestID:  requestID,
	})

	return &Result{Handoff: &result}, nil
}

// emit stamps the request's client metadata onto the event and hands it to
// the publisher. Auditing is best-effort; failures are logged, never fatal.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.Device = clientkind.Describe(requestcontext.UserAgent(ctx))
	event.ClientIP = requestcontext.ClientIP(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
