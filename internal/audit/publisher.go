// Package audit records the gateway's routing decisions. Emission is
// asynchronous; a slow or unavailable sink must never block a login.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Sink persists audit events. Implementations: Kafka (production), memory
// (dev and tests).
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher hands events to the background worker through a bounded inbox.
// When the inbox is full the event is dropped and counted; auditing is
// best-effort by design on the login path.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewPublisher builds a Publisher with the given inbox capacity.
func NewPublisher(capacity int, logger *slog.Logger) *Publisher {
	if capacity <= 0 {
		capacity = 256
	}
	return &Publisher{
		inbox:  make(chan Event, capacity),
		logger: logger,
	}
}

// Emit enqueues the event, stamping the timestamp if unset.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event", "action", event.Action)
	}
	return nil
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
