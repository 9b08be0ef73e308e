package audit

import (
	"context"
	"log/slog"
)

// Worker drains the publisher inbox into the sink. One worker per process
// keeps event ordering stable.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

// NewWorker builds a Worker over the sink and inbox.
func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run consumes events until ctx is cancelled. Sink failures are logged and
// the worker keeps going; audit loss is preferable to a wedged pipeline.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
