package audit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherStampsTimestamp(t *testing.T) {
	p := NewPublisher(4, slog.Default())

	require.NoError(t, p.Emit(context.Background(), Event{Action: ActionHandoffBuilt}))

	event := <-p.Inbox()
	assert.False(t, event.Timestamp.IsZero())
}

func TestPublisherDropsWhenFull(t *testing.T) {
	p := NewPublisher(1, slog.Default())
	ctx := context.Background()

	require.NoError(t, p.Emit(ctx, Event{Action: ActionHandoffBuilt}))
	// Inbox is full; the second emit must not block.
	done := make(chan struct{})
	go func() {
		_ = p.Emit(ctx, Event{Action: ActionAdminBypass})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full inbox")
	}
}

func TestWorkerDrainsIntoSink(t *testing.T) {
	sink := NewMemorySink()
	p := NewPublisher(4, slog.Default())
	w := NewWorker(sink, p.Inbox(), slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, p.Emit(ctx, Event{Action: ActionTrustBypass, UID: "alice"}))
	require.NoError(t, p.Emit(ctx, Event{Action: ActionHandoffBuilt, UID: "bob"}))

	assert.Eventually(t, func() bool {
		return len(sink.Events()) == 2
	}, time.Second, 10*time.Millisecond)

	events := sink.Events()
	assert.Equal(t, ActionTrustBypass, events[0].Action)
	assert.Equal(t, ActionHandoffBuilt, events[1].Action)
}
