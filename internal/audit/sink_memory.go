package audit

import (
	"context"
	"sync"
)

// MemorySink keeps events in memory. Default sink for dev deployments and
// tests; production wires the Kafka sink.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink builds an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append stores the event.
func (s *MemorySink) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything appended so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
