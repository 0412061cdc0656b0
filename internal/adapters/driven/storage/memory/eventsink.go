package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/ports/driven"
)

// Ensure EventSink implements the interface.
var _ driven.EventSink = (*EventSink)(nil)

// EventSink collects events in memory.
type EventSink struct {
	mu     sync.Mutex
	events []domain.Event
}

// NewEventSink creates an empty event sink.
func NewEventSink() *EventSink {
	return &EventSink{}
}

// Record appends an event, assigning an ID and timestamp when missing.
func (s *EventSink) Record(_ context.Context, event *domain.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

// Events returns a copy of the recorded events in order.
func (s *EventSink) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.events...)
}
