package driven

import (
	"context"

	"github.com/custodia-labs/resultq/internal/core/domain"
)

// EventSink receives result lifecycle events.
type EventSink interface {
	// Record stores an event. Implementations assign ID and CreatedAt
	// when they are empty.
	Record(ctx context.Context, event *domain.Event) error
}
