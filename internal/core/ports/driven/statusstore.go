package driven

import (
	"context"

	"github.com/custodia-labs/resultq/internal/core/domain"
)

// StatusStore reads workflow statuses.
type StatusStore interface {
	// List returns all statuses ordered by ID.
	List(ctx context.Context) ([]domain.Status, error)

	// Get retrieves a status by ID.
	Get(ctx context.Context, id int64) (*domain.Status, error)

	// Default returns the status flagged as default.
	// Returns domain.ErrNoDefaultStatus if none is.
	Default(ctx context.Context) (*domain.Status, error)
}
