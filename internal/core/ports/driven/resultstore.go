package driven

import (
	"context"

	"github.com/custodia-labs/resultq/internal/core/domain"
)

// ResultStore persists results.
// Backed by SQLite; an in-memory implementation exists for tests.
type ResultStore interface {
	// Save inserts a result when its ID is zero, otherwise updates it.
	// The assigned ID and timestamps are written back into r.
	Save(ctx context.Context, r *domain.Result) error

	// Get retrieves a result by ID.
	Get(ctx context.Context, id int64) (*domain.Result, error)

	// GetByURL retrieves the result with the given URL.
	GetByURL(ctx context.Context, url string) (*domain.Result, error)

	// Delete removes a result.
	Delete(ctx context.Context, id int64) error

	// FetchCandidates returns every result passing the structured filter,
	// in the filter's sort order and without pagination. Metadata is
	// returned as stored, malformed or not.
	FetchCandidates(ctx context.Context, filter domain.ResultFilter) ([]domain.Result, error)
}
