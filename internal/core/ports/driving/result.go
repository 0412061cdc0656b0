package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/resultq/internal/core/domain"
)

// ResultService manages individual results.
type ResultService interface {
	// Create validates and stores a new result. When taskID is non-empty a
	// "created" event is recorded for it.
	Create(ctx context.Context, r *domain.Result, taskID string) error

	// Update validates and stores an existing result. When taskID is
	// non-empty an "updated" event is recorded for it.
	Update(ctx context.Context, r *domain.Result, taskID string) error

	// Get retrieves a result by ID, tags included.
	Get(ctx context.Context, id int64) (*domain.Result, error)

	// Delete removes a result.
	Delete(ctx context.Context, id int64) error

	// TraverseMetadata resolves a key path in a result's metadata and
	// returns the match keyed by the last path segment.
	TraverseMetadata(ctx context.Context, id int64, path []string) (map[string]any, error)

	// SetTagList replaces a result's tags from a comma-separated list.
	SetTagList(ctx context.Context, id int64, list string) error

	// TagList returns a result's tags as a comma-separated list.
	TagList(ctx context.Context, id int64) (string, error)

	// SetStatus assigns the default status when the result has none and
	// returns the result's status.
	SetStatus(ctx context.Context, id int64) (*domain.Status, error)

	// Statuses lists the workflow statuses.
	Statuses(ctx context.Context) ([]domain.Status, error)

	// Tags lists the known tags.
	Tags(ctx context.Context) ([]domain.Tag, error)

	// ExportCSV writes every result passing the filter to w as CSV.
	ExportCSV(ctx context.Context, w io.Writer, filter domain.ResultFilter) error

	// ValidColumnNames returns the columns results can be filtered and
	// sorted on.
	ValidColumnNames() []string
}
