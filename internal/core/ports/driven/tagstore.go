package driven

import (
	"context"

	"github.com/custodia-labs/resultq/internal/core/domain"
)

// TagStore persists tags and their attachment to results.
type TagStore interface {
	// SetResultTags replaces the tags on a result, creating missing tags.
	// Order of names is preserved.
	SetResultTags(ctx context.Context, resultID int64, names []string) error

	// ResultTags returns the tag names on a result in attachment order.
	ResultTags(ctx context.Context, resultID int64) ([]string, error)

	// List returns all known tags ordered by name.
	List(ctx context.Context) ([]domain.Tag, error)
}
