package driving

import (
	"context"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/metaquery"
)

// SearchService provides result search to external actors.
type SearchService interface {
	// Search applies the structured filter, then the metadata query, then
	// pagination. A malformed metadata query yields an error matching
	// metaquery.ErrSyntax and no results.
	Search(ctx context.Context, opts domain.SearchOptions) (*domain.SearchPage, error)

	// ParseQuery validates a metadata query without running a search.
	ParseQuery(query string) (metaquery.Query, error)
}
