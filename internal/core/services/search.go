package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/metaquery"
	"github.com/custodia-labs/resultq/internal/core/ports/driven"
	"github.com/custodia-labs/resultq/internal/core/ports/driving"
	"github.com/custodia-labs/resultq/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService runs the two-stage result search: the structured filter in
// the result store, then the metadata query over each candidate's document.
type SearchService struct {
	resultStore driven.ResultStore
	metrics     driven.SearchMetrics
	workers     int
}

// NewSearchService creates a new search service.
func NewSearchService(resultStore driven.ResultStore) *SearchService {
	return &SearchService{
		resultStore: resultStore,
		metrics:     noopMetrics{},
	}
}

// SetMetrics sets the search metrics sink. Nil restores the no-op sink.
func (s *SearchService) SetMetrics(m driven.SearchMetrics) {
	if m == nil {
		m = noopMetrics{}
	}
	s.metrics = m
}

// SetWorkers bounds concurrent metadata evaluation. Values below one use
// GOMAXPROCS.
func (s *SearchService) SetWorkers(n int) {
	s.workers = n
}

// ParseQuery validates a metadata query without running a search.
func (s *SearchService) ParseQuery(query string) (metaquery.Query, error) {
	return metaquery.Parse(query)
}

// Search applies the structured filter, the metadata query and pagination.
func (s *SearchService) Search(ctx context.Context, opts domain.SearchOptions) (*domain.SearchPage, error) {
	start := time.Now()
	page, err := s.search(ctx, opts)

	outcome := driven.SearchOutcomeOK
	switch {
	case metaquery.IsSyntaxError(err):
		outcome = driven.SearchOutcomeSyntaxError
	case err != nil:
		outcome = driven.SearchOutcomeError
	}
	s.metrics.ObserveSearch(outcome, time.Since(start))

	return page, err
}

func (s *SearchService) search(ctx context.Context, opts domain.SearchOptions) (*domain.SearchPage, error) {
	logger.Section("Search Execution")
	logger.Debug("Metadata query: %q", opts.MetadataQuery)
	logger.Debug("Page: %d, page size: %d", opts.Page, opts.PageSize)

	if s.resultStore == nil {
		return nil, domain.ErrStoreUnavailable
	}

	desc := domain.FilterDescription{
		Structured:    opts.Filter,
		MetadataQuery: opts.MetadataQuery,
	}

	// Parse before touching the store so a bad query costs nothing.
	var query metaquery.Query
	if strings.TrimSpace(opts.MetadataQuery) != "" {
		var err error
		query, err = metaquery.Parse(opts.MetadataQuery)
		if err != nil {
			logger.Warn("Metadata query rejected: %v", err)
			return nil, fmt.Errorf("parse metadata query: %w", err)
		}
		for _, c := range query {
			desc.Clauses = append(desc.Clauses, c.String())
		}
		logger.Debug("Parsed %d clause(s): %s", len(query), query)
	}

	candidates, err := s.resultStore.FetchCandidates(ctx, opts.Filter)
	if err != nil {
		logger.Warn("Candidate fetch failed: %v", err)
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	logger.Debug("Structured filter: %d candidate(s)", len(candidates))

	matched := candidates
	if len(query) > 0 {
		matched, err = s.filterMetadata(ctx, candidates, query)
		if err != nil {
			return nil, err
		}
		logger.Debug("Metadata filter: %d of %d candidate(s) kept", len(matched), len(candidates))
	}

	page := &domain.SearchPage{
		Results:  applyPagination(matched, opts.Page, opts.PageSize),
		Total:    len(matched),
		Page:     opts.Page,
		PageSize: opts.PageSize,
		Filter:   desc,
	}
	logger.Info("Search returned %d of %d result(s)", len(page.Results), page.Total)
	return page, nil
}

// filterMetadata evaluates the query against every candidate on a bounded
// worker pool. keep[i] is written only by the worker handling i, so the
// compacted slice preserves store order.
func (s *SearchService) filterMetadata(
	ctx context.Context, candidates []domain.Result, query metaquery.Query,
) ([]domain.Result, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	workers := s.workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	keep := make([]bool, len(candidates))
	var malformed atomic.Int64
	jobs := make(chan int)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				keep[i] = s.evaluate(&candidates[i], query, &malformed)
			}
		}()
	}

	var cancelErr error
feed:
	for i := range candidates {
		if cancelErr = ctx.Err(); cancelErr != nil {
			break
		}
		select {
		case <-ctx.Done():
			cancelErr = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	s.metrics.AddCandidatesEvaluated(len(candidates))
	if n := int(malformed.Load()); n > 0 {
		s.metrics.AddMalformedDocuments(n)
		logger.Debug("Excluded %d malformed metadata document(s)", n)
	}

	if cancelErr != nil {
		logger.Warn("Search cancelled: %v", cancelErr)
		return nil, cancelErr
	}

	out := make([]domain.Result, 0, len(candidates))
	for i := range candidates {
		if keep[i] {
			out = append(out, candidates[i])
		}
	}
	return out, nil
}

// evaluate reports whether a candidate's document satisfies the query.
// Documents that fail to parse never match.
func (s *SearchService) evaluate(r *domain.Result, query metaquery.Query, malformed *atomic.Int64) bool {
	doc, err := metaquery.ParseDocument(r.Metadata)
	if err != nil {
		if errors.Is(err, metaquery.ErrMalformedDocument) {
			malformed.Add(1)
			logger.Debug("Result %d: %v", r.ID, err)
		}
		return false
	}
	return query.Matches(doc)
}

// applyPagination returns the 1-based page of results. Non-positive page
// numbers or sizes, and pages past the end, are empty.
func applyPagination(results []domain.Result, page, pageSize int) []domain.Result {
	if page < 1 || pageSize < 1 {
		return []domain.Result{}
	}
	offset := (page - 1) * pageSize
	if offset >= len(results) || offset < 0 {
		return []domain.Result{}
	}

	end := offset + pageSize
	if end > len(results) || end < 0 {
		end = len(results)
	}

	return results[offset:end]
}

// noopMetrics discards observations.
type noopMetrics struct{}

func (noopMetrics) ObserveSearch(string, time.Duration) {}
func (noopMetrics) AddCandidatesEvaluated(int)          {}
func (noopMetrics) AddMalformedDocuments(int)           {}
