package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/resultq/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/metaquery"
)

// --- Mock implementations ---

// mockResultStore implements driven.ResultStore with a fixed candidate list.
type mockResultStore struct {
	candidates []domain.Result
	fetchErr   error
	fetches    int
	lastFilter domain.ResultFilter
}

func (m *mockResultStore) Save(_ context.Context, _ *domain.Result) error { return nil }

func (m *mockResultStore) Get(_ context.Context, id int64) (*domain.Result, error) {
	for i := range m.candidates {
		if m.candidates[i].ID == id {
			r := m.candidates[i]
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockResultStore) GetByURL(_ context.Context, _ string) (*domain.Result, error) {
	return nil, domain.ErrNotFound
}

func (m *mockResultStore) Delete(_ context.Context, _ int64) error { return nil }

func (m *mockResultStore) FetchCandidates(_ context.Context, filter domain.ResultFilter) ([]domain.Result, error) {
	m.fetches++
	m.lastFilter = filter
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return append([]domain.Result(nil), m.candidates...), nil
}

// mockMetrics implements driven.SearchMetrics for testing.
type mockMetrics struct {
	mu        sync.Mutex
	outcomes  []string
	evaluated int
	malformed int
}

func (m *mockMetrics) ObserveSearch(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *mockMetrics) AddCandidatesEvaluated(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluated += n
}

func (m *mockMetrics) AddMalformedDocuments(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.malformed += n
}

// --- Helpers ---

func candidate(id int64, metadata string) domain.Result {
	return domain.Result{
		ID:       id,
		URL:      fmt.Sprintf("https://example.com/%d", id),
		Metadata: []byte(metadata),
	}
}

func resultIDs(results []domain.Result) []int64 {
	ids := make([]int64, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	return ids
}

func firstPage(query string) domain.SearchOptions {
	return domain.SearchOptions{MetadataQuery: query, Page: 1, PageSize: domain.DefaultPerPage}
}

// --- Tests ---

func TestNewSearchService(t *testing.T) {
	service := NewSearchService(&mockResultStore{})
	require.NotNil(t, service)
	assert.NotNil(t, service.metrics)
}

func TestSearchService_Search_NoStore(t *testing.T) {
	service := NewSearchService(nil)

	_, err := service.Search(context.Background(), firstPage(""))
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestSearchService_Search_CombinedScenario(t *testing.T) {
	store := &mockResultStore{candidates: []domain.Result{
		candidate(1, `{"github_analyzer":{"private":false}}`),
		candidate(2, `{"github_analyzer":{"private":true}}`),
		candidate(3, `{}`),
	}}
	service := NewSearchService(store)

	page, err := service.Search(context.Background(), firstPage(`github_analyzer:private==true`))

	require.NoError(t, err)
	assert.Equal(t, []int64{2}, resultIDs(page.Results))
	assert.Equal(t, 1, page.Total)
}

func TestSearchService_Search_EmptyQuerySkipsMetadataStage(t *testing.T) {
	store := &mockResultStore{candidates: []domain.Result{
		candidate(1, `not json`),
		candidate(2, `{}`),
	}}
	metrics := &mockMetrics{}
	service := NewSearchService(store)
	service.SetMetrics(metrics)

	for _, q := range []string{"", "   "} {
		page, err := service.Search(context.Background(), firstPage(q))
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, resultIDs(page.Results), "query %q", q)
		assert.Empty(t, page.Filter.Clauses)
	}
	assert.Zero(t, metrics.evaluated)
	assert.Zero(t, metrics.malformed)
}

func TestSearchService_Search_PassesFilterThrough(t *testing.T) {
	store := &mockResultStore{}
	service := NewSearchService(store)
	filter := domain.ResultFilter{URLContains: "netflix", StatusIDs: []int64{1}}

	page, err := service.Search(context.Background(), domain.SearchOptions{
		Filter:        filter,
		MetadataQuery: `a==1`,
		Page:          1,
		PageSize:      10,
	})

	require.NoError(t, err)
	assert.Equal(t, filter, store.lastFilter)
	assert.Equal(t, filter, page.Filter.Structured)
	assert.Equal(t, `a==1`, page.Filter.MetadataQuery)
	assert.Equal(t, []string{`a==1`}, page.Filter.Clauses)
	assert.Empty(t, page.Results)
}

func TestSearchService_Search_SyntaxErrorFailsFast(t *testing.T) {
	store := &mockResultStore{candidates: []domain.Result{candidate(1, `{}`)}}
	metrics := &mockMetrics{}
	service := NewSearchService(store)
	service.SetMetrics(metrics)

	page, err := service.Search(context.Background(), firstPage(`a:b=="unterminated`))

	require.Error(t, err)
	assert.Nil(t, page)
	assert.ErrorIs(t, err, metaquery.ErrSyntax)
	syntaxErr, ok := metaquery.AsSyntaxError(err)
	require.True(t, ok)
	assert.NotEmpty(t, syntaxErr.Fragment)
	assert.Zero(t, store.fetches)
	assert.Equal(t, []string{"syntax_error"}, metrics.outcomes)
}

func TestSearchService_Search_MalformedDocumentsExcluded(t *testing.T) {
	store := &mockResultStore{candidates: []domain.Result{
		candidate(1, `{"a":1}`),
		candidate(2, `{"a":`),
		candidate(3, `[1,2]`),
		candidate(4, `{"a":1}`),
	}}
	metrics := &mockMetrics{}
	service := NewSearchService(store)
	service.SetMetrics(metrics)

	page, err := service.Search(context.Background(), firstPage(`a==1`))

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, resultIDs(page.Results))
	assert.Equal(t, 4, metrics.evaluated)
	assert.Equal(t, 2, metrics.malformed)
	assert.Equal(t, []string{"ok"}, metrics.outcomes)
}

func TestSearchService_Search_NotEqualMatchesMissingMetadata(t *testing.T) {
	store := &mockResultStore{candidates: []domain.Result{
		candidate(1, ``),
		candidate(2, `{"a":{"b":"x"}}`),
	}}
	service := NewSearchService(store)

	page, err := service.Search(context.Background(), firstPage(`a:b!="x"`))

	require.NoError(t, err)
	assert.Equal(t, []int64{1}, resultIDs(page.Results))
}

func TestSearchService_Search_PreservesOrderAcrossWorkers(t *testing.T) {
	var candidates []domain.Result
	var want []int64
	for i := int64(1); i <= 200; i++ {
		meta := `{"n":"odd"}`
		if i%2 == 0 {
			meta = `{"n":"even"}`
			want = append(want, i)
		}
		candidates = append(candidates, candidate(i, meta))
	}
	store := &mockResultStore{candidates: candidates}

	for _, workers := range []int{0, 1, 3, 16, 500} {
		service := NewSearchService(store)
		service.SetWorkers(workers)

		page, err := service.Search(context.Background(), domain.SearchOptions{
			MetadataQuery: `n=="even"`,
			Page:          1,
			PageSize:      1000,
		})

		require.NoError(t, err)
		assert.Equal(t, want, resultIDs(page.Results), "workers=%d", workers)
	}
}

func TestSearchService_Search_Pagination(t *testing.T) {
	var candidates []domain.Result
	for i := int64(1); i <= 5; i++ {
		candidates = append(candidates, candidate(i, `{"keep":true}`))
	}
	service := NewSearchService(&mockResultStore{candidates: candidates})

	tests := []struct {
		name     string
		page     int
		pageSize int
		want     []int64
	}{
		{"first page", 1, 2, []int64{1, 2}},
		{"middle page", 2, 2, []int64{3, 4}},
		{"last partial page", 3, 2, []int64{5}},
		{"past the end", 4, 2, []int64{}},
		{"zero page", 0, 2, []int64{}},
		{"negative page", -1, 2, []int64{}},
		{"zero page size", 1, 0, []int64{}},
		{"single page", 1, 25, []int64{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := service.Search(context.Background(), domain.SearchOptions{
				MetadataQuery: `keep==true`,
				Page:          tt.page,
				PageSize:      tt.pageSize,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resultIDs(page.Results))
			assert.Equal(t, 5, page.Total)
		})
	}
}

func TestSearchService_Search_FetchError(t *testing.T) {
	boom := errors.New("database locked")
	metrics := &mockMetrics{}
	service := NewSearchService(&mockResultStore{fetchErr: boom})
	service.SetMetrics(metrics)

	_, err := service.Search(context.Background(), firstPage(""))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"error"}, metrics.outcomes)
}

func TestSearchService_Search_Cancelled(t *testing.T) {
	store := &mockResultStore{candidates: []domain.Result{candidate(1, `{"a":1}`), candidate(2, `{"a":1}`)}}
	service := NewSearchService(store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Search(ctx, firstPage(`a==1`))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchService_Search_WithMemoryStore(t *testing.T) {
	ctx := context.Background()
	statuses := memory.NewStatusStore()
	tags := memory.NewTagStore()
	store := memory.NewResultStore(statuses, tags)
	results := NewResultService(store, statuses, tags, nil)

	netflix := &domain.Result{
		URL:      "https://www.netflix.com/login",
		Metadata: []byte(`{"curl_metadata":{"Server":"shakti-prod i-0ee8e795b8bde9360"},"vulnerability_count":{"closed":1}}`),
	}
	other := &domain.Result{
		URL:      "https://other.example/",
		Metadata: []byte(`{"curl_metadata":{"Server":"shakti-prod i-0ee8e795b8bde9360"}}`),
	}
	arrays := &domain.Result{
		URL:      "https://arrays.example/",
		Metadata: []byte(`{"array_test":["1","2"]}`),
	}
	for _, r := range []*domain.Result{netflix, other, arrays} {
		require.NoError(t, results.Create(ctx, r, ""))
	}

	service := NewSearchService(store)

	page, err := service.Search(ctx, firstPage(`curl_metadata:Server=="shakti-prod i-0ee8e795b8bde9360",vulnerability_count:closed==1`))
	require.NoError(t, err)
	assert.Equal(t, []int64{netflix.ID}, resultIDs(page.Results))

	page, err = service.Search(ctx, domain.SearchOptions{
		Filter:        domain.ResultFilter{URLContains: "netflix"},
		MetadataQuery: `curl_metadata:Server=="shakti-prod i-0ee8e795b8bde9360"`,
		Page:          1,
		PageSize:      25,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{netflix.ID}, resultIDs(page.Results))

	page, err = service.Search(ctx, firstPage(`array_test@>["1"]`))
	require.NoError(t, err)
	assert.Equal(t, []int64{arrays.ID}, resultIDs(page.Results))

	page, err = service.Search(ctx, firstPage(`array_test@>["3"]`))
	require.NoError(t, err)
	assert.Empty(t, page.Results)
}

func TestSearchService_ParseQuery(t *testing.T) {
	service := NewSearchService(nil)

	q, err := service.ParseQuery(`a:b=="x",c@>["1"]`)
	require.NoError(t, err)
	require.Len(t, q, 2)
	assert.Equal(t, metaquery.OpArrayContains, q[1].Op)

	_, err = service.ParseQuery(`a:b`)
	assert.ErrorIs(t, err, metaquery.ErrSyntax)
}

func TestSearchService_SetMetricsNil(t *testing.T) {
	service := NewSearchService(&mockResultStore{})
	service.SetMetrics(nil)

	_, err := service.Search(context.Background(), firstPage(""))
	assert.NoError(t, err)
}
