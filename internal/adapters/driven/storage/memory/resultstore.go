package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/ports/driven"
)

// Ensure ResultStore implements the interface.
var _ driven.ResultStore = (*ResultStore)(nil)

// ResultStore is an in-memory implementation of driven.ResultStore.
// Closed-status and tag filters consult the status and tag stores it was
// created with; either may be nil.
type ResultStore struct {
	mu       sync.RWMutex
	nextID   int64
	results  map[int64]domain.Result
	statuses *StatusStore
	tags     *TagStore
	now      func() time.Time
}

// NewResultStore creates a new in-memory result store.
func NewResultStore(statuses *StatusStore, tags *TagStore) *ResultStore {
	return &ResultStore{
		results:  make(map[int64]domain.Result),
		statuses: statuses,
		tags:     tags,
		now:      time.Now,
	}
}

// Save inserts a result when its ID is zero, otherwise updates it.
func (s *ResultStore) Save(_ context.Context, r *domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, other := range s.results {
		if other.URL == r.URL && id != r.ID {
			return domain.ErrAlreadyExists
		}
	}

	now := s.now()
	if r.ID == 0 {
		s.nextID++
		r.ID = s.nextID
		r.CreatedAt = now
	} else {
		existing, ok := s.results[r.ID]
		if !ok {
			return domain.ErrNotFound
		}
		r.CreatedAt = existing.CreatedAt
		if r.ID > s.nextID {
			s.nextID = r.ID
		}
	}
	r.UpdatedAt = now

	stored := *r
	stored.Metadata = append([]byte(nil), r.Metadata...)
	stored.Tags = nil
	s.results[r.ID] = stored
	return nil
}

// Get retrieves a result by ID.
func (s *ResultStore) Get(_ context.Context, id int64) (*domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

// GetByURL retrieves the result with the given URL.
func (s *ResultStore) GetByURL(_ context.Context, url string) (*domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.results {
		if r.URL == url {
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Delete removes a result and its taggings.
func (s *ResultStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	delete(s.results, id)
	s.mu.Unlock()
	if s.tags != nil {
		s.tags.forget(id)
	}
	return nil
}

// FetchCandidates returns every result passing the structured filter.
func (s *ResultStore) FetchCandidates(ctx context.Context, filter domain.ResultFilter) ([]domain.Result, error) {
	if !filter.Sort.IsValid() {
		return nil, domain.ErrInvalidInput
	}

	s.mu.RLock()
	out := make([]domain.Result, 0, len(s.results))
	for _, r := range s.results {
		if s.matches(&r, &filter) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	less := lessFunc(filter.Sort.OrDefault())
	sort.SliceStable(out, func(i, j int) bool {
		if filter.Descending {
			return less(&out[j], &out[i])
		}
		return less(&out[i], &out[j])
	})
	return out, nil
}

func (s *ResultStore) matches(r *domain.Result, f *domain.ResultFilter) bool {
	if len(f.StatusIDs) > 0 {
		if r.StatusID == nil || !containsID(f.StatusIDs, *r.StatusID) {
			return false
		}
	} else if !f.IncludeClosed && r.StatusID != nil && s.statuses != nil && s.statuses.isClosed(*r.StatusID) {
		return false
	}
	if len(f.TagIDs) > 0 && (s.tags == nil || !s.tags.hasAny(r.ID, f.TagIDs)) {
		return false
	}
	if f.UserID != nil && (r.UserID == nil || *r.UserID != *f.UserID) {
		return false
	}
	if f.URLContains != "" && !containsFold(r.URL, f.URLContains) {
		return false
	}
	if f.TitleContains != "" && !containsFold(r.Title, f.TitleContains) {
		return false
	}
	return true
}

// lessFunc orders by field with ID as the tie-break.
func lessFunc(field domain.SortField) func(a, b *domain.Result) bool {
	return func(a, b *domain.Result) bool {
		switch field {
		case domain.SortByCreatedAt:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		case domain.SortByUpdatedAt:
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.Before(b.UpdatedAt)
			}
		case domain.SortByTitle:
			if a.Title != b.Title {
				return a.Title < b.Title
			}
		}
		return a.ID < b.ID
	}
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
