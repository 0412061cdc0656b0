package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/ports/driven"
)

// Ensure StatusStore implements the interface.
var _ driven.StatusStore = (*StatusStore)(nil)

// StatusStore is an in-memory implementation of driven.StatusStore.
type StatusStore struct {
	mu       sync.RWMutex
	statuses map[int64]domain.Status
}

// NewStatusStore creates a status store holding the given statuses, or
// domain.DefaultStatuses when none are given.
func NewStatusStore(statuses ...domain.Status) *StatusStore {
	if len(statuses) == 0 {
		statuses = domain.DefaultStatuses()
	}
	s := &StatusStore{statuses: make(map[int64]domain.Status, len(statuses))}
	for _, st := range statuses {
		s.statuses[st.ID] = st
	}
	return s
}

// List returns all statuses ordered by ID.
func (s *StatusStore) List(_ context.Context) ([]domain.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Status, 0, len(s.statuses))
	for _, st := range s.statuses {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get retrieves a status by ID.
func (s *StatusStore) Get(_ context.Context, id int64) (*domain.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &st, nil
}

// Default returns the status flagged as default. With several flagged the
// lowest ID wins.
func (s *StatusStore) Default(ctx context.Context) (*domain.Status, error) {
	all, _ := s.List(ctx)
	for i := range all {
		if all[i].IsDefault {
			return &all[i], nil
		}
	}
	return nil, domain.ErrNoDefaultStatus
}

// isClosed reports whether id names a closed status.
func (s *StatusStore) isClosed(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statuses[id].Closed
}
