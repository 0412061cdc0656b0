package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/ports/driven"
)

// Ensure TagStore implements the interface.
var _ driven.TagStore = (*TagStore)(nil)

// TagStore is an in-memory implementation of driven.TagStore.
type TagStore struct {
	mu       sync.RWMutex
	nextID   int64
	byName   map[string]domain.Tag
	byID     map[int64]domain.Tag
	taggings map[int64][]int64 // result ID -> tag IDs in attachment order
}

// NewTagStore creates a new in-memory tag store.
func NewTagStore() *TagStore {
	return &TagStore{
		byName:   make(map[string]domain.Tag),
		byID:     make(map[int64]domain.Tag),
		taggings: make(map[int64][]int64),
	}
}

// SetResultTags replaces the tags on a result, creating missing tags.
func (s *TagStore) SetResultTags(_ context.Context, resultID int64, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		tag, ok := s.byName[name]
		if !ok {
			s.nextID++
			tag = domain.Tag{ID: s.nextID, Name: name}
			s.byName[name] = tag
			s.byID[tag.ID] = tag
		}
		ids = append(ids, tag.ID)
	}
	if len(ids) == 0 {
		delete(s.taggings, resultID)
		return nil
	}
	s.taggings[resultID] = ids
	return nil
}

// ResultTags returns the tag names on a result in attachment order.
func (s *TagStore) ResultTags(_ context.Context, resultID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.taggings[resultID]
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, s.byID[id].Name)
	}
	return names, nil
}

// List returns all known tags ordered by name.
func (s *TagStore) List(_ context.Context) ([]domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Tag, 0, len(s.byID))
	for _, tag := range s.byID {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// hasAny reports whether the result carries one of the tag IDs.
func (s *TagStore) hasAny(resultID int64, tagIDs []int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, have := range s.taggings[resultID] {
		for _, want := range tagIDs {
			if have == want {
				return true
			}
		}
	}
	return false
}

// forget drops a result's taggings.
func (s *TagStore) forget(resultID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.taggings, resultID)
}
