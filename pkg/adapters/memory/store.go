package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/passgraph/pkg/domain"
)

// Store implements ports.RunStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.RunRecord
	mu   sync.RWMutex
}

// NewStore creates a new in-memory run store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.RunRecord),
	}
}

// Save persists a copy of the record.
func (s *Store) Save(ctx context.Context, record *domain.RunRecord) error {
	copied := cloneRecord(record)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[record.ID] = copied
	return nil
}

// Load retrieves a copy of the record so callers cannot mutate the store by pointer.
func (s *Store) Load(ctx context.Context, id string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.data[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return cloneRecord(record), nil
}

// List returns the stored run ids, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes the run.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func cloneRecord(r *domain.RunRecord) *domain.RunRecord {
	ret := *r
	ret.Catalogue = slices.Clone(r.Catalogue)
	ret.Nodes = slices.Clone(r.Nodes)
	ret.Edges = make([]domain.RunEdge, len(r.Edges))
	for i, e := range r.Edges {
		e.Labels = slices.Clone(e.Labels)
		ret.Edges[i] = e
	}
	ret.Strong = cloneGroups(r.Strong)
	ret.Weak = cloneGroups(r.Weak)
	return &ret
}

func cloneGroups(groups [][]string) [][]string {
	if groups == nil {
		return nil
	}
	out := make([][]string, len(groups))
	for i, g := range groups {
		out[i] = slices.Clone(g)
	}
	return out
}
