package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"docstamp/internal/audit"
)

// InMemoryStore keeps the generation log in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []audit.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, rec *audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	s.records = append(s.records, *rec)
	return nil
}

// ListDescending returns copies, so callers never observe later writes.
func (s *InMemoryStore) ListDescending(_ context.Context) ([]*audit.Record, error) {
	s.mu.RLock()
	out := make([]*audit.Record, 0, len(s.records))
	for i := range s.records {
		rec := s.records[i]
		out = append(out, &rec)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *audit.Record) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

// Clear drops every record. The ID sequence keeps counting.
func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}
