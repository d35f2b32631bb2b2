package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"resimed/internal/catalog/models"
	id "resimed/pkg/domain"
	"resimed/pkg/platform/sentinel"
)

// InMemory stores procedure catalog entries in memory for tests/dev.
//
// CreateIfAbsent holds the store lock across the equivalent-entry check and
// the insert, so a concurrent copy and edit on the same cohort can never
// produce duplicate (name, category) pairs.
type InMemory struct {
	mu      sync.RWMutex
	entries map[id.EntryID]*models.Entry
	nextPos map[id.CohortID]int
}

func NewInMemory() *InMemory {
	return &InMemory{
		entries: make(map[id.EntryID]*models.Entry),
		nextPos: make(map[id.CohortID]int),
	}
}

// CreateIfAbsent inserts the entry unless the target cohort already holds an
// entry with the same (name, category) pair. Existing entries are
// authoritative and never overwritten. Reports whether an insert happened.
func (s *InMemory) CreateIfAbsent(_ context.Context, entry *models.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.entries {
		if existing.CohortID == entry.CohortID &&
			existing.Name == entry.Name &&
			existing.Category == entry.Category {
			return false, nil
		}
	}
	s.nextPos[entry.CohortID]++
	copied := *entry
	copied.Position = s.nextPos[entry.CohortID]
	s.entries[entry.ID] = &copied
	return true, nil
}

func (s *InMemory) FindByID(_ context.Context, entryID id.EntryID) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.entries[entryID]; ok {
		copied := *entry
		return &copied, nil
	}
	return nil, fmt.Errorf("catalog entry not found: %w", sentinel.ErrNotFound)
}

// Update rewrites the mutable fields of an entry. The (name, category)
// uniqueness invariant is rechecked under the same lock.
func (s *InMemory) Update(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.entries[entry.ID]
	if !ok {
		return fmt.Errorf("catalog entry not found: %w", sentinel.ErrNotFound)
	}
	for otherID, other := range s.entries {
		if otherID != entry.ID && other.CohortID == current.CohortID &&
			other.Name == entry.Name && other.Category == entry.Category {
			return fmt.Errorf("equivalent entry exists: %w", sentinel.ErrConflict)
		}
	}
	copied := *entry
	copied.CohortID = current.CohortID
	copied.Position = current.Position
	copied.CreatedAt = current.CreatedAt
	s.entries[entry.ID] = &copied
	return nil
}

func (s *InMemory) Delete(_ context.Context, entryID id.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entryID]; !ok {
		return fmt.Errorf("catalog entry not found: %w", sentinel.ErrNotFound)
	}
	delete(s.entries, entryID)
	return nil
}

func (s *InMemory) ListByCohort(_ context.Context, cohortID id.CohortID) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Entry
	for _, entry := range s.entries {
		if entry.CohortID == cohortID {
			copied := *entry
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}
