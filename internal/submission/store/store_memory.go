package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"resimed/internal/submission/models"
	id "resimed/pkg/domain"
	"resimed/pkg/platform/sentinel"
)

// Filter narrows record listings. Nil fields match everything.
type Filter struct {
	Kind     *models.Kind
	Status   *models.Status
	CohortID *id.CohortID
}

func (f Filter) matches(record *models.Record) bool {
	if f.Kind != nil && record.Kind != *f.Kind {
		return false
	}
	if f.Status != nil && record.Status != *f.Status {
		return false
	}
	if f.CohortID != nil && record.CohortID != *f.CohortID {
		return false
	}
	return true
}

// InMemory stores submission records in memory for tests/dev.
//
// Execute holds the store lock across both callbacks, so concurrent
// verification attempts on the same record serialize: the first transition
// wins and the second observes the terminal status during validation.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.RecordID]*models.Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.RecordID]*models.Record)}
}

func (s *InMemory) Create(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return fmt.Errorf("record already exists: %w", sentinel.ErrConflict)
	}
	copied := *record
	s.records[record.ID] = &copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, recordID id.RecordID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[recordID]; ok {
		copied := *record
		return &copied, nil
	}
	return nil, fmt.Errorf("record not found: %w", sentinel.ErrNotFound)
}

// Execute runs validate then mutate on one record while holding the store
// lock. The mutated record is persisted only if both callbacks succeed; a
// validate failure leaves the record untouched.
func (s *InMemory) Execute(_ context.Context, recordID id.RecordID,
	validate func(*models.Record) error, mutate func(*models.Record) error) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[recordID]
	if !ok {
		return nil, fmt.Errorf("record not found: %w", sentinel.ErrNotFound)
	}

	working := *current
	if err := validate(&working); err != nil {
		return nil, err
	}
	if err := mutate(&working); err != nil {
		return nil, err
	}
	s.records[recordID] = &working

	result := working
	return &result, nil
}

func (s *InMemory) ListByScholar(_ context.Context, scholarID id.ScholarID, filter Filter) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, record := range s.records {
		if record.ScholarID == scholarID && filter.matches(record) {
			copied := *record
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
