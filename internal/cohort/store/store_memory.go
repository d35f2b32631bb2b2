package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"resimed/internal/cohort/models"
	id "resimed/pkg/domain"
	"resimed/pkg/platform/sentinel"
)

// Error Contract:
// All store methods follow this pattern:
//   - Return ErrNotFound (wrapped) when the requested entity does not exist
//   - Return ErrConflict (wrapped) on uniqueness violations
//   - Return nil for successful operations

// InMemory stores specialties and cohorts in memory for tests/dev. Cohorts
// live alongside their specialties because deletion is not modeled and the
// two are always queried together.
type InMemory struct {
	mu          sync.RWMutex
	specialties map[id.SpecialtyID]*models.Specialty
	cohorts     map[id.CohortID]*models.Cohort
}

func NewInMemory() *InMemory {
	return &InMemory{
		specialties: make(map[id.SpecialtyID]*models.Specialty),
		cohorts:     make(map[id.CohortID]*models.Cohort),
	}
}

// CreateSpecialtyIfNameAvailable enforces case-insensitive name uniqueness
// under one lock so concurrent creates cannot both win.
func (s *InMemory) CreateSpecialtyIfNameAvailable(_ context.Context, specialty *models.Specialty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.specialties {
		if strings.EqualFold(existing.Name, specialty.Name) {
			return fmt.Errorf("specialty name taken: %w", sentinel.ErrConflict)
		}
	}
	copied := *specialty
	s.specialties[specialty.ID] = &copied
	return nil
}

func (s *InMemory) FindSpecialty(_ context.Context, specialtyID id.SpecialtyID) (*models.Specialty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if specialty, ok := s.specialties[specialtyID]; ok {
		copied := *specialty
		return &copied, nil
	}
	return nil, fmt.Errorf("specialty not found: %w", sentinel.ErrNotFound)
}

func (s *InMemory) ListSpecialties(_ context.Context) ([]*models.Specialty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Specialty, 0, len(s.specialties))
	for _, specialty := range s.specialties {
		copied := *specialty
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) CreateCohort(_ context.Context, cohort *models.Cohort) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.specialties[cohort.SpecialtyID]; !ok {
		return fmt.Errorf("specialty not found: %w", sentinel.ErrNotFound)
	}
	for _, existing := range s.cohorts {
		if existing.SpecialtyID == cohort.SpecialtyID && existing.Year == cohort.Year {
			return fmt.Errorf("cohort year taken for specialty: %w", sentinel.ErrConflict)
		}
	}
	copied := *cohort
	s.cohorts[cohort.ID] = &copied
	return nil
}

func (s *InMemory) FindCohort(_ context.Context, cohortID id.CohortID) (*models.Cohort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cohort, ok := s.cohorts[cohortID]; ok {
		copied := *cohort
		return &copied, nil
	}
	return nil, fmt.Errorf("cohort not found: %w", sentinel.ErrNotFound)
}

func (s *InMemory) UpdateCohort(_ context.Context, cohort *models.Cohort) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cohorts[cohort.ID]; !ok {
		return fmt.Errorf("cohort not found: %w", sentinel.ErrNotFound)
	}
	copied := *cohort
	s.cohorts[cohort.ID] = &copied
	return nil
}

func (s *InMemory) ListCohortsBySpecialty(_ context.Context, specialtyID id.SpecialtyID) ([]*models.Cohort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Cohort
	for _, cohort := range s.cohorts {
		if cohort.SpecialtyID == specialtyID {
			copied := *cohort
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

// AllCohortIDs satisfies the scoper's cohort directory.
func (s *InMemory) AllCohortIDs(_ context.Context) ([]id.CohortID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.CohortID, 0, len(s.cohorts))
	for cohortID := range s.cohorts {
		out = append(out, cohortID)
	}
	return out, nil
}

// CohortIDsBySpecialty satisfies the scoper's cohort directory.
func (s *InMemory) CohortIDsBySpecialty(_ context.Context, specialtyID id.SpecialtyID) ([]id.CohortID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []id.CohortID
	for cohortID, cohort := range s.cohorts {
		if cohort.SpecialtyID == specialtyID {
			out = append(out, cohortID)
		}
	}
	return out, nil
}
