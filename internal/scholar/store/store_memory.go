package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"resimed/internal/scholar/models"
	id "resimed/pkg/domain"
	"resimed/pkg/platform/sentinel"
)

// InMemory stores scholar profiles and their membership history in memory.
type InMemory struct {
	mu          sync.RWMutex
	scholars    map[id.ScholarID]*models.Scholar
	memberships map[id.ScholarID][]models.Membership
}

func NewInMemory() *InMemory {
	return &InMemory{
		scholars:    make(map[id.ScholarID]*models.Scholar),
		memberships: make(map[id.ScholarID][]models.Membership),
	}
}

func (s *InMemory) Create(_ context.Context, scholar *models.Scholar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scholars[scholar.ID]; ok {
		return fmt.Errorf("scholar already exists: %w", sentinel.ErrConflict)
	}
	copied := *scholar
	s.scholars[scholar.ID] = &copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, scholarID id.ScholarID) (*models.Scholar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if scholar, ok := s.scholars[scholarID]; ok {
		copied := *scholar
		return &copied, nil
	}
	return nil, fmt.Errorf("scholar not found: %w", sentinel.ErrNotFound)
}

// AppendMembership adds an enrollment to the scholar's history. Enrolling
// into a cohort the scholar already belongs to is a no-op success so
// reassignment flows stay idempotent.
func (s *InMemory) AppendMembership(_ context.Context, membership models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scholars[membership.ScholarID]; !ok {
		return fmt.Errorf("scholar not found: %w", sentinel.ErrNotFound)
	}
	for _, existing := range s.memberships[membership.ScholarID] {
		if existing.CohortID == membership.CohortID {
			return nil
		}
	}
	s.memberships[membership.ScholarID] = append(s.memberships[membership.ScholarID], membership)
	return nil
}

func (s *InMemory) Memberships(_ context.Context, scholarID id.ScholarID) ([]models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.scholars[scholarID]; !ok {
		return nil, fmt.Errorf("scholar not found: %w", sentinel.ErrNotFound)
	}
	history := make([]models.Membership, len(s.memberships[scholarID]))
	copy(history, s.memberships[scholarID])
	sort.Slice(history, func(i, j int) bool { return history[i].JoinedAt.Before(history[j].JoinedAt) })
	return history, nil
}

// AllScholarIDs satisfies the scoper's scholar directory.
func (s *InMemory) AllScholarIDs(_ context.Context) ([]id.ScholarID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.ScholarID, 0, len(s.scholars))
	for scholarID := range s.scholars {
		out = append(out, scholarID)
	}
	return out, nil
}

// ScholarIDsByCohort satisfies the scoper's scholar directory.
func (s *InMemory) ScholarIDsByCohort(_ context.Context, cohortID id.CohortID) ([]id.ScholarID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []id.ScholarID
	for scholarID, history := range s.memberships {
		for _, m := range history {
			if m.CohortID == cohortID {
				out = append(out, scholarID)
				break
			}
		}
	}
	return out, nil
}

// MembershipCohorts satisfies the scoper's scholar directory.
func (s *InMemory) MembershipCohorts(ctx context.Context, scholarID id.ScholarID) ([]id.CohortID, error) {
	history, err := s.Memberships(ctx, scholarID)
	if err != nil {
		return nil, err
	}
	out := make([]id.CohortID, 0, len(history))
	for _, m := range history {
		out = append(out, m.CohortID)
	}
	return out, nil
}
