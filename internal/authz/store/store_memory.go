package store

import (
	"context"
	"sync"
	"time"

	"resimed/internal/authz/models"
	id "resimed/pkg/domain"
)

type jefeKey struct {
	userID      id.UserID
	specialtyID id.SpecialtyID
}

type doctorKey struct {
	userID      id.UserID
	specialtyID id.SpecialtyID
	cohortID    id.CohortID
}

// InMemory stores authorization grants for tests and single-node deployments.
//
// Error Contract:
//   - Grant is idempotent: re-granting an existing scope is a no-op success.
//   - Revoke is idempotent: revoking a missing grant is a no-op success.
type InMemory struct {
	mu      sync.RWMutex
	jefes   map[jefeKey]*models.JefeGrant
	doctors map[doctorKey]*models.DoctorGrant
}

func NewInMemory() *InMemory {
	return &InMemory{
		jefes:   make(map[jefeKey]*models.JefeGrant),
		doctors: make(map[doctorKey]*models.DoctorGrant),
	}
}

func (s *InMemory) GrantJefe(_ context.Context, userID id.UserID, specialtyID id.SpecialtyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := jefeKey{userID, specialtyID}
	if _, ok := s.jefes[key]; !ok {
		s.jefes[key] = &models.JefeGrant{UserID: userID, SpecialtyID: specialtyID, GrantedAt: time.Now()}
	}
	return nil
}

func (s *InMemory) RevokeJefe(_ context.Context, userID id.UserID, specialtyID id.SpecialtyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jefes, jefeKey{userID, specialtyID})
	return nil
}

func (s *InMemory) JefeSpecialties(_ context.Context, userID id.UserID) ([]id.SpecialtyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []id.SpecialtyID
	for key := range s.jefes {
		if key.userID == userID {
			out = append(out, key.specialtyID)
		}
	}
	return out, nil
}

func (s *InMemory) GrantDoctor(_ context.Context, userID id.UserID, specialtyID id.SpecialtyID, cohortID id.CohortID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := doctorKey{userID, specialtyID, cohortID}
	if _, ok := s.doctors[key]; !ok {
		s.doctors[key] = &models.DoctorGrant{
			UserID:      userID,
			SpecialtyID: specialtyID,
			CohortID:    cohortID,
			GrantedAt:   time.Now(),
		}
	}
	return nil
}

func (s *InMemory) RevokeDoctor(_ context.Context, userID id.UserID, specialtyID id.SpecialtyID, cohortID id.CohortID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.doctors, doctorKey{userID, specialtyID, cohortID})
	return nil
}

func (s *InMemory) DoctorGrants(_ context.Context, userID id.UserID) ([]*models.DoctorGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.DoctorGrant
	for key, grant := range s.doctors {
		if key.userID == userID {
			copied := *grant
			out = append(out, &copied)
		}
	}
	return out, nil
}
