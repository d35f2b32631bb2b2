// Package scoper evaluates which cohorts, scholars and actions an actor may
// reach. Access is the union of every grant path the actor holds: a jefe who
// is additionally doctor-granted to a cohort sees the OR of both scopes,
// never the intersection.
package scoper

import (
	"context"

	"resimed/internal/authz/models"
	id "resimed/pkg/domain"
)

// GrantStore exposes the grant lookups the scoper evaluates.
type GrantStore interface {
	JefeSpecialties(ctx context.Context, userID id.UserID) ([]id.SpecialtyID, error)
	DoctorGrants(ctx context.Context, userID id.UserID) ([]*models.DoctorGrant, error)
}

// CohortDirectory resolves cohort scopes without exposing cohort internals.
type CohortDirectory interface {
	AllCohortIDs(ctx context.Context) ([]id.CohortID, error)
	CohortIDsBySpecialty(ctx context.Context, specialtyID id.SpecialtyID) ([]id.CohortID, error)
}

// ScholarDirectory resolves scholar membership scopes.
type ScholarDirectory interface {
	AllScholarIDs(ctx context.Context) ([]id.ScholarID, error)
	ScholarIDsByCohort(ctx context.Context, cohortID id.CohortID) ([]id.ScholarID, error)
	MembershipCohorts(ctx context.Context, scholarID id.ScholarID) ([]id.CohortID, error)
}

// Scoper answers authorization questions for verification and catalog
// actions. It holds no state beyond its store references and is safe for
// concurrent use.
type Scoper struct {
	grants   GrantStore
	cohorts  CohortDirectory
	scholars ScholarDirectory
}

func New(grants GrantStore, cohorts CohortDirectory, scholars ScholarDirectory) *Scoper {
	return &Scoper{grants: grants, cohorts: cohorts, scholars: scholars}
}

// CanVerify reports whether the actor may verify records scoped to the given
// specialty and cohort. Scholars and read-only admins are never verifiers;
// for everyone else jefe and doctor grant paths are both consulted.
func (s *Scoper) CanVerify(ctx context.Context, actor models.Actor, specialtyID id.SpecialtyID, cohortID id.CohortID) (bool, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return true, nil
	case models.RoleAdminReadOnly, models.RoleScholar:
		return false, nil
	}

	jefeSpecialties, err := s.grants.JefeSpecialties(ctx, actor.UserID)
	if err != nil {
		return false, err
	}
	for _, granted := range jefeSpecialties {
		if granted == specialtyID {
			return true, nil
		}
	}

	doctorGrants, err := s.grants.DoctorGrants(ctx, actor.UserID)
	if err != nil {
		return false, err
	}
	for _, grant := range doctorGrants {
		if grant.SpecialtyID == specialtyID && grant.CohortID == cohortID {
			return true, nil
		}
	}
	return false, nil
}

// CanAdministerSpecialty reports whether the actor may manage cohorts and
// procedure catalog entries under the given specialty: admins always, jefes
// only for specialties they hold a grant on, nobody else. Read-only admins
// fail here like every other mutation check.
func (s *Scoper) CanAdministerSpecialty(ctx context.Context, actor models.Actor, specialtyID id.SpecialtyID) (bool, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return true, nil
	case models.RoleJefe:
		granted, err := s.grants.JefeSpecialties(ctx, actor.UserID)
		if err != nil {
			return false, err
		}
		for _, g := range granted {
			if g == specialtyID {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

// VisibleCohorts returns the set of cohorts the actor may see. An actor with
// zero grants gets an empty set, not an error.
func (s *Scoper) VisibleCohorts(ctx context.Context, actor models.Actor) (map[id.CohortID]struct{}, error) {
	visible := make(map[id.CohortID]struct{})

	if actor.HasAdminVisibility() {
		all, err := s.cohorts.AllCohortIDs(ctx)
		if err != nil {
			return nil, err
		}
		for _, cohortID := range all {
			visible[cohortID] = struct{}{}
		}
		return visible, nil
	}

	if actor.Role == models.RoleScholar {
		if actor.ScholarID.IsNil() {
			return visible, nil
		}
		memberships, err := s.scholars.MembershipCohorts(ctx, actor.ScholarID)
		if err != nil {
			return nil, err
		}
		for _, cohortID := range memberships {
			visible[cohortID] = struct{}{}
		}
		return visible, nil
	}

	// Jefe and doctor paths union together for everyone else.
	jefeSpecialties, err := s.grants.JefeSpecialties(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	for _, specialtyID := range jefeSpecialties {
		cohortIDs, err := s.cohorts.CohortIDsBySpecialty(ctx, specialtyID)
		if err != nil {
			return nil, err
		}
		for _, cohortID := range cohortIDs {
			visible[cohortID] = struct{}{}
		}
	}

	doctorGrants, err := s.grants.DoctorGrants(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	for _, grant := range doctorGrants {
		visible[grant.CohortID] = struct{}{}
	}
	return visible, nil
}

// VisibleScholars returns the set of scholars the actor may see, optionally
// restricted to one specialty. Scholars see only themselves.
func (s *Scoper) VisibleScholars(ctx context.Context, actor models.Actor, specialtyID *id.SpecialtyID) (map[id.ScholarID]struct{}, error) {
	visible := make(map[id.ScholarID]struct{})

	if actor.Role == models.RoleScholar {
		if !actor.ScholarID.IsNil() {
			visible[actor.ScholarID] = struct{}{}
		}
		return visible, nil
	}

	// Admin visibility is unrestricted, not membership-derived: a registered
	// scholar with no enrollment yet is still visible. The specialty filter
	// keeps the membership walk since an unenrolled scholar belongs to none.
	if actor.HasAdminVisibility() && specialtyID == nil {
		all, err := s.scholars.AllScholarIDs(ctx)
		if err != nil {
			return nil, err
		}
		for _, scholarID := range all {
			visible[scholarID] = struct{}{}
		}
		return visible, nil
	}

	cohorts, err := s.VisibleCohorts(ctx, actor)
	if err != nil {
		return nil, err
	}

	if specialtyID != nil {
		inSpecialty, err := s.cohorts.CohortIDsBySpecialty(ctx, *specialtyID)
		if err != nil {
			return nil, err
		}
		filtered := make(map[id.CohortID]struct{})
		for _, cohortID := range inSpecialty {
			if _, ok := cohorts[cohortID]; ok {
				filtered[cohortID] = struct{}{}
			}
		}
		cohorts = filtered
	}

	for cohortID := range cohorts {
		scholarIDs, err := s.scholars.ScholarIDsByCohort(ctx, cohortID)
		if err != nil {
			return nil, err
		}
		for _, scholarID := range scholarIDs {
			visible[scholarID] = struct{}{}
		}
	}
	return visible, nil
}
