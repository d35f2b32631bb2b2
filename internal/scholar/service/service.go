// Package service manages scholar profiles and their cohort enrollments.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	authzmodels "resimed/internal/authz/models"
	cohortmodels "resimed/internal/cohort/models"
	"resimed/internal/scholar/models"
	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
	"resimed/pkg/platform/sentinel"
	"resimed/pkg/requestcontext"
)

// Store is the persistence boundary for scholars and membership history.
type Store interface {
	Create(ctx context.Context, scholar *models.Scholar) error
	FindByID(ctx context.Context, scholarID id.ScholarID) (*models.Scholar, error)
	AppendMembership(ctx context.Context, membership models.Membership) error
	Memberships(ctx context.Context, scholarID id.ScholarID) ([]models.Membership, error)
}

// CohortDirectory resolves the specialty that owns a cohort.
type CohortDirectory interface {
	FindCohort(ctx context.Context, cohortID id.CohortID) (*cohortmodels.Cohort, error)
}

// Authorizer gates enrollment to admins and specialty jefes.
type Authorizer interface {
	CanAdministerSpecialty(ctx context.Context, actor authzmodels.Actor, specialtyID id.SpecialtyID) (bool, error)
	VisibleScholars(ctx context.Context, actor authzmodels.Actor, specialtyID *id.SpecialtyID) (map[id.ScholarID]struct{}, error)
}

type Service struct {
	store   Store
	cohorts CohortDirectory
	authz   Authorizer
	logger  *slog.Logger
}

func New(store Store, cohorts CohortDirectory, authz Authorizer, logger *slog.Logger) *Service {
	return &Service{store: store, cohorts: cohorts, authz: authz, logger: logger}
}

// Register creates a scholar profile. Admin only.
func (s *Service) Register(ctx context.Context, actor authzmodels.Actor, userID id.UserID, fullName string) (*models.Scholar, error) {
	if !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only administrators may register scholars")
	}
	scholar, err := models.NewScholar(id.ScholarID(uuid.New()), userID, strings.TrimSpace(fullName), requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, scholar); err != nil {
		return nil, wrapStoreErr(err)
	}
	s.logger.InfoContext(ctx, "scholar registered", "scholar_id", scholar.ID.String())
	return scholar, nil
}

// Enroll appends a cohort membership to the scholar's history. A later
// enrollment into a different cohort is the reassignment path: the old
// membership stays in the history and keeps feeding the progress union.
// Re-enrolling into the same cohort is a no-op success.
func (s *Service) Enroll(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID, cohortID id.CohortID) (*models.Membership, error) {
	cohort, err := s.cohorts.FindCohort(ctx, cohortID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	allowed, err := s.authz.CanAdministerSpecialty(ctx, actor, cohort.SpecialtyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "authorization check failed")
	}
	if !allowed {
		return nil, dErrors.New(dErrors.CodeForbidden, "actor may not enroll scholars into this specialty")
	}

	membership := models.Membership{
		ScholarID:   scholarID,
		CohortID:    cohort.ID,
		SpecialtyID: cohort.SpecialtyID,
		JoinedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.AppendMembership(ctx, membership); err != nil {
		return nil, wrapStoreErr(err)
	}
	return &membership, nil
}

// Get returns a scholar profile, bounded by the actor's visible scope.
func (s *Service) Get(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID) (*models.Scholar, error) {
	if err := s.requireVisibility(ctx, actor, scholarID); err != nil {
		return nil, err
	}
	scholar, err := s.store.FindByID(ctx, scholarID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return scholar, nil
}

// History returns the scholar's full membership history, oldest first.
func (s *Service) History(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID) ([]models.Membership, error) {
	if err := s.requireVisibility(ctx, actor, scholarID); err != nil {
		return nil, err
	}
	history, err := s.store.Memberships(ctx, scholarID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return history, nil
}

func (s *Service) requireVisibility(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID) error {
	// Admins skip the scope lookup so an unknown scholar surfaces as
	// not-found from the store rather than as a scope failure.
	if actor.HasAdminVisibility() {
		return nil
	}
	visible, err := s.authz.VisibleScholars(ctx, actor, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "authorization check failed")
	}
	if _, ok := visible[scholarID]; !ok {
		return dErrors.New(dErrors.CodeForbidden, "scholar is outside the actor's scope")
	}
	return nil
}

func wrapStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "entity not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "conflicting update")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "store failure")
	}
}
