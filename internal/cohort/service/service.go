// Package service orchestrates specialty and cohort lifecycle management.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	authzmodels "resimed/internal/authz/models"
	"resimed/internal/cohort/models"
	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
	"resimed/pkg/platform/sentinel"
	"resimed/pkg/requestcontext"
)

// Store is the persistence boundary for specialties and cohorts.
type Store interface {
	CreateSpecialtyIfNameAvailable(ctx context.Context, specialty *models.Specialty) error
	FindSpecialty(ctx context.Context, specialtyID id.SpecialtyID) (*models.Specialty, error)
	ListSpecialties(ctx context.Context) ([]*models.Specialty, error)
	CreateCohort(ctx context.Context, cohort *models.Cohort) error
	FindCohort(ctx context.Context, cohortID id.CohortID) (*models.Cohort, error)
	UpdateCohort(ctx context.Context, cohort *models.Cohort) error
	ListCohortsBySpecialty(ctx context.Context, specialtyID id.SpecialtyID) ([]*models.Cohort, error)
}

// Authorizer gates cohort mutations to admins and specialty jefes.
type Authorizer interface {
	CanAdministerSpecialty(ctx context.Context, actor authzmodels.Actor, specialtyID id.SpecialtyID) (bool, error)
}

// CohortView pairs a cohort with its derived lifecycle state at read time.
type CohortView struct {
	Cohort    *models.Cohort        `json:"cohort"`
	Lifecycle models.LifecycleState `json:"lifecycle"`
}

type Service struct {
	store  Store
	authz  Authorizer
	logger *slog.Logger
}

func New(store Store, authz Authorizer, logger *slog.Logger) *Service {
	return &Service{store: store, authz: authz, logger: logger}
}

// CreateSpecialty registers a specialty. Fixed-plan specialties pre-generate
// one cohort per planned year, without dates. Admin only.
func (s *Service) CreateSpecialty(ctx context.Context, actor authzmodels.Actor, name string, startYear, cohortCount *int) (*models.Specialty, error) {
	if !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only administrators may create specialties")
	}
	name = strings.TrimSpace(name)
	now := requestcontext.Now(ctx)

	specialty, err := models.NewSpecialty(id.SpecialtyID(uuid.New()), name, startYear, cohortCount, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateSpecialtyIfNameAvailable(ctx, specialty); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "specialty name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create specialty")
	}

	for _, year := range specialty.PlannedYears() {
		cohort, err := models.NewCohort(id.CohortID(uuid.New()), specialty.ID, year, nil, nil, now)
		if err != nil {
			return nil, err
		}
		if err := s.store.CreateCohort(ctx, cohort); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to pre-generate cohort")
		}
	}

	s.logger.InfoContext(ctx, "specialty created",
		"specialty_id", specialty.ID.String(),
		"fixed_plan", specialty.HasFixedPlan(),
	)
	return specialty, nil
}

// ListSpecialties returns every registered specialty.
func (s *Service) ListSpecialties(ctx context.Context) ([]*models.Specialty, error) {
	specialties, err := s.store.ListSpecialties(ctx)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return specialties, nil
}

// CreateCohort adds a cohort to a specialty. Permitted for admins and jefes
// of the owning specialty.
func (s *Service) CreateCohort(ctx context.Context, actor authzmodels.Actor, specialtyID id.SpecialtyID, year int, startDate, endDate *time.Time) (*models.Cohort, error) {
	if err := s.requireAdministration(ctx, actor, specialtyID); err != nil {
		return nil, err
	}
	if _, err := s.store.FindSpecialty(ctx, specialtyID); err != nil {
		return nil, wrapStoreErr(err)
	}

	cohort, err := models.NewCohort(id.CohortID(uuid.New()), specialtyID, year, startDate, endDate, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateCohort(ctx, cohort); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "cohort year already exists for this specialty")
		}
		return nil, wrapStoreErr(err)
	}
	return cohort, nil
}

// UpdateCohortDates replaces the cohort boundary dates. Dates are mutable at
// any time; the range invariant is revalidated before any write.
func (s *Service) UpdateCohortDates(ctx context.Context, actor authzmodels.Actor, cohortID id.CohortID, startDate, endDate *time.Time) (*models.Cohort, error) {
	cohort, err := s.store.FindCohort(ctx, cohortID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if err := s.requireAdministration(ctx, actor, cohort.SpecialtyID); err != nil {
		return nil, err
	}
	if err := cohort.SetDates(startDate, endDate, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.UpdateCohort(ctx, cohort); err != nil {
		return nil, wrapStoreErr(err)
	}
	return cohort, nil
}

// GetCohort returns a cohort with its lifecycle state resolved at the
// request time.
func (s *Service) GetCohort(ctx context.Context, cohortID id.CohortID) (*CohortView, error) {
	cohort, err := s.store.FindCohort(ctx, cohortID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return &CohortView{Cohort: cohort, Lifecycle: cohort.Lifecycle(requestcontext.Now(ctx))}, nil
}

// ListCohorts returns a specialty's cohorts with lifecycle states resolved
// at the request time.
func (s *Service) ListCohorts(ctx context.Context, specialtyID id.SpecialtyID) ([]*CohortView, error) {
	if _, err := s.store.FindSpecialty(ctx, specialtyID); err != nil {
		return nil, wrapStoreErr(err)
	}
	cohorts, err := s.store.ListCohortsBySpecialty(ctx, specialtyID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	now := requestcontext.Now(ctx)
	views := make([]*CohortView, 0, len(cohorts))
	for _, cohort := range cohorts {
		views = append(views, &CohortView{Cohort: cohort, Lifecycle: cohort.Lifecycle(now)})
	}
	return views, nil
}

func (s *Service) requireAdministration(ctx context.Context, actor authzmodels.Actor, specialtyID id.SpecialtyID) error {
	allowed, err := s.authz.CanAdministerSpecialty(ctx, actor, specialtyID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "authorization check failed")
	}
	if !allowed {
		return dErrors.New(dErrors.CodeForbidden, "actor may not administer this specialty")
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
