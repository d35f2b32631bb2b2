// Package service orchestrates procedure catalog management, including the
// additive catalog copy between cohorts of one specialty.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"resimed/internal/audit"
	authzmodels "resimed/internal/authz/models"
	"resimed/internal/catalog/models"
	cohortmodels "resimed/internal/cohort/models"
	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
	"resimed/pkg/platform/sentinel"
	"resimed/pkg/requestcontext"
)

// Store is the persistence boundary for catalog entries.
type Store interface {
	CreateIfAbsent(ctx context.Context, entry *models.Entry) (bool, error)
	FindByID(ctx context.Context, entryID id.EntryID) (*models.Entry, error)
	Update(ctx context.Context, entry *models.Entry) error
	Delete(ctx context.Context, entryID id.EntryID) error
	ListByCohort(ctx context.Context, cohortID id.CohortID) ([]*models.Entry, error)
}

// CohortDirectory resolves the cohort that owns a catalog.
type CohortDirectory interface {
	FindCohort(ctx context.Context, cohortID id.CohortID) (*cohortmodels.Cohort, error)
}

// Authorizer gates catalog mutations to admins and specialty jefes.
type Authorizer interface {
	CanAdministerSpecialty(ctx context.Context, actor authzmodels.Actor, specialtyID id.SpecialtyID) (bool, error)
}

// CopyResult reports the outcome of a catalog copy. A repeated copy returns
// Copied == 0 with every source entry counted as skipped.
type CopyResult struct {
	Copied  int `json:"copied"`
	Skipped int `json:"skipped"`
}

type Service struct {
	store   Store
	cohorts CohortDirectory
	authz   Authorizer
	auditor audit.Publisher
	logger  *slog.Logger
}

func New(store Store, cohorts CohortDirectory, authz Authorizer, auditor audit.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, cohorts: cohorts, authz: authz, auditor: auditor, logger: logger}
}

// EntryInput carries the caller-settable fields of a catalog entry.
type EntryInput struct {
	Name        string
	Category    string
	TargetCount int
	Description string
}

// CreateEntry adds a procedure requirement to a cohort's catalog.
func (s *Service) CreateEntry(ctx context.Context, actor authzmodels.Actor, cohortID id.CohortID, input EntryInput) (*models.Entry, error) {
	cohort, err := s.requireCohortAdministration(ctx, actor, cohortID)
	if err != nil {
		return nil, err
	}

	entry, err := models.NewEntry(id.EntryID(uuid.New()), cohort.ID,
		strings.TrimSpace(input.Name), strings.TrimSpace(input.Category),
		input.TargetCount, input.Description, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateIfAbsent(ctx, entry)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if !created {
		return nil, dErrors.New(dErrors.CodeConflict, "an entry with this name and category already exists for the cohort")
	}
	return entry, nil
}

// UpdateEntry rewrites the mutable fields of a catalog entry.
func (s *Service) UpdateEntry(ctx context.Context, actor authzmodels.Actor, entryID id.EntryID, input EntryInput) (*models.Entry, error) {
	entry, err := s.store.FindByID(ctx, entryID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if _, err := s.requireCohortAdministration(ctx, actor, entry.CohortID); err != nil {
		return nil, err
	}
	if input.TargetCount < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "target count must be at least 1")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "procedure name cannot be empty")
	}

	entry.Name = strings.TrimSpace(input.Name)
	entry.Category = strings.TrimSpace(input.Category)
	entry.TargetCount = input.TargetCount
	entry.Description = input.Description
	entry.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, entry); err != nil {
		return nil, wrapStoreErr(err)
	}
	return entry, nil
}

// DeleteEntry removes a catalog entry. Progress aggregation silently drops
// records that reference a deleted entry.
func (s *Service) DeleteEntry(ctx context.Context, actor authzmodels.Actor, entryID id.EntryID) error {
	entry, err := s.store.FindByID(ctx, entryID)
	if err != nil {
		return wrapStoreErr(err)
	}
	if _, err := s.requireCohortAdministration(ctx, actor, entry.CohortID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, entryID); err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

// ListByCohort returns a cohort's catalog in creation order.
func (s *Service) ListByCohort(ctx context.Context, cohortID id.CohortID) ([]*models.Entry, error) {
	if _, err := s.cohorts.FindCohort(ctx, cohortID); err != nil {
		return nil, wrapStoreErr(err)
	}
	entries, err := s.store.ListByCohort(ctx, cohortID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return entries, nil
}

// CopyCatalog copies the source cohort's catalog into the target cohort.
//
// The copy is additive and idempotent: entries whose (name, category) pair
// already exists in the target are skipped, existing target entries are
// never overwritten, and a second run reports zero copies. Source and target
// must belong to the same specialty.
func (s *Service) CopyCatalog(ctx context.Context, actor authzmodels.Actor, sourceCohortID, targetCohortID id.CohortID) (CopyResult, error) {
	source, err := s.cohorts.FindCohort(ctx, sourceCohortID)
	if err != nil {
		return CopyResult{}, wrapStoreErr(err)
	}
	target, err := s.cohorts.FindCohort(ctx, targetCohortID)
	if err != nil {
		return CopyResult{}, wrapStoreErr(err)
	}
	if source.SpecialtyID != target.SpecialtyID {
		return CopyResult{}, dErrors.New(dErrors.CodeCrossSpecialtyCopy, "source and target cohorts belong to different specialties")
	}
	if err := s.requireAdministration(ctx, actor, target.SpecialtyID); err != nil {
		return CopyResult{}, err
	}

	sourceEntries, err := s.store.ListByCohort(ctx, sourceCohortID)
	if err != nil {
		return CopyResult{}, wrapStoreErr(err)
	}

	now := requestcontext.Now(ctx)
	result := CopyResult{}
	for _, src := range sourceEntries {
		candidate, err := models.NewEntry(id.EntryID(uuid.New()), targetCohortID,
			src.Name, src.Category, src.TargetCount, src.Description, now)
		if err != nil {
			return CopyResult{}, err
		}
		created, err := s.store.CreateIfAbsent(ctx, candidate)
		if err != nil {
			return CopyResult{}, wrapStoreErr(err)
		}
		if created {
			result.Copied++
		} else {
			result.Skipped++
		}
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Kind:     audit.KindCatalogCopied,
		ActorID:  actor.UserID,
		CohortID: targetCohortID,
		Detail: map[string]string{
			"source_cohort": sourceCohortID.String(),
			"copied":        strconv.Itoa(result.Copied),
			"skipped":       strconv.Itoa(result.Skipped),
		},
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit catalog copy audit event", "error", err)
	}

	return result, nil
}

func (s *Service) requireCohortAdministration(ctx context.Context, actor authzmodels.Actor, cohortID id.CohortID) (*cohortmodels.Cohort, error) {
	cohort, err := s.cohorts.FindCohort(ctx, cohortID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if err := s.requireAdministration(ctx, actor, cohort.SpecialtyID); err != nil {
		return nil, err
	}
	return cohort, nil
}

func (s *Service) requireAdministration(ctx context.Context, actor authzmodels.Actor, specialtyID id.SpecialtyID) error {
	allowed, err := s.authz.CanAdministerSpecialty(ctx, actor, specialtyID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "authorization check failed")
	}
	if !allowed {
		return dErrors.New(dErrors.CodeForbidden, "actor may not edit this specialty's catalog")
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
