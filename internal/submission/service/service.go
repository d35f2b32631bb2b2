// Package service owns the submission lifecycle: scholars create pending
// records, verifiers move them through the state machine.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"resimed/internal/audit"
	authzmodels "resimed/internal/authz/models"
	catalogmodels "resimed/internal/catalog/models"
	scholarmodels "resimed/internal/scholar/models"
	"resimed/internal/submission/metrics"
	"resimed/internal/submission/models"
	"resimed/internal/submission/store"
	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
	"resimed/pkg/platform/sentinel"
	"resimed/pkg/requestcontext"
)

// Store is the persistence boundary for submission records. Execute must
// serialize concurrent calls on the same record and hold its lock across
// both callbacks.
type Store interface {
	Create(ctx context.Context, record *models.Record) error
	FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	Execute(ctx context.Context, recordID id.RecordID, validate func(*models.Record) error, mutate func(*models.Record) error) (*models.Record, error)
	ListByScholar(ctx context.Context, scholarID id.ScholarID, filter store.Filter) ([]*models.Record, error)
}

// ScholarDirectory resolves enrollment history for submission snapshots.
type ScholarDirectory interface {
	Memberships(ctx context.Context, scholarID id.ScholarID) ([]scholarmodels.Membership, error)
}

// CatalogDirectory resolves the catalog entry a procedure record references.
type CatalogDirectory interface {
	FindEntry(ctx context.Context, entryID id.EntryID) (*catalogmodels.Entry, error)
}

// Authorizer gates verification to actors scoped to the record's cohort and
// bounds which scholars an actor may inspect.
type Authorizer interface {
	CanVerify(ctx context.Context, actor authzmodels.Actor, specialtyID id.SpecialtyID, cohortID id.CohortID) (bool, error)
	VisibleScholars(ctx context.Context, actor authzmodels.Actor, specialtyID *id.SpecialtyID) (map[id.ScholarID]struct{}, error)
}

// ProgressInvalidator drops cached progress snapshots after a status change.
type ProgressInvalidator interface {
	Invalidate(ctx context.Context, scholarID id.ScholarID) error
}

type Service struct {
	store       Store
	scholars    ScholarDirectory
	catalog     CatalogDirectory
	authz       Authorizer
	invalidator ProgressInvalidator
	auditor     audit.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func New(store Store, scholars ScholarDirectory, catalog CatalogDirectory, authz Authorizer,
	invalidator ProgressInvalidator, auditor audit.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		scholars:    scholars,
		catalog:     catalog,
		authz:       authz,
		invalidator: invalidator,
		auditor:     auditor,
		metrics:     m,
		logger:      logger,
	}
}

// SubmitInput carries the caller-settable fields of a new submission.
type SubmitInput struct {
	Title       string
	Date        string
	Hours       float64
	EntryID     *id.EntryID
	Attachments []string
}

// SubmitAcademic records a pending academic activity for the scholar.
func (s *Service) SubmitAcademic(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID, input SubmitInput) (*models.Record, error) {
	return s.submit(ctx, actor, scholarID, models.KindAcademicActivity, input)
}

// SubmitCommunity records a pending community-service activity.
func (s *Service) SubmitCommunity(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID, input SubmitInput) (*models.Record, error) {
	return s.submit(ctx, actor, scholarID, models.KindCommunityActivity, input)
}

// SubmitProcedure records a pending procedure record. The referenced catalog
// entry must belong to the scholar's current cohort.
func (s *Service) SubmitProcedure(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID, input SubmitInput) (*models.Record, error) {
	return s.submit(ctx, actor, scholarID, models.KindProcedureRecord, input)
}

func (s *Service) submit(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID, kind models.Kind, input SubmitInput) (*models.Record, error) {
	if err := requireSelfOrAdmin(actor, scholarID); err != nil {
		return nil, err
	}

	history, err := s.scholars.Memberships(ctx, scholarID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	current := scholarmodels.Current(history)
	if current == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "scholar is not enrolled in any cohort")
	}

	date, err := id.ParseDate(input.Date)
	if err != nil {
		return nil, err
	}

	var entryID id.EntryID
	if kind == models.KindProcedureRecord {
		if input.EntryID == nil {
			return nil, dErrors.New(dErrors.CodeValidation, "procedure records must reference a catalog entry")
		}
		entry, err := s.catalog.FindEntry(ctx, *input.EntryID)
		if err != nil {
			return nil, wrapStoreErr(err)
		}
		if entry.CohortID != current.CohortID {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "catalog entry belongs to a different cohort")
		}
		entryID = entry.ID
	}

	record, err := models.NewRecord(id.RecordID(uuid.New()), scholarID, current.SpecialtyID, current.CohortID,
		kind, input.Title, date, input.Hours, entryID, input.Attachments, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, record); err != nil {
		return nil, wrapStoreErr(err)
	}
	s.metrics.ObserveSubmission(string(kind))

	// A new pending record shifts the pending counts immediately.
	if err := s.invalidator.Invalidate(ctx, scholarID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate progress cache",
			"error", err,
			"scholar_id", scholarID.String(),
		)
	}
	return record, nil
}

// Verify transitions a pending record to approved or rejected.
//
// Authorization and the status precondition are both checked under the
// record's lock, so of two racing calls exactly one succeeds and the other
// gets an already-verified error. The scholar's cached progress is
// invalidated before the updated record is returned.
func (s *Service) Verify(ctx context.Context, actor authzmodels.Actor, recordID id.RecordID, target models.Status, comment string) (*models.Record, error) {
	verifier := actor.UserID
	now := requestcontext.Now(ctx)

	updated, err := s.store.Execute(ctx, recordID,
		func(record *models.Record) error {
			allowed, err := s.authz.CanVerify(ctx, actor, record.SpecialtyID, record.CohortID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "authorization check failed")
			}
			if !allowed {
				return dErrors.New(dErrors.CodeForbidden, "actor may not verify records in this cohort")
			}
			return record.CanVerify(target)
		},
		func(record *models.Record) error {
			record.ApplyVerification(target, verifier, comment, now)
			return nil
		},
	)
	if err != nil {
		err = wrapStoreErr(err)
		s.metrics.ObserveVerification(string(dErrors.CodeOf(err)))
		return nil, err
	}
	s.metrics.ObserveVerification(string(target))

	if err := s.invalidator.Invalidate(ctx, updated.ScholarID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate progress cache",
			"error", err,
			"scholar_id", updated.ScholarID.String(),
		)
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Kind:      audit.KindRecordVerified,
		ActorID:   verifier,
		ScholarID: updated.ScholarID,
		RecordID:  updated.ID,
		CohortID:  updated.CohortID,
		Detail:    map[string]string{"status": string(target)},
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit verification audit event", "error", err)
	}

	return updated, nil
}

// GetRecord returns one record, visible to its scholar and to any actor with
// verification scope over its cohort.
func (s *Service) GetRecord(ctx context.Context, actor authzmodels.Actor, recordID id.RecordID) (*models.Record, error) {
	record, err := s.store.FindByID(ctx, recordID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if err := s.requireRecordVisibility(ctx, actor, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ListByScholar returns a scholar's records in creation order, bounded by the
// actor's visible scope.
func (s *Service) ListByScholar(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID, filter store.Filter) ([]*models.Record, error) {
	if err := s.requireScholarVisibility(ctx, actor, scholarID); err != nil {
		return nil, err
	}
	records, err := s.store.ListByScholar(ctx, scholarID, filter)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return records, nil
}

func (s *Service) requireScholarVisibility(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID) error {
	if actor.HasAdminVisibility() {
		return nil
	}
	if actor.Role == authzmodels.RoleScholar {
		if actor.ScholarID == scholarID {
			return nil
		}
		return dErrors.New(dErrors.CodeForbidden, "scholars may only list their own records")
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

func (s *Service) requireRecordVisibility(ctx context.Context, actor authzmodels.Actor, record *models.Record) error {
	if actor.HasAdminVisibility() {
		return nil
	}
	if actor.Role == authzmodels.RoleScholar {
		if actor.ScholarID == record.ScholarID {
			return nil
		}
		return dErrors.New(dErrors.CodeForbidden, "scholars may only view their own records")
	}
	allowed, err := s.authz.CanVerify(ctx, actor, record.SpecialtyID, record.CohortID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "authorization check failed")
	}
	if !allowed {
		return dErrors.New(dErrors.CodeForbidden, "record is outside the actor's scope")
	}
	return nil
}

func requireSelfOrAdmin(actor authzmodels.Actor, scholarID id.ScholarID) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == authzmodels.RoleScholar && actor.ScholarID == scholarID {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "submissions may only be created by the scholar")
}

func wrapStoreErr(err error) error {
	var coded *dErrors.Error
	switch {
	case errors.As(err, &coded):
		// Already a coded domain error from a validate callback.
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "entity not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "conflicting update")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "store failure")
	}
}
