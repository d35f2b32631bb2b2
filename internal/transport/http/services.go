package httptransport

import (
	"context"
	"time"

	authzmodels "resimed/internal/authz/models"
	catalogmodels "resimed/internal/catalog/models"
	catalogservice "resimed/internal/catalog/service"
	cohortmodels "resimed/internal/cohort/models"
	cohortservice "resimed/internal/cohort/service"
	progressmodels "resimed/internal/progress/models"
	scholarmodels "resimed/internal/scholar/models"
	submissionmodels "resimed/internal/submission/models"
	submissionservice "resimed/internal/submission/service"
	submissionstore "resimed/internal/submission/store"
	id "resimed/pkg/domain"
)

// Service interfaces consumed by the handlers. Each mirrors the concrete
// service in its module so the transport layer stays mockable.

type CohortService interface {
	CreateSpecialty(ctx context.Context, actor authzmodels.Actor, name string, startYear, cohortCount *int) (*cohortmodels.Specialty, error)
	ListSpecialties(ctx context.Context) ([]*cohortmodels.Specialty, error)
	CreateCohort(ctx context.Context, actor authzmodels.Actor, specialtyID id.SpecialtyID, year int, startDate, endDate *time.Time) (*cohortmodels.Cohort, error)
	UpdateCohortDates(ctx context.Context, actor authzmodels.Actor, cohortID id.CohortID, startDate, endDate *time.Time) (*cohortmodels.Cohort, error)
	GetCohort(ctx context.Context, cohortID id.CohortID) (*cohortservice.CohortView, error)
	ListCohorts(ctx context.Context, specialtyID id.SpecialtyID) ([]*cohortservice.CohortView, error)
}

type CatalogService interface {
	CreateEntry(ctx context.Context, actor authzmodels.Actor, cohortID id.CohortID, input catalogservice.EntryInput) (*catalogmodels.Entry, error)
	UpdateEntry(ctx context.Context, actor authzmodels.Actor, entryID id.EntryID, input catalogservice.EntryInput) (*catalogmodels.Entry, error)
	DeleteEntry(ctx context.Context, actor authzmodels.Actor, entryID id.EntryID) error
	ListByCohort(ctx context.Context, cohortID id.CohortID) ([]*catalogmodels.Entry, error)
	CopyCatalog(ctx context.Context, actor authzmodels.Actor, sourceCohortID, targetCohortID id.CohortID) (catalogservice.CopyResult, error)
}

type ScholarService interface {
	Register(ctx context.Context, actor authzmodels.Actor, userID id.UserID, fullName string) (*scholarmodels.Scholar, error)
	Enroll(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID, cohortID id.CohortID) (*scholarmodels.Membership, error)
	Get(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID) (*scholarmodels.Scholar, error)
	History(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID) ([]scholarmodels.Membership, error)
}

type SubmissionService interface {
	SubmitAcademic(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID, input submissionservice.SubmitInput) (*submissionmodels.Record, error)
	SubmitCommunity(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID, input submissionservice.SubmitInput) (*submissionmodels.Record, error)
	SubmitProcedure(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID, input submissionservice.SubmitInput) (*submissionmodels.Record, error)
	Verify(ctx context.Context, actor authzmodels.Actor, recordID id.RecordID, target submissionmodels.Status, comment string) (*submissionmodels.Record, error)
	GetRecord(ctx context.Context, actor authzmodels.Actor, recordID id.RecordID) (*submissionmodels.Record, error)
	ListByScholar(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID, filter submissionstore.Filter) ([]*submissionmodels.Record, error)
}

type ProgressService interface {
	ComputeProgress(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID, cohortID *id.CohortID) (*progressmodels.Report, error)
}

type GrantService interface {
	GrantJefe(ctx context.Context, actor authzmodels.Actor, userID id.UserID, specialtyID id.SpecialtyID) error
	RevokeJefe(ctx context.Context, actor authzmodels.Actor, userID id.UserID, specialtyID id.SpecialtyID) error
	GrantDoctor(ctx context.Context, actor authzmodels.Actor, userID id.UserID, specialtyID id.SpecialtyID, cohortID id.CohortID) error
	RevokeDoctor(ctx context.Context, actor authzmodels.Actor, userID id.UserID, specialtyID id.SpecialtyID, cohortID id.CohortID) error
}

// ScopeService answers visibility queries for the authenticated actor.
type ScopeService interface {
	VisibleCohorts(ctx context.Context, actor authzmodels.Actor) (map[id.CohortID]struct{}, error)
}
