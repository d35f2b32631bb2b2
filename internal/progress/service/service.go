// Package service computes scholar compliance reports: per-procedure
// completion against the catalog and per-kind activity statistics.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	authzmodels "resimed/internal/authz/models"
	catalogmodels "resimed/internal/catalog/models"
	"resimed/internal/progress/cache"
	"resimed/internal/progress/metrics"
	"resimed/internal/progress/models"
	scholarmodels "resimed/internal/scholar/models"
	submissionmodels "resimed/internal/submission/models"
	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
	"resimed/pkg/platform/sentinel"
)

// ScholarDirectory resolves a scholar's enrollment history. Memberships must
// fail with a not-found sentinel for unknown scholars.
type ScholarDirectory interface {
	Memberships(ctx context.Context, scholarID id.ScholarID) ([]scholarmodels.Membership, error)
}

// CatalogDirectory lists the procedure catalog of one cohort.
type CatalogDirectory interface {
	ListByCohort(ctx context.Context, cohortID id.CohortID) ([]*catalogmodels.Entry, error)
}

// SubmissionDirectory lists every record a scholar has submitted.
type SubmissionDirectory interface {
	AllByScholar(ctx context.Context, scholarID id.ScholarID) ([]*submissionmodels.Record, error)
}

// Authorizer bounds which scholars an actor may inspect.
type Authorizer interface {
	VisibleScholars(ctx context.Context, actor authzmodels.Actor, specialtyID *id.SpecialtyID) (map[id.ScholarID]struct{}, error)
}

type Service struct {
	scholars    ScholarDirectory
	catalog     CatalogDirectory
	submissions SubmissionDirectory
	authz       Authorizer
	cache       *cache.Cache
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	logger      *slog.Logger
}

func New(scholars ScholarDirectory, catalog CatalogDirectory, submissions SubmissionDirectory,
	authz Authorizer, snapshots *cache.Cache, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		scholars:    scholars,
		catalog:     catalog,
		submissions: submissions,
		authz:       authz,
		cache:       snapshots,
		metrics:     m,
		tracer:      otel.Tracer("resimed/progress"),
		logger:      logger,
	}
}

// ComputeProgress builds the compliance report for one scholar.
//
// With a cohort scope the catalog is that cohort's entries; without one it is
// the union over every cohort in the scholar's membership history,
// de-duplicated by entry ID. Procedure records referencing entries outside
// the resolved set (orphaned by a reassignment) are silently excluded. Empty
// catalogs and empty submission sets yield zeroed stats, never an error; the
// only not-found condition is an unknown scholar.
func (s *Service) ComputeProgress(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID, cohortID *id.CohortID) (*models.Report, error) {
	ctx, span := s.tracer.Start(ctx, "progress.compute",
		trace.WithAttributes(attribute.String("scholar_id", scholarID.String())))
	defer span.End()

	if err := s.requireScholarVisibility(ctx, actor, scholarID); err != nil {
		return nil, err
	}

	if report, ok, err := s.cache.Get(ctx, scholarID, cohortID); err != nil {
		s.logger.WarnContext(ctx, "progress cache read failed", "error", err)
	} else if ok {
		s.metrics.ObserveCacheHit()
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return report, nil
	}
	s.metrics.ObserveCacheMiss()

	started := time.Now()
	report, err := s.compute(ctx, scholarID, cohortID)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCompute(time.Since(started))

	if err := s.cache.Put(ctx, report); err != nil {
		s.logger.WarnContext(ctx, "progress cache write failed", "error", err)
	}
	return report, nil
}

// Invalidate drops the scholar's cached snapshots. The verification path
// calls this so the next read reflects the status change.
func (s *Service) Invalidate(ctx context.Context, scholarID id.ScholarID) error {
	if err := s.cache.Invalidate(ctx, scholarID); err != nil {
		return err
	}
	s.metrics.ObserveInvalidation()
	return nil
}

func (s *Service) compute(ctx context.Context, scholarID id.ScholarID, cohortID *id.CohortID) (*models.Report, error) {
	history, err := s.scholars.Memberships(ctx, scholarID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "scholar not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load memberships")
	}

	entries, err := s.resolveCatalog(ctx, history, cohortID)
	if err != nil {
		return nil, err
	}

	records, err := s.submissions.AllByScholar(ctx, scholarID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load submissions")
	}

	report := &models.Report{
		ScholarID:  scholarID,
		CohortID:   cohortID,
		Categories: []models.CategoryGroup{},
	}

	byEntry := make(map[id.EntryID]*models.EntryProgress, len(entries))
	for _, entry := range entries {
		byEntry[entry.ID] = &models.EntryProgress{
			EntryID:     entry.ID,
			Name:        entry.Name,
			Category:    entry.DisplayCategory(),
			TargetCount: entry.TargetCount,
		}
	}

	for _, record := range records {
		switch record.Kind {
		case submissionmodels.KindAcademicActivity:
			accumulate(&report.AcademicStats, record)
		case submissionmodels.KindCommunityActivity:
			accumulate(&report.CommunityStats, record)
		case submissionmodels.KindProcedureRecord:
			progress, ok := byEntry[record.EntryID]
			if !ok {
				// Orphaned reference after a cohort reassignment.
				continue
			}
			switch record.Status {
			case submissionmodels.StatusApproved:
				progress.ApprovedCount++
			case submissionmodels.StatusPending:
				progress.PendingCount++
			case submissionmodels.StatusRejected:
				progress.RejectedCount++
			}
		}
	}

	for _, progress := range byEntry {
		progress.Complete = progress.ApprovedCount >= progress.TargetCount
	}

	report.Categories = groupByCategory(entries, byEntry)
	return report, nil
}

func (s *Service) resolveCatalog(ctx context.Context, history []scholarmodels.Membership, cohortID *id.CohortID) ([]*catalogmodels.Entry, error) {
	var cohortIDs []id.CohortID
	if cohortID != nil {
		cohortIDs = []id.CohortID{*cohortID}
	} else {
		for _, m := range history {
			cohortIDs = append(cohortIDs, m.CohortID)
		}
	}

	seen := make(map[id.EntryID]struct{})
	var entries []*catalogmodels.Entry
	for _, c := range cohortIDs {
		cohortEntries, err := s.catalog.ListByCohort(ctx, c)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load catalog")
		}
		for _, entry := range cohortEntries {
			if _, ok := seen[entry.ID]; ok {
				continue
			}
			seen[entry.ID] = struct{}{}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *Service) requireScholarVisibility(ctx context.Context, actor authzmodels.Actor, scholarID id.ScholarID) error {
	// Admins skip the scope lookup so an unknown scholar surfaces as
	// not-found from the membership load rather than as a scope failure.
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

func accumulate(stats *models.ActivityStats, record *submissionmodels.Record) {
	stats.Total++
	hours := record.Hours
	if hours < 0 {
		hours = 0
	}
	stats.TotalHours += hours
	switch record.Status {
	case submissionmodels.StatusApproved:
		stats.Approved++
		stats.ApprovedHours += hours
	case submissionmodels.StatusPending:
		stats.Pending++
	case submissionmodels.StatusRejected:
		stats.Rejected++
	}
}

// groupByCategory orders the report for display: categories lexicographic
// with the uncategorized bucket last, entries in catalog creation order. The
// ordering is stable across repeated calls with unchanged data.
func groupByCategory(entries []*catalogmodels.Entry, byEntry map[id.EntryID]*models.EntryProgress) []models.CategoryGroup {
	ordered := make([]*catalogmodels.Entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		if ordered[i].Position != ordered[j].Position {
			return ordered[i].Position < ordered[j].Position
		}
		return ordered[i].ID.String() < ordered[j].ID.String()
	})

	grouped := make(map[string][]models.EntryProgress)
	var categories []string
	for _, entry := range ordered {
		category := entry.DisplayCategory()
		if _, ok := grouped[category]; !ok {
			categories = append(categories, category)
		}
		grouped[category] = append(grouped[category], *byEntry[entry.ID])
	}

	sort.Slice(categories, func(i, j int) bool {
		if categories[i] == catalogmodels.DefaultCategory {
			return false
		}
		if categories[j] == catalogmodels.DefaultCategory {
			return true
		}
		return categories[i] < categories[j]
	})

	out := make([]models.CategoryGroup, 0, len(categories))
	for _, category := range categories {
		out = append(out, models.CategoryGroup{Category: category, Entries: grouped[category]})
	}
	return out
}
