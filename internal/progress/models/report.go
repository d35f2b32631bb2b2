// Package models defines the derived progress report shapes. Reports are
// recomputed from submissions and the catalog; nothing here is persisted as
// a source of truth.
package models

import (
	id "resimed/pkg/domain"
)

// EntryProgress is the completion state of one scholar against one catalog
// entry. Only approved records count toward completion.
type EntryProgress struct {
	EntryID       id.EntryID `json:"entry_id"`
	Name          string     `json:"name"`
	Category      string     `json:"category"`
	TargetCount   int        `json:"target_count"`
	ApprovedCount int        `json:"approved_count"`
	PendingCount  int        `json:"pending_count"`
	RejectedCount int        `json:"rejected_count"`
	Complete      bool       `json:"complete"`
}

// ActivityStats aggregates one activity kind (academic or community) across
// all verification statuses.
type ActivityStats struct {
	Total         int     `json:"total"`
	Approved      int     `json:"approved"`
	Pending       int     `json:"pending"`
	Rejected      int     `json:"rejected"`
	TotalHours    float64 `json:"total_hours"`
	ApprovedHours float64 `json:"approved_hours"`
}

// CategoryGroup holds the progress entries of one display category.
type CategoryGroup struct {
	Category string          `json:"category"`
	Entries  []EntryProgress `json:"entries"`
}

// Report is a scholar's full compliance snapshot. Categories is never nil:
// a scholar with no catalog entries gets an empty slice and zeroed stats.
type Report struct {
	ScholarID      id.ScholarID    `json:"scholar_id"`
	CohortID       *id.CohortID    `json:"cohort_id,omitempty"`
	AcademicStats  ActivityStats   `json:"academic_stats"`
	CommunityStats ActivityStats   `json:"community_stats"`
	Categories     []CategoryGroup `json:"procedure_progress"`
}
