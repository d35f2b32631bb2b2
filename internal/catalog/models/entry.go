package models

import (
	"time"

	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
)

// DefaultCategory is the display bucket for entries without a category.
const DefaultCategory = "Sin categoría"

// Entry is a minimum-required clinical procedure definition for one cohort.
//
// Invariants:
//   - Belongs to exactly one cohort; entries are not shared across cohorts
//   - TargetCount >= 1
//   - (Name, Category) is unique within a cohort
//   - Position records creation order within the cohort and drives the
//     stable display ordering of progress reports
type Entry struct {
	ID          id.EntryID  `json:"id"`
	CohortID    id.CohortID `json:"cohort_id"`
	Name        string      `json:"name"`
	Category    string      `json:"category,omitempty"`
	TargetCount int         `json:"target_count"`
	Description string      `json:"description,omitempty"`
	Position    int         `json:"position"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func NewEntry(entryID id.EntryID, cohortID id.CohortID, name, category string, targetCount int, description string, now time.Time) (*Entry, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "procedure name cannot be empty")
	}
	if targetCount < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "target count must be at least 1")
	}
	return &Entry{
		ID:          entryID,
		CohortID:    cohortID,
		Name:        name,
		Category:    category,
		TargetCount: targetCount,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// DisplayCategory returns the category or the default bucket when absent.
func (e *Entry) DisplayCategory() string {
	if e.Category == "" {
		return DefaultCategory
	}
	return e.Category
}
