package models

import (
	"time"

	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
)

// Specialty is a medical specialty owning cohorts.
//
// Specialties with a fixed cohort plan carry StartYear and CohortCount and
// pre-generate their cohorts at creation; the rest create cohorts ad hoc.
// Plan fields come in pairs: both set or both absent.
type Specialty struct {
	ID          id.SpecialtyID `json:"id"`
	Name        string         `json:"name"`
	StartYear   *int           `json:"start_year,omitempty"`
	CohortCount *int           `json:"cohort_count,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func NewSpecialty(specialtyID id.SpecialtyID, name string, startYear, cohortCount *int, now time.Time) (*Specialty, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "specialty name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "specialty name must be 128 characters or less")
	}
	if (startYear == nil) != (cohortCount == nil) {
		return nil, dErrors.New(dErrors.CodeValidation, "start year and cohort count must be provided together")
	}
	if cohortCount != nil && *cohortCount < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "cohort count must be at least 1")
	}
	return &Specialty{
		ID:          specialtyID,
		Name:        name,
		StartYear:   startYear,
		CohortCount: cohortCount,
		CreatedAt:   now,
	}, nil
}

// HasFixedPlan reports whether the specialty pre-generates its cohorts.
func (s *Specialty) HasFixedPlan() bool {
	return s.StartYear != nil && s.CohortCount != nil
}

// PlannedYears lists the cohort years a fixed-plan specialty covers.
func (s *Specialty) PlannedYears() []int {
	if !s.HasFixedPlan() {
		return nil
	}
	years := make([]int, 0, *s.CohortCount)
	for i := 0; i < *s.CohortCount; i++ {
		years = append(years, *s.StartYear+i)
	}
	return years
}
