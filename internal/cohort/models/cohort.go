package models

import (
	"time"

	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
)

// Cohort is a yearly intake group within a specialty.
//
// Invariants:
//   - Belongs to exactly one specialty, fixed at creation
//   - When both dates are set, the end day must not precede the start day;
//     a single-day cohort (equal dates) is legal
//   - Lifecycle state is derived via ResolveLifecycle, never stored
//   - Cohorts are never deleted once scholars reference them
type Cohort struct {
	ID          id.CohortID    `json:"id"`
	SpecialtyID id.SpecialtyID `json:"specialty_id"`
	Year        int            `json:"year"`
	StartDate   *time.Time     `json:"start_date,omitempty"`
	EndDate     *time.Time     `json:"end_date,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ValidateDateRange enforces the cohort date invariant at day granularity.
// Either date may be absent; validation applies only when both are present.
func ValidateDateRange(startDate, endDate *time.Time) error {
	if startDate == nil || endDate == nil {
		return nil
	}
	if id.CivilDate(*endDate).Before(id.CivilDate(*startDate)) {
		return dErrors.New(dErrors.CodeInvalidDateRange, "cohort end date must not precede its start date")
	}
	return nil
}

func NewCohort(cohortID id.CohortID, specialtyID id.SpecialtyID, year int, startDate, endDate *time.Time, now time.Time) (*Cohort, error) {
	if year < 1900 {
		return nil, dErrors.New(dErrors.CodeValidation, "cohort year is not plausible")
	}
	if err := ValidateDateRange(startDate, endDate); err != nil {
		return nil, err
	}
	return &Cohort{
		ID:          cohortID,
		SpecialtyID: specialtyID,
		Year:        year,
		StartDate:   startDate,
		EndDate:     endDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SetDates replaces the cohort boundary dates. Dates are mutable at any
// point in the cohort's life; the range invariant is revalidated.
func (c *Cohort) SetDates(startDate, endDate *time.Time, now time.Time) error {
	if err := ValidateDateRange(startDate, endDate); err != nil {
		return err
	}
	c.StartDate = startDate
	c.EndDate = endDate
	c.UpdatedAt = now
	return nil
}

// Lifecycle resolves the cohort's derived temporal state at the given instant.
func (c *Cohort) Lifecycle(now time.Time) LifecycleState {
	return ResolveLifecycle(c.StartDate, c.EndDate, now)
}
