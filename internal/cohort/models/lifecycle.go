package models

import (
	"time"

	id "resimed/pkg/domain"
)

// LifecycleState is the derived temporal state of a cohort. It is never
// stored; callers recompute it from the cohort dates on every read.
type LifecycleState string

const (
	// StateUndefined applies when either boundary date is absent.
	StateUndefined LifecycleState = "undefined"
	// StateUpcoming applies strictly before the start date.
	StateUpcoming LifecycleState = "upcoming"
	// StateActive applies from the start date through the end date inclusive.
	StateActive LifecycleState = "active"
	// StateCompleted applies strictly after the end date.
	StateCompleted LifecycleState = "completed"
)

func (s LifecycleState) String() string { return string(s) }

// ResolveLifecycle maps cohort boundary dates and a reference instant to a
// lifecycle state. Comparison happens at UTC day granularity and the
// boundaries are inclusive: a reference on the start or end day is active.
// The four states partition time with no gap or overlap.
func ResolveLifecycle(startDate, endDate *time.Time, now time.Time) LifecycleState {
	if startDate == nil || endDate == nil {
		return StateUndefined
	}
	day := id.CivilDate(now)
	if day.Before(id.CivilDate(*startDate)) {
		return StateUpcoming
	}
	if day.After(id.CivilDate(*endDate)) {
		return StateCompleted
	}
	return StateActive
}
