package models

import (
	"time"

	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
)

// Scholar is a trainee (becado) whose activities and procedures are tracked.
type Scholar struct {
	ID        id.ScholarID `json:"id"`
	UserID    id.UserID    `json:"user_id"`
	FullName  string       `json:"full_name"`
	CreatedAt time.Time    `json:"created_at"`
}

func NewScholar(scholarID id.ScholarID, userID id.UserID, fullName string, now time.Time) (*Scholar, error) {
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "scholar name cannot be empty")
	}
	return &Scholar{ID: scholarID, UserID: userID, FullName: fullName, CreatedAt: now}, nil
}

// Membership records one enrollment of a scholar into a cohort.
//
// The history is append-only: reassignment appends a new membership instead
// of rewriting the old one, so the union of a scholar's cohorts never loses
// a past enrollment. Progress aggregation walks this history.
type Membership struct {
	ScholarID   id.ScholarID   `json:"scholar_id"`
	CohortID    id.CohortID    `json:"cohort_id"`
	SpecialtyID id.SpecialtyID `json:"specialty_id"`
	JoinedAt    time.Time      `json:"joined_at"`
}

// Current returns the most recent membership of the list, or nil when the
// scholar has never been enrolled.
func Current(history []Membership) *Membership {
	var latest *Membership
	for i := range history {
		if latest == nil || history[i].JoinedAt.After(latest.JoinedAt) {
			latest = &history[i]
		}
	}
	return latest
}
