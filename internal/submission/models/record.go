// Package models defines scholar submission records and the verification
// state machine that governs their status.
package models

import (
	"time"

	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
)

// Kind discriminates the three independent submission record kinds.
type Kind string

const (
	KindAcademicActivity  Kind = "academic_activity"
	KindCommunityActivity Kind = "community_activity"
	KindProcedureRecord   Kind = "procedure_record"
)

func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindAcademicActivity, KindCommunityActivity, KindProcedureRecord:
		return Kind(raw), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown submission kind %q", raw)
	}
}

// Status is the verification state of a submission record.
//
// pending is the only initial state. approved and rejected are terminal:
// re-review is modeled as a new submission, never a reverse transition.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(raw), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown verification status %q", raw)
	}
}

// IsTerminal reports whether no further transition leaves this status.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransitionTo reports whether the state machine permits moving from s to
// target. Only pending -> approved and pending -> rejected are legal.
func (s Status) CanTransitionTo(target Status) bool {
	return s == StatusPending && target.IsTerminal()
}

// Record is a scholar-submitted fact awaiting or past verification.
//
// SpecialtyID and CohortID snapshot the scholar's enrollment at submission
// time; a later cohort reassignment does not rewrite existing records.
// EntryID is set only for procedure records and references exactly one
// catalog entry. All fields except Status, Comment and the verifier stamp are
// immutable once created.
type Record struct {
	ID          id.RecordID    `json:"id"`
	ScholarID   id.ScholarID   `json:"scholar_id"`
	SpecialtyID id.SpecialtyID `json:"specialty_id"`
	CohortID    id.CohortID    `json:"cohort_id"`
	Kind        Kind           `json:"kind"`
	Status      Status         `json:"status"`
	Title       string         `json:"title"`
	Date        time.Time      `json:"date"`
	Hours       float64        `json:"hours,omitempty"`
	EntryID     id.EntryID     `json:"entry_id,omitempty"`
	Attachments []string       `json:"attachments,omitempty"`
	Comment     string         `json:"comment,omitempty"`
	VerifiedBy  *id.UserID     `json:"verified_by,omitempty"`
	VerifiedAt  *time.Time     `json:"verified_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewRecord builds a pending record. Procedure records must reference a
// catalog entry; activity records must not.
func NewRecord(recordID id.RecordID, scholarID id.ScholarID, specialtyID id.SpecialtyID, cohortID id.CohortID,
	kind Kind, title string, date time.Time, hours float64, entryID id.EntryID, attachments []string, now time.Time) (*Record, error) {
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "submission title cannot be empty")
	}
	if date.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "submission date is required")
	}
	if hours < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "hours cannot be negative")
	}
	switch kind {
	case KindProcedureRecord:
		if entryID.IsNil() {
			return nil, dErrors.New(dErrors.CodeValidation, "procedure records must reference a catalog entry")
		}
	case KindAcademicActivity, KindCommunityActivity:
		if !entryID.IsNil() {
			return nil, dErrors.New(dErrors.CodeValidation, "activity records cannot reference a catalog entry")
		}
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown submission kind %q", kind)
	}
	return &Record{
		ID:          recordID,
		ScholarID:   scholarID,
		SpecialtyID: specialtyID,
		CohortID:    cohortID,
		Kind:        kind,
		Status:      StatusPending,
		Title:       title,
		Date:        date,
		Hours:       hours,
		EntryID:     entryID,
		Attachments: attachments,
		CreatedAt:   now,
	}, nil
}

// CanVerify validates the requested transition against the state machine.
// A non-terminal target is an invalid transition; a record that already left
// pending is already verified. The two failures carry distinct codes so
// callers can tell a bad request apart from a lost race.
func (r *Record) CanVerify(target Status) error {
	if !target.IsTerminal() {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot transition a record to %q", target)
	}
	if r.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeAlreadyVerified, "record is already %q", r.Status)
	}
	return nil
}

// ApplyVerification moves the record into its terminal status and stamps the
// verifier. Callers must have passed CanVerify under the same lock.
func (r *Record) ApplyVerification(target Status, verifier id.UserID, comment string, now time.Time) {
	r.Status = target
	if comment != "" {
		r.Comment = comment
	}
	r.VerifiedBy = &verifier
	r.VerifiedAt = &now
}
