package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
)

func pendingRecord(t *testing.T, kind Kind) *Record {
	t.Helper()
	var entryID id.EntryID
	if kind == KindProcedureRecord {
		entryID = id.EntryID(uuid.New())
	}
	record, err := NewRecord(id.RecordID(uuid.New()), id.ScholarID(uuid.New()),
		id.SpecialtyID(uuid.New()), id.CohortID(uuid.New()),
		kind, "central line placement", time.Now(), 2, entryID, nil, time.Now())
	require.NoError(t, err)
	return record
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusApproved, StatusApproved, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestCanVerifyDistinguishesFailures(t *testing.T) {
	t.Run("pending record accepts terminal targets", func(t *testing.T) {
		record := pendingRecord(t, KindProcedureRecord)
		assert.NoError(t, record.CanVerify(StatusApproved))
		assert.NoError(t, record.CanVerify(StatusRejected))
	})

	t.Run("non-terminal target is an invalid transition", func(t *testing.T) {
		record := pendingRecord(t, KindProcedureRecord)
		err := record.CanVerify(StatusPending)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("terminal record is already verified", func(t *testing.T) {
		record := pendingRecord(t, KindProcedureRecord)
		record.ApplyVerification(StatusApproved, id.UserID(uuid.New()), "", time.Now())

		err := record.CanVerify(StatusRejected)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyVerified))
		assert.False(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func TestApplyVerification(t *testing.T) {
	record := pendingRecord(t, KindAcademicActivity)
	verifier := id.UserID(uuid.New())
	at := time.Now()

	record.ApplyVerification(StatusRejected, verifier, "missing attendance sheet", at)

	assert.Equal(t, StatusRejected, record.Status)
	assert.Equal(t, "missing attendance sheet", record.Comment)
	require.NotNil(t, record.VerifiedBy)
	assert.Equal(t, verifier, *record.VerifiedBy)
	require.NotNil(t, record.VerifiedAt)
	assert.Equal(t, at, *record.VerifiedAt)
}

func TestNewRecordValidation(t *testing.T) {
	now := time.Now()
	scholarID := id.ScholarID(uuid.New())
	specialtyID := id.SpecialtyID(uuid.New())
	cohortID := id.CohortID(uuid.New())

	t.Run("procedure record requires a catalog entry", func(t *testing.T) {
		_, err := NewRecord(id.RecordID(uuid.New()), scholarID, specialtyID, cohortID,
			KindProcedureRecord, "appendectomy", now, 0, id.EntryID{}, nil, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("activity record rejects a catalog entry reference", func(t *testing.T) {
		_, err := NewRecord(id.RecordID(uuid.New()), scholarID, specialtyID, cohortID,
			KindAcademicActivity, "grand rounds", now, 1, id.EntryID(uuid.New()), nil, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("negative hours are rejected", func(t *testing.T) {
		_, err := NewRecord(id.RecordID(uuid.New()), scholarID, specialtyID, cohortID,
			KindCommunityActivity, "vaccination drive", now, -1, id.EntryID{}, nil, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("new record starts pending", func(t *testing.T) {
		record, err := NewRecord(id.RecordID(uuid.New()), scholarID, specialtyID, cohortID,
			KindCommunityActivity, "vaccination drive", now, 4, id.EntryID{}, nil, now)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, record.Status)
	})
}
