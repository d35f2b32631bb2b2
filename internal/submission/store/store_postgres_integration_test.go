//go:build integration

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	scholarmodels "resimed/internal/scholar/models"
	scholarstore "resimed/internal/scholar/store"
	"resimed/internal/submission/models"
	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
	"resimed/pkg/testutil/containers"
)

type SubmissionPostgresSuite struct {
	suite.Suite
	pg        *containers.PostgresContainer
	store     *PostgresStore
	scholarID id.ScholarID
}

func TestSubmissionPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration suite in short mode")
	}
	suite.Run(t, new(SubmissionPostgresSuite))
}

func (s *SubmissionPostgresSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *SubmissionPostgresSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.pg.TruncateTables(ctx, "submission_records", "scholars"))

	scholars := scholarstore.NewPostgres(s.pg.DB)
	scholar, err := scholarmodels.NewScholar(id.ScholarID(uuid.New()), id.UserID(uuid.New()), "Ana Fuentes", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(scholars.Create(ctx, scholar))
	s.scholarID = scholar.ID
}

func (s *SubmissionPostgresSuite) pendingRecord() *models.Record {
	record, err := models.NewRecord(id.RecordID(uuid.New()), s.scholarID,
		id.SpecialtyID(uuid.New()), id.CohortID(uuid.New()),
		models.KindProcedureRecord, "punción lumbar", time.Now().UTC().Truncate(time.Second), 0,
		id.EntryID(uuid.New()), nil, time.Now().UTC().Truncate(time.Second))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), record))
	return record
}

func (s *SubmissionPostgresSuite) verify(recordID id.RecordID, target models.Status) error {
	verifier := id.UserID(uuid.New())
	_, err := s.store.Execute(context.Background(), recordID,
		func(record *models.Record) error {
			return record.CanVerify(target)
		},
		func(record *models.Record) error {
			record.ApplyVerification(target, verifier, "", time.Now().UTC())
			return nil
		})
	return err
}

func (s *SubmissionPostgresSuite) TestRoundTrip() {
	ctx := context.Background()
	record := s.pendingRecord()

	stored, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(record.ID, stored.ID)
	s.Equal(models.StatusPending, stored.Status)
	s.Equal(record.EntryID, stored.EntryID)
	s.Nil(stored.VerifiedBy)

	listed, err := s.store.ListByScholar(ctx, s.scholarID, Filter{})
	s.Require().NoError(err)
	s.Len(listed, 1)
}

func (s *SubmissionPostgresSuite) TestListFilters() {
	ctx := context.Background()
	record := s.pendingRecord()
	s.Require().NoError(s.verify(record.ID, models.StatusApproved))

	approved := models.StatusApproved
	listed, err := s.store.ListByScholar(ctx, s.scholarID, Filter{Status: &approved})
	s.Require().NoError(err)
	s.Len(listed, 1)

	pending := models.StatusPending
	listed, err = s.store.ListByScholar(ctx, s.scholarID, Filter{Status: &pending})
	s.Require().NoError(err)
	s.Empty(listed)
}

// Two racing verifications serialize on the row lock: exactly one commits,
// the loser re-reads a terminal record and fails the precondition.
func (s *SubmissionPostgresSuite) TestVerificationRaceSerializes() {
	record := s.pendingRecord()

	var wg sync.WaitGroup
	results := make([]error, 2)
	targets := []models.Status{models.StatusApproved, models.StatusRejected}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.verify(record.ID, targets[i])
		}(i)
	}
	wg.Wait()

	var successes, alreadyVerified int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case dErrors.HasCode(err, dErrors.CodeAlreadyVerified):
			alreadyVerified++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, successes)
	s.Equal(1, alreadyVerified)

	stored, err := s.store.FindByID(context.Background(), record.ID)
	s.Require().NoError(err)
	s.True(stored.Status.IsTerminal())
	s.NotNil(stored.VerifiedBy)
	s.NotNil(stored.VerifiedAt)
}
