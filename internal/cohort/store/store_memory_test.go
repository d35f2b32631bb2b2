package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resimed/internal/cohort/models"
	id "resimed/pkg/domain"
	"resimed/pkg/platform/sentinel"
)

func seedSpecialty(t *testing.T, s *InMemory, name string) id.SpecialtyID {
	t.Helper()
	specialty, err := models.NewSpecialty(id.SpecialtyID(uuid.New()), name, nil, nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.CreateSpecialtyIfNameAvailable(context.Background(), specialty))
	return specialty.ID
}

func TestSpecialtyNameUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	seedSpecialty(t, s, "Cirugía General")

	dup, err := models.NewSpecialty(id.SpecialtyID(uuid.New()), "CIRUGÍA GENERAL", nil, nil, time.Now())
	require.NoError(t, err)
	err = s.CreateSpecialtyIfNameAvailable(ctx, dup)
	assert.True(t, errors.Is(err, sentinel.ErrConflict))

	specialties, err := s.ListSpecialties(ctx)
	require.NoError(t, err)
	assert.Len(t, specialties, 1)
}

func TestCohortYearUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	specialtyA := seedSpecialty(t, s, "Cirugía General")
	specialtyB := seedSpecialty(t, s, "Pediatría")
	now := time.Now()

	first, err := models.NewCohort(id.CohortID(uuid.New()), specialtyA, 2024, nil, nil, now)
	require.NoError(t, err)
	require.NoError(t, s.CreateCohort(ctx, first))

	t.Run("same specialty and year conflicts", func(t *testing.T) {
		dup, err := models.NewCohort(id.CohortID(uuid.New()), specialtyA, 2024, nil, nil, now)
		require.NoError(t, err)
		err = s.CreateCohort(ctx, dup)
		assert.True(t, errors.Is(err, sentinel.ErrConflict))
	})

	t.Run("same year under another specialty is fine", func(t *testing.T) {
		sibling, err := models.NewCohort(id.CohortID(uuid.New()), specialtyB, 2024, nil, nil, now)
		require.NoError(t, err)
		assert.NoError(t, s.CreateCohort(ctx, sibling))
	})

	t.Run("cohort requires an existing specialty", func(t *testing.T) {
		orphan, err := models.NewCohort(id.CohortID(uuid.New()), id.SpecialtyID(uuid.New()), 2024, nil, nil, now)
		require.NoError(t, err)
		err = s.CreateCohort(ctx, orphan)
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})
}

func TestCohortListing(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	specialtyID := seedSpecialty(t, s, "Cirugía General")
	now := time.Now()

	for _, year := range []int{2025, 2023, 2024} {
		cohort, err := models.NewCohort(id.CohortID(uuid.New()), specialtyID, year, nil, nil, now)
		require.NoError(t, err)
		require.NoError(t, s.CreateCohort(ctx, cohort))
	}

	cohorts, err := s.ListCohortsBySpecialty(ctx, specialtyID)
	require.NoError(t, err)
	require.Len(t, cohorts, 3)
	assert.Equal(t, 2023, cohorts[0].Year)
	assert.Equal(t, 2025, cohorts[2].Year)

	all, err := s.AllCohortIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateCohortDates(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	specialtyID := seedSpecialty(t, s, "Cirugía General")
	now := time.Now()

	cohort, err := models.NewCohort(id.CohortID(uuid.New()), specialtyID, 2024, nil, nil, now)
	require.NoError(t, err)
	require.NoError(t, s.CreateCohort(ctx, cohort))

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, cohort.SetDates(&start, &end, now))
	require.NoError(t, s.UpdateCohort(ctx, cohort))

	stored, err := s.FindCohort(ctx, cohort.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.StartDate)
	assert.True(t, stored.StartDate.Equal(start))

	ghost, err := models.NewCohort(id.CohortID(uuid.New()), specialtyID, 2030, nil, nil, now)
	require.NoError(t, err)
	err = s.UpdateCohort(ctx, ghost)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}
