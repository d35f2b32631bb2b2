package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resimed/internal/catalog/models"
	id "resimed/pkg/domain"
	"resimed/pkg/platform/sentinel"
)

func newEntry(t *testing.T, cohortID id.CohortID, name, category string) *models.Entry {
	t.Helper()
	entry, err := models.NewEntry(id.EntryID(uuid.New()), cohortID, name, category, 3, "", time.Now())
	require.NoError(t, err)
	return entry
}

func TestCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	cohortID := id.CohortID(uuid.New())

	t.Run("duplicate name and category is skipped", func(t *testing.T) {
		s := NewInMemory()
		created, err := s.CreateIfAbsent(ctx, newEntry(t, cohortID, "sutura", "Cirugía"))
		require.NoError(t, err)
		assert.True(t, created)

		created, err = s.CreateIfAbsent(ctx, newEntry(t, cohortID, "sutura", "Cirugía"))
		require.NoError(t, err)
		assert.False(t, created)

		entries, err := s.ListByCohort(ctx, cohortID)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("same name in another category or cohort inserts", func(t *testing.T) {
		s := NewInMemory()
		_, err := s.CreateIfAbsent(ctx, newEntry(t, cohortID, "sutura", "Cirugía"))
		require.NoError(t, err)

		created, err := s.CreateIfAbsent(ctx, newEntry(t, cohortID, "sutura", "Urgencias"))
		require.NoError(t, err)
		assert.True(t, created)

		created, err = s.CreateIfAbsent(ctx, newEntry(t, id.CohortID(uuid.New()), "sutura", "Cirugía"))
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("positions follow insertion order per cohort", func(t *testing.T) {
		s := NewInMemory()
		other := id.CohortID(uuid.New())
		for _, name := range []string{"zeta", "alfa", "media"} {
			_, err := s.CreateIfAbsent(ctx, newEntry(t, cohortID, name, ""))
			require.NoError(t, err)
		}
		_, err := s.CreateIfAbsent(ctx, newEntry(t, other, "solo", ""))
		require.NoError(t, err)

		entries, err := s.ListByCohort(ctx, cohortID)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "zeta", entries[0].Name)
		assert.Equal(t, "alfa", entries[1].Name)
		assert.Equal(t, "media", entries[2].Name)

		foreign, err := s.ListByCohort(ctx, other)
		require.NoError(t, err)
		require.Len(t, foreign, 1)
		assert.Equal(t, 1, foreign[0].Position)
	})
}

func TestUpdateEntry(t *testing.T) {
	ctx := context.Background()
	cohortID := id.CohortID(uuid.New())

	t.Run("update cannot collide with an existing pair", func(t *testing.T) {
		s := NewInMemory()
		_, err := s.CreateIfAbsent(ctx, newEntry(t, cohortID, "sutura", "Cirugía"))
		require.NoError(t, err)
		victim := newEntry(t, cohortID, "intubación", "Cirugía")
		_, err = s.CreateIfAbsent(ctx, victim)
		require.NoError(t, err)

		victim.Name = "sutura"
		err = s.Update(ctx, victim)
		assert.True(t, errors.Is(err, sentinel.ErrConflict))
	})

	t.Run("update preserves cohort and position", func(t *testing.T) {
		s := NewInMemory()
		entry := newEntry(t, cohortID, "sutura", "Cirugía")
		_, err := s.CreateIfAbsent(ctx, entry)
		require.NoError(t, err)

		entry.TargetCount = 7
		entry.CohortID = id.CohortID(uuid.New())
		require.NoError(t, s.Update(ctx, entry))

		stored, err := s.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, stored.TargetCount)
		assert.Equal(t, cohortID, stored.CohortID)
		assert.Equal(t, 1, stored.Position)
	})

	t.Run("missing entry is not found", func(t *testing.T) {
		s := NewInMemory()
		err := s.Update(ctx, newEntry(t, cohortID, "sutura", ""))
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))

		err = s.Delete(ctx, id.EntryID(uuid.New()))
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})
}
