package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authzmodels "resimed/internal/authz/models"
	cohortmodels "resimed/internal/cohort/models"
	"resimed/internal/platform/logger"
	"resimed/internal/scholar/store"
	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
	"resimed/pkg/platform/sentinel"
	"resimed/pkg/requestcontext"
)

type fakeCohorts struct {
	cohorts map[id.CohortID]*cohortmodels.Cohort
}

func (f *fakeCohorts) FindCohort(_ context.Context, cohortID id.CohortID) (*cohortmodels.Cohort, error) {
	if cohort, ok := f.cohorts[cohortID]; ok {
		return cohort, nil
	}
	return nil, sentinel.ErrNotFound
}

type fakeAuthz struct {
	administer bool
	visible    map[id.ScholarID]struct{}
}

func (f *fakeAuthz) CanAdministerSpecialty(context.Context, authzmodels.Actor, id.SpecialtyID) (bool, error) {
	return f.administer, nil
}

func (f *fakeAuthz) VisibleScholars(context.Context, authzmodels.Actor, *id.SpecialtyID) (map[id.ScholarID]struct{}, error) {
	return f.visible, nil
}

type fixture struct {
	service     *Service
	store       *store.InMemory
	authz       *fakeAuthz
	cohortID    id.CohortID
	specialtyID id.SpecialtyID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	specialtyID := id.SpecialtyID(uuid.New())
	cohortID := id.CohortID(uuid.New())
	cohorts := &fakeCohorts{cohorts: map[id.CohortID]*cohortmodels.Cohort{
		cohortID: {ID: cohortID, SpecialtyID: specialtyID, Year: 2024},
	}}

	memStore := store.NewInMemory()
	authz := &fakeAuthz{administer: true, visible: map[id.ScholarID]struct{}{}}
	return &fixture{
		service:     New(memStore, cohorts, authz, logger.New()),
		store:       memStore,
		authz:       authz,
		cohortID:    cohortID,
		specialtyID: specialtyID,
	}
}

func adminActor() authzmodels.Actor {
	return authzmodels.Actor{UserID: id.UserID(uuid.New()), Role: authzmodels.RoleAdmin}
}

func TestRegister(t *testing.T) {
	t.Run("creates a profile with the request time", func(t *testing.T) {
		f := newFixture(t)
		now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), now)

		scholar, err := f.service.Register(ctx, adminActor(), id.UserID(uuid.New()), "  Ana Riquelme  ")
		require.NoError(t, err)
		assert.Equal(t, "Ana Riquelme", scholar.FullName)
		assert.Equal(t, now, scholar.CreatedAt)
	})

	t.Run("blank name is rejected before any write", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Register(context.Background(), adminActor(), id.UserID(uuid.New()), "   ")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("only administrators register scholars", func(t *testing.T) {
		f := newFixture(t)
		jefe := authzmodels.Actor{UserID: id.UserID(uuid.New()), Role: authzmodels.RoleJefe}
		_, err := f.service.Register(context.Background(), jefe, id.UserID(uuid.New()), "Ana Riquelme")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func TestEnroll(t *testing.T) {
	register := func(t *testing.T, f *fixture) id.ScholarID {
		t.Helper()
		scholar, err := f.service.Register(context.Background(), adminActor(), id.UserID(uuid.New()), "Ana Riquelme")
		require.NoError(t, err)
		return scholar.ID
	}

	t.Run("enrollment snapshots the cohort's specialty", func(t *testing.T) {
		f := newFixture(t)
		scholarID := register(t, f)

		membership, err := f.service.Enroll(context.Background(), adminActor(), scholarID, f.cohortID)
		require.NoError(t, err)
		assert.Equal(t, f.specialtyID, membership.SpecialtyID)

		history, err := f.store.Memberships(context.Background(), scholarID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, f.cohortID, history[0].CohortID)
	})

	t.Run("reassignment appends instead of rewriting history", func(t *testing.T) {
		f := newFixture(t)
		scholarID := register(t, f)
		second := id.CohortID(uuid.New())
		f.service.cohorts.(*fakeCohorts).cohorts[second] = &cohortmodels.Cohort{
			ID: second, SpecialtyID: f.specialtyID, Year: 2025,
		}

		first := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		_, err := f.service.Enroll(requestcontext.WithTime(context.Background(), first), adminActor(), scholarID, f.cohortID)
		require.NoError(t, err)
		_, err = f.service.Enroll(requestcontext.WithTime(context.Background(), first.AddDate(1, 0, 0)), adminActor(), scholarID, second)
		require.NoError(t, err)

		history, err := f.store.Memberships(context.Background(), scholarID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, f.cohortID, history[0].CohortID)
		assert.Equal(t, second, history[1].CohortID)
	})

	t.Run("unknown cohort is not found", func(t *testing.T) {
		f := newFixture(t)
		scholarID := register(t, f)
		_, err := f.service.Enroll(context.Background(), adminActor(), scholarID, id.CohortID(uuid.New()))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("actor outside the specialty may not enroll", func(t *testing.T) {
		f := newFixture(t)
		scholarID := register(t, f)
		f.authz.administer = false

		_, err := f.service.Enroll(context.Background(), adminActor(), scholarID, f.cohortID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

		history, err := f.store.Memberships(context.Background(), scholarID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}

func TestVisibility(t *testing.T) {
	f := newFixture(t)
	scholar, err := f.service.Register(context.Background(), adminActor(), id.UserID(uuid.New()), "Ana Riquelme")
	require.NoError(t, err)

	doctor := authzmodels.Actor{UserID: id.UserID(uuid.New()), Role: authzmodels.RoleDoctor}

	_, err = f.service.Get(context.Background(), doctor, scholar.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	_, err = f.service.History(context.Background(), doctor, scholar.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	f.authz.visible = map[id.ScholarID]struct{}{scholar.ID: {}}
	got, err := f.service.Get(context.Background(), doctor, scholar.ID)
	require.NoError(t, err)
	assert.Equal(t, scholar.FullName, got.FullName)
}

func TestAdminVisibility(t *testing.T) {
	t.Run("admin reads an unenrolled scholar without a scope lookup", func(t *testing.T) {
		f := newFixture(t)
		scholar, err := f.service.Register(context.Background(), adminActor(), id.UserID(uuid.New()), "Ana Riquelme")
		require.NoError(t, err)

		// The fake scope is empty; admin visibility must not depend on it.
		got, err := f.service.Get(context.Background(), adminActor(), scholar.ID)
		require.NoError(t, err)
		assert.Equal(t, scholar.ID, got.ID)

		history, err := f.service.History(context.Background(), adminActor(), scholar.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("unknown scholar is not found, not forbidden", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Get(context.Background(), adminActor(), id.ScholarID(uuid.New()))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
