package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resimed/internal/audit"
	"resimed/internal/authz/models"
	"resimed/internal/authz/store"
	"resimed/internal/platform/logger"
	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
)

type fakeAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (f *fakeAuditor) Emit(_ context.Context, event audit.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func admin() models.Actor {
	return models.Actor{UserID: id.UserID(uuid.New()), Role: models.RoleAdmin}
}

func TestGrantChanges(t *testing.T) {
	ctx := context.Background()
	userID := id.UserID(uuid.New())
	specialtyID := id.SpecialtyID(uuid.New())
	cohortID := id.CohortID(uuid.New())

	t.Run("admin grants and revokes a jefe", func(t *testing.T) {
		grants := store.NewInMemory()
		auditor := &fakeAuditor{}
		svc := New(grants, auditor, logger.New())

		require.NoError(t, svc.GrantJefe(ctx, admin(), userID, specialtyID))
		specialties, err := grants.JefeSpecialties(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, []id.SpecialtyID{specialtyID}, specialties)

		require.NoError(t, svc.RevokeJefe(ctx, admin(), userID, specialtyID))
		specialties, err = grants.JefeSpecialties(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, specialties)

		require.Len(t, auditor.events, 2)
		assert.Equal(t, audit.KindGrantChanged, auditor.events[0].Kind)
		assert.Equal(t, "jefe_granted", auditor.events[0].Detail["change"])
		assert.Equal(t, "jefe_revoked", auditor.events[1].Detail["change"])
	})

	t.Run("revoking a missing doctor grant is a no-op success", func(t *testing.T) {
		svc := New(store.NewInMemory(), &fakeAuditor{}, logger.New())
		assert.NoError(t, svc.RevokeDoctor(ctx, admin(), userID, specialtyID, cohortID))
	})

	t.Run("doctor grant audit records the full scope", func(t *testing.T) {
		auditor := &fakeAuditor{}
		svc := New(store.NewInMemory(), auditor, logger.New())

		require.NoError(t, svc.GrantDoctor(ctx, admin(), userID, specialtyID, cohortID))
		require.Len(t, auditor.events, 1)
		assert.Equal(t, specialtyID.String()+"/"+cohortID.String(), auditor.events[0].Detail["scope"])
		assert.Equal(t, userID.String(), auditor.events[0].Detail["subject"])
	})

	t.Run("non-admins may not change grants", func(t *testing.T) {
		grants := store.NewInMemory()
		auditor := &fakeAuditor{}
		svc := New(grants, auditor, logger.New())

		// Read-only admins share visibility, not mutation rights.
		for _, role := range []models.Role{models.RoleAdminReadOnly, models.RoleJefe, models.RoleDoctor, models.RoleScholar} {
			actor := models.Actor{UserID: id.UserID(uuid.New()), Role: role}
			assert.True(t, dErrors.HasCode(svc.GrantJefe(ctx, actor, userID, specialtyID), dErrors.CodeForbidden), role)
			assert.True(t, dErrors.HasCode(svc.GrantDoctor(ctx, actor, userID, specialtyID, cohortID), dErrors.CodeForbidden), role)
			assert.True(t, dErrors.HasCode(svc.RevokeJefe(ctx, actor, userID, specialtyID), dErrors.CodeForbidden), role)
			assert.True(t, dErrors.HasCode(svc.RevokeDoctor(ctx, actor, userID, specialtyID, cohortID), dErrors.CodeForbidden), role)
		}

		specialties, err := grants.JefeSpecialties(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, specialties)
		assert.Empty(t, auditor.events)
	})
}
