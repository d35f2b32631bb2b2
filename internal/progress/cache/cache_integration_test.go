//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resimed/internal/platform/redis"
	"resimed/internal/progress/models"
	id "resimed/pkg/domain"
	"resimed/pkg/testutil/containers"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	rc := containers.NewRedisContainer(t)
	client, err := redis.New(rc.URL)
	require.NoError(t, err)
	return New(client, ttl)
}

func report(scholarID id.ScholarID, cohortID *id.CohortID) *models.Report {
	return &models.Report{
		ScholarID:     scholarID,
		CohortID:      cohortID,
		AcademicStats: models.ActivityStats{Total: 3, Approved: 2, TotalHours: 6, ApprovedHours: 4},
		Categories:    []models.CategoryGroup{},
	}
}

func TestCacheRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	c := newTestCache(t, time.Minute)
	scholarID := id.ScholarID(uuid.New())

	_, ok, err := c.Get(ctx, scholarID, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, report(scholarID, nil)))

	cached, ok, err := c.Get(ctx, scholarID, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, scholarID, cached.ScholarID)
	assert.Equal(t, 6.0, cached.AcademicStats.TotalHours)
	assert.NotNil(t, cached.Categories)
}

func TestCacheScopesAreIndependent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	c := newTestCache(t, time.Minute)
	scholarID := id.ScholarID(uuid.New())
	cohortID := id.CohortID(uuid.New())

	require.NoError(t, c.Put(ctx, report(scholarID, &cohortID)))

	_, ok, err := c.Get(ctx, scholarID, nil)
	require.NoError(t, err)
	assert.False(t, ok, "unscoped lookup must not see the cohort-scoped snapshot")

	cached, ok, err := c.Get(ctx, scholarID, &cohortID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, cached.CohortID)
	assert.Equal(t, cohortID, *cached.CohortID)
}

func TestInvalidateDropsEveryScope(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	c := newTestCache(t, time.Minute)
	scholarID := id.ScholarID(uuid.New())
	cohortID := id.CohortID(uuid.New())

	require.NoError(t, c.Put(ctx, report(scholarID, nil)))
	require.NoError(t, c.Put(ctx, report(scholarID, &cohortID)))

	require.NoError(t, c.Invalidate(ctx, scholarID))

	_, ok, err := c.Get(ctx, scholarID, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = c.Get(ctx, scholarID, &cohortID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTTLBackstop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	c := newTestCache(t, time.Second)
	scholarID := id.ScholarID(uuid.New())

	require.NoError(t, c.Put(ctx, report(scholarID, nil)))
	time.Sleep(1500 * time.Millisecond)

	_, ok, err := c.Get(ctx, scholarID, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
