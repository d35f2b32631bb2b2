// Package cache holds computed progress reports in Redis.
//
// Reports for one scholar live in a single hash keyed by scholar ID, with
// one field per query scope. Invalidation after a verification deletes the
// whole hash, so a stale snapshot is never served across a status change.
// The TTL is only a backstop against missed invalidations.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"resimed/internal/platform/redis"
	"resimed/internal/progress/models"
	id "resimed/pkg/domain"
)

const scopeAll = "all"

// Cache is a per-scholar snapshot store. A nil *Cache is valid and behaves
// as a permanent miss, so callers need no branching when Redis is absent.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, ttl: ttl}
}

func key(scholarID id.ScholarID) string {
	return "resimed:progress:" + scholarID.String()
}

func scope(cohortID *id.CohortID) string {
	if cohortID == nil {
		return scopeAll
	}
	return cohortID.String()
}

// Get returns the cached report for the scope, or (nil, false) on a miss.
func (c *Cache) Get(ctx context.Context, scholarID id.ScholarID, cohortID *id.CohortID) (*models.Report, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	raw, err := c.client.HGet(ctx, key(scholarID), scope(cohortID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cached progress: %w", err)
	}
	report := &models.Report{}
	if err := json.Unmarshal([]byte(raw), report); err != nil {
		return nil, false, fmt.Errorf("decode cached progress: %w", err)
	}
	return report, true, nil
}

// Put stores a computed report and refreshes the hash TTL.
func (c *Cache) Put(ctx context.Context, report *models.Report) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode progress report: %w", err)
	}
	k := key(report.ScholarID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, k, scope(report.CohortID), raw)
	pipe.Expire(ctx, k, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store progress report: %w", err)
	}
	return nil
}

// Invalidate drops every cached snapshot for the scholar.
func (c *Cache) Invalidate(ctx context.Context, scholarID id.ScholarID) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, key(scholarID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached progress: %w", err)
	}
	return nil
}
