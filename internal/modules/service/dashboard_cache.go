package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DashboardCache keeps per-project dashboard summaries in redis. All methods
// are nil-receiver safe so services work without a cache in tests.
type DashboardCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDashboardCache(rdb *redis.Client, ttl time.Duration) *DashboardCache {
	return &DashboardCache{rdb: rdb, ttl: ttl}
}

func dashboardKey(projectID uuid.UUID) string {
	return fmt.Sprintf("dashboard:%s", projectID)
}

func (c *DashboardCache) Get(ctx context.Context, projectID uuid.UUID, dest any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, dashboardKey(projectID)).Bytes()
	if err != nil {
		return false
	}
	return sonic.Unmarshal(raw, dest) == nil
}

func (c *DashboardCache) Set(ctx context.Context, projectID uuid.UUID, v any) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := sonic.Marshal(v)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, dashboardKey(projectID), raw, c.ttl)
}

// Invalidate drops the cached summary after any workflow transition.
func (c *DashboardCache) Invalidate(ctx context.Context, projectID uuid.UUID) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, dashboardKey(projectID))
}
