package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores role permission lookups in Redis. A nil *Cache is a
// no-op so callers never need to branch on whether caching is enabled.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache with the given TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(roleID int64) string {
	return fmt.Sprintf("shield:role:%d:permissions", roleID)
}

// RolePermissions returns the cached permission names for a role.
func (c *Cache) RolePermissions(ctx context.Context, roleID int64) ([]string, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey(roleID)).Bytes()
	if err != nil {
		return nil, false
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, false
	}
	return names, true
}

// StoreRolePermissions caches permission names for a role. Failures are
// ignored; the database remains authoritative.
func (c *Cache) StoreRolePermissions(ctx context.Context, roleID int64, names []string) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(names)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, cacheKey(roleID), raw, c.ttl).Err()
}

// Invalidate drops the cached entry for a role.
func (c *Cache) Invalidate(ctx context.Context, roleID int64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, cacheKey(roleID)).Err()
}
