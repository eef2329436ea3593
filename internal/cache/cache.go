package cache

import (
	"context"
	"time"
)

// Cache is a JSON value cache with per-key TTL. Implementations must treat
// corrupt entries as misses.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
