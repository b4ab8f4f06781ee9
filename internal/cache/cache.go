package cache

import (
	"context"
	"time"
)

// Cache is the short-term tier. It is never authoritative: every value here
// is recomputable from the durable stores, so corrupt or missing entries are
// treated as misses, not errors.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
