package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// conversationPrefix namespaces the only key family the short-term tier
// holds today. New families get their own prefix here so invalidations stay
// greppable.
const conversationPrefix = "conv:"

// ConversationKey derives the cache key for one conversation.
func ConversationKey(conversationID string) string {
	return conversationPrefix + conversationID
}

// RedisCache backs the short-term tier with JSON blobs in Redis. It follows
// the Cache contract: nothing here is authoritative, so a corrupt entry is
// evicted and reported as a miss for the durable store to rebuild.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// GetJSON decodes one entry into dst. Absent keys and undecodable payloads
// both come back as misses, never as errors.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		// evict the corrupt entry so the next read rebuilds it
		_ = c.rdb.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

// SetJSON stores val under key for the given TTL. Conversation entries use
// the memory manager's fixed TTL; there are no unexpiring keys in this tier.
func (c *RedisCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// Del removes entries. Deleting a key that is already gone is not an error;
// invalidation is idempotent.
func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
