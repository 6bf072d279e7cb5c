// README: Short-TTL Redis cache for match results. Best-effort: any Redis error
// reads as a miss and writes are fire-and-forget.
package match

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func cacheKey(suffix string) string {
	return "match:" + suffix
}

func (c *Cache) Get(ctx context.Context, key string) ([]Candidate, bool) {
	val, err := c.rdb.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		return nil, false
	}
	var out []Candidate
	if err := json.Unmarshal(val, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *Cache) Set(ctx context.Context, key string, val []Candidate) {
	buf, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, cacheKey(key), buf, c.ttl).Err()
}
