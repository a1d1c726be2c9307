package search

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "agentsearch:results:"

// Cache is an optional short-TTL redis cache of query -> results. All
// methods are nil-receiver safe and best-effort: a broken cache degrades to
// a live fetch, it never fails a search.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache wraps a redis client. A nil rdb disables caching.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Get returns cached results for the query, if present.
func (c *Cache) Get(ctx context.Context, query string) ([]Result, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, cacheKeyPrefix+query).Bytes()
	if err != nil {
		return nil, false
	}
	var results []Result
	if err := json.Unmarshal(raw, &results); err != nil {
		log.Printf("[SearchCache] Corrupt cache entry dropped: %v", err)
		return nil, false
	}
	return results, true
}

// Put stores results for the query. Empty result sets are not cached so a
// transient search outage does not pin an empty answer for the TTL.
func (c *Cache) Put(ctx context.Context, query string, results []Result) {
	if c == nil || len(results) == 0 {
		return
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKeyPrefix+query, raw, c.ttl).Err(); err != nil {
		log.Printf("[SearchCache] Cache write failed: %v", err)
	}
}
