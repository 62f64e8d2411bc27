package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores search results keyed by query so duplicate market lookups
// within the TTL cost nothing.
type Cache interface {
	Get(ctx context.Context, query string) ([]Result, bool)
	Set(ctx context.Context, query string, results []Result)
}

func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return "search:" + hex.EncodeToString(sum[:8])
}

// RedisCache backs the search cache with Redis so cache hits survive process
// restarts and are shared across workers.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache creates a Redis-backed cache.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger.Named("search-cache")}
}

var _ Cache = (*RedisCache)(nil)

// Get returns cached results for the query, if present.
func (c *RedisCache) Get(ctx context.Context, query string) ([]Result, bool) {
	raw, err := c.client.Get(ctx, cacheKey(query)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache get failed", zap.Error(err))
		}
		return nil, false
	}

	var results []Result
	if err := json.Unmarshal(raw, &results); err != nil {
		c.logger.Warn("cache entry corrupt, ignoring", zap.Error(err))
		return nil, false
	}
	return results, true
}

// Set stores results for the query. Cache failures are logged, never fatal.
func (c *RedisCache) Set(ctx context.Context, query string, results []Result) {
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(query), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.Error(err))
	}
}

// MemoryCache is the in-process fallback used when Redis is not configured,
// and in tests.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

type memoryEntry struct {
	results []Result
	expires time.Time
}

// NewMemoryCache creates an in-process cache.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryCache{entries: make(map[string]memoryEntry), ttl: ttl}
}

var _ Cache = (*MemoryCache)(nil)

// Get returns cached results for the query, if present and unexpired.
func (c *MemoryCache) Get(_ context.Context, query string) ([]Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[cacheKey(query)]
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.results, true
}

// Set stores results for the query.
func (c *MemoryCache) Set(_ context.Context, query string, results []Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(query)] = memoryEntry{
		results: results,
		expires: time.Now().Add(c.ttl),
	}
}

// CachedClient wraps a Client with a Cache.
type CachedClient struct {
	inner Client
	cache Cache
}

// NewCachedClient wraps client so repeated queries hit the cache.
func NewCachedClient(client Client, cache Cache) *CachedClient {
	return &CachedClient{inner: client, cache: cache}
}

var _ Client = (*CachedClient)(nil)

// Search serves from the cache when possible, storing fresh results on miss.
func (c *CachedClient) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if results, ok := c.cache.Get(ctx, query); ok {
		return results, nil
	}

	results, err := c.inner.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, query, results)
	return results, nil
}
