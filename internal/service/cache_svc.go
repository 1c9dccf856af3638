package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rcleozier/creator-log/internal/cache"
	"github.com/rcleozier/creator-log/internal/logging"
	"github.com/rcleozier/creator-log/internal/metrics"
)

const (
	// memCapacity bounds the in-process tier. Grades dominate its keys.
	memCapacity = 512
	keyPrefix   = "creatorlog:"
)

// Cache keys.
const (
	CasesKey        = "cases:v1"
	TerminationsKey = "terminations:v1"
)

func gradeKey(coinID string) string {
	return "grade:v1:" + strings.ToLower(coinID)
}

func marketsKey(page, perPage int) string {
	return fmt.Sprintf("markets:v1:%d:%d", page, perPage)
}

// CacheService is a two-tier cache-aside layer: an in-process TTL LRU in
// front of an optional Redis. Without Redis it still caches in memory.
// Values are stored as JSON so both tiers hold the same bytes.
type CacheService struct {
	rdb *redis.Client
	mem *cache.LRU[string, []byte]
	log zerolog.Logger
}

// NewCacheService connects to Redis when redisURL is set. A bad URL or an
// unreachable server leaves the Redis tier disabled.
func NewCacheService(redisURL string) *CacheService {
	c := NewMemoryCache()
	if redisURL == "" {
		c.log.Info().Msg("redis: no URL configured, using in-process cache only")
		return c
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		c.log.Warn().Err(err).Msg("redis: invalid URL, using in-process cache only")
		return c
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		c.log.Warn().Err(err).Msg("redis: connection failed, using in-process cache only")
		_ = rdb.Close()
		return c
	}

	c.log.Info().Str("addr", opts.Addr).Msg("redis: connected")
	c.rdb = rdb
	return c
}

// NewMemoryCache returns a cache with no Redis tier.
func NewMemoryCache() *CacheService {
	return &CacheService{
		mem: cache.NewLRU[string, []byte](memCapacity, time.Minute),
		log: logging.Component("cache"),
	}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetJSON decodes the cached value for key into out and reports whether
// there was one. Redis errors count as misses.
func (c *CacheService) GetJSON(ctx context.Context, key string, out any) bool {
	if data, ok := c.mem.Get(key); ok {
		if json.Unmarshal(data, out) == nil {
			metrics.CacheHits.WithLabelValues("memory").Inc()
			return true
		}
		c.mem.Delete(key)
	}
	metrics.CacheMisses.WithLabelValues("memory").Inc()

	if c.rdb == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("key", key).Msg("redis get failed")
		}
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("redis value undecodable")
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues("redis").Inc()
	return true
}

// SetJSON stores v under key in both tiers for ttl.
func (c *CacheService) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache value %s: %w", key, err)
	}
	c.mem.PutTTL(key, data, ttl)

	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key from both tiers.
func (c *CacheService) Delete(ctx context.Context, key string) error {
	c.mem.Delete(key)
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, keyPrefix+key).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
