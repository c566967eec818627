package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/agent"
)

const redisKeyPrefix = "echoes:cache:"

// Redis is a cache backed by a Redis instance. Expiry is delegated to Redis
// key TTLs; hit counters are per-process.
type Redis struct {
	rdb     *redis.Client
	ttl     time.Duration
	maxSize int
	logger  *zap.Logger

	mu     sync.Mutex
	hits   int64
	misses int64
}

// NewRedis connects to Redis and verifies it with a ping.
func NewRedis(redisURL string, maxSize int, ttl time.Duration, logger *zap.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("redis query cache initialized", zap.Duration("ttl", ttl))
	return &Redis{rdb: rdb, ttl: ttl, maxSize: maxSize, logger: logger}, nil
}

// Get returns the cached execution for the query, if present. Backend
// errors are logged and counted as misses.
func (c *Redis) Get(ctx context.Context, query, model string, temperature float64) (*agent.Execution, bool) {
	key := redisKeyPrefix + Fingerprint(query, model, temperature)

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		c.miss()
		return nil, false
	}

	var exec agent.Execution
	if err := json.Unmarshal(data, &exec); err != nil {
		c.logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		c.miss()
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	rate := hitRate(c.hits, c.misses)
	c.mu.Unlock()

	c.logger.Info("cache hit",
		zap.String("key", key),
		zap.Float64("hit_rate", rate))
	return &exec, true
}

// Set stores an execution with the cache TTL. Errors are logged and the
// entry is simply not cached.
func (c *Redis) Set(ctx context.Context, query, model string, temperature float64, exec *agent.Execution) {
	key := redisKeyPrefix + Fingerprint(query, model, temperature)

	data, err := json.Marshal(exec)
	if err != nil {
		c.logger.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return
	}
	c.logger.Debug("cache set", zap.String("key", key))
}

// Clear deletes every cache key and resets the hit counters.
func (c *Redis) Clear(ctx context.Context) error {
	keys, err := c.rdb.Keys(ctx, redisKeyPrefix+"*").Result()
	if err != nil {
		return fmt.Errorf("list cache keys: %w", err)
	}
	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("delete cache keys: %w", err)
		}
	}

	c.mu.Lock()
	c.hits = 0
	c.misses = 0
	c.mu.Unlock()

	c.logger.Info("query cache cleared", zap.Int("removed", len(keys)))
	return nil
}

// Stats reports size and hit rate. Size requires a key scan; a scan failure
// reports zero size.
func (c *Redis) Stats(ctx context.Context) Stats {
	var size int
	if keys, err := c.rdb.Keys(ctx, redisKeyPrefix+"*").Result(); err == nil {
		size = len(keys)
	} else {
		c.logger.Warn("cache stats scan failed", zap.Error(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:           size,
		MaxSize:        c.maxSize,
		Hits:           c.hits,
		Misses:         c.misses,
		TotalRequests:  c.hits + c.misses,
		HitRatePercent: hitRate(c.hits, c.misses),
		TTLSeconds:     int(c.ttl.Seconds()),
	}
}

// CleanupExpired is a no-op: Redis expires keys natively.
func (c *Redis) CleanupExpired(context.Context) int { return 0 }

func (c *Redis) miss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}
