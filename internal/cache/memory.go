package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/agent"
)

const (
	// DefaultMaxSize bounds the in-process cache entry count.
	DefaultMaxSize = 100
	// DefaultTTL is how long a cached execution stays valid.
	DefaultTTL = 5 * time.Minute
)

type memoryEntry struct {
	key  string
	exec *agent.Execution
	at   time.Time
}

// Memory is an LRU cache with per-entry TTL. The least recently used entry
// is evicted when the cache is full; expired entries are dropped on access.
type Memory struct {
	maxSize int
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	order  *list.List // front = most recently used
	items  map[string]*list.Element
	hits   int64
	misses int64
}

// NewMemory creates an in-process cache. Zero maxSize or ttl fall back to
// the defaults.
func NewMemory(maxSize int, ttl time.Duration, logger *zap.Logger) *Memory {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("query cache initialized",
		zap.Int("max_size", maxSize),
		zap.Duration("ttl", ttl))

	return &Memory{
		maxSize: maxSize,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		order:   list.New(),
		items:   make(map[string]*list.Element),
	}
}

// Get returns the cached execution for the query, if present and unexpired.
func (c *Memory) Get(_ context.Context, query, model string, temperature float64) (*agent.Execution, bool) {
	key := Fingerprint(query, model, temperature)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}

	en := el.Value.(*memoryEntry)
	if c.now().Sub(en.at) > c.ttl {
		c.order.Remove(el)
		delete(c.items, key)
		c.misses++
		c.logger.Debug("cache entry expired", zap.String("key", key))
		return nil, false
	}

	c.order.MoveToFront(el)
	c.hits++
	c.logger.Info("cache hit",
		zap.String("key", key),
		zap.Float64("hit_rate", hitRate(c.hits, c.misses)))

	// The caller stamps a fresh id and timestamp on a hit; hand out a copy
	// so the stored entry stays intact.
	cp := *en.exec
	return &cp, true
}

// Set stores an execution, evicting the least recently used entry when full.
func (c *Memory) Set(_ context.Context, query, model string, temperature float64, exec *agent.Execution) {
	key := Fingerprint(query, model, temperature)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		en := el.Value.(*memoryEntry)
		en.exec = exec
		en.at = c.now()
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			en := oldest.Value.(*memoryEntry)
			c.order.Remove(oldest)
			delete(c.items, en.key)
			c.logger.Debug("cache evicted (lru)", zap.String("key", en.key))
		}
	}

	el := c.order.PushFront(&memoryEntry{key: key, exec: exec, at: c.now()})
	c.items[key] = el

	c.logger.Debug("cache set",
		zap.String("key", key),
		zap.Int("size", c.order.Len()),
		zap.Int("max_size", c.maxSize))
}

// Clear drops all entries and resets the hit counters.
func (c *Memory) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)
	c.hits = 0
	c.misses = 0
	c.logger.Info("query cache cleared")
	return nil
}

// Stats reports size and hit rate.
func (c *Memory) Stats(_ context.Context) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Size:           c.order.Len(),
		MaxSize:        c.maxSize,
		Hits:           c.hits,
		Misses:         c.misses,
		TotalRequests:  c.hits + c.misses,
		HitRatePercent: hitRate(c.hits, c.misses),
		TTLSeconds:     int(c.ttl.Seconds()),
	}
}

// CleanupExpired removes entries past their TTL and returns how many were
// dropped.
func (c *Memory) CleanupExpired(_ context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var removed int
	for key, el := range c.items {
		en := el.Value.(*memoryEntry)
		if now.Sub(en.at) > c.ttl {
			c.order.Remove(el)
			delete(c.items, key)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Info("cleaned up expired cache entries", zap.Int("removed", removed))
	}
	return removed
}
