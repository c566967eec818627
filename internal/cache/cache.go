// Package cache provides the query result cache: repeated queries within the
// TTL window are answered from a stored execution instead of a model round
// trip. Two backends exist, an in-process LRU and Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"

	"github.com/nidhogg/echoes/internal/agent"
)

// Cache stores executions keyed by the query fingerprint. Backends never
// fail a lookup: a backend error counts as a miss so the request proceeds
// to a live run.
type Cache interface {
	Get(ctx context.Context, query, model string, temperature float64) (*agent.Execution, bool)
	Set(ctx context.Context, query, model string, temperature float64, exec *agent.Execution)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) Stats
	CleanupExpired(ctx context.Context) int
}

// Stats reports cache effectiveness.
type Stats struct {
	Size           int     `json:"size"`
	MaxSize        int     `json:"max_size"`
	Hits           int64   `json:"hits"`
	Misses         int64   `json:"misses"`
	TotalRequests  int64   `json:"total_requests"`
	HitRatePercent float64 `json:"hit_rate_percent"`
	TTLSeconds     int     `json:"ttl_seconds"`
}

// Fingerprint derives the cache key for a query. The same query, model and
// temperature always hash to the same 16-hex-character key.
func Fingerprint(query, model string, temperature float64) string {
	s := fmt.Sprintf("%s|%s|%s", query, model, strconv.FormatFloat(temperature, 'g', -1, 64))
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return math.Round(float64(hits)/float64(total)*100*100) / 100
}
