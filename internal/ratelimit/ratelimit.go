// Package ratelimit applies a per-client token bucket to the REST API.
// Each client IP gets a bucket sized to the per-minute budget that refills
// continuously; health probes are exempt.
package ratelimit

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the bucket map. Crossing it wipes every bucket,
// which briefly refills all clients but keeps memory flat under address
// churn.
const maxTrackedClients = 10000

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter float64 // seconds until a token is available, when denied
}

// Limiter tracks one token bucket per client.
type Limiter struct {
	perMinute int
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// New creates a limiter with the given per-minute request budget.
func New(perMinute int, logger *zap.Logger) *Limiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("rate limiter initialized", zap.Int("requests_per_minute", perMinute))
	return &Limiter{
		perMinute: perMinute,
		logger:    logger,
		now:       time.Now,
		buckets:   make(map[string]*rate.Limiter),
	}
}

// Check consumes one token for the client and reports whether the request
// may proceed.
func (l *Limiter) Check(clientID string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.buckets) > maxTrackedClients {
		l.logger.Warn("too many rate limit buckets, resetting",
			zap.Int("count", len(l.buckets)))
		l.buckets = make(map[string]*rate.Limiter)
	}

	lim, ok := l.buckets[clientID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(l.perMinute)/60.0), l.perMinute)
		l.buckets[clientID] = lim
	}

	now := l.now()
	if !lim.AllowN(now, 1) {
		wait := (1 - lim.TokensAt(now)) / (float64(l.perMinute) / 60.0)
		if wait < 0 {
			wait = 0
		}
		l.logger.Warn("rate limit exceeded",
			zap.String("client", clientID),
			zap.Float64("wait_seconds", wait))
		return Decision{Allowed: false, RetryAfter: wait}
	}

	return Decision{Allowed: true, Remaining: int(lim.TokensAt(now))}
}

// Middleware enforces the limit per client IP. Denied requests get a 429
// with a Retry-After header; allowed ones carry the X-RateLimit headers.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		d := l.Check(ClientIP(r))
		if !d.Allowed {
			retryAfter := int(d.RetryAfter) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":       "Rate limit exceeded",
				"message":     fmt.Sprintf("Too many requests. Please wait %.1f seconds.", d.RetryAfter),
				"retry_after": retryAfter,
			})
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.perMinute))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the caller's address, preferring the first
// X-Forwarded-For hop when the service sits behind a proxy.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
