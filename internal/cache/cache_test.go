package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/agent"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint("find melancholic songs", "gpt-4o-mini", 0.1)
	b := Fingerprint("find melancholic songs", "gpt-4o-mini", 0.1)
	if a != b {
		t.Errorf("same inputs hashed differently: %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Errorf("fingerprint length = %d, want 16", len(a))
	}

	if Fingerprint("find melancholic songs", "gpt-4o-mini", 0.2) == a {
		t.Error("different temperature should change the fingerprint")
	}
	if Fingerprint("find melancholic songs", "gpt-4o", 0.1) == a {
		t.Error("different model should change the fingerprint")
	}
	if Fingerprint("find energetic songs", "gpt-4o-mini", 0.1) == a {
		t.Error("different query should change the fingerprint")
	}
}

func newTestMemory(maxSize int) (*Memory, *time.Time) {
	c := NewMemory(maxSize, 5*time.Minute, zap.NewNop())
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }
	return c, &current
}

func exec(id string) *agent.Execution {
	return &agent.Execution{ExecutionID: id, Query: "q", Answer: "a"}
}

func TestMemoryGetSet(t *testing.T) {
	c, _ := newTestMemory(10)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "q1", "gpt-4o-mini", 0.1); ok {
		t.Fatal("empty cache reported a hit")
	}

	c.Set(ctx, "q1", "gpt-4o-mini", 0.1, exec("exec-1"))

	got, ok := c.Get(ctx, "q1", "gpt-4o-mini", 0.1)
	if !ok {
		t.Fatal("stored entry reported a miss")
	}
	if got.ExecutionID != "exec-1" {
		t.Errorf("ExecutionID = %q, want %q", got.ExecutionID, "exec-1")
	}

	// Same query at a different temperature is a different key.
	if _, ok := c.Get(ctx, "q1", "gpt-4o-mini", 0.5); ok {
		t.Error("different temperature reported a hit")
	}
}

func TestMemoryHitReturnsCopy(t *testing.T) {
	c, _ := newTestMemory(10)
	ctx := context.Background()

	c.Set(ctx, "q1", "gpt-4o-mini", 0.1, exec("exec-1"))

	first, _ := c.Get(ctx, "q1", "gpt-4o-mini", 0.1)
	first.ExecutionID = "mutated"
	first.FromCache = true

	second, _ := c.Get(ctx, "q1", "gpt-4o-mini", 0.1)
	if second.ExecutionID != "exec-1" {
		t.Errorf("stored entry mutated through a hit: ExecutionID = %q", second.ExecutionID)
	}
	if second.FromCache {
		t.Error("stored entry mutated through a hit: FromCache = true")
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	c, current := newTestMemory(10)
	ctx := context.Background()

	c.Set(ctx, "q1", "gpt-4o-mini", 0.1, exec("exec-1"))

	// Exactly at the TTL boundary the entry is still valid.
	*current = current.Add(5 * time.Minute)
	if _, ok := c.Get(ctx, "q1", "gpt-4o-mini", 0.1); !ok {
		t.Fatal("entry at TTL boundary reported a miss")
	}

	*current = current.Add(time.Second)
	if _, ok := c.Get(ctx, "q1", "gpt-4o-mini", 0.1); ok {
		t.Fatal("expired entry reported a hit")
	}
	if got := c.Stats(ctx).Size; got != 0 {
		t.Errorf("size after expiry = %d, want 0", got)
	}
}

func TestMemoryLRUEviction(t *testing.T) {
	c, _ := newTestMemory(2)
	ctx := context.Background()

	c.Set(ctx, "q1", "gpt-4o-mini", 0.1, exec("exec-1"))
	c.Set(ctx, "q2", "gpt-4o-mini", 0.1, exec("exec-2"))

	// Touch q1 so q2 becomes least recently used.
	c.Get(ctx, "q1", "gpt-4o-mini", 0.1)

	c.Set(ctx, "q3", "gpt-4o-mini", 0.1, exec("exec-3"))

	if _, ok := c.Get(ctx, "q2", "gpt-4o-mini", 0.1); ok {
		t.Error("least recently used entry should have been evicted")
	}
	if _, ok := c.Get(ctx, "q1", "gpt-4o-mini", 0.1); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, ok := c.Get(ctx, "q3", "gpt-4o-mini", 0.1); !ok {
		t.Error("newest entry was evicted")
	}
}

func TestMemoryClearResetsCounters(t *testing.T) {
	c, _ := newTestMemory(10)
	ctx := context.Background()

	c.Set(ctx, "q1", "gpt-4o-mini", 0.1, exec("exec-1"))
	c.Get(ctx, "q1", "gpt-4o-mini", 0.1)
	c.Get(ctx, "missing", "gpt-4o-mini", 0.1)

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	stats := c.Stats(ctx)
	if stats.Size != 0 || stats.Hits != 0 || stats.Misses != 0 || stats.TotalRequests != 0 {
		t.Errorf("stats after clear = %+v, want zeroed", stats)
	}
}

func TestMemoryStats(t *testing.T) {
	c, _ := newTestMemory(10)
	ctx := context.Background()

	c.Set(ctx, "q1", "gpt-4o-mini", 0.1, exec("exec-1"))
	c.Get(ctx, "q1", "gpt-4o-mini", 0.1)
	c.Get(ctx, "missing", "gpt-4o-mini", 0.1)
	c.Get(ctx, "also missing", "gpt-4o-mini", 0.1)

	stats := c.Stats(ctx)
	if stats.Size != 1 {
		t.Errorf("Size = %d, want 1", stats.Size)
	}
	if stats.MaxSize != 10 {
		t.Errorf("MaxSize = %d, want 10", stats.MaxSize)
	}
	if stats.Hits != 1 || stats.Misses != 2 || stats.TotalRequests != 3 {
		t.Errorf("counters = %d/%d/%d, want 1/2/3", stats.Hits, stats.Misses, stats.TotalRequests)
	}
	if stats.HitRatePercent != 33.33 {
		t.Errorf("HitRatePercent = %v, want 33.33", stats.HitRatePercent)
	}
	if stats.TTLSeconds != 300 {
		t.Errorf("TTLSeconds = %d, want 300", stats.TTLSeconds)
	}
}

func TestMemoryCleanupExpired(t *testing.T) {
	c, current := newTestMemory(10)
	ctx := context.Background()

	c.Set(ctx, "old", "gpt-4o-mini", 0.1, exec("exec-1"))
	*current = current.Add(4 * time.Minute)
	c.Set(ctx, "fresh", "gpt-4o-mini", 0.1, exec("exec-2"))
	*current = current.Add(2 * time.Minute)

	if got := c.CleanupExpired(ctx); got != 1 {
		t.Errorf("CleanupExpired = %d, want 1", got)
	}
	if _, ok := c.Get(ctx, "fresh", "gpt-4o-mini", 0.1); !ok {
		t.Error("unexpired entry was removed")
	}
}
