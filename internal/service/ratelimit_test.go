package service

import (
	"testing"
	"time"
)

type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time          { return c.t }
func (c *stepClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBucket(t *testing.T, rate, capacity float64) (*TokenBucket, *stepClock) {
	t.Helper()
	clock := &stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	tb := NewTokenBucket(rate, capacity)
	tb.now = clock.now
	t.Cleanup(tb.Stop)
	return tb, clock
}

func TestTokenBucket_AllowsUpToCapacity(t *testing.T) {
	tb, _ := newTestBucket(t, 1, 3)

	for i := 0; i < 3; i++ {
		if !tb.Allow("test-key") {
			t.Fatalf("request %d should be allowed (bucket not yet empty)", i+1)
		}
	}
	if tb.Allow("test-key") {
		t.Fatal("4th request should be denied (bucket empty)")
	}
}

func TestTokenBucket_DifferentKeysAreIndependent(t *testing.T) {
	tb, _ := newTestBucket(t, 1, 1)

	if !tb.Allow("alice") {
		t.Fatal("alice first request should be allowed")
	}
	if tb.Allow("alice") {
		t.Fatal("alice second request should be denied")
	}
	if !tb.Allow("bob") {
		t.Fatal("bob first request should be allowed (independent bucket)")
	}
}

func TestTokenBucket_Refills(t *testing.T) {
	tb, clock := newTestBucket(t, 1, 2)

	tb.Allow("k")
	tb.Allow("k")
	if tb.Allow("k") {
		t.Fatal("bucket should be empty")
	}

	clock.advance(1500 * time.Millisecond)
	if !tb.Allow("k") {
		t.Fatal("one token should have refilled")
	}
	if tb.Allow("k") {
		t.Fatal("only one token should have refilled")
	}

	clock.advance(time.Hour)
	for i := 0; i < 2; i++ {
		if !tb.Allow("k") {
			t.Fatalf("request %d after long idle should be allowed", i+1)
		}
	}
	if tb.Allow("k") {
		t.Fatal("refill must be capped at capacity")
	}
}

func TestTokenBucket_ZeroRateNeverRefills(t *testing.T) {
	tb, clock := newTestBucket(t, 0, 2)

	tb.Allow("k")
	tb.Allow("k")
	clock.advance(24 * time.Hour)
	if tb.Allow("k") {
		t.Fatal("third request should be denied (no refill)")
	}
}

func TestTokenBucket_Reset(t *testing.T) {
	tb, _ := newTestBucket(t, 0, 1)

	tb.Allow("k")
	if tb.Allow("k") {
		t.Fatal("bucket should be empty")
	}
	tb.Reset("k")
	if !tb.Allow("k") {
		t.Fatal("reset bucket should start full")
	}
}

func TestTokenBucket_EvictIdle(t *testing.T) {
	tb, clock := newTestBucket(t, 1, 1)

	tb.Allow("old")
	clock.advance(11 * time.Minute)
	tb.Allow("fresh")

	if n := tb.evictIdle(10 * time.Minute); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, ok := tb.buckets["fresh"]; !ok {
		t.Fatal("fresh bucket should survive")
	}
}

func TestTokenBucket_StopIsIdempotent(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	tb.Stop()
	tb.Stop()
}

func TestNewLoginLimiter(t *testing.T) {
	tb := NewLoginLimiter(10, time.Minute)
	defer tb.Stop()

	if tb.capacity != 10 {
		t.Fatalf("capacity = %v, want 10", tb.capacity)
	}
	if got := tb.rate * 60; got < 9.999 || got > 10.001 {
		t.Fatalf("rate = %v per minute, want 10", got)
	}
}
