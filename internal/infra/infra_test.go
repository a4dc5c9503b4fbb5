package infra

import (
	"context"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache[[]float64](time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("empty cache should miss")
	}

	c.Set("dti", []float64{0.1, 0.2})
	vec, ok := c.Get("dti")
	if !ok {
		t.Fatal("expected a hit")
	}
	if len(vec) != 2 {
		t.Errorf("value: got %v", vec)
	}
	if c.Len() != 1 {
		t.Errorf("Len: got %d, want 1", c.Len())
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache[string](time.Minute)
	c.SetWithTTL("key", "value", -time.Second)

	if _, ok := c.Get("key"); ok {
		t.Error("expired entry should miss")
	}

	c.Cleanup()
	if c.Len() != 0 {
		t.Errorf("after Cleanup: Len=%d, want 0", c.Len())
	}
}

func TestCacheInvalidateAndFlush(t *testing.T) {
	c := NewCache[int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Error("invalidated key should miss")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("other keys should survive Invalidate")
	}

	c.Flush()
	if c.Len() != 0 {
		t.Errorf("after Flush: Len=%d, want 0", c.Len())
	}
}

func TestRateLimiterAllowsUpToBurst(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}

	// Fourth call has no tokens left; a cancelled context should unblock it.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := rl.Wait(cancelled); err == nil {
		t.Error("expected context error when bucket is empty")
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	ctx := context.Background()

	if err := rl.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("refill took too long: %v", elapsed)
	}
}
