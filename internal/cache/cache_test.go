package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string, int](time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", 1, time.Minute)

	got, ok := c.Get(ctx, "a")
	if !ok || got != 1 {
		t.Errorf("Get(a) = (%d, %v), want (1, true)", got, ok)
	}

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("Get(missing) = true, want false")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New[string, string](time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expired entry still readable")
	}
	// Lazy eviction on read removed it.
	if c.Len() != 0 {
		t.Errorf("Len = %d after expired read, want 0", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	c := New[string, int](time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", 1, time.Minute)
	c.Delete(ctx, "a")

	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("deleted entry still readable")
	}
}

func TestCache_JanitorSweeps(t *testing.T) {
	c := New[string, int](10 * time.Millisecond)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", 1, time.Millisecond)
	c.Set(ctx, "b", 2, time.Minute)

	deadline := time.After(2 * time.Second)
	for c.Len() > 1 {
		select {
		case <-deadline:
			t.Fatalf("janitor did not sweep, Len = %d", c.Len())
		case <-time.After(10 * time.Millisecond):
		}
	}

	if _, ok := c.Get(ctx, "b"); !ok {
		t.Error("live entry swept")
	}
}

func TestCache_CloseIdempotent(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Close()
	c.Close()
}
