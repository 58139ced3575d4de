package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}
	c.Set("c", 3) // evicts b, a was used more recently

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if !c.Contains("a") || !c.Contains("c") {
		t.Error("a and c should remain")
	}
	if c.Size() != 2 {
		t.Errorf("Size = %d, want 2", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	clk := &clock{t: time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute).WithClock(clk.now)

	c.Set("msg-1", "ref")
	clk.advance(30 * time.Second)
	c.Set("msg-2", "ref")

	if !c.Contains("msg-1") {
		t.Fatal("msg-1 should still be fresh")
	}

	clk.advance(45 * time.Second)
	if c.Contains("msg-1") {
		t.Error("msg-1 should have expired")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Errorf("CleanExpired = %d, want 1", removed)
	}
	if _, ok := c.Get("msg-2"); !ok {
		t.Error("msg-2 should remain")
	}
}

func TestLRUCacheDeleteAndOverwrite(t *testing.T) {
	c := NewLRUCache[int](0, time.Hour) // clamped to 1
	c.Set("a", 1)
	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) = %d, want 2", v)
	}
	c.Delete("a")
	c.Delete("missing")
	if c.Size() != 0 {
		t.Errorf("Size = %d, want 0", c.Size())
	}
}

type countingCleaner struct{ calls atomic.Int32 }

func (c *countingCleaner) CleanExpired() int {
	c.calls.Add(1)
	return 2
}

func TestSweepStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cl := &countingCleaner{}
	swept := make(chan int, 16)

	done := make(chan struct{})
	go func() {
		Sweep(ctx, time.Millisecond, func(n int) {
			select {
			case swept <- n:
			default:
			}
		}, cl)
		close(done)
	}()

	select {
	case n := <-swept:
		if n != 2 {
			t.Errorf("removed = %d, want 2", n)
		}
	case <-time.After(time.Second):
		t.Fatal("no sweep within a second")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Sweep did not return after cancel")
	}
	if cl.calls.Load() == 0 {
		t.Error("cleaner never called")
	}
}
