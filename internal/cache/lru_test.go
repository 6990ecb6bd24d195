package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func TestLRUCacheExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int64, string](10, time.Minute).WithClock(clock.Now)

	c.Set(1, "a")
	if v, ok := c.Get(1); !ok || v != "a" {
		t.Fatalf("expected hit, got %q %v", v, ok)
	}

	clock.t = clock.t.Add(2 * time.Minute)
	if _, ok := c.Get(1); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry should be removed on read, size=%d", c.Size())
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int64, int](2, 0)
	c.Set(1, 1)
	c.Set(2, 2)
	c.Get(1)
	c.Set(3, 3)

	if _, ok := c.Get(2); ok {
		t.Fatalf("expected key 2 to be evicted")
	}
	if _, ok := c.Get(1); !ok {
		t.Fatalf("expected key 1 to survive")
	}
}

func TestLRUCacheDeleteReportsLiveness(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[int64, int](4, time.Minute).WithClock(clock.Now)
	c.Set(1, 1)
	if !c.Delete(1) {
		t.Fatalf("expected delete of live entry to report true")
	}
	if c.Delete(1) {
		t.Fatalf("expected second delete to report false")
	}

	c.Set(2, 2)
	clock.t = clock.t.Add(time.Hour)
	if c.Delete(2) {
		t.Fatalf("expected delete of expired entry to report false")
	}
}

func TestManagerSweep(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[int64, int](4, time.Minute).WithClock(clock.Now)
	c.Set(1, 1)
	c.Set(2, 2)

	m := NewManager()
	m.Register(c)
	clock.t = clock.t.Add(time.Hour)
	if n := m.Sweep(); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	m.Stop()
	m.Stop()
}
