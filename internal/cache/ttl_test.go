package cache

import (
	"testing"
	"time"
)

func TestTTLGetSet(t *testing.T) {
	c := NewTTL[string, int](time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	c.Set("a", 1)
	c.Set("b", 2)

	if got, ok := c.Get("a"); !ok || got != 1 {
		t.Fatalf("get a = %d, %v", got, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d", c.Len())
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := NewTTL[string, string](30 * time.Second)

	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	if got, ok := c.Get("k"); !ok || got != "v" {
		t.Fatalf("get before expiry = %q, %v", got, ok)
	}

	now = now.Add(29 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected hit just inside the ttl")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss after expiry")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry not dropped on read")
	}
}

func TestTTLSetResetsExpiry(t *testing.T) {
	c := NewTTL[string, int](10 * time.Second)

	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }

	c.Set("k", 1)
	now = now.Add(8 * time.Second)
	c.Set("k", 2)
	now = now.Add(8 * time.Second)

	if got, ok := c.Get("k"); !ok || got != 2 {
		t.Fatalf("get after reset = %d, %v", got, ok)
	}
}

func TestTTLPurge(t *testing.T) {
	c := NewTTL[int, int](time.Second)

	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }

	c.Set(1, 1)
	c.Set(2, 2)
	now = now.Add(2 * time.Second)
	c.Set(3, 3)

	if removed := c.Purge(); removed != 2 {
		t.Fatalf("purge removed %d, want 2", removed)
	}
	if c.Len() != 1 {
		t.Fatalf("len after purge = %d", c.Len())
	}
}

func TestTTLNeverExpires(t *testing.T) {
	c := NewTTL[string, int](0)

	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }

	c.Set("k", 1)
	now = now.Add(24 * time.Hour)

	if _, ok := c.Get("k"); !ok {
		t.Fatalf("zero ttl entry should never expire")
	}
	if removed := c.Purge(); removed != 0 {
		t.Fatalf("purge removed %d, want 0", removed)
	}
}
