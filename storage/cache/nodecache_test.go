package cache

import (
	"testing"
	"time"

	"github.com/Barre/compact-log/merkle"
)

func TestGetMiss(t *testing.T) {
	c := New(10, 0)
	if _, ok := c.Get(1); ok {
		t.Fatal("expected miss on empty cache")
	}
}

func TestPutThenGet(t *testing.T) {
	c := New(10, 0)
	c.Put(5, []byte{1, 2, 3})
	v, ok := c.Get(5)
	if !ok || string(v) != "\x01\x02\x03" {
		t.Fatalf("got (%v, %v)", v, ok)
	}
}

func TestCapacityEviction(t *testing.T) {
	c := New(2, 0)
	c.Put(1, []byte{1})
	c.Put(2, []byte{2})
	c.Put(3, []byte{3}) // evicts 1, the least recently used
	if _, ok := c.Get(1); ok {
		t.Fatal("index 1 should have been evicted")
	}
	if _, ok := c.Get(2); !ok {
		t.Fatal("index 2 should still be present")
	}
	if _, ok := c.Get(3); !ok {
		t.Fatal("index 3 should be present")
	}
}

func TestLRURecencyProtectsRecentlyUsed(t *testing.T) {
	c := New(2, 0)
	c.Put(1, []byte{1})
	c.Put(2, []byte{2})
	c.Get(1) // touch 1, making 2 the least recently used
	c.Put(3, []byte{3})
	if _, ok := c.Get(2); ok {
		t.Fatal("index 2 should have been evicted, not 1")
	}
	if _, ok := c.Get(1); !ok {
		t.Fatal("index 1 should still be present")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(10, time.Minute)
	fakeNow := time.Now()
	c.now = func() time.Time { return fakeNow }
	c.Put(merkle.InternalIndex(1), []byte{9})
	fakeNow = fakeNow.Add(2 * time.Minute)
	if _, ok := c.Get(1); ok {
		t.Fatal("entry should have expired")
	}
}
