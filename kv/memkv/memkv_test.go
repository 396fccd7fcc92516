package memkv

import (
	"context"
	"testing"

	"github.com/Barre/compact-log/kv"
)

func TestGetMissing(t *testing.T) {
	s := New()
	_, ok, err := s.Get(context.Background(), []byte("nope"))
	if err != nil || ok {
		t.Fatalf("expected (false, nil), got (%v, %v)", ok, err)
	}
}

func TestWriteThenGet(t *testing.T) {
	s := New()
	var b kv.Batch
	b.Put([]byte("a"), []byte("1")).Put([]byte("b"), []byte("2"))
	if err := s.Write(context.Background(), b); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Get(context.Background(), []byte("a"))
	if err != nil || !ok || string(v) != "1" {
		t.Fatalf("Get(a) = (%q, %v, %v)", v, ok, err)
	}
}

func TestReadOnlyViewIsolatedFromLaterWrites(t *testing.T) {
	s := New()
	var b kv.Batch
	b.Put([]byte("a"), []byte("1"))
	if err := s.Write(context.Background(), b); err != nil {
		t.Fatal(err)
	}
	view := s.ReadOnlyView()

	var b2 kv.Batch
	b2.Put([]byte("a"), []byte("2"))
	if err := s.Write(context.Background(), b2); err != nil {
		t.Fatal(err)
	}

	v, ok, err := view.Get(context.Background(), []byte("a"))
	if err != nil || !ok || string(v) != "1" {
		t.Fatalf("view.Get(a) = (%q, %v, %v), want unchanged snapshot value", v, ok, err)
	}
}

func TestFaultyRejectsAfterConfiguredWrites(t *testing.T) {
	s := New()
	f := NewFaulty(s, 1)

	var b1 kv.Batch
	b1.Put([]byte("a"), []byte("1"))
	if err := f.Write(context.Background(), b1); err != nil {
		t.Fatalf("first write should succeed: %v", err)
	}

	var b2 kv.Batch
	b2.Put([]byte("b"), []byte("2"))
	if err := f.Write(context.Background(), b2); err == nil {
		t.Fatal("second write should fail")
	}

	// The failed batch's key must not be visible.
	_, ok, _ := s.Get(context.Background(), []byte("b"))
	if ok {
		t.Fatal("faulty write must not have partially applied")
	}
}
