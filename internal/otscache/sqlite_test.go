package otscache

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenAndClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "cache.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
}

func TestPutGetRoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	s.Put(ctx, "k1", []byte("v1"), 0)
	got, ok := s.Get(ctx, "k1")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got) != "v1" {
		t.Fatalf("got %q, want v1", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, ok := s.Get(context.Background(), "nope"); ok {
		t.Fatal("expected miss for missing key")
	}
}

func TestEntryExpiresAfterTTL(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	s.Put(ctx, "k", []byte("v"), time.Nanosecond)
	time.Sleep(10 * time.Millisecond)
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestDeleteRemovesEntry(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	s.Put(ctx, "k", []byte("v"), 0)
	s.Delete(ctx, "k")
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestPutOverwritesExistingKey(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	s.Put(ctx, "k", []byte("v1"), 0)
	s.Put(ctx, "k", []byte("v2"), 0)
	got, _ := s.Get(ctx, "k")
	if string(got) != "v2" {
		t.Fatalf("got %q, want v2", got)
	}
}
