package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newCache(t *testing.T) *SQLiteCache {
	t.Helper()
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteCache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCachePutGet(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "en", "es", "I have a fever"); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v", ok, err)
	}
	if err := c.Put(ctx, "en", "es", "I have a fever", "Tengo fiebre"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get(ctx, "en", "es", "I have a fever")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got != "Tengo fiebre" {
		t.Errorf("got %q", got)
	}
	// Same text, different pair: distinct entry.
	if _, ok, _ := c.Get(ctx, "en", "hi", "I have a fever"); ok {
		t.Error("en→hi should not be cached")
	}
}

func TestCacheReplace(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()
	if err := c.Put(ctx, "en", "es", "pain", "dolor"); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "en", "es", "pain", "dolores"); err != nil {
		t.Fatal(err)
	}
	got, _, _ := c.Get(ctx, "en", "es", "pain")
	if got != "dolores" {
		t.Errorf("got %q", got)
	}
	n, err := c.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}
