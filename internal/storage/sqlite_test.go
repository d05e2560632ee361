package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/doccompare/internal/models"
)

func openCache(t *testing.T) *SQLiteCache {
	t.Helper()
	cache, err := NewSQLiteCache(filepath.Join(t.TempDir(), "nested", "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestSQLiteCache_PutGet(t *testing.T) {
	cache := openCache(t)
	ctx := context.Background()

	entry := &models.CachedText{
		ContentID: "sha256:abc",
		Format:    "pdf",
		Text:      "page one\npage two\n",
		Warnings:  []models.Warning{{Path: "scan.pdf", Page: 2, Message: "no text recognized on scanned page"}},
	}
	if err := cache.Put(ctx, entry); err != nil {
		t.Fatal(err)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := cache.Get(ctx, "sha256:abc")
	if err != nil {
		t.Fatal(err)
	}
	if got.Format != "pdf" || got.Text != entry.Text {
		t.Errorf("got %+v", got)
	}
	if len(got.Warnings) != 1 || got.Warnings[0].Page != 2 {
		t.Errorf("warnings = %+v", got.Warnings)
	}
}

func TestSQLiteCache_PutReplaces(t *testing.T) {
	cache := openCache(t)
	ctx := context.Background()
	if err := cache.Put(ctx, &models.CachedText{ContentID: "id", Format: "docx", Text: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := cache.Put(ctx, &models.CachedText{ContentID: "id", Format: "docx", Text: "new"}); err != nil {
		t.Fatal(err)
	}
	got, err := cache.Get(ctx, "id")
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "new" || len(got.Warnings) != 0 {
		t.Errorf("got %+v", got)
	}
	n, err := cache.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestSQLiteCache_GetMissing(t *testing.T) {
	cache := openCache(t)
	_, err := cache.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteCache_Purge(t *testing.T) {
	cache := openCache(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := cache.Put(ctx, &models.CachedText{ContentID: id, Format: "image", Text: id}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := cache.Purge(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Purge removed %d, want 3", n)
	}
	if count, _ := cache.Count(ctx); count != 0 {
		t.Errorf("Count after purge = %d", count)
	}
}

func TestSQLiteCache_DiskUsage(t *testing.T) {
	cache := openCache(t)
	if err := cache.Put(context.Background(), &models.CachedText{ContentID: "x", Format: "pdf", Text: "text"}); err != nil {
		t.Fatal(err)
	}
	n, err := cache.DiskUsage()
	if err != nil {
		t.Fatal(err)
	}
	if n <= 0 {
		t.Errorf("DiskUsage = %d, want > 0", n)
	}
	if filepath.Base(cache.Path()) != "cache.db" {
		t.Errorf("Path = %s", cache.Path())
	}
}

var _ Cache = (*SQLiteCache)(nil)
