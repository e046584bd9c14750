package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shxh08/pastebin-clone/internal/storage"
)

func TestStoreCRUD(t *testing.T) {
	store := New()
	ctx := context.Background()

	paste := &storage.Paste{
		ID:        "abc123",
		Content:   "hello",
		CreatedAt: time.Now().UTC().Round(time.Second),
	}

	if err := store.Create(ctx, paste); err != nil {
		t.Fatalf("create paste: %v", err)
	}
	if err := store.Create(ctx, paste); !errors.Is(err, storage.ErrDuplicateID) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}

	out, err := store.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("get paste: %v", err)
	}
	if out.Content != paste.Content {
		t.Fatalf("expected content %q got %q", paste.Content, out.Content)
	}

	// The store hands out copies, not aliases.
	out.Content = "mutated"
	again, err := store.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("get paste: %v", err)
	}
	if again.Content != "hello" {
		t.Fatalf("stored paste mutated through returned copy")
	}

	deleted, err := store.Delete(ctx, "abc123")
	if err != nil {
		t.Fatalf("delete paste: %v", err)
	}
	if !deleted {
		t.Fatalf("expected delete to report removal")
	}
	deleted, err = store.Delete(ctx, "abc123")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Fatalf("second delete reported removal")
	}
	if _, err := store.Get(ctx, "abc123"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListRecentFiltersAndOrders(t *testing.T) {
	store := New()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	seed := []*storage.Paste{
		{ID: "old", Content: "old", CreatedAt: now.Add(-3 * time.Hour), ExpiresAt: now.Add(time.Hour)},
		{ID: "new", Content: "new", CreatedAt: now.Add(-time.Minute), ExpiresAt: now.Add(time.Hour)},
		{ID: "expired", Content: "x", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Minute)},
		{ID: "pending", Content: "x", CreatedAt: now, AvailableAt: now.Add(time.Hour)},
	}
	for _, p := range seed {
		if err := store.Create(ctx, p); err != nil {
			t.Fatalf("seed %s: %v", p.ID, err)
		}
	}

	out, err := store.ListRecent(ctx, 10, now)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 pastes, got %d", len(out))
	}
	if out[0].ID != "new" || out[1].ID != "old" {
		t.Fatalf("wrong order: %s, %s", out[0].ID, out[1].ID)
	}

	out, err = store.ListRecent(ctx, 1, now)
	if err != nil {
		t.Fatalf("list recent limited: %v", err)
	}
	if len(out) != 1 || out[0].ID != "new" {
		t.Fatalf("limit not applied")
	}
}

func TestSearchIsCaseSensitive(t *testing.T) {
	store := New()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := store.Create(ctx, &storage.Paste{ID: "a", Content: "Hello World", CreatedAt: now}); err != nil {
		t.Fatalf("create: %v", err)
	}

	hits, err := store.Search(ctx, "World", 10, now)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	hits, err = store.Search(ctx, "world", 10, now)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("lowercase query matched %d", len(hits))
	}
}

func TestListExpiringWithin(t *testing.T) {
	store := New()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	seed := []*storage.Paste{
		{ID: "in5", Content: "a", CreatedAt: now, ExpiresAt: now.Add(5 * time.Minute)},
		{ID: "in2", Content: "b", CreatedAt: now, ExpiresAt: now.Add(2 * time.Minute)},
		{ID: "in2h", Content: "c", CreatedAt: now, ExpiresAt: now.Add(2 * time.Hour)},
		{ID: "forever", Content: "d", CreatedAt: now},
	}
	for _, p := range seed {
		if err := store.Create(ctx, p); err != nil {
			t.Fatalf("seed %s: %v", p.ID, err)
		}
	}

	out, err := store.ListExpiringWithin(ctx, now, 10*time.Minute, 10)
	if err != nil {
		t.Fatalf("list expiring: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 pastes, got %d", len(out))
	}
	if out[0].ID != "in2" || out[1].ID != "in5" {
		t.Fatalf("wrong order: %s, %s", out[0].ID, out[1].ID)
	}
}

func TestPurgeExpired(t *testing.T) {
	store := New()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := store.Create(ctx, &storage.Paste{ID: "dead", Content: "a", CreatedAt: now, ExpiresAt: now.Add(-time.Minute)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, &storage.Paste{ID: "alive", Content: "b", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("create: %v", err)
	}

	removed, err := store.PurgeExpired(ctx, now)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := store.Get(ctx, "alive"); err != nil {
		t.Fatalf("expected alive paste: %v", err)
	}
}
