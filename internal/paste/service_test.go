package paste

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/shxh08/pastebin-clone/internal/storage/memstore"
)

type testEnv struct {
	svc   *Service
	store *memstore.Store
	now   time.Time
	mu    sync.Mutex
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store: memstore.New(),
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	env.svc = NewService(env.store, nil, nil, Options{}, zerolog.Nop())
	env.svc.SetClock(func() time.Time {
		env.mu.Lock()
		defer env.mu.Unlock()
		return env.now
	})
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.mu.Lock()
	e.now = e.now.Add(d)
	e.mu.Unlock()
}

func TestCreateAndReadRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, CreateInput{Content: "hello", TTL: "1h"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	if created.ExpiresAt != env.now.Add(time.Hour) {
		t.Fatalf("expires_at = %v, want %v", created.ExpiresAt, env.now.Add(time.Hour))
	}

	got, err := env.svc.Read(ctx, created.ID, "")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Content != "hello" {
		t.Fatalf("content = %q", got.Content)
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []CreateInput{
		{Content: ""},
		{Content: "x", TTL: "bananas"},
		{Content: "x", TTL: "0s"},
		{Content: "x", AvailableIn: "soonish"},
	}
	for i, in := range cases {
		var validation *ValidationError
		if _, err := env.svc.Create(ctx, in); !errors.As(err, &validation) {
			t.Fatalf("case %d: expected ValidationError, got %v", i, err)
		}
	}
}

func TestCreateDefaultTTL(t *testing.T) {
	env := newTestEnv(t)
	created, err := env.svc.Create(context.Background(), CreateInput{Content: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ExpiresAt != env.now.Add(time.Hour) {
		t.Fatalf("default ttl not applied: %v", created.ExpiresAt)
	}
}

func TestExpiryScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, CreateInput{Content: "hello", TTL: "1h"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.svc.Read(ctx, created.ID, ""); err != nil {
		t.Fatalf("immediate read: %v", err)
	}

	env.advance(time.Hour + time.Second)

	if _, err := env.svc.Read(ctx, created.ID, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after expiry, got %v", err)
	}
	if _, err := env.svc.Validate(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("validate after expiry: %v", err)
	}
	if _, err := env.svc.Meta(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("meta after expiry: %v", err)
	}

	removed, err := env.store.PurgeExpired(ctx, env.svc.now())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("purge removed %d, want 1", removed)
	}
	removed, err = env.store.PurgeExpired(ctx, env.svc.now())
	if err != nil {
		t.Fatalf("second purge: %v", err)
	}
	if removed != 0 {
		t.Fatalf("purge not idempotent, removed %d", removed)
	}
}

func TestReadOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, CreateInput{Content: "burn", TTL: "1h", ReadOnce: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := env.svc.Read(ctx, created.ID, "")
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if got.Content != "burn" {
		t.Fatalf("content = %q", got.Content)
	}

	if _, err := env.svc.Read(ctx, created.ID, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second read should be not found, got %v", err)
	}
}

func TestReadOnceConcurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, CreateInput{Content: "burn", TTL: "1h", ReadOnce: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const readers = 16
	var wg sync.WaitGroup
	successes := make(chan struct{}, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.svc.Read(ctx, created.ID, ""); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	won := 0
	for range successes {
		won++
	}
	if won != 1 {
		t.Fatalf("read-once paste disclosed %d times", won)
	}
}

func TestAvailabilityDelay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, CreateInput{Content: "later", TTL: "1h", AvailableIn: "10m"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var pending *NotYetAvailableError
	_, err = env.svc.Read(ctx, created.ID, "")
	if !errors.As(err, &pending) {
		t.Fatalf("expected NotYetAvailableError, got %v", err)
	}
	if pending.AvailableIn != 10*time.Minute {
		t.Fatalf("available_in = %v, want 10m", pending.AvailableIn)
	}

	env.advance(4 * time.Minute)
	_, err = env.svc.Read(ctx, created.ID, "")
	if !errors.As(err, &pending) {
		t.Fatalf("still expected pending, got %v", err)
	}
	if pending.AvailableIn != 6*time.Minute {
		t.Fatalf("wait did not shrink: %v", pending.AvailableIn)
	}

	env.advance(6 * time.Minute)
	got, err := env.svc.Read(ctx, created.ID, "")
	if err != nil {
		t.Fatalf("read exactly at availability: %v", err)
	}
	if got.Content != "later" {
		t.Fatalf("content = %q", got.Content)
	}
}

func TestPasswordProtection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, CreateInput{Content: "top", TTL: "1h", Password: "secret"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := env.svc.Read(ctx, created.ID, ""); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("no password: got %v", err)
	}
	if _, err := env.svc.Read(ctx, created.ID, "nope"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("wrong password: got %v", err)
	}
	got, err := env.svc.Read(ctx, created.ID, "secret")
	if err != nil {
		t.Fatalf("correct password: %v", err)
	}
	if got.Content != "top" {
		t.Fatalf("content = %q", got.Content)
	}

	if err := env.svc.Delete(ctx, created.ID, "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("delete wrong password: got %v", err)
	}
	if err := env.svc.Delete(ctx, created.ID, "secret"); err != nil {
		t.Fatalf("delete correct password: %v", err)
	}
	if _, err := env.svc.Read(ctx, created.ID, "secret"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("read after delete: %v", err)
	}
}

func TestValidateReportsPasswordRequirement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	open, err := env.svc.Create(ctx, CreateInput{Content: "open", TTL: "1h"})
	if err != nil {
		t.Fatalf("create open: %v", err)
	}
	locked, err := env.svc.Create(ctx, CreateInput{Content: "locked", TTL: "1h", Password: "pw"})
	if err != nil {
		t.Fatalf("create locked: %v", err)
	}

	v, err := env.svc.Validate(ctx, open.ID)
	if err != nil {
		t.Fatalf("validate open: %v", err)
	}
	if v.RequiresPassword {
		t.Fatalf("open paste should not require password")
	}
	v, err = env.svc.Validate(ctx, locked.ID)
	if err != nil {
		t.Fatalf("validate locked: %v", err)
	}
	if !v.RequiresPassword {
		t.Fatalf("locked paste should require password")
	}
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.Create(ctx, CreateInput{Content: "the quick brown fox", TTL: "1h"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.svc.Create(ctx, CreateInput{Content: "hidden until later", TTL: "1h", AvailableIn: "30m"}); err != nil {
		t.Fatalf("create delayed: %v", err)
	}

	var validation *ValidationError
	for _, q := range []string{"", "   ", `""`, `'' ""`} {
		if _, err := env.svc.Search(ctx, q); !errors.As(err, &validation) {
			t.Fatalf("query %q: expected ValidationError, got %v", q, err)
		}
	}

	hits, err := env.svc.Search(ctx, "quick")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(hits))
	}

	// Case-sensitive containment.
	hits, err = env.svc.Search(ctx, "Quick")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("case-sensitive search matched %d", len(hits))
	}

	// Pending pastes never show up in search results.
	hits, err = env.svc.Search(ctx, "hidden")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("pending paste leaked through search")
	}
}

func TestListRecentAndCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		if _, err := env.svc.Create(ctx, CreateInput{Content: content, TTL: "1h"}); err != nil {
			t.Fatalf("create %q: %v", content, err)
		}
		env.advance(time.Minute)
	}

	recent, err := env.svc.ListRecent(ctx)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("recent = %d, want 3", len(recent))
	}
	if recent[0].Content != "three" {
		t.Fatalf("expected newest first, got %q", recent[0].Content)
	}

	n, err := env.svc.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d", n)
	}
}

func TestExpiringSoon(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	soon, err := env.svc.Create(ctx, CreateInput{Content: "soon", TTL: "5m"})
	if err != nil {
		t.Fatalf("create soon: %v", err)
	}
	if _, err := env.svc.Create(ctx, CreateInput{Content: "later", TTL: "2h"}); err != nil {
		t.Fatalf("create later: %v", err)
	}
	if _, err := env.svc.Create(ctx, CreateInput{Content: "delayed", TTL: "5m", AvailableIn: "4m"}); err != nil {
		t.Fatalf("create delayed: %v", err)
	}

	items, err := env.svc.ExpiringSoon(ctx)
	if err != nil {
		t.Fatalf("expiring soon: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].ID != soon.ID {
		t.Fatalf("unexpected id %q", items[0].ID)
	}
}

func TestMetaDoesNotConsumeReadOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, CreateInput{Content: "burn", TTL: "1h", ReadOnce: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	meta, err := env.svc.Meta(ctx, created.ID)
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if !meta.ReadOnce {
		t.Fatalf("meta should report read_once")
	}
	if _, err := env.svc.Read(ctx, created.ID, ""); err != nil {
		t.Fatalf("read after meta: %v", err)
	}
}
