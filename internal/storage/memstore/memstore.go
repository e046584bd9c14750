// Package memstore provides an in-memory Store used by unit tests and
// as a reference implementation of the storage contract.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shxh08/pastebin-clone/internal/storage"
)

// Store is a mutex-guarded map-backed storage.Store.
type Store struct {
	mu     sync.RWMutex
	pastes map[string]*storage.Paste
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{pastes: make(map[string]*storage.Paste)}
}

// Create persists a new paste, failing on id collision.
func (s *Store) Create(ctx context.Context, paste *storage.Paste) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pastes[paste.ID]; ok {
		return storage.ErrDuplicateID
	}
	cp := *paste
	s.pastes[paste.ID] = &cp
	return nil
}

// Get fetches a paste by id.
func (s *Store) Get(ctx context.Context, id string) (*storage.Paste, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pastes[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// Delete removes a paste and reports whether it was present.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pastes[id]; !ok {
		return false, nil
	}
	delete(s.pastes, id)
	return true, nil
}

// ListRecent returns unexpired, available pastes, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int, now time.Time) ([]*storage.Paste, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*storage.Paste, 0, limit)
	for _, p := range s.pastes {
		if p.HasExpiration() && !p.ExpiresAt.After(now) {
			continue
		}
		if p.HasDelay() && p.AvailableAt.After(now) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Search returns available pastes whose content contains substring.
func (s *Store) Search(ctx context.Context, substring string, limit int, now time.Time) ([]*storage.Paste, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*storage.Paste, 0, limit)
	for _, p := range s.pastes {
		if p.HasDelay() && p.AvailableAt.After(now) {
			continue
		}
		if !strings.Contains(p.Content, substring) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the total number of stored pastes.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pastes), nil
}

// ListExpiringWithin returns available pastes expiring inside (now, now+window).
func (s *Store) ListExpiringWithin(ctx context.Context, now time.Time, window time.Duration, limit int) ([]*storage.Paste, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := now.Add(window)
	out := make([]*storage.Paste, 0, limit)
	for _, p := range s.pastes {
		if !p.HasExpiration() {
			continue
		}
		if !p.ExpiresAt.After(now) || !p.ExpiresAt.Before(cutoff) {
			continue
		}
		if p.HasDelay() && p.AvailableAt.After(now) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PurgeExpired removes every paste whose expiry is at or before now.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, p := range s.pastes {
		if p.HasExpiration() && !p.ExpiresAt.After(now) {
			delete(s.pastes, id)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
