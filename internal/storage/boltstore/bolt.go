// Package boltstore implements storage.Store on BoltDB. Records live in a
// primary bucket keyed by id; a secondary bucket keyed by expiry timestamp
// keeps purges from scanning the whole keyspace.
package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/shxh08/pastebin-clone/internal/storage"
)

var (
	pasteBucket  = []byte("pastes")
	expireBucket = []byte("expires")
)

// Store implements storage.Store backed by BoltDB.
type Store struct {
	db *bolt.DB
}

// Open initializes a BoltDB-backed store located at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "open bolt db")
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(pasteBucket); err != nil {
			return errors.Wrap(err, "create paste bucket")
		}
		if _, err := tx.CreateBucketIfNotExists(expireBucket); err != nil {
			return errors.Wrap(err, "create expire bucket")
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Create persists a new paste, failing on id collision.
func (s *Store) Create(ctx context.Context, paste *storage.Paste) error {
	if paste == nil {
		return errors.New("paste is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(paste)
	if err != nil {
		return errors.Wrap(err, "marshal paste")
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		pBucket := tx.Bucket(pasteBucket)
		eBucket := tx.Bucket(expireBucket)
		if pBucket == nil || eBucket == nil {
			return errors.New("buckets not initialized")
		}
		if existing := pBucket.Get([]byte(paste.ID)); existing != nil {
			return storage.ErrDuplicateID
		}
		if err := pBucket.Put([]byte(paste.ID), data); err != nil {
			return errors.Wrap(err, "save paste")
		}
		if paste.HasExpiration() {
			if err := eBucket.Put(expireKey(paste.ExpiresAt, paste.ID), []byte(paste.ID)); err != nil {
				return errors.Wrap(err, "index expiry")
			}
		}
		return nil
	})
}

// Get retrieves a paste by id.
func (s *Store) Get(ctx context.Context, id string) (*storage.Paste, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out *storage.Paste
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(pasteBucket)
		if bucket == nil {
			return errors.New("pastes bucket missing")
		}
		raw := bucket.Get([]byte(id))
		if raw == nil {
			return storage.ErrNotFound
		}
		var paste storage.Paste
		if err := json.Unmarshal(raw, &paste); err != nil {
			return errors.Wrap(err, "unmarshal paste")
		}
		out = &paste
		return nil
	})

	return out, err
}

// Delete removes a paste, reporting whether it was present.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	deleted := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		pBucket := tx.Bucket(pasteBucket)
		eBucket := tx.Bucket(expireBucket)
		if pBucket == nil || eBucket == nil {
			return errors.New("buckets not initialized")
		}
		raw := pBucket.Get([]byte(id))
		if raw == nil {
			return nil
		}
		var paste storage.Paste
		if err := json.Unmarshal(raw, &paste); err == nil && paste.HasExpiration() {
			if err := eBucket.Delete(expireKey(paste.ExpiresAt, paste.ID)); err != nil {
				return errors.Wrap(err, "delete expiry index")
			}
		}
		if err := pBucket.Delete([]byte(id)); err != nil {
			return errors.Wrap(err, "delete paste")
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// ListRecent returns unexpired, available pastes ordered newest first.
func (s *Store) ListRecent(ctx context.Context, limit int, now time.Time) ([]*storage.Paste, error) {
	return s.scan(ctx, limit, byCreatedDesc, func(p *storage.Paste) bool {
		if p.HasExpiration() && !p.ExpiresAt.After(now) {
			return false
		}
		return !p.HasDelay() || !p.AvailableAt.After(now)
	})
}

// Search returns available pastes whose content contains substring.
func (s *Store) Search(ctx context.Context, substring string, limit int, now time.Time) ([]*storage.Paste, error) {
	return s.scan(ctx, limit, byCreatedDesc, func(p *storage.Paste) bool {
		if p.HasDelay() && p.AvailableAt.After(now) {
			return false
		}
		return strings.Contains(p.Content, substring)
	})
}

// Count returns the total number of stored pastes.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(pasteBucket)
		if bucket == nil {
			return errors.New("pastes bucket missing")
		}
		n = bucket.Stats().KeyN
		return nil
	})
	return n, err
}

// ListExpiringWithin returns available pastes expiring inside (now, now+window).
func (s *Store) ListExpiringWithin(ctx context.Context, now time.Time, window time.Duration, limit int) ([]*storage.Paste, error) {
	cutoff := now.Add(window)
	return s.scan(ctx, limit, byExpiryAsc, func(p *storage.Paste) bool {
		if !p.HasExpiration() {
			return false
		}
		if !p.ExpiresAt.After(now) || !p.ExpiresAt.Before(cutoff) {
			return false
		}
		return !p.HasDelay() || !p.AvailableAt.After(now)
	})
}

// PurgeExpired removes all pastes with expiry at or before now, walking the
// time-ordered expiry index instead of the whole keyspace.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var removed int
	err := s.db.Update(func(tx *bolt.Tx) error {
		pBucket := tx.Bucket(pasteBucket)
		eBucket := tx.Bucket(expireBucket)
		if pBucket == nil || eBucket == nil {
			return errors.New("buckets not initialized")
		}

		cursor := eBucket.Cursor()
		cutoff := toTimestamp(now)
		for key, val := cursor.First(); key != nil; key, val = cursor.Next() {
			ts := binary.BigEndian.Uint64(key[:8])
			if ts > cutoff {
				break
			}
			id := string(val)
			if err := pBucket.Delete([]byte(id)); err != nil {
				return errors.Wrapf(err, "delete expired paste %s", id)
			}
			if err := cursor.Delete(); err != nil {
				return errors.Wrap(err, "delete expiry index")
			}
			removed++
		}
		return nil
	})

	return removed, err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type sortOrder int

const (
	byCreatedDesc sortOrder = iota
	byExpiryAsc
)

func (s *Store) scan(ctx context.Context, limit int, order sortOrder, keep func(*storage.Paste) bool) ([]*storage.Paste, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*storage.Paste
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(pasteBucket)
		if bucket == nil {
			return errors.New("pastes bucket missing")
		}
		return bucket.ForEach(func(_, raw []byte) error {
			var paste storage.Paste
			if err := json.Unmarshal(raw, &paste); err != nil {
				return errors.Wrap(err, "unmarshal paste")
			}
			if keep(&paste) {
				out = append(out, &paste)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	switch order {
	case byExpiryAsc:
		sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	default:
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func expireKey(t time.Time, id string) []byte {
	key := make([]byte, 8+len(id))
	binary.BigEndian.PutUint64(key, toTimestamp(t))
	copy(key[8:], id)
	return key
}

func toTimestamp(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	return uint64(t.UTC().UnixNano())
}
