package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a paste does not exist.
var ErrNotFound = errors.New("paste not found")

// ErrDuplicateID is returned when creating a paste whose id already exists.
var ErrDuplicateID = errors.New("paste id already exists")

// Paste represents a stored paste entry. A zero ExpiresAt means the paste
// never expires; a zero AvailableAt means it is available immediately.
type Paste struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	Title        string    `json:"title,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	AvailableAt  time.Time `json:"available_at"`
	ReadOnce     bool      `json:"read_once"`
	PasswordHash string    `json:"password_hash,omitempty"`
}

// HasExpiration reports whether the paste has an expiry set.
func (p Paste) HasExpiration() bool {
	return !p.ExpiresAt.IsZero()
}

// HasDelay reports whether the paste has an availability delay set.
func (p Paste) HasDelay() bool {
	return !p.AvailableAt.IsZero()
}

// Store defines the storage backend contract. All operations are atomic with
// respect to a single record. Delete reports whether a record was actually
// removed so concurrent deleters can detect losing the race without locks.
type Store interface {
	Create(ctx context.Context, paste *Paste) error
	Get(ctx context.Context, id string) (*Paste, error)
	Delete(ctx context.Context, id string) (bool, error)

	// ListRecent returns unexpired, already-available pastes ordered by
	// creation time descending, capped at limit.
	ListRecent(ctx context.Context, limit int, now time.Time) ([]*Paste, error)

	// Search returns already-available pastes whose content contains the
	// case-sensitive substring, capped at limit.
	Search(ctx context.Context, substring string, limit int, now time.Time) ([]*Paste, error)

	Count(ctx context.Context) (int, error)

	// ListExpiringWithin returns already-available pastes whose expiry falls
	// strictly inside (now, now+window), capped at limit.
	ListExpiringWithin(ctx context.Context, now time.Time, window time.Duration, limit int) ([]*Paste, error)

	// PurgeExpired removes every paste with a set expiry at or before now and
	// returns the number removed.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)

	Close() error
}
