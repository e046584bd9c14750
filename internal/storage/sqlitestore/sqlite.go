// Package sqlitestore implements storage.Store on SQLite via the pure-Go
// modernc.org/sqlite driver.
package sqlitestore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/shxh08/pastebin-clone/internal/storage"
)

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// Open initializes the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if err := initialize(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initialize(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return errors.Wrap(err, "enable WAL mode")
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return errors.Wrap(err, "set busy timeout")
	}
	schema := `
CREATE TABLE IF NOT EXISTS pastes (
    id TEXT PRIMARY KEY,
    content BLOB NOT NULL,
    title TEXT,
    created_at DATETIME NOT NULL,
    expires_at DATETIME,
    available_at DATETIME,
    read_once INTEGER NOT NULL DEFAULT 0,
    password_hash TEXT
);
CREATE INDEX IF NOT EXISTS idx_pastes_expires_at ON pastes (expires_at);
CREATE INDEX IF NOT EXISTS idx_pastes_created_at ON pastes (created_at);
`
	if _, err := db.Exec(schema); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}

// Create inserts a new paste, failing on id collision.
func (s *Store) Create(ctx context.Context, paste *storage.Paste) error {
	if paste == nil {
		return errors.New("paste is nil")
	}

	const q = `
INSERT INTO pastes (id, content, title, created_at, expires_at, available_at, read_once, password_hash)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`
	_, err := s.db.ExecContext(ctx, q,
		paste.ID,
		[]byte(paste.Content),
		nullString(paste.Title),
		paste.CreatedAt.UTC(),
		nullableTime(paste.ExpiresAt),
		nullableTime(paste.AvailableAt),
		paste.ReadOnce,
		nullString(paste.PasswordHash),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return storage.ErrDuplicateID
		}
		return errors.Wrap(err, "create paste")
	}
	return nil
}

// Get fetches a paste by id.
func (s *Store) Get(ctx context.Context, id string) (*storage.Paste, error) {
	const q = `
SELECT id, content, title, created_at, expires_at, available_at, read_once, password_hash
FROM pastes WHERE id = ?;
`
	p, err := scanPaste(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "query paste")
	}
	return p, nil
}

// Delete removes a paste by id, reporting whether a row was affected.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	const q = `DELETE FROM pastes WHERE id = ?;`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, errors.Wrap(err, "delete paste")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return rows > 0, nil
}

// ListRecent returns unexpired, available pastes ordered newest first.
func (s *Store) ListRecent(ctx context.Context, limit int, now time.Time) ([]*storage.Paste, error) {
	const q = `
SELECT id, content, title, created_at, expires_at, available_at, read_once, password_hash
FROM pastes
WHERE (expires_at IS NULL OR expires_at > ?)
  AND (available_at IS NULL OR available_at <= ?)
ORDER BY created_at DESC
LIMIT ?;
`
	return s.queryPastes(ctx, q, now.UTC(), now.UTC(), limit)
}

// Search returns available pastes containing the case-sensitive substring.
func (s *Store) Search(ctx context.Context, substring string, limit int, now time.Time) ([]*storage.Paste, error) {
	// instr is case-sensitive, unlike LIKE on ASCII.
	const q = `
SELECT id, content, title, created_at, expires_at, available_at, read_once, password_hash
FROM pastes
WHERE instr(content, ?) > 0
  AND (available_at IS NULL OR available_at <= ?)
ORDER BY created_at DESC
LIMIT ?;
`
	return s.queryPastes(ctx, q, substring, now.UTC(), limit)
}

// Count returns the total number of pastes.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pastes;`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count pastes")
	}
	return n, nil
}

// ListExpiringWithin returns available pastes expiring inside (now, now+window).
func (s *Store) ListExpiringWithin(ctx context.Context, now time.Time, window time.Duration, limit int) ([]*storage.Paste, error) {
	const q = `
SELECT id, content, title, created_at, expires_at, available_at, read_once, password_hash
FROM pastes
WHERE expires_at IS NOT NULL AND expires_at > ? AND expires_at < ?
  AND (available_at IS NULL OR available_at <= ?)
ORDER BY expires_at ASC
LIMIT ?;
`
	return s.queryPastes(ctx, q, now.UTC(), now.UTC().Add(window), now.UTC(), limit)
}

// PurgeExpired removes all pastes whose expiry is at or before now.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	const q = `DELETE FROM pastes WHERE expires_at IS NOT NULL AND expires_at <= ?;`
	res, err := s.db.ExecContext(ctx, q, now.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "purge expired")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	return int(rows), nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) queryPastes(ctx context.Context, q string, args ...any) ([]*storage.Paste, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query pastes")
	}
	defer rows.Close()

	var out []*storage.Paste
	for rows.Next() {
		p, err := scanPaste(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan paste")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate pastes")
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaste(row rowScanner) (*storage.Paste, error) {
	var (
		id          string
		content     []byte
		title       sql.NullString
		createdAt   time.Time
		expiresAt   sql.NullTime
		availableAt sql.NullTime
		readOnce    bool
		password    sql.NullString
	)
	if err := row.Scan(&id, &content, &title, &createdAt, &expiresAt, &availableAt, &readOnce, &password); err != nil {
		return nil, err
	}
	paste := &storage.Paste{
		ID:           id,
		Content:      string(content),
		Title:        title.String,
		CreatedAt:    createdAt.UTC(),
		ReadOnce:     readOnce,
		PasswordHash: password.String,
	}
	if expiresAt.Valid {
		paste.ExpiresAt = expiresAt.Time.UTC()
	}
	if availableAt.Valid {
		paste.AvailableAt = availableAt.Time.UTC()
	}
	return paste, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
