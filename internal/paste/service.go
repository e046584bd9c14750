// Package paste implements the core paste lifecycle: creation, access
// control, consumption, and expiry reaping. The HTTP gateway is a thin
// caller of this package.
package paste

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/shxh08/pastebin-clone/internal/duration"
	"github.com/shxh08/pastebin-clone/internal/id"
	"github.com/shxh08/pastebin-clone/internal/metrics"
	"github.com/shxh08/pastebin-clone/internal/security"
	"github.com/shxh08/pastebin-clone/internal/storage"
)

const createRetries = 3

// Options tune service limits. Zero fields fall back to defaults.
type Options struct {
	DefaultTTL     time.Duration
	MaxPasteSize   int
	ListLimit      int
	ExpiringWindow time.Duration
}

func (o *Options) fillDefaults() {
	if o.DefaultTTL <= 0 {
		o.DefaultTTL = time.Hour
	}
	if o.MaxPasteSize <= 0 {
		o.MaxPasteSize = 1_048_576
	}
	if o.ListLimit <= 0 {
		o.ListLimit = 20
	}
	if o.ExpiringWindow <= 0 {
		o.ExpiringWindow = 10 * time.Minute
	}
}

// Service implements the paste operations on top of a Store.
type Service struct {
	store  storage.Store
	hasher *security.Hasher
	ids    *id.Generator
	opts   Options
	log    zerolog.Logger
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(store storage.Store, hasher *security.Hasher, ids *id.Generator, opts Options, log zerolog.Logger) *Service {
	opts.fillDefaults()
	if hasher == nil {
		hasher = security.NewHasher(security.DefaultParams)
	}
	if ids == nil {
		ids = id.New(0)
	}
	return &Service{
		store:  store,
		hasher: hasher,
		ids:    ids,
		opts:   opts,
		log:    log,
		now:    time.Now,
	}
}

// SetClock overrides the time source; used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CreateInput carries the caller-supplied fields for a new paste.
type CreateInput struct {
	Content     string
	Title       string
	TTL         string
	AvailableIn string
	ReadOnce    bool
	Password    string
}

// Create validates input, assigns an id, and persists a new paste.
func (s *Service) Create(ctx context.Context, in CreateInput) (*storage.Paste, error) {
	if in.Content == "" {
		return nil, invalidf("content is required")
	}
	if len(in.Content) > s.opts.MaxPasteSize {
		return nil, invalidf("content exceeds %d byte limit", s.opts.MaxPasteSize)
	}

	ttl := s.opts.DefaultTTL
	if strings.TrimSpace(in.TTL) != "" {
		d, err := duration.Parse(in.TTL)
		if err != nil {
			return nil, invalidf("invalid expiration format, use values like \"10m\", \"1h\", or \"2d\"")
		}
		ttl = d
	}

	var delay time.Duration
	if strings.TrimSpace(in.AvailableIn) != "" {
		d, err := duration.Parse(in.AvailableIn)
		if err != nil {
			return nil, invalidf("invalid availability format, use values like \"10m\", \"1h\", or \"2d\"")
		}
		delay = d
	}

	hashed := ""
	if strings.TrimSpace(in.Password) != "" {
		var err error
		hashed, err = s.hasher.Hash(in.Password)
		if err != nil {
			return nil, invalidf("unusable password: %v", err)
		}
	}

	now := s.now().UTC()
	paste := &storage.Paste{
		Content:      norm.NFC.String(in.Content),
		Title:        strings.TrimSpace(in.Title),
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
		ReadOnce:     in.ReadOnce,
		PasswordHash: hashed,
	}
	if delay > 0 {
		paste.AvailableAt = now.Add(delay)
	}

	// Collisions are practically unreachable with a random id space, but a
	// retry costs nothing.
	for attempt := 0; attempt < createRetries; attempt++ {
		pid, err := s.ids.Generate(ctx)
		if err != nil {
			return nil, err
		}
		paste.ID = pid
		err = mapStoreErr(s.store.Create(ctx, paste))
		if errors.Is(err, storage.ErrDuplicateID) {
			s.log.Warn().Str("id", pid).Msg("paste id collision, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		metrics.PasteCreated.Inc()
		return paste, nil
	}
	return nil, mapStoreErr(storage.ErrDuplicateID)
}

// Validation is the answer to "what do I need to read this paste".
type Validation struct {
	RequiresPassword bool
	ExpiresAt        time.Time
}

// Validate reports whether a paste requires a password and when it expires.
func (s *Service) Validate(ctx context.Context, pasteID string) (*Validation, error) {
	p, err := s.fetchLive(ctx, pasteID)
	if err != nil && !isPending(err) {
		return nil, err
	}
	return &Validation{
		RequiresPassword: p.PasswordHash != "",
		ExpiresAt:        p.ExpiresAt,
	}, nil
}

// Read returns the paste content after all lifecycle and credential checks
// pass. A read-once paste is consumed as part of the same operation: whoever
// wins the deletion race gets the content, every other caller gets not-found.
func (s *Service) Read(ctx context.Context, pasteID, password string) (*storage.Paste, error) {
	p, err := s.fetchLive(ctx, pasteID)
	if err != nil {
		return nil, err
	}

	if err := s.checkPassword(p, password); err != nil {
		return nil, err
	}

	if p.ReadOnce {
		deleted, err := s.store.Delete(ctx, p.ID)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		if !deleted {
			// Lost the race to a concurrent reader or the reaper.
			return nil, ErrNotFound
		}
		metrics.PasteDeleted.Inc()
	}

	metrics.PasteRead.Inc()
	return p, nil
}

// Delete removes a paste after credential checks pass.
func (s *Service) Delete(ctx context.Context, pasteID, password string) error {
	p, err := s.fetchLive(ctx, pasteID)
	if err != nil && !isPending(err) {
		return err
	}

	if err := s.checkPassword(p, password); err != nil {
		return err
	}

	deleted, err := s.store.Delete(ctx, p.ID)
	if err != nil {
		return mapStoreErr(err)
	}
	if !deleted {
		return ErrNotFound
	}
	metrics.PasteDeleted.Inc()
	return nil
}

// ListRecent returns the newest visible pastes.
func (s *Service) ListRecent(ctx context.Context) ([]*storage.Paste, error) {
	out, err := s.store.ListRecent(ctx, s.opts.ListLimit, s.now().UTC())
	return out, mapStoreErr(err)
}

// Count returns the total number of stored pastes.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	return n, mapStoreErr(err)
}

// Search returns available pastes whose content contains the query,
// case-sensitively. Queries blank after stripping quote characters are
// rejected.
func (s *Service) Search(ctx context.Context, query string) ([]*storage.Paste, error) {
	stripped := strings.NewReplacer(`"`, "", `'`, "").Replace(query)
	if strings.TrimSpace(stripped) == "" {
		return nil, invalidf("search query must not be blank")
	}
	out, err := s.store.Search(ctx, query, s.opts.ListLimit, s.now().UTC())
	return out, mapStoreErr(err)
}

// Meta returns lifecycle metadata for a paste without disclosing content.
func (s *Service) Meta(ctx context.Context, pasteID string) (*storage.Paste, error) {
	p, err := s.fetchLive(ctx, pasteID)
	if err != nil && !isPending(err) {
		return nil, err
	}
	return p, nil
}

// ExpiringSoon returns available pastes that will expire within the
// configured window.
func (s *Service) ExpiringSoon(ctx context.Context) ([]*storage.Paste, error) {
	out, err := s.store.ListExpiringWithin(ctx, s.now().UTC(), s.opts.ExpiringWindow, s.opts.ListLimit)
	return out, mapStoreErr(err)
}

// fetchLive loads a paste and applies the lifecycle policy. Expired pastes
// come back as ErrNotFound regardless of whether the reaper has run yet;
// pending pastes come back with the record AND a NotYetAvailableError so
// callers that do not disclose content can opt in via isPending.
func (s *Service) fetchLive(ctx context.Context, pasteID string) (*storage.Paste, error) {
	p, err := s.store.Get(ctx, pasteID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	now := s.now().UTC()
	switch Classify(p, now) {
	case StateExpired:
		return nil, ErrNotFound
	case StatePending:
		return p, &NotYetAvailableError{AvailableIn: WaitFor(p, now)}
	default:
		return p, nil
	}
}

func (s *Service) checkPassword(p *storage.Paste, candidate string) error {
	ok, err := s.hasher.Verify(p.PasswordHash, candidate)
	if err != nil {
		s.log.Error().Err(err).Str("id", p.ID).Msg("password verification failed")
		return ErrWrongPassword
	}
	if !ok {
		return ErrWrongPassword
	}
	return nil
}

func isPending(err error) bool {
	var pending *NotYetAvailableError
	return errors.As(err, &pending)
}
