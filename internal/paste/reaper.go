package paste

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/shxh08/pastebin-clone/internal/metrics"
	"github.com/shxh08/pastebin-clone/internal/storage"
)

const reapTimeout = 5 * time.Second

// Reaper periodically purges expired pastes from the store. It is pure space
// reclamation: reads never depend on it, since expiry is checked on every
// access.
type Reaper struct {
	store    storage.Store
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewReaper constructs a Reaper. Non-positive intervals default to 10 minutes.
func NewReaper(store storage.Store, interval time.Duration, log zerolog.Logger) *Reaper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Reaper{
		store:    store,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Start launches the reap loop in a goroutine; it stops when ctx is done.
func (r *Reaper) Start(ctx context.Context) {
	go r.Run(ctx)
}

// Run blocks, purging on every tick until ctx is done. A failed cycle is
// logged and retried on the next tick, never escalated.
func (r *Reaper) Run(ctx context.Context) {
	r.log.Info().Dur("interval", r.interval).Msg("reaper started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("reaper shutting down")
			return
		case <-ticker.C:
			r.ReapOnce(ctx)
		}
	}
}

// ReapOnce runs a single purge pass.
func (r *Reaper) ReapOnce(ctx context.Context) {
	reapCtx, cancel := context.WithTimeout(ctx, reapTimeout)
	defer cancel()

	metrics.ReapCycles.Inc()
	removed, err := r.store.PurgeExpired(reapCtx, r.now().UTC())
	if err != nil {
		r.log.Error().Err(err).Msg("reap cycle failed")
		return
	}
	if removed > 0 {
		metrics.ReapedPastes.Add(float64(removed))
		r.log.Info().Int("deleted", removed).Msg("reaped expired pastes")
	}
}
