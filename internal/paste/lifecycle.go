package paste

import (
	"time"

	"github.com/shxh08/pastebin-clone/internal/storage"
)

// State classifies a paste relative to a point in time.
type State int

const (
	// StateVisible means the content may be disclosed (subject to password).
	StateVisible State = iota
	// StatePending means the availability delay has not elapsed.
	StatePending
	// StateExpired means the expiry has passed; treated the same as not found.
	StateExpired
)

// Classify decides the lifecycle state of a paste at the given instant.
// Expiry takes effect at exactly ExpiresAt: a paste is visible while
// now < ExpiresAt. Expiry outranks the availability delay so that a dead
// paste never leaks a wait hint.
func Classify(p *storage.Paste, now time.Time) State {
	if p.HasExpiration() && !now.Before(p.ExpiresAt) {
		return StateExpired
	}
	if p.HasDelay() && now.Before(p.AvailableAt) {
		return StatePending
	}
	return StateVisible
}

// WaitFor returns how long until a pending paste becomes available.
// Zero for anything not pending.
func WaitFor(p *storage.Paste, now time.Time) time.Duration {
	if Classify(p, now) != StatePending {
		return 0
	}
	return p.AvailableAt.Sub(now)
}
