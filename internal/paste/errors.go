package paste

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shxh08/pastebin-clone/internal/duration"
	"github.com/shxh08/pastebin-clone/internal/storage"
)

// ErrNotFound covers unknown ids and logically expired pastes alike.
var ErrNotFound = storage.ErrNotFound

// ErrWrongPassword is returned when a supplied credential fails verification.
var ErrWrongPassword = errors.New("password does not match")

// ErrStorageUnavailable wraps storage-layer faults; the service does not retry.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ValidationError reports missing or malformed caller input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalidf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotYetAvailableError is returned for pending pastes and carries the
// remaining wait.
type NotYetAvailableError struct {
	AvailableIn time.Duration
}

func (e *NotYetAvailableError) Error() string {
	return fmt.Sprintf("paste not yet available, available in %s", duration.Humanize(e.AvailableIn))
}

// mapStoreErr classifies storage results: sentinel outcomes and context
// cancellation pass through, anything else becomes ErrStorageUnavailable.
func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrDuplicateID) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
