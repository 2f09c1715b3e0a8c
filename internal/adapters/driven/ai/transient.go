package ai

import (
	"context"
	"errors"
	"net"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

// errEmptyResponse is returned when a provider answers with no content.
var errEmptyResponse = errors.New("empty response")

// TransientError marks a failure worth one retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Temporary reports true.
func (e *TransientError) Temporary() bool {
	return true
}

// IsTransient reports whether err is a rate limit, a provider outage,
// a timeout, or anything that declares itself temporary.
// Cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, domain.ErrCapabilityUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
