// Package retry implements backoff for transient external failures. The
// delay schedule is a pure function of the attempt number and an optional
// server-provided hint, so policies are testable without real I/O.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RateLimited marks a rate-limit response. Hint carries the server's
// retry-after delay when present.
type RateLimited struct {
	Hint time.Duration
}

func (e *RateLimited) Error() string {
	if e.Hint > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.Hint)
	}
	return "rate limited"
}

// Transient wraps a failure worth retrying (timeout, temporary
// unavailability). Anything not wrapped is permanent and propagates
// immediately.
type Transient struct {
	Err error
}

func (e *Transient) Error() string { return "transient: " + e.Err.Error() }

func (e *Transient) Unwrap() error { return e.Err }

// Policy defines the backoff schedule.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy returns the schedule used for catalog calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    time.Minute,
	}
}

// Delay returns how long to wait after the given 1-based failed attempt.
// A positive hint (a server retry-after) takes precedence; otherwise the
// delay doubles per attempt up to MaxDelay.
func (p Policy) Delay(attempt int, hint time.Duration) time.Duration {
	if hint > 0 {
		return hint
	}
	if attempt < 1 {
		attempt = 1
	}

	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do runs fn, retrying retryable failures per the policy. The last error
// is returned once attempts are exhausted; permanent errors and a
// cancelled context return at once.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		hint, retryable := classify(err)
		if !retryable || attempt >= p.MaxAttempts {
			return err
		}

		timer := time.NewTimer(p.Delay(attempt, hint))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func classify(err error) (time.Duration, bool) {
	var rl *RateLimited
	if errors.As(err, &rl) {
		return rl.Hint, true
	}
	var tr *Transient
	if errors.As(err, &tr) {
		return 0, true
	}
	return 0, false
}
