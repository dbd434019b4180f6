// Package poll waits for asynchronous host-side state with explicit,
// bounded retry policies. Every wait is driven by a Clock so it can be
// exercised in tests without real time passing.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned when a policy runs out of attempts or time
// before the condition is met.
var ErrExhausted = errors.New("poll: condition not met within policy limits")

// ErrUnbounded is returned for a policy with neither MaxAttempts nor Timeout.
var ErrUnbounded = errors.New("poll: policy has no attempt or time bound")

// Policy describes a bounded polling loop.
type Policy struct {
	// InitialDelay is waited once before the first check.
	InitialDelay time.Duration
	// Interval is the spacing between checks.
	Interval time.Duration
	// MaxAttempts caps the number of checks. Zero means no cap.
	MaxAttempts int
	// Timeout caps the total wall-clock time, initial delay included.
	// Zero means no cap.
	Timeout time.Duration
}

// Bounded reports whether the policy is guaranteed to terminate.
func (p Policy) Bounded() bool {
	return p.MaxAttempts > 0 || p.Timeout > 0
}

// WithTimeout returns a copy of the policy whose timeout is at most d.
func (p Policy) WithTimeout(d time.Duration) Policy {
	if p.Timeout == 0 || d < p.Timeout {
		p.Timeout = d
	}
	return p
}

// CheckFunc reports whether the awaited condition holds. A non-nil error
// aborts polling immediately.
type CheckFunc func(ctx context.Context) (done bool, err error)

// Until runs check according to the policy until it reports done, returns
// an error, or the policy is exhausted.
func Until(ctx context.Context, clock Clock, p Policy, check CheckFunc) error {
	if !p.Bounded() {
		return ErrUnbounded
	}

	start := clock.Now()
	if p.InitialDelay > 0 {
		if err := clock.Sleep(ctx, p.InitialDelay); err != nil {
			return err
		}
	}

	for attempt := 1; ; attempt++ {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return fmt.Errorf("%w: %d attempts", ErrExhausted, attempt)
		}

		wait := p.Interval
		if p.Timeout > 0 {
			remaining := p.Timeout - clock.Now().Sub(start)
			if remaining <= 0 {
				return fmt.Errorf("%w: %s elapsed", ErrExhausted, p.Timeout)
			}
			if wait > remaining {
				wait = remaining
			}
		}

		if err := clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}
