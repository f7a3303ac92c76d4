package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/jciesla/mediavault"
)

// Class is the retry classification of a remote fault.
type Class int

// Fault classes.
const (
	// Transient faults are expected to succeed on retry (lock contention,
	// overload).
	Transient Class = iota

	// Permanent faults cannot be resolved by retrying (not found,
	// forbidden, malformed request).
	Permanent
)

// Classifier maps an error to a fault class.
type Classifier func(error) Class

// ClassifyByCode classifies faults by application error code: ECONFLICT and
// EUNAVAILABLE are Transient, everything else is Permanent.
func ClassifyByCode(err error) Class {
	switch mediavault.ErrorCode(err) {
	case mediavault.ECONFLICT, mediavault.EUNAVAILABLE:
		return Transient
	default:
		return Permanent
	}
}

// BackoffDelays returns the delays separating retry attempts: the delay
// before attempt n is base×2^(n−1), so a 3-attempt retryer with a 1s base
// sleeps 2s and then 4s.
func BackoffDelays(base time.Duration, attempts int) []time.Duration {
	delays := make([]time.Duration, 0, attempts-1)
	for n := 2; n <= attempts; n++ {
		delays = append(delays, base<<(n-1))
	}
	return delays
}

// ExhaustedError is returned when a transient fault persists through all
// retry attempts. Callers treat it as a permanent item-level failure.
type ExhaustedError struct {
	Attempts int
	Err      error // last transient cause
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Retryer runs operations with bounded exponential backoff. It is stateless
// across calls; each Do invocation tracks its own attempts. The zero value
// retries nothing; use NewRetryer for the standard 3-attempt schedule.
type Retryer struct {
	// Delays separating attempts; len(Delays)+1 total attempts.
	// Tests inject zero delays to avoid real sleeps.
	Delays []time.Duration
}

// NewRetryer returns a Retryer with the standard schedule: 3 total
// attempts separated by 2×base and 4×base.
func NewRetryer(base time.Duration) *Retryer {
	return &Retryer{Delays: BackoffDelays(base, 3)}
}

// Do runs op once, then retries transient failures up to the configured
// attempt count. Permanent failures propagate immediately; exhausted
// transient failures are wrapped in *ExhaustedError. Context cancellation
// interrupts the backoff sleep.
func (r *Retryer) Do(ctx context.Context, op func(ctx context.Context) error, classify Classifier) error {
	if classify == nil {
		classify = ClassifyByCode
	}
	attempts := len(r.Delays) + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if classify(err) == Permanent {
			return err
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.Delays[attempt-1]):
		}
	}

	return &ExhaustedError{Attempts: attempts, Err: lastErr}
}
