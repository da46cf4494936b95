// Package retry provides a bounded-retry policy for transient storage
// faults. The policy is an explicit object invoked imperatively around the
// specific calls that need it, not a blanket decorator: 3 attempts with
// exponential backoff starting at 4 seconds and capped at 10.
package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bluecollarverse/media-pipeline/internal/mediaerr"
)

// Policy describes the bounded retry behavior for one class of operation.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseDelay is the wait after the first failure; it doubles per attempt.
	BaseDelay time.Duration

	// MaxDelay caps the backoff.
	MaxDelay time.Duration

	// Retryable decides whether an error is worth another attempt.
	// A nil predicate retries nothing.
	Retryable func(error) bool
}

// Default is the storage-provider policy: 3 attempts, 4s/8s backoff capped
// at 10s, retrying only transient storage faults.
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   4 * time.Second,
		MaxDelay:    10 * time.Second,
		Retryable:   mediaerr.Retryable,
	}
}

// Do runs fn until it succeeds, exhausts MaxAttempts, returns a
// non-retryable error, or ctx is cancelled. op names the operation in logs.
func (p Policy) Do(ctx context.Context, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		delay := p.backoff(attempt)
		log.Warn().
			Err(err).
			Str("op", op).
			Int("attempt", attempt).
			Int("maxAttempts", attempts).
			Dur("backoff", delay).
			Msg("Transient fault, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	log.Error().Err(err).Str("op", op).Int("attempts", attempts).Msg("Retries exhausted")
	return err
}

// backoff returns the exponential delay after the given 1-based attempt.
func (p Policy) backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}
