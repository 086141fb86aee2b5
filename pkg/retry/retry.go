// Package retry is the single place in the engine where remote calls may be
// retried. Callers must establish idempotency before reaching for it; every
// other failure surfaces to the caller on the first attempt.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

type Config struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        bool

	// Retryable decides whether an error is worth another attempt. A nil
	// predicate retries everything up to MaxAttempts.
	Retryable func(error) bool
}

var DefaultConfig = Config{
	MaxAttempts:   3,
	InitialDelay:  200 * time.Millisecond,
	MaxDelay:      2 * time.Second,
	BackoffFactor: 2.0,
	Jitter:        true,
}

// Delay returns the backoff delay before the given attempt (1-based).
func Delay(attempt int, cfg Config) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if d > float64(cfg.MaxDelay) {
		d = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		d *= 0.8 + rand.Float64()*0.4
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// Do runs fn up to cfg.MaxAttempts times, sleeping the backoff delay between
// attempts. It returns nil on the first success, ctx.Err() if the context
// ends first, and the last error otherwise.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}
		if cfg.Retryable != nil && !cfg.Retryable(err) {
			break
		}

		if delay := Delay(attempt, cfg); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}
	return lastErr
}
