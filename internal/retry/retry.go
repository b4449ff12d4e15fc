// Package retry provides a reusable retry policy for script generation,
// speech synthesis and configuration loading.
package retry

import (
	"context"
	"time"
)

// BackoffFunc returns the delay before the attempt following the given
// failed attempt (1-based) that ended with err.
type BackoffFunc func(attempt int, err error) time.Duration

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// NotifyFunc is called after a failed attempt that will be retried.
type NotifyFunc func(attempt int, err error, delay time.Duration)

// Policy defines how many times an operation is attempted and how long to
// wait between attempts.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// Backoff computes the wait before the next attempt. Nil means no wait.
	Backoff BackoffFunc

	// Retryable decides whether err is worth another attempt. Nil retries every error.
	Retryable func(err error) bool

	Notify NotifyFunc
	Sleep  SleepFunc
}

// Exponential returns a backoff that doubles base on every attempt:
// base, 2*base, 4*base, ...
func Exponential(base time.Duration) BackoffFunc {
	return func(attempt int, _ error) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return base << (attempt - 1)
	}
}

// Linear returns a backoff of attempt*step.
func Linear(step time.Duration) BackoffFunc {
	return func(attempt int, _ error) time.Duration {
		return time.Duration(attempt) * step
	}
}

// Do runs fn until it succeeds, the policy gives up, or ctx is done.
// The error of the last attempt is returned.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepWithCtx
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, err
		}

		val, err := fn(ctx, attempt)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if p.Retryable != nil && !p.Retryable(err) {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt, err)
		}
		if p.Notify != nil {
			p.Notify(attempt, err, delay)
		}
		if delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return zero, lastErr
			}
		}
	}

	return zero, lastErr
}

func sleepWithCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
