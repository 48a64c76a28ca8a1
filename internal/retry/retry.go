// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry provides a bounded retry policy shared by every call site
// that talks to an external service.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// BaseDelay is the unit of the default exponential backoff. Tests override
// this to avoid real sleeps.
var BaseDelay = time.Second

// ErrExhausted matches any error returned after the last attempt failed.
var ErrExhausted = errors.New("retries exhausted")

// BackoffFunc returns the wait after the given failed attempt (1-based).
type BackoffFunc func(attempt int) time.Duration

// Exponential returns a backoff of 2^(attempt-1) * base: base, 2*base, 4*base...
func Exponential(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(math.Pow(2, float64(attempt-1))) * base
	}
}

// ExhaustedError wraps the last error once every attempt has failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Is reports whether target is ErrExhausted.
func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

// Policy is a bounded retry policy with a fallback value. The zero value
// makes a single attempt with no backoff.
type Policy[T any] struct {
	// MaxAttempts is the total number of calls, first call included.
	MaxAttempts int

	// Backoff computes the wait after a failed attempt. Nil means Exponential(BaseDelay).
	Backoff BackoffFunc

	// Fallback is returned alongside an ExhaustedError.
	Fallback T

	// Retryable reports whether err is worth another attempt. Nil retries everything.
	Retryable func(err error) bool

	// OnRetry is called after each failed attempt that will be retried.
	OnRetry func(attempt int, err error, wait time.Duration)

	// OnExhausted is called once when the final attempt fails.
	OnExhausted func(attempts int, err error)
}

// New returns a policy with max attempts, exponential backoff from
// BaseDelay, and the given fallback.
func New[T any](maxAttempts int, fallback T) Policy[T] {
	return Policy[T]{MaxAttempts: maxAttempts, Fallback: fallback}
}

// Run calls fn until it succeeds, the attempts run out, a non-retryable
// error is returned, or ctx is done. On exhaustion it returns Fallback and an
// ExhaustedError. On cancellation it returns the zero value and ctx.Err().
func (p Policy[T]) Run(ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = Exponential(BaseDelay)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		lastErr = err

		if attempt == attempts || (p.Retryable != nil && !p.Retryable(err)) {
			if p.OnExhausted != nil {
				p.OnExhausted(attempt, err)
			}
			return p.Fallback, &ExhaustedError{Attempts: attempt, Err: err}
		}

		wait := backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return p.Fallback, &ExhaustedError{Attempts: attempts, Err: lastErr}
}

// Do runs fn under a policy without a result value.
func Do(ctx context.Context, p Policy[struct{}], fn func(ctx context.Context) error) error {
	_, err := p.Run(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
