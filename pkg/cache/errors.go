package cache

import (
	"context"
	"errors"
	"time"
)

// ErrBackend marks failures of a remote backend (connection refused,
// timeouts). Such failures are retried by [RetryWithBackoff].
var ErrBackend = errors.New("cache backend unavailable")

// RetryableError marks err as transient.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was wrapped by Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff controls RetryWithBackoff.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// DefaultBackoff is three attempts starting at 100ms.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 100 * time.Millisecond}

// RetryWithBackoff calls fn until it succeeds, returns a non-retryable
// error, or DefaultBackoff is exhausted. The delay doubles per attempt.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultBackoff.Retry(ctx, fn)
}

// Retry is RetryWithBackoff with b's settings.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
