// Package retry provides fixed-interval bounded retry logic for remote offset calls
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// InterruptedError reports that a retry sequence was aborted by context
// cancellation rather than by exhausting its attempts. Callers that need to
// distinguish "interrupted" from "retries exhausted" check for this type.
type InterruptedError struct {
	Attempt int
	Cause   error
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("interrupted at attempt %d: %v", e.Attempt, e.Cause)
}

func (e *InterruptedError) Unwrap() error {
	return e.Cause
}

// IsInterrupted checks if an error came from an aborted retry sequence
func IsInterrupted(err error) bool {
	var ie *InterruptedError
	return errors.As(err, &ie)
}

// Config provides retry configuration. The delay between attempts is fixed;
// there is no backoff multiplier or jitter.
type Config struct {
	MaxAttempts int                          // Total number of attempts (0 = run once)
	Interval    time.Duration                // Fixed delay between attempts
	Retryable   func(error) bool             // Nil means retry every error
	OnRetry     func(attempt int, err error) // Called before each re-attempt sleep, for logging
}

// DefaultConfig returns the default offset-fetch retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		Interval:    time.Second,
	}
}

// Do executes fn up to cfg.MaxAttempts times with a fixed delay between
// attempts. A non-retryable error is returned immediately. If every attempt
// fails, the error from the last attempt is returned verbatim, without
// wrapping, so the caller sees the original cause. Context cancellation at
// any point aborts with *InterruptedError regardless of remaining attempts.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Interval < 0 {
		return errors.New("retry: Interval cannot be negative")
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return &InterruptedError{Attempt: attempt, Cause: err}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return err
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		timer := time.NewTimer(cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return &InterruptedError{Attempt: attempt, Cause: ctx.Err()}
		case <-timer.C:
		}
	}

	return lastErr
}

// DoWithResult executes fn with retry and returns both result and error
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func() error {
		var innerErr error
		result, innerErr = fn()
		return innerErr
	})
	return result, err
}
