package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsWithinAttempts(t *testing.T) {
	cfg := Config{MaxAttempts: 3, Interval: time.Millisecond}

	attempts := 0
	err := Do(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustionReturnsLastErrorVerbatim(t *testing.T) {
	cfg := Config{MaxAttempts: 2, Interval: time.Millisecond}

	attempts := 0
	var lastErr error
	err := Do(context.Background(), cfg, func() error {
		attempts++
		lastErr = errors.New("failure " + string(rune('0'+attempts)))
		return lastErr
	})

	require.Error(t, err)
	assert.Equal(t, 2, attempts)
	// The last attempt's error comes back unwrapped so the caller sees
	// the original cause.
	assert.Equal(t, lastErr, err)
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	fatal := errors.New("fatal")
	cfg := Config{
		MaxAttempts: 5,
		Interval:    time.Millisecond,
		Retryable:   func(err error) bool { return !errors.Is(err, fatal) },
	}

	attempts := 0
	err := Do(context.Background(), cfg, func() error {
		attempts++
		return fatal
	})

	assert.Equal(t, 1, attempts)
	assert.Equal(t, fatal, err)
}

func TestDo_OnRetryCalledBetweenAttemptsOnly(t *testing.T) {
	var notified []int
	cfg := Config{
		MaxAttempts: 3,
		Interval:    time.Millisecond,
		OnRetry:     func(attempt int, _ error) { notified = append(notified, attempt) },
	}

	err := Do(context.Background(), cfg, func() error {
		return errors.New("failing")
	})

	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, notified)
}

func TestDo_CancellationDuringSleepIsInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 5, Interval: time.Minute}

	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, cfg, func() error {
			attempts++
			return errors.New("failing")
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	err := <-done

	require.Error(t, err)
	assert.True(t, IsInterrupted(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDo_AlreadyCancelledContextNeverAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(ctx, Config{MaxAttempts: 3, Interval: time.Millisecond}, func() error {
		attempts++
		return nil
	})

	require.Error(t, err)
	assert.True(t, IsInterrupted(err))
	assert.Equal(t, 0, attempts)
}

func TestDoWithResult_ReturnsValue(t *testing.T) {
	cfg := Config{MaxAttempts: 3, Interval: time.Millisecond}

	attempts := 0
	got, err := DoWithResult(context.Background(), cfg, func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("transient")
		}
		return "offset", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "offset", got)
}

func TestIsInterrupted(t *testing.T) {
	assert.False(t, IsInterrupted(nil))
	assert.False(t, IsInterrupted(errors.New("plain")))
	assert.True(t, IsInterrupted(&InterruptedError{Attempt: 1, Cause: context.Canceled}))
}
