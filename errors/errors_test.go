package errors

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/uncleGen/aliyun-spark-sdk/pkg/retry"
)

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))

	// Unclassified remote failures default to retryable.
	assert.True(t, IsRetryable(stderrors.New("connection reset")))
	assert.True(t, IsRetryable(WrapTransient(stderrors.New("throttled"), "Reader", "ListShards", "list shards")))

	// Everything else propagates immediately.
	assert.False(t, IsRetryable(MissingKey("Reader", "sls.project")))
	assert.False(t, IsRetryable(WrapIntegrity(ErrNonMonotonic, "Reader", "RateLimit", "validate")))
	assert.False(t, IsRetryable(WrapContract(ErrOffWorker, "dispatcher", "withRetries", "check")))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(&retry.InterruptedError{Cause: context.Canceled}))
}

func TestMissingKeyNamesTheKey(t *testing.T) {
	err := MissingKey("Reader", "access.key.id")

	assert.True(t, IsConfig(err))
	assert.ErrorIs(t, err, ErrMissingConfig)
	assert.Contains(t, err.Error(), "access.key.id")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"transient wrap", WrapTransient(stderrors.New("x"), "c", "m", "a"), ClassTransient},
		{"config wrap", WrapConfig(ErrInvalidConfig, "c", "m", "a"), ClassConfig},
		{"integrity wrap", WrapIntegrity(ErrEndBeforeStart, "c", "m", "a"), ClassIntegrity},
		{"contract wrap", WrapContract(ErrMissingBudget, "c", "m", "a"), ClassContract},
		{"interrupted", &retry.InterruptedError{Cause: context.Canceled}, ClassInterrupted},
		{"unknown defaults transient", stderrors.New("mystery"), ClassTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("root cause")
	err := WrapTransient(cause, "Reader", "FetchLatestOffsets", "resolve cursor")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Reader.FetchLatestOffsets")

	var ce *ClassifiedError
	assert.True(t, stderrors.As(err, &ce))
	assert.Equal(t, ClassTransient, ce.Class)
	assert.Equal(t, "Reader", ce.Component)
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "c", "m", "a"))
	assert.NoError(t, WrapTransient(nil, "c", "m", "a"))
	assert.NoError(t, WrapIntegrity(nil, "c", "m", "a"))
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "transient", ClassTransient.String())
	assert.Equal(t, "config", ClassConfig.String())
	assert.Equal(t, "integrity", ClassIntegrity.String())
	assert.Equal(t, "contract", ClassContract.String())
	assert.Equal(t, "interrupted", ClassInterrupted.String())
}
