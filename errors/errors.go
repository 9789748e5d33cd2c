// Package errors provides standardized error classification for the SDK.
// It distinguishes the failure modes the offset reader must treat
// differently: transient remote failures (retried), configuration errors
// (fatal at construction), data-integrity violations (fatal, never
// retried), programming-contract violations (fatal illegal state), and
// interruption (aborts retry loops, surfaced distinctly).
package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/uncleGen/aliyun-spark-sdk/pkg/retry"
)

// Class represents the classification of errors for handling purposes
type Class int

const (
	// ClassTransient represents temporary remote failures that may be retried
	ClassTransient Class = iota
	// ClassConfig represents errors due to missing or invalid configuration
	ClassConfig
	// ClassIntegrity represents data-integrity violations from the service
	// or from internal logic; never retried
	ClassIntegrity
	// ClassContract represents programming-contract violations (illegal state)
	ClassContract
	// ClassInterrupted represents an aborted operation
	ClassInterrupted
)

// String returns the string representation of Class
func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassConfig:
		return "config"
	case ClassIntegrity:
		return "integrity"
	case ClassContract:
		return "contract"
	case ClassInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	ErrMissingConfig  = errors.New("missing required configuration")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrReaderClosed   = errors.New("reader is closed")
	ErrNonMonotonic   = errors.New("histogram buckets are not strictly increasing")
	ErrEndBeforeStart = errors.New("resolved end offset precedes start offset")
	ErrOffWorker      = errors.New("retry wrapper invoked outside the dedicated worker")
	ErrMissingBudget  = errors.New("maxRecordsPerCycle is required on the histogram path")
	ErrNoShards       = errors.New("store has no shards")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     Class
	Err       error
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

func newClassified(class Class, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{
		Class:     class,
		Err:       Wrap(err, component, method, action),
		Component: component,
		Operation: method,
	}
}

// WrapTransient wraps an error as a retryable remote failure with context
func WrapTransient(err error, component, method, action string) error {
	return newClassified(ClassTransient, err, component, method, action)
}

// WrapConfig wraps an error as a configuration error with context
func WrapConfig(err error, component, method, action string) error {
	return newClassified(ClassConfig, err, component, method, action)
}

// WrapIntegrity wraps an error as a data-integrity violation with context
func WrapIntegrity(err error, component, method, action string) error {
	return newClassified(ClassIntegrity, err, component, method, action)
}

// WrapContract wraps an error as a programming-contract violation with context
func WrapContract(err error, component, method, action string) error {
	return newClassified(ClassContract, err, component, method, action)
}

// MissingKey returns a configuration error naming the missing key
func MissingKey(component, key string) error {
	return &ClassifiedError{
		Class:     ClassConfig,
		Err:       fmt.Errorf("%s: %w: %q", component, ErrMissingConfig, key),
		Component: component,
	}
}

func classOf(err error) (Class, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class, true
	}
	return 0, false
}

// IsRetryable checks if an error is a transient remote failure that the
// retry policy should retry. Unclassified errors are treated as transient:
// anything a remote client returns that is not explicitly fatal is assumed
// recoverable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsInterrupted(err) {
		return false
	}
	if class, ok := classOf(err); ok {
		return class == ClassTransient
	}
	return true
}

// IsConfig checks if an error is a configuration error
func IsConfig(err error) bool {
	if errors.Is(err, ErrMissingConfig) || errors.Is(err, ErrInvalidConfig) {
		return true
	}
	class, ok := classOf(err)
	return ok && class == ClassConfig
}

// IsIntegrity checks if an error is a data-integrity violation
func IsIntegrity(err error) bool {
	if errors.Is(err, ErrNonMonotonic) || errors.Is(err, ErrEndBeforeStart) {
		return true
	}
	class, ok := classOf(err)
	return ok && class == ClassIntegrity
}

// IsContract checks if an error is a programming-contract violation
func IsContract(err error) bool {
	if errors.Is(err, ErrOffWorker) || errors.Is(err, ErrMissingBudget) {
		return true
	}
	class, ok := classOf(err)
	return ok && class == ClassContract
}

// IsInterrupted checks if an error signals interruption, either classified
// directly, produced by an aborted retry sequence, or stemming from context
// cancellation.
func IsInterrupted(err error) bool {
	if err == nil {
		return false
	}
	if retry.IsInterrupted(err) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	class, ok := classOf(err)
	return ok && class == ClassInterrupted
}

// Classify returns the error class for an error
func Classify(err error) Class {
	if class, ok := classOf(err); ok {
		return class
	}
	if IsInterrupted(err) {
		return ClassInterrupted
	}
	if IsConfig(err) {
		return ClassConfig
	}
	if IsIntegrity(err) {
		return ClassIntegrity
	}
	if IsContract(err) {
		return ClassContract
	}
	return ClassTransient
}
