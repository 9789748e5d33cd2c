// Package errors defines the error taxonomy shared across the SDK.
//
// The retry policy in pkg/retry dispatches on IsRetryable: only transient
// remote failures are retried. Configuration, integrity, and contract
// errors propagate immediately, and interruption is surfaced distinctly so
// callers can tell an aborted call from an exhausted retry sequence.
package errors
