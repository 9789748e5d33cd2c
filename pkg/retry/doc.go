// Package retry implements the bounded, fixed-interval retry discipline
// required by the loghub remote client. Unlike a general-purpose backoff
// helper it returns the last attempt's error verbatim on exhaustion and
// surfaces context cancellation as a distinct InterruptedError, so callers
// can tell "the service kept failing" apart from "we were told to stop".
package retry
