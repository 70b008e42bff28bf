package domain

import (
	"fmt"
	"time"
)

// ErrorKind classifies a terminal publish failure.
type ErrorKind string

const (
	ErrKindTokenExpired   ErrorKind = "TOKEN_EXPIRED"
	ErrKindRateLimited    ErrorKind = "RATE_LIMIT_EXCEEDED"
	ErrKindContentTooLong ErrorKind = "CONTENT_TOO_LONG"
	ErrKindForbidden      ErrorKind = "FORBIDDEN"
	ErrKindServerError    ErrorKind = "SERVER_ERROR"
	ErrKindBadRequest     ErrorKind = "BAD_REQUEST"
	ErrKindNetwork        ErrorKind = "NETWORK"
	ErrKindNotConnected   ErrorKind = "NOT_CONNECTED"
	ErrKindInvalidContent ErrorKind = "INVALID_CONTENT"
)

// PublishError is a classified terminal failure. Message must never contain
// credentials or raw tokens.
type PublishError struct {
	Kind       ErrorKind
	Retryable  bool
	Status     int           // HTTP status when the failure came from a response
	Message    string        // human-readable, secret-free
	RetryAfter time.Duration // cool-down for ErrKindRateLimited, 0 otherwise
}

func (e *PublishError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// PublishResult is the outcome of one publish attempt sequence. Exactly one
// of the two arms is populated: OK with the ordered platform message ids, or
// a classified failure. A thread interrupted after at least one segment went
// live is still a success, with Incomplete set and the ids sent so far.
type PublishResult struct {
	OK         bool
	MessageIDs []string
	Incomplete bool
	Failure    *PublishError
}

// Success builds a complete successful result.
func Success(ids ...string) PublishResult {
	return PublishResult{OK: true, MessageIDs: ids}
}

// PartialSuccess builds a successful result for an interrupted thread.
func PartialSuccess(ids []string) PublishResult {
	return PublishResult{OK: true, MessageIDs: ids, Incomplete: true}
}

// Failed builds a failure result.
func Failed(err *PublishError) PublishResult {
	return PublishResult{Failure: err}
}
