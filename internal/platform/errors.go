package platform

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"postwave/internal/domain"
)

// maxSendAttempts is the fixed ceiling for one segment send, counting the
// first try.
const maxSendAttempts = 3

// backoffDelay is the exponential backoff with jitter before retry n
// (1-based): base, 2*base, ... plus up to half the step to prevent
// thundering herd.
func backoffDelay(base time.Duration, n int) time.Duration {
	d := base << (n - 1)
	return d + time.Duration(rand.Int63n(int64(d/2+1)))
}

// AsPublishError coerces any send error into a classified PublishError.
// Plain transport errors become retryable NETWORK failures; context
// cancellation is not retryable.
func AsPublishError(err error) *domain.PublishError {
	var perr *domain.PublishError
	if errors.As(err, &perr) {
		return perr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &domain.PublishError{Kind: domain.ErrKindNetwork, Message: "request cancelled"}
	}
	return &domain.PublishError{
		Kind:      domain.ErrKindNetwork,
		Retryable: true,
		Message:   fmt.Sprintf("transport error: %v", err),
	}
}

// classifyStatus maps a terminal HTTP status to the failure taxonomy.
// detail must already be secret-free.
func classifyStatus(status int, detail string, retryAfter time.Duration) *domain.PublishError {
	e := &domain.PublishError{Status: status, Message: detail}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = domain.ErrKindTokenExpired
		if e.Message == "" {
			e.Message = "platform credential expired or invalid, re-authentication required"
		}
	case status == http.StatusForbidden:
		e.Kind = domain.ErrKindForbidden
		if e.Message == "" {
			e.Message = "permission or scope denied by the platform"
		}
	case status == http.StatusTooManyRequests:
		e.Kind = domain.ErrKindRateLimited
		e.RetryAfter = retryAfter
		if e.Message == "" {
			e.Message = "platform rate limit exceeded"
		}
		if retryAfter > 0 {
			e.Message = fmt.Sprintf("%s, retry after %s", e.Message, retryAfter)
		}
	case status == http.StatusRequestEntityTooLarge || status == http.StatusUnprocessableEntity:
		e.Kind = domain.ErrKindContentTooLong
		if e.Message == "" {
			e.Message = "platform rejected the content length"
		}
	case status >= 500:
		e.Kind = domain.ErrKindServerError
		e.Retryable = true
		if e.Message == "" {
			e.Message = "platform server error"
		}
	default:
		e.Kind = domain.ErrKindBadRequest
		if e.Message == "" {
			e.Message = "platform rejected the request"
		}
	}
	return e
}

// retryAfterFromHeader reads the platform's stated cool-down from either a
// Retry-After seconds value or an x-rate-limit-reset epoch timestamp.
func retryAfterFromHeader(h http.Header, now time.Time) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if v := h.Get("x-rate-limit-reset"); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			if d := time.Unix(epoch, 0).Sub(now); d > 0 {
				return d
			}
		}
	}
	return 0
}
