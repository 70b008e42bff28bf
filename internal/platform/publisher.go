// Package platform adapts outbound messages into per-platform network
// delivery: character budgets, thread segmentation with reply-chaining,
// retry with backoff, and error classification.
package platform

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"postwave/internal/domain"
	"postwave/internal/metrics"
	"postwave/internal/segment"
)

// numberingReserve is the room kept in each segment for the " k/N" ordinal
// suffix (covers up to "25/25").
const numberingReserve = 6

const (
	defaultInterSendDelay = time.Second
	defaultRetryBase      = time.Second
	defaultHTTPTimeout    = 30 * time.Second
)

// Publisher is the per-platform delivery strategy.
type Publisher interface {
	Name() domain.Platform
	CharacterBudget() int
	SupportsThreading() bool
	MaxSegments() int

	// PublishPost turns sanitized content into one or more ordered network
	// calls and a classified result. The token is used only for this call
	// and must never leak into errors or logs.
	PublishPost(ctx context.Context, token, content string) domain.PublishResult
}

// Registry maps platform names to their publishers.
type Registry struct {
	pubs map[domain.Platform]Publisher
}

// NewRegistry builds a registry from the given publishers.
func NewRegistry(pubs ...Publisher) *Registry {
	r := &Registry{pubs: make(map[domain.Platform]Publisher, len(pubs))}
	for _, p := range pubs {
		r.pubs[p.Name()] = p
	}
	return r
}

// Get returns the publisher for a platform.
func (r *Registry) Get(p domain.Platform) (Publisher, bool) {
	pub, ok := r.pubs[p]
	return pub, ok
}

// Names lists registered platforms.
func (r *Registry) Names() []domain.Platform {
	names := make([]domain.Platform, 0, len(r.pubs))
	for name := range r.pubs {
		names = append(names, name)
	}
	return names
}

// sendFunc performs one segment send, replying to the platform id of the
// previous segment (empty for the first), and returns the new platform id.
type sendFunc func(ctx context.Context, body, replyTo string) (string, error)

// sender bundles the delivery knobs shared by every adapter: inter-segment
// pacing and retry backoff.
type sender struct {
	pace      *rate.Limiter
	retryBase time.Duration
	logger    *slog.Logger
}

func newSender(interSendDelay, retryBase time.Duration, logger *slog.Logger) sender {
	if interSendDelay <= 0 {
		interSendDelay = defaultInterSendDelay
	}
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}
	if logger == nil {
		logger = slog.Default()
	}
	return sender{
		pace:      rate.NewLimiter(rate.Every(interSendDelay), 1),
		retryBase: retryBase,
		logger:    logger,
	}
}

// deliver sends content as a single message when it fits the budget, or as
// a strictly sequential reply-chained thread otherwise. Segment sends are
// never parallel: each one needs the platform id of its predecessor, and
// sequential sends respect the platform's burst tolerance.
func (s sender) deliver(ctx context.Context, p Publisher, content string, send sendFunc) domain.PublishResult {
	if utf8.RuneCountInString(content) <= p.CharacterBudget() {
		id, err := s.sendWithRetry(ctx, func() (string, error) { return send(ctx, content, "") })
		if err != nil {
			return domain.Failed(AsPublishError(err))
		}
		metrics.SegmentsSent.Inc()
		return domain.Success(id)
	}

	if !p.SupportsThreading() {
		return domain.Failed(&domain.PublishError{
			Kind: domain.ErrKindContentTooLong,
			Message: fmt.Sprintf("content exceeds the %d character budget and %s does not support threads",
				p.CharacterBudget(), p.Name()),
		})
	}

	segs, err := segment.Split(content, p.CharacterBudget(), numberingReserve, p.MaxSegments())
	if err != nil {
		return domain.Failed(&domain.PublishError{
			Kind:    domain.ErrKindContentTooLong,
			Message: err.Error(),
		})
	}

	ids := make([]string, 0, len(segs))
	lastID := ""
	for _, seg := range segs {
		// Every send goes through the pacer, the first included, so
		// consecutive segments start at least one interval apart.
		if err := s.pace.Wait(ctx); err != nil {
			return s.interrupted(ids, len(segs), err)
		}
		body, replyTo := seg.Body, lastID
		id, err := s.sendWithRetry(ctx, func() (string, error) { return send(ctx, body, replyTo) })
		if err != nil {
			return s.interrupted(ids, len(segs), err)
		}
		metrics.SegmentsSent.Inc()
		ids = append(ids, id)
		lastID = id
	}
	return domain.Success(ids...)
}

// interrupted resolves a mid-thread failure or cancellation: segments
// already live stay published, so the result is a partial success carrying
// the ids sent so far rather than an opaque total failure.
func (s sender) interrupted(ids []string, total int, err error) domain.PublishResult {
	if len(ids) == 0 {
		return domain.Failed(AsPublishError(err))
	}
	metrics.IncompleteSends.Inc()
	s.logger.Error("thread interrupted after partial delivery",
		"sent", len(ids), "total", total, "err", AsPublishError(err).Error())
	return domain.PartialSuccess(ids)
}

// sendWithRetry executes one segment send with exponential backoff and
// jitter for retryable failures (network errors, 5xx), up to the attempt
// ceiling. Non-retryable classifications, including 429, return immediately.
func (s sender) sendWithRetry(ctx context.Context, fn func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		if attempt > 1 {
			metrics.SendRetries.Inc()
			backoff := backoffDelay(s.retryBase, attempt-1)
			s.logger.Warn("send failed, retrying", "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
		id, err := fn()
		if err == nil {
			return id, nil
		}
		lastErr = err
		if !AsPublishError(err).Retryable {
			return "", err
		}
	}
	return "", lastErr
}
