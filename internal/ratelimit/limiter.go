// Package ratelimit gates pipeline operations with a distributed
// sliding-window counter. The counter is an external collaborator; if it is
// unreachable the gate fails open, preferring availability over strict
// enforcement.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"postwave/internal/metrics"
)

// Class is a logical operation class with its own limit and window.
type Class string

const (
	ClassAuth     Class = "auth"     // authentication-adjacent, by network identity
	ClassGenerate Class = "generate" // AI draft generation, by user identity
	ClassPublish  Class = "publish"  // platform publishing, by user identity
	ClassAPI      Class = "api"      // generic API traffic, by network identity
)

// Policy is the limit over a trailing window for one class.
type Policy struct {
	Limit  int
	Window time.Duration
}

// DefaultPolicies returns the recommended per-class limits. These are
// tunables, not contracts.
func DefaultPolicies() map[Class]Policy {
	return map[Class]Policy{
		ClassAuth:     {Limit: 5, Window: time.Minute},
		ClassGenerate: {Limit: 10, Window: time.Hour},
		ClassPublish:  {Limit: 20, Window: time.Hour},
		ClassAPI:      {Limit: 100, Window: time.Hour},
	}
}

// Counter is the remote sliding-window counter contract. Record adds one
// event for key at now, prunes events older than the window, and returns the
// count of events inside the window plus the oldest surviving timestamp.
type Counter interface {
	Record(ctx context.Context, key string, now time.Time, window time.Duration) (count int, oldest time.Time, err error)
}

// Window is the result of one rate-limit check. Mutated only by the counter
// service; read-only to the pipeline.
type Window struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the human-facing cool-down until the window frees a slot.
func (w Window) RetryAfter(now time.Time) time.Duration {
	d := w.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d.Round(time.Second)
}

// Gate performs check-then-act rate limiting for the pipeline. A Gate is
// safe for concurrent use; all state lives in the counter.
type Gate struct {
	counter  Counter
	policies map[Class]Policy
	logger   *slog.Logger
}

// NewGate builds a gate over the given counter. Nil policies fall back to
// DefaultPolicies.
func NewGate(counter Counter, policies map[Class]Policy, logger *slog.Logger) *Gate {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Gate{counter: counter, policies: policies, logger: logger}
}

// Check records one request for identity under class and reports whether it
// is allowed. Counter failure is logged and treated as allowed (fail-open);
// it is never surfaced to the caller.
func (g *Gate) Check(ctx context.Context, identity string, class Class) Window {
	pol, ok := g.policies[class]
	if !ok {
		pol = DefaultPolicies()[ClassAPI]
	}
	now := time.Now()

	key := fmt.Sprintf("%s:%s", class, identity)
	count, oldest, err := g.counter.Record(ctx, key, now, pol.Window)
	if err != nil {
		metrics.RateFailOpen.Inc()
		g.logger.Error("rate-limit counter unreachable, failing open",
			"class", string(class), "err", err)
		return Window{Allowed: true, Limit: pol.Limit, Remaining: pol.Limit, ResetAt: now}
	}

	remaining := pol.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	w := Window{
		Allowed:   count <= pol.Limit,
		Limit:     pol.Limit,
		Remaining: remaining,
		ResetAt:   oldest.Add(pol.Window),
	}
	if !w.Allowed {
		metrics.RateDenied.Inc()
		g.logger.Warn("rate limit exceeded",
			"class", string(class), "limit", pol.Limit, "reset_at", w.ResetAt)
	}
	return w
}
