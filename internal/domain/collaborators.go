package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotConnected is returned by a TokenSource when the user has no
// credential for the requested platform. The pipeline short-circuits on it
// before doing any sanitization work.
var ErrNotConnected = errors.New("platform not connected")

// TokenSource supplies a valid bearer credential per user and platform.
// Token acquisition (OAuth flows, refresh) lives outside this core.
type TokenSource interface {
	Token(ctx context.Context, userID string, platform Platform) (string, error)
}

// Generator supplies raw candidate content. It imposes no contract beyond
// producing a string; everything it returns is treated as untrusted.
type Generator interface {
	Draft(ctx context.Context, topic string, platform Platform, tone Tone) (string, error)
}

// PublishedPost is the persisted shape of a successful publish.
type PublishedPost struct {
	ID         string
	UserID     string
	Platform   Platform
	Content    string
	MessageIDs []string // platform-assigned ids, in send order
	Incomplete bool
	CreatedAt  time.Time
}

// AuditEntry records an advisory pipeline event (risk findings, rate
// denials, publish outcomes) for later inspection.
type AuditEntry struct {
	Action    string // risk_detected | rate_denied | publish_ok | publish_failed
	UserID    string
	Platform  string
	Detail    string
	Level     string
	CreatedAt time.Time
}

// ResultStore persists publish outcomes. A store failure must never undo a
// successful publish: callers log it and move on.
type ResultStore interface {
	SavePost(ctx context.Context, post PublishedPost) error
	SaveAudit(ctx context.Context, entry AuditEntry) error
}
