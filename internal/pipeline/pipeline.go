// Package pipeline chains the outbound content defenses: credential lookup,
// normalization, risk assessment, sanitization, validation, rate limiting,
// and platform delivery, with every outcome audited.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"postwave/internal/domain"
	"postwave/internal/metrics"
	"postwave/internal/platform"
	"postwave/internal/ratelimit"
	"postwave/internal/text"
	"postwave/internal/validate"
)

// Pipeline wires the defense stages around platform publishing. All
// collaborators are required except generator and store, which may be nil
// when the deployment does not draft or persist.
type Pipeline struct {
	tokens    domain.TokenSource
	generator domain.Generator
	sanitizer *text.Sanitizer
	gate      *ratelimit.Gate
	registry  *platform.Registry
	store     domain.ResultStore
	logger    *slog.Logger
}

// Options carries the pipeline collaborators.
type Options struct {
	Tokens    domain.TokenSource
	Generator domain.Generator
	Sanitizer *text.Sanitizer
	Gate      *ratelimit.Gate
	Registry  *platform.Registry
	Store     domain.ResultStore
	Logger    *slog.Logger
}

// New assembles a pipeline.
func New(opts Options) *Pipeline {
	if opts.Sanitizer == nil {
		opts.Sanitizer = text.NewSanitizer()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		tokens:    opts.Tokens,
		generator: opts.Generator,
		sanitizer: opts.Sanitizer,
		gate:      opts.Gate,
		registry:  opts.Registry,
		store:     opts.Store,
		logger:    opts.Logger,
	}
}

// PublishRequest is one publish attempt for a user's post body.
type PublishRequest struct {
	UserID   string
	Platform domain.Platform
	Body     string
}

// Publish runs the full defense chain and delivers the post. The stages are
// ordered so the cheapest checks fail first and no network call happens for a
// request that would be denied anyway.
func (p *Pipeline) Publish(ctx context.Context, req PublishRequest) domain.PublishResult {
	// Credential check comes first: without a token there is nothing to
	// sanitize for.
	token, err := p.tokens.Token(ctx, req.UserID, req.Platform)
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) {
			return domain.Failed(&domain.PublishError{
				Kind:    domain.ErrKindNotConnected,
				Message: fmt.Sprintf("no %s account connected, authentication required", req.Platform),
			})
		}
		p.logger.Error("credential lookup failed", "platform", string(req.Platform), "err", err)
		return domain.Failed(&domain.PublishError{
			Kind:    domain.ErrKindServerError,
			Message: "credential lookup failed",
		})
	}

	// Risk assessment is advisory: findings are recorded, never blocking.
	// It runs on the submitted text, before normalization strips the
	// invisible codepoints it flags; the sanitizer removes the rest.
	if risk := text.AssessRisk(req.Body); !risk.Clean() {
		metrics.RiskFindings.Inc()
		tags := make([]string, len(risk.Patterns))
		for i, t := range risk.Patterns {
			tags[i] = string(t)
		}
		p.logger.Warn("risk patterns detected",
			"platform", string(req.Platform), "level", risk.Level.String(), "patterns", strings.Join(tags, ","))
		p.audit(ctx, domain.AuditEntry{
			Action:   "risk_detected",
			UserID:   req.UserID,
			Platform: string(req.Platform),
			Detail:   strings.Join(tags, ","),
			Level:    risk.Level.String(),
		})
	}

	clean := p.sanitizer.PostBody(req.Body)
	out := validate.PostBody(clean)
	if !out.Valid {
		return domain.Failed(&domain.PublishError{
			Kind:    domain.ErrKindInvalidContent,
			Message: fmt.Sprintf("post body %s after sanitization", out.Reason),
		})
	}

	// Rate limiting runs after validation and before any network call, so a
	// denied request never consumes a platform API call.
	win := p.gate.Check(ctx, req.UserID, ratelimit.ClassPublish)
	if !win.Allowed {
		retryAfter := win.RetryAfter(time.Now())
		p.audit(ctx, domain.AuditEntry{
			Action:   "rate_denied",
			UserID:   req.UserID,
			Platform: string(req.Platform),
			Detail:   fmt.Sprintf("publish limit %d reached", win.Limit),
			Level:    "warn",
		})
		return domain.Failed(&domain.PublishError{
			Kind:       domain.ErrKindRateLimited,
			RetryAfter: retryAfter,
			Message:    fmt.Sprintf("publish limit reached, try again in %s", retryAfter),
		})
	}

	pub, ok := p.registry.Get(req.Platform)
	if !ok {
		return domain.Failed(&domain.PublishError{
			Kind:    domain.ErrKindBadRequest,
			Message: fmt.Sprintf("unsupported platform %q", req.Platform),
		})
	}

	metrics.PublishTotal.Inc()
	res := pub.PublishPost(ctx, token, out.Content)
	p.record(ctx, req, out.Content, res)
	return res
}

// record persists the outcome. Persistence failure never undoes a publish
// that already happened on the platform.
func (p *Pipeline) record(ctx context.Context, req PublishRequest, content string, res domain.PublishResult) {
	if !res.OK {
		metrics.PublishFailed.Inc()
		p.logger.Error("publish failed",
			"platform", string(req.Platform), "kind", string(res.Failure.Kind), "err", res.Failure.Error())
		p.audit(ctx, domain.AuditEntry{
			Action:   "publish_failed",
			UserID:   req.UserID,
			Platform: string(req.Platform),
			Detail:   res.Failure.Error(),
			Level:    "error",
		})
		return
	}

	p.logger.Info("published",
		"platform", string(req.Platform), "segments", len(res.MessageIDs), "incomplete", res.Incomplete)
	if p.store != nil {
		post := domain.PublishedPost{
			ID:         uuid.NewString(),
			UserID:     req.UserID,
			Platform:   req.Platform,
			Content:    content,
			MessageIDs: res.MessageIDs,
			Incomplete: res.Incomplete,
		}
		if err := p.store.SavePost(ctx, post); err != nil {
			p.logger.Error("cannot persist published post", "post_id", post.ID, "err", err)
		}
	}
	level := "info"
	if res.Incomplete {
		level = "warn"
	}
	p.audit(ctx, domain.AuditEntry{
		Action:   "publish_ok",
		UserID:   req.UserID,
		Platform: string(req.Platform),
		Detail:   fmt.Sprintf("%d message(s) sent", len(res.MessageIDs)),
		Level:    level,
	})
}

// GenerateRequest is one draft request. Platform and Tone arrive as raw user
// input and are validated here.
type GenerateRequest struct {
	UserID   string
	Topic    string
	Platform string
	Tone     string
}

// Generate sanitizes and validates the topic, rate-limits the caller, drafts
// content, and runs the draft through the same defenses a hand-written post
// gets. The returned draft is publish-ready.
func (p *Pipeline) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if p.generator == nil {
		return "", fmt.Errorf("no generator configured")
	}

	platOut := validate.PlatformName(req.Platform)
	if !platOut.Valid {
		return "", fmt.Errorf("platform %s: %q", platOut.Reason, req.Platform)
	}
	toneOut := validate.ToneName(req.Tone)
	if !toneOut.Valid {
		return "", fmt.Errorf("tone %s: %q", toneOut.Reason, req.Tone)
	}

	topic := p.sanitizer.Topic(req.Topic)
	topicOut := validate.Topic(topic)
	if !topicOut.Valid {
		return "", fmt.Errorf("topic %s after sanitization", topicOut.Reason)
	}

	win := p.gate.Check(ctx, req.UserID, ratelimit.ClassGenerate)
	if !win.Allowed {
		return "", fmt.Errorf("generation limit reached, try again in %s", win.RetryAfter(time.Now()))
	}

	draft, err := p.generator.Draft(ctx, topicOut.Content,
		domain.Platform(platOut.Content), domain.Tone(toneOut.Content))
	if err != nil {
		return "", err
	}

	// Generated content is as untrusted as user input.
	clean := p.sanitizer.PostBody(draft)
	draftOut := validate.PostBody(clean)
	if !draftOut.Valid {
		return "", fmt.Errorf("generated draft %s after sanitization", draftOut.Reason)
	}
	return draftOut.Content, nil
}

func (p *Pipeline) audit(ctx context.Context, entry domain.AuditEntry) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveAudit(ctx, entry); err != nil {
		p.logger.Error("cannot write audit entry", "action", entry.Action, "err", err)
	}
}
