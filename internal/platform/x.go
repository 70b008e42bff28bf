package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"postwave/internal/domain"
)

const (
	defaultXAPIBase = "https://api.x.com/2"

	xCharacterBudget = 280
	xMaxSegments     = 25
)

// X publishes to the X (Twitter) v2 API over plain HTTP with a bearer
// token. Long posts become reply-chained threads.
type X struct {
	sender
	apiBase string
	client  *http.Client
}

// XConfig configures the X publisher. Zero values get sensible defaults;
// tests inject an HTTPClient and shrink the delays.
type XConfig struct {
	APIBase        string
	HTTPClient     *http.Client
	InterSendDelay time.Duration
	RetryBase      time.Duration
	Logger         *slog.Logger
}

// NewX creates the X publisher.
func NewX(cfg XConfig) *X {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultXAPIBase
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &X{
		sender:  newSender(cfg.InterSendDelay, cfg.RetryBase, cfg.Logger),
		apiBase: cfg.APIBase,
		client:  cfg.HTTPClient,
	}
}

func (x *X) Name() domain.Platform   { return domain.PlatformX }
func (x *X) CharacterBudget() int    { return xCharacterBudget }
func (x *X) SupportsThreading() bool { return true }
func (x *X) MaxSegments() int        { return xMaxSegments }

// PublishPost implements Publisher.
func (x *X) PublishPost(ctx context.Context, token, content string) domain.PublishResult {
	return x.deliver(ctx, x, content, func(ctx context.Context, body, replyTo string) (string, error) {
		return x.createPost(ctx, token, body, replyTo)
	})
}

// createPost issues one POST /tweets call and classifies the outcome.
func (x *X) createPost(ctx context.Context, token, body, replyTo string) (string, error) {
	payload := map[string]any{"text": body}
	if replyTo != "" {
		payload["reply"] = map[string]any{"in_reply_to_tweet_id": replyTo}
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", &domain.PublishError{Kind: domain.ErrKindBadRequest, Message: "cannot encode post payload"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.apiBase+"/tweets", bytes.NewReader(buf))
	if err != nil {
		return "", &domain.PublishError{Kind: domain.ErrKindBadRequest, Message: "cannot build post request"}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.client.Do(req)
	if err != nil {
		return "", AsPublishError(err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := gjson.GetBytes(respBody, "detail").String()
		if detail == "" {
			detail = gjson.GetBytes(respBody, "title").String()
		}
		return "", classifyStatus(resp.StatusCode, detail, retryAfterFromHeader(resp.Header, time.Now()))
	}

	id := gjson.GetBytes(respBody, "data.id").String()
	if id == "" {
		return "", &domain.PublishError{
			Kind:    domain.ErrKindServerError,
			Status:  resp.StatusCode,
			Message: "response is missing the message id",
		}
	}
	return id, nil
}
