package platform

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"postwave/internal/domain"
)

const (
	slackCharacterBudget = 4000
	slackMaxSegments     = 10
)

// Slack publishes to a Slack channel through the Web API. Threads map
// directly onto Slack's native thread_ts replies.
type Slack struct {
	sender
	channelID string
	apiURL    string
	client    *http.Client
}

// SlackConfig configures the Slack publisher.
type SlackConfig struct {
	ChannelID      string
	APIURL         string
	HTTPClient     *http.Client
	InterSendDelay time.Duration
	RetryBase      time.Duration
	Logger         *slog.Logger
}

// NewSlack creates the Slack publisher.
func NewSlack(cfg SlackConfig) *Slack {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Slack{
		sender:    newSender(cfg.InterSendDelay, cfg.RetryBase, cfg.Logger),
		channelID: cfg.ChannelID,
		apiURL:    cfg.APIURL,
		client:    cfg.HTTPClient,
	}
}

func (s *Slack) Name() domain.Platform   { return domain.PlatformSlack }
func (s *Slack) CharacterBudget() int    { return slackCharacterBudget }
func (s *Slack) SupportsThreading() bool { return true }
func (s *Slack) MaxSegments() int        { return slackMaxSegments }

// PublishPost implements Publisher.
func (s *Slack) PublishPost(ctx context.Context, token, content string) domain.PublishResult {
	if s.channelID == "" {
		return domain.Failed(&domain.PublishError{
			Kind:    domain.ErrKindBadRequest,
			Message: "slack channel id is not configured",
		})
	}

	opts := []slack.Option{slack.OptionHTTPClient(s.client)}
	if s.apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(s.apiURL))
	}
	api := slack.New(token, opts...)

	threadTS := ""
	return s.deliver(ctx, s, content, func(ctx context.Context, body, replyTo string) (string, error) {
		msgOpts := []slack.MsgOption{slack.MsgOptionText(body, false)}
		if replyTo != "" {
			// Slack threads hang off the root message, not the previous
			// reply, so the first timestamp anchors every follow-up.
			if threadTS == "" {
				threadTS = replyTo
			}
			msgOpts = append(msgOpts, slack.MsgOptionTS(threadTS))
		}
		_, ts, err := api.PostMessageContext(ctx, s.channelID, msgOpts...)
		if err != nil {
			return "", classifySlackErr(err)
		}
		return ts, nil
	})
}

// classifySlackErr maps Web API errors, which arrive as bare error strings,
// to the failure taxonomy.
func classifySlackErr(err error) *domain.PublishError {
	var rlErr *slack.RateLimitedError
	if errors.As(err, &rlErr) {
		return classifyStatus(http.StatusTooManyRequests, "", rlErr.RetryAfter)
	}

	switch err.Error() {
	case "invalid_auth", "token_expired", "token_revoked", "not_authed", "account_inactive":
		return classifyStatus(http.StatusUnauthorized, "", 0)
	case "missing_scope", "not_in_channel", "restricted_action", "access_denied", "ekm_access_denied":
		return classifyStatus(http.StatusForbidden, "slack denied the action: "+err.Error(), 0)
	case "msg_too_long", "no_text":
		return classifyStatus(http.StatusRequestEntityTooLarge, "", 0)
	case "internal_error", "service_unavailable", "fatal_error":
		return classifyStatus(http.StatusInternalServerError, "", 0)
	case "channel_not_found", "is_archived":
		return classifyStatus(http.StatusBadRequest, "slack channel unavailable: "+err.Error(), 0)
	}
	return AsPublishError(err)
}
