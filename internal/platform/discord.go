package platform

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"postwave/internal/domain"
)

const (
	discordCharacterBudget = 2000
	discordMaxSegments     = 15
)

// Discord publishes to a Discord channel through the REST API. Threads are
// modeled as message reference chains.
type Discord struct {
	sender
	channelID string
	client    *http.Client
}

// DiscordConfig configures the Discord publisher.
type DiscordConfig struct {
	ChannelID      string
	HTTPClient     *http.Client
	InterSendDelay time.Duration
	RetryBase      time.Duration
	Logger         *slog.Logger
}

// NewDiscord creates the Discord publisher.
func NewDiscord(cfg DiscordConfig) *Discord {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Discord{
		sender:    newSender(cfg.InterSendDelay, cfg.RetryBase, cfg.Logger),
		channelID: cfg.ChannelID,
		client:    cfg.HTTPClient,
	}
}

func (d *Discord) Name() domain.Platform   { return domain.PlatformDiscord }
func (d *Discord) CharacterBudget() int    { return discordCharacterBudget }
func (d *Discord) SupportsThreading() bool { return true }
func (d *Discord) MaxSegments() int        { return discordMaxSegments }

// PublishPost implements Publisher.
func (d *Discord) PublishPost(ctx context.Context, token, content string) domain.PublishResult {
	if d.channelID == "" {
		return domain.Failed(&domain.PublishError{
			Kind:    domain.ErrKindBadRequest,
			Message: "discord channel id is not configured",
		})
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return domain.Failed(&domain.PublishError{
			Kind:    domain.ErrKindBadRequest,
			Message: "cannot initialize discord session",
		})
	}
	session.Client = d.client
	// Rate-limit handling belongs to the caller, not the library.
	session.MaxRestRetries = 0

	return d.deliver(ctx, d, content, func(ctx context.Context, body, replyTo string) (string, error) {
		return d.sendMessage(ctx, session, body, replyTo)
	})
}

// sendMessage issues one channel message call and classifies the outcome.
func (d *Discord) sendMessage(ctx context.Context, session *discordgo.Session, body, replyTo string) (string, error) {
	send := &discordgo.MessageSend{Content: body}
	if replyTo != "" {
		send.Reference = &discordgo.MessageReference{
			MessageID: replyTo,
			ChannelID: d.channelID,
		}
	}

	msg, err := session.ChannelMessageSendComplex(d.channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return "", classifyDiscordErr(err)
	}
	return msg.ID, nil
}

// classifyDiscordErr maps discordgo errors to the failure taxonomy.
func classifyDiscordErr(err error) *domain.PublishError {
	var rlErr *discordgo.RateLimitError
	if errors.As(err, &rlErr) {
		return classifyStatus(http.StatusTooManyRequests, "", rlErr.RetryAfter)
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		detail := ""
		if restErr.Message != nil {
			detail = restErr.Message.Message
		}
		return classifyStatus(restErr.Response.StatusCode, detail, 0)
	}
	return AsPublishError(err)
}
