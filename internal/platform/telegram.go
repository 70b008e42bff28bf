package platform

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"postwave/internal/domain"
)

const (
	telegramCharacterBudget = 4096
	telegramMaxSegments     = 10
)

// Telegram publishes to a Telegram chat or channel through the Bot API.
// Threads are modeled as reply chains.
type Telegram struct {
	sender
	chatID   int64
	channel  string
	endpoint string
	client   *http.Client
}

// TelegramConfig configures the Telegram publisher. ChatID is either a
// numeric chat id or an @channelusername.
type TelegramConfig struct {
	ChatID         string
	APIEndpoint    string
	HTTPClient     *http.Client
	InterSendDelay time.Duration
	RetryBase      time.Duration
	Logger         *slog.Logger
}

// NewTelegram creates the Telegram publisher.
func NewTelegram(cfg TelegramConfig) *Telegram {
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = tgbotapi.APIEndpoint
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	t := &Telegram{
		sender:   newSender(cfg.InterSendDelay, cfg.RetryBase, cfg.Logger),
		endpoint: cfg.APIEndpoint,
		client:   cfg.HTTPClient,
	}
	if strings.HasPrefix(cfg.ChatID, "@") {
		t.channel = cfg.ChatID
	} else if id, err := strconv.ParseInt(cfg.ChatID, 10, 64); err == nil {
		t.chatID = id
	}
	return t
}

func (t *Telegram) Name() domain.Platform   { return domain.PlatformTelegram }
func (t *Telegram) CharacterBudget() int    { return telegramCharacterBudget }
func (t *Telegram) SupportsThreading() bool { return true }
func (t *Telegram) MaxSegments() int        { return telegramMaxSegments }

// PublishPost implements Publisher.
func (t *Telegram) PublishPost(ctx context.Context, token, content string) domain.PublishResult {
	if t.chatID == 0 && t.channel == "" {
		return domain.Failed(&domain.PublishError{
			Kind:    domain.ErrKindBadRequest,
			Message: "telegram chat id is not configured",
		})
	}

	// The Bot API client never dials on construction, so a fresh one per
	// publish is cheap and keeps the per-user token out of shared state.
	bot := &tgbotapi.BotAPI{Token: token, Client: t.client, Buffer: 100}
	bot.SetAPIEndpoint(t.endpoint)

	return t.deliver(ctx, t, content, func(ctx context.Context, body, replyTo string) (string, error) {
		return t.sendMessage(bot, body, replyTo)
	})
}

// sendMessage issues one sendMessage call and classifies the outcome.
func (t *Telegram) sendMessage(bot *tgbotapi.BotAPI, body, replyTo string) (string, error) {
	msg := tgbotapi.NewMessage(t.chatID, body)
	if t.channel != "" {
		msg.ChannelUsername = t.channel
	}
	if replyTo != "" {
		if id, err := strconv.Atoi(replyTo); err == nil {
			msg.ReplyToMessageID = id
		}
	}

	sent, err := bot.Send(msg)
	if err != nil {
		return "", classifyTelegramErr(err)
	}
	return strconv.Itoa(sent.MessageID), nil
}

// classifyTelegramErr maps Bot API errors to the failure taxonomy.
func classifyTelegramErr(err error) *domain.PublishError {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return AsPublishError(err)
	}

	var retryAfter time.Duration
	if apiErr.ResponseParameters.RetryAfter > 0 {
		retryAfter = time.Duration(apiErr.ResponseParameters.RetryAfter) * time.Second
	}
	if apiErr.Code == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(apiErr.Message), "too long") {
		return &domain.PublishError{
			Kind:    domain.ErrKindContentTooLong,
			Status:  apiErr.Code,
			Message: "telegram rejected the content length",
		}
	}
	return classifyStatus(apiErr.Code, apiErr.Message, retryAfter)
}
