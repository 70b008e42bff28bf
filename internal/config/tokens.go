package config

import (
	"context"

	"postwave/internal/domain"
)

// Tokens is a domain.TokenSource backed by the config file: one credential
// per platform, shared by every local user. Interactive OAuth flows live
// outside this binary.
type Tokens struct {
	cfg *Config
}

// NewTokens wraps a loaded config as a token source.
func NewTokens(cfg *Config) *Tokens {
	return &Tokens{cfg: cfg}
}

// Token implements domain.TokenSource. A disabled platform or an empty
// credential both mean not connected.
func (t *Tokens) Token(_ context.Context, _ string, platform domain.Platform) (string, error) {
	var enabled bool
	var token string
	switch platform {
	case domain.PlatformX:
		enabled, token = t.cfg.Platforms.X.Enabled, t.cfg.Platforms.X.Token
	case domain.PlatformTelegram:
		enabled, token = t.cfg.Platforms.Telegram.Enabled, t.cfg.Platforms.Telegram.Token
	case domain.PlatformDiscord:
		enabled, token = t.cfg.Platforms.Discord.Enabled, t.cfg.Platforms.Discord.Token
	case domain.PlatformSlack:
		enabled, token = t.cfg.Platforms.Slack.Enabled, t.cfg.Platforms.Slack.Token
	}
	if !enabled || token == "" {
		return "", domain.ErrNotConnected
	}
	return token, nil
}
