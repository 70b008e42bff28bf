package main

import (
	"fmt"
	"time"

	"postwave/internal/config"
	"postwave/internal/domain"
	"postwave/internal/generate"
	"postwave/internal/pipeline"
	"postwave/internal/platform"
	"postwave/internal/ratelimit"
	"postwave/internal/store"
	"postwave/internal/text"
)

// App is the assembled application: the pipeline plus the collaborators the
// commands need direct access to.
type App struct {
	Pipe   *pipeline.Pipeline
	Store  *store.SQLiteStore
	Tokens *config.Tokens
}

func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
}

// buildApp wires storage, rate limiting, sanitization, generation, and the
// platform publishers from the loaded config.
func buildApp(cfg *config.Config) (*App, error) {
	st, err := store.NewSQLiteStore(cfg.Storage.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	counter, err := ratelimit.NewSQLiteCounter(st.DB())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("rate counter: %w", err)
	}
	gate := ratelimit.NewGate(counter, policiesFromConfig(cfg.Limits), logger)

	sanitizer := text.NewSanitizer()
	if cfg.Sanitizer.PatternDir != "" {
		patterns, err := text.LoadPatternPacks(cfg.Sanitizer.PatternDir, logger)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("pattern packs: %w", err)
		}
		if err := sanitizer.Extend(patterns); err != nil {
			st.Close()
			return nil, fmt.Errorf("pattern packs: %w", err)
		}
	}

	var publishers []platform.Publisher
	if cfg.Platforms.X.Enabled {
		publishers = append(publishers, platform.NewX(platform.XConfig{
			APIBase: cfg.Platforms.X.APIBase,
			Logger:  logger,
		}))
	}
	if cfg.Platforms.Telegram.Enabled {
		publishers = append(publishers, platform.NewTelegram(platform.TelegramConfig{
			ChatID: cfg.Platforms.Telegram.ChatID,
			Logger: logger,
		}))
	}
	if cfg.Platforms.Discord.Enabled {
		publishers = append(publishers, platform.NewDiscord(platform.DiscordConfig{
			ChannelID: cfg.Platforms.Discord.ChannelID,
			Logger:    logger,
		}))
	}
	if cfg.Platforms.Slack.Enabled {
		publishers = append(publishers, platform.NewSlack(platform.SlackConfig{
			ChannelID: cfg.Platforms.Slack.ChannelID,
			Logger:    logger,
		}))
	}

	var generator domain.Generator
	if cfg.OpenAI.Enabled {
		generator = generate.New(generate.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.APIBase,
			Model:   cfg.OpenAI.Model,
		})
	}

	tokens := config.NewTokens(cfg)
	pipe := pipeline.New(pipeline.Options{
		Tokens:    tokens,
		Generator: generator,
		Sanitizer: sanitizer,
		Gate:      gate,
		Registry:  platform.NewRegistry(publishers...),
		Store:     st,
		Logger:    logger,
	})

	return &App{Pipe: pipe, Store: st, Tokens: tokens}, nil
}

// policiesFromConfig overlays config overrides on the default per-class
// limits. Zero keeps the default.
func policiesFromConfig(limits config.LimitsConfig) map[ratelimit.Class]ratelimit.Policy {
	policies := ratelimit.DefaultPolicies()
	if limits.AuthPerMinute > 0 {
		policies[ratelimit.ClassAuth] = ratelimit.Policy{Limit: limits.AuthPerMinute, Window: time.Minute}
	}
	if limits.GeneratePerHour > 0 {
		policies[ratelimit.ClassGenerate] = ratelimit.Policy{Limit: limits.GeneratePerHour, Window: time.Hour}
	}
	if limits.PublishPerHour > 0 {
		policies[ratelimit.ClassPublish] = ratelimit.Policy{Limit: limits.PublishPerHour, Window: time.Hour}
	}
	if limits.APIPerHour > 0 {
		policies[ratelimit.ClassAPI] = ratelimit.Policy{Limit: limits.APIPerHour, Window: time.Hour}
	}
	return policies
}
