package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for Postwave.
type Config struct {
	General   GeneralConfig   `json:"general"`
	Platforms PlatformsConfig `json:"platforms"`
	OpenAI    OpenAIConfig    `json:"openai"`
	Storage   StorageConfig   `json:"storage"`
	Limits    LimitsConfig    `json:"limits"`
	Sanitizer SanitizerConfig `json:"sanitizer"`
	Metrics   MetricsConfig   `json:"metrics"`
	Schedule  ScheduleConfig  `json:"schedule"`
}

type GeneralConfig struct {
	UserID   string `json:"userId"`   // identity used for rate limiting and history
	LogLevel string `json:"logLevel"` // "debug" | "info" | "warn" | "error"
	LogFile  string `json:"logFile,omitempty"`
}

type PlatformsConfig struct {
	X        XConfig              `json:"x"`
	Telegram TelegramConfig       `json:"telegram"`
	Discord  DiscordConfig        `json:"discord"`
	Slack    SlackPlatformConfig  `json:"slack"`
}

type XConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
	APIBase string `json:"apiBase,omitempty"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
	ChatID  string `json:"chatId,omitempty"` // numeric id or @channelusername
}

type DiscordConfig struct {
	Enabled   bool   `json:"enabled"`
	Token     string `json:"token,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
}

type SlackPlatformConfig struct {
	Enabled   bool   `json:"enabled"`
	Token     string `json:"token,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
}

// OpenAIConfig configures draft generation against any OpenAI-compatible API.
type OpenAIConfig struct {
	Enabled bool   `json:"enabled"`
	APIKey  string `json:"apiKey,omitempty"`
	APIBase string `json:"apiBase,omitempty"`
	Model   string `json:"model,omitempty"`
}

type StorageConfig struct {
	DBPath string `json:"dbPath"`
}

// LimitsConfig overrides the built-in rate-limit policies. Zero keeps the
// default for that class.
type LimitsConfig struct {
	AuthPerMinute   int `json:"authPerMinute,omitempty"`
	GeneratePerHour int `json:"generatePerHour,omitempty"`
	PublishPerHour  int `json:"publishPerHour,omitempty"`
	APIPerHour      int `json:"apiPerHour,omitempty"`
}

// SanitizerConfig points at optional YAML pattern packs that extend the
// built-in injection patterns.
type SanitizerConfig struct {
	PatternDir string `json:"patternDir,omitempty"`
}

// MetricsConfig configures the Prometheus-format metrics endpoint used in
// serve mode.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// ScheduleConfig holds recurring posts fired in serve mode.
type ScheduleConfig struct {
	Enabled bool            `json:"enabled"`
	Entries []ScheduleEntry `json:"entries,omitempty"`
}

// ScheduleEntry is one recurring post. Body publishes as-is; an empty Body
// with a Topic drafts fresh content per firing.
type ScheduleEntry struct {
	Cron     string `json:"cron"`
	Platform string `json:"platform"`
	Body     string `json:"body,omitempty"`
	Topic    string `json:"topic,omitempty"`
	Tone     string `json:"tone,omitempty"`
}

// DefaultConfigDir returns the default config directory (~/.postwave).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".postwave"
	}
	return filepath.Join(home, ".postwave")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Storage.DBPath = ExpandPath(cfg.Storage.DBPath)
	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Sanitizer.PatternDir = ExpandPath(cfg.Sanitizer.PatternDir)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	// Config carries credentials; keep it private to the owner.
	return os.WriteFile(path, data, 0o600)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}
	if cfg.General.UserID == "" {
		errs = append(errs, "general.userId must not be empty")
	}

	if cfg.Storage.DBPath == "" {
		errs = append(errs, "storage.dbPath must not be empty")
	}

	if cfg.Limits.AuthPerMinute < 0 || cfg.Limits.GeneratePerHour < 0 ||
		cfg.Limits.PublishPerHour < 0 || cfg.Limits.APIPerHour < 0 {
		errs = append(errs, "limits values must not be negative")
	}

	if cfg.OpenAI.Enabled && cfg.OpenAI.APIKey == "" {
		errs = append(errs, "openai.apiKey is required when openai is enabled")
	}

	if cfg.Platforms.Telegram.Enabled && cfg.Platforms.Telegram.ChatID == "" {
		errs = append(errs, "platforms.telegram.chatId is required when telegram is enabled")
	}
	if cfg.Platforms.Discord.Enabled && cfg.Platforms.Discord.ChannelID == "" {
		errs = append(errs, "platforms.discord.channelId is required when discord is enabled")
	}
	if cfg.Platforms.Slack.Enabled && cfg.Platforms.Slack.ChannelID == "" {
		errs = append(errs, "platforms.slack.channelId is required when slack is enabled")
	}

	if cfg.Schedule.Enabled {
		for i, e := range cfg.Schedule.Entries {
			if e.Cron == "" {
				errs = append(errs, fmt.Sprintf("schedule.entries[%d].cron must not be empty", i))
			}
			if e.Body == "" && e.Topic == "" {
				errs = append(errs, fmt.Sprintf("schedule.entries[%d] needs either body or topic", i))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
