package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			UserID:   "default",
			LogLevel: "info",
		},
		Platforms: PlatformsConfig{
			X: XConfig{
				Enabled: false,
			},
			Telegram: TelegramConfig{
				Enabled: false,
			},
			Discord: DiscordConfig{
				Enabled: false,
			},
			Slack: SlackPlatformConfig{
				Enabled: false,
			},
		},
		OpenAI: OpenAIConfig{
			Enabled: false,
			APIBase: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Storage: StorageConfig{
			DBPath: "~/.postwave/postwave.db",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9090",
		},
		Schedule: ScheduleConfig{
			Enabled: false,
		},
	}
}
