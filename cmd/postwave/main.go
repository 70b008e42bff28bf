package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"postwave/internal/config"
	"postwave/internal/domain"
	"postwave/internal/pipeline"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "postwave",
		Short:   "Postwave: defended publishing for AI-written social posts",
		Long:    "Postwave drafts, sanitizes, and publishes social posts to X, Telegram, Discord, and Slack.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.postwave/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(generateCmd())
	root.AddCommand(publishCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists at %s", cfgPath)
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfig() (*config.Config, error) {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger = newLogger(cfg)
	return cfg, nil
}

// newLogger builds the process logger from config: level from
// general.logLevel, destination stderr or general.logFile.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.General.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	out := os.Stderr
	if cfg.General.LogFile != "" {
		f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			out = f
		}
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

func generateCmd() *cobra.Command {
	var (
		topic       string
		platformArg string
		tone        string
		publish     bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Draft a post with AI and optionally publish it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			draft, err := app.Pipe.Generate(ctx, pipeline.GenerateRequest{
				UserID:   cfg.General.UserID,
				Topic:    topic,
				Platform: platformArg,
				Tone:     tone,
			})
			if err != nil {
				return err
			}
			fmt.Println(draft)

			if !publish {
				return nil
			}
			res := app.Pipe.Publish(ctx, pipeline.PublishRequest{
				UserID:   cfg.General.UserID,
				Platform: domain.Platform(platformArg),
				Body:     draft,
			})
			return printResult(res)
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "topic to write about (required)")
	cmd.Flags().StringVarP(&platformArg, "platform", "p", "", "target platform: x, telegram, discord, slack (required)")
	cmd.Flags().StringVar(&tone, "tone", string(domain.ToneProfessional), "tone: professional, casual, humorous, informative")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish the draft immediately")
	cmd.MarkFlagRequired("topic")
	cmd.MarkFlagRequired("platform")
	return cmd
}

func publishCmd() *cobra.Command {
	var platformArg string
	cmd := &cobra.Command{
		Use:   "publish [message]",
		Short: "Publish a post through the defense pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			res := app.Pipe.Publish(cmd.Context(), pipeline.PublishRequest{
				UserID:   cfg.General.UserID,
				Platform: domain.Platform(platformArg),
				Body:     args[0],
			})
			return printResult(res)
		},
	}
	cmd.Flags().StringVarP(&platformArg, "platform", "p", "", "target platform: x, telegram, discord, slack (required)")
	cmd.MarkFlagRequired("platform")
	return cmd
}

func printResult(res domain.PublishResult) error {
	if !res.OK {
		return fmt.Errorf("publish failed: %s", res.Failure.Error())
	}
	if res.Incomplete {
		fmt.Printf("published partially: %d segment(s) live (%s)\n",
			len(res.MessageIDs), strings.Join(res.MessageIDs, ", "))
		return nil
	}
	fmt.Printf("published: %s\n", strings.Join(res.MessageIDs, ", "))
	return nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configured platforms and storage health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false)
				return err
			}
			logger.Info("config", "path", cfgPath, "loaded", true)

			app, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			for _, p := range domain.Platforms() {
				_, err := app.Tokens.Token(ctx, cfg.General.UserID, p)
				logger.Info("platform", "name", string(p), "connected", err == nil)
			}
			logger.Info("storage", "path", cfg.Storage.DBPath)
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently published posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			posts, err := app.Store.ListPosts(cmd.Context(), cfg.General.UserID, limit)
			if err != nil {
				return err
			}
			for _, p := range posts {
				mark := ""
				if p.Incomplete {
					mark = " [incomplete]"
				}
				fmt.Printf("%s  %-8s  %d msg(s)%s  %s\n",
					p.CreatedAt.Format(time.DateTime), p.Platform, len(p.MessageIDs), mark, truncate(p.Content, 60))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of posts to show")
	return cmd
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. storage.dbPath)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(config.Sanitize(cfg), args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. platforms.x.enabled true)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values with credentials masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			sanitized := config.Sanitize(cfg)
			data, _ := json.MarshalIndent(sanitized, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
