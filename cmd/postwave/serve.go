package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"postwave/internal/metrics"
	"postwave/internal/schedule"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and metrics endpoint",
		Long:  "Fires scheduled posts from the config and serves Prometheus-format metrics. Press Ctrl+C to stop.",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sched *schedule.Service
	if cfg.Schedule.Enabled {
		entries := make([]schedule.Entry, 0, len(cfg.Schedule.Entries))
		for _, e := range cfg.Schedule.Entries {
			entries = append(entries, schedule.Entry{
				Cron:     e.Cron,
				UserID:   cfg.General.UserID,
				Platform: e.Platform,
				Body:     e.Body,
				Topic:    e.Topic,
				Tone:     e.Tone,
			})
		}
		sched, err = schedule.New(app.Pipe, entries, logger)
		if err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	var srv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.HandleFunc("/metrics", metrics.Collector.Handler())
		srv = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics endpoint listening", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	if sched == nil && srv == nil {
		return fmt.Errorf("nothing to serve: enable schedule and/or metrics in the config")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return nil
}
