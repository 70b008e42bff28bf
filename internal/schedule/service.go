// Package schedule fires recurring publishes from cron expressions.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"postwave/internal/domain"
	"postwave/internal/pipeline"
)

// jobTimeout bounds one scheduled publish end to end, retries included.
const jobTimeout = 5 * time.Minute

// Entry is one recurring post. Body is published as-is through the defense
// chain; when Body is empty, Topic and Tone drive a fresh draft per firing.
type Entry struct {
	Cron     string `json:"cron"`
	UserID   string `json:"user_id"`
	Platform string `json:"platform"`
	Body     string `json:"body,omitempty"`
	Topic    string `json:"topic,omitempty"`
	Tone     string `json:"tone,omitempty"`
}

// Service runs scheduled entries against the pipeline.
type Service struct {
	cron   *cron.Cron
	pipe   *pipeline.Pipeline
	logger *slog.Logger
}

// New builds a service and registers every entry. An entry with a bad cron
// expression fails the whole startup rather than being skipped silently.
func New(pipe *pipeline.Pipeline, entries []Entry, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		cron:   cron.New(),
		pipe:   pipe,
		logger: logger,
	}
	for i, e := range entries {
		entry := e
		if entry.Body == "" && entry.Topic == "" {
			return nil, fmt.Errorf("schedule entry %d: either body or topic is required", i)
		}
		if _, err := s.cron.AddFunc(entry.Cron, func() { s.fire(entry) }); err != nil {
			return nil, fmt.Errorf("schedule entry %d (%q): %w", i, entry.Cron, err)
		}
	}
	return s, nil
}

// Start begins firing entries on their schedules.
func (s *Service) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "entries", len(s.cron.Entries()))
}

// Stop halts the scheduler and waits for in-flight jobs.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Service) fire(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	body := e.Body
	if body == "" {
		draft, err := s.pipe.Generate(ctx, pipeline.GenerateRequest{
			UserID:   e.UserID,
			Topic:    e.Topic,
			Platform: e.Platform,
			Tone:     e.Tone,
		})
		if err != nil {
			s.logger.Error("scheduled draft failed",
				"platform", e.Platform, "topic", e.Topic, "err", err)
			return
		}
		body = draft
	}

	res := s.pipe.Publish(ctx, pipeline.PublishRequest{
		UserID:   e.UserID,
		Platform: domain.Platform(e.Platform),
		Body:     body,
	})
	if !res.OK {
		s.logger.Error("scheduled publish failed",
			"platform", e.Platform, "err", res.Failure.Error())
		return
	}
	s.logger.Info("scheduled publish done",
		"platform", e.Platform, "segments", len(res.MessageIDs))
}
