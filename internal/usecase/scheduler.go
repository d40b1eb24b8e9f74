package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsPipeline/internal/ports"
)

// Scheduler binds the interval driver to the scrape use case.
type Scheduler struct {
	driver ports.Scheduler
	scrape *ScrapeService
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring scrape runs.
func NewScheduler(driver ports.Scheduler, scrape *ScrapeService, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, scrape: scrape, logger: logger}
}

// Start registers a default scrape run with the driver. Every tick runs the
// configured default sources; a failed run is logged and the next tick still fires.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.scrape == nil {
		return nil
	}

	job := func(trigger time.Time) {
		report, err := s.scrape.RunScrape(ctx, ScrapeRequest{})
		if s.logger == nil {
			return
		}
		if err != nil {
			s.logger.Error("scheduled scrape failed", "trigger", trigger, "error", err)
			return
		}
		s.logger.Info("scheduled scrape finished", "trigger", trigger,
			"process_log_id", report.ProcessLog.ID, "status", report.ProcessLog.Status)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
