package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"NewsPipeline/internal/ports"
)

// IntervalScheduler fires a job immediately and then on every interval tick.
type IntervalScheduler struct {
	interval time.Duration
	location *time.Location
	logger   *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler; trigger times are reported in loc.
func NewIntervalScheduler(interval time.Duration, loc *time.Location, logger *slog.Logger) *IntervalScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if loc == nil {
		loc = time.UTC
	}
	return &IntervalScheduler{interval: interval, location: loc, logger: logger}
}

// Start begins ticking. A second Start while running is a no-op. Jobs run
// one at a time, so a slow run delays the next tick instead of overlapping it.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.fire(job, time.Now())
		for {
			select {
			case t := <-ticker.C:
				s.fire(job, t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	if s.logger != nil {
		s.logger.Info("scheduler started", "interval", s.interval.String(), "timezone", s.location.String())
	}
	return nil
}

// Stop halts the ticker goroutine and waits for a running job or ctx.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *IntervalScheduler) fire(job func(time.Time), t time.Time) {
	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.Error("scheduled job panicked", "panic", r)
		}
	}()
	job(t.In(s.location))
}
