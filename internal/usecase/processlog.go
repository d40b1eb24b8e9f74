package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// Recorder owns the audit record of a run from open to its single terminal update.
type Recorder struct {
	store  ports.ProcessLogStore
	now    func() time.Time
	logger *slog.Logger
}

// NewRecorder wires the process log store.
func NewRecorder(store ports.ProcessLogStore, now func() time.Time, logger *slog.Logger) *Recorder {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Recorder{store: store, now: now, logger: logger}
}

// Open inserts a record with status partial and zeroed counts.
func (r *Recorder) Open(ctx context.Context, processType domain.ProcessType, totalURLs int) (domain.ProcessLog, error) {
	if r.store == nil {
		return domain.ProcessLog{}, fmt.Errorf("process log store is not configured")
	}
	log, err := r.store.CreateProcessLog(ctx, domain.ProcessLog{
		Type:          processType,
		Status:        domain.StatusPartial,
		URLsProcessed: []string{},
		URLsFailed:    []string{},
		URLsDuplicate: []string{},
		TotalURLs:     totalURLs,
		StartedAt:     r.now(),
	})
	if err != nil {
		return domain.ProcessLog{}, fmt.Errorf("open %s process log: %w", processType, err)
	}
	r.debug("process log opened", "process_log_id", log.ID, "type", processType, "total_urls", totalURLs)
	return log, nil
}

// Close applies the terminal update. It detaches from ctx cancellation so a
// run that got this far always leaves a completed record behind.
func (r *Recorder) Close(ctx context.Context, id string, outcome domain.ProcessOutcome) (domain.ProcessLog, error) {
	if outcome.CompletedAt.IsZero() {
		outcome.CompletedAt = r.now()
	}
	log, err := r.store.CompleteProcessLog(context.WithoutCancel(ctx), id, outcome)
	if err != nil {
		return domain.ProcessLog{}, fmt.Errorf("close process log %s: %w", id, err)
	}
	r.debug("process log closed", "process_log_id", id, "status", outcome.Status,
		"success", outcome.SuccessCount, "failed", outcome.FailedCount, "duplicate", outcome.DuplicateCount)
	return log, nil
}

// FailFast closes a run that could not get past setup. The total the log was
// opened with is kept.
func (r *Recorder) FailFast(ctx context.Context, log domain.ProcessLog, message string) (domain.ProcessLog, error) {
	if r.logger != nil {
		r.logger.Error("run failed before processing items", "process_log_id", log.ID, "message", message)
	}
	return r.Close(ctx, log.ID, domain.ProcessOutcome{
		Status:       domain.StatusFailed,
		TotalURLs:    log.TotalURLs,
		ErrorDetails: map[string]any{"message": message},
	})
}

// List returns audit records, newest first.
func (r *Recorder) List(ctx context.Context, filter domain.ProcessLogFilter) ([]domain.ProcessLog, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: process type %q", domain.ErrInvalidInput, filter.Type)
	}
	filter.Page = filter.Page.Normalize()
	return r.store.ListProcessLogs(ctx, filter)
}

func (r *Recorder) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
