package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/enrichment"
	"NewsPipeline/internal/ports"
)

// ApprovalDeps wires the stores and collaborators of the approval workflow.
type ApprovalDeps struct {
	RawItems      ports.RawItemStore
	EnrichedItems ports.EnrichedItemStore
	Recorder      *Recorder
	Enricher      ports.Enricher
	Notifier      ports.Notifier
	// BulkConcurrency bounds parallel approvals inside one bulk run; below 1 is sequential.
	BulkConcurrency int
	Now             func() time.Time
	Logger          *slog.Logger
}

// BulkFailure is one id a bulk approval could not approve.
type BulkFailure struct {
	RawID string `json:"rawId"`
	Error string `json:"error"`
}

// BulkResult aggregates a bulk approval run.
type BulkResult struct {
	Successful []domain.EnrichedItem `json:"successful"`
	Failed     []BulkFailure         `json:"failed"`
	ProcessLog domain.ProcessLog     `json:"processLog"`
}

// ApprovalService drives raw items through pending, approved and published,
// or deletes them on rejection.
type ApprovalService struct {
	raw         ports.RawItemStore
	enriched    ports.EnrichedItemStore
	recorder    *Recorder
	enricher    ports.Enricher
	notifier    ports.Notifier
	concurrency int
	now         func() time.Time
	logger      *slog.Logger
}

// NewApprovalService constructs the approval use case.
func NewApprovalService(deps ApprovalDeps) *ApprovalService {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	concurrency := deps.BulkConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &ApprovalService{
		raw:         deps.RawItems,
		enriched:    deps.EnrichedItems,
		recorder:    deps.Recorder,
		enricher:    deps.Enricher,
		notifier:    deps.Notifier,
		concurrency: concurrency,
		now:         now,
		logger:      deps.Logger,
	}
}

// BulkConcurrency reports how many approvals a bulk run executes at once.
func (s *ApprovalService) BulkConcurrency() int {
	return s.concurrency
}

// Approve enriches a pending item and records it as approved. The enrichment
// call happens before any write, so a failed enrichment leaves the item pending.
func (s *ApprovalService) Approve(ctx context.Context, rawID string) (domain.EnrichedItem, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return domain.EnrichedItem{}, fmt.Errorf("%w: rawId is required", domain.ErrInvalidInput)
	}

	raw, err := s.raw.GetRaw(ctx, rawID)
	if err != nil {
		return domain.EnrichedItem{}, err
	}
	if raw.Approved {
		return domain.EnrichedItem{}, fmt.Errorf("raw item %s: %w", rawID, domain.ErrAlreadyApproved)
	}

	bit, err := s.enrich(ctx, raw.Details, raw.URL)
	if err != nil {
		return domain.EnrichedItem{}, err
	}

	item, err := s.enriched.ApproveRaw(ctx, domain.EnrichedItem{
		RawID:           raw.ID,
		OriginalDetails: raw.Details,
		EnrichedContent: &bit,
		Category:        raw.Category,
		URL:             raw.URL,
		ApprovedAt:      s.now(),
	})
	if err != nil {
		return domain.EnrichedItem{}, err
	}

	s.log(slog.LevelInfo, "item approved", "raw_id", raw.ID, "filtered_id", item.ID, "category", bit.Category)
	return item, nil
}

// BulkApprove approves every id in order under one approval process log.
// Individual failures are collected and never stop the batch, and neither
// does cancelling ctx once the batch has started.
func (s *ApprovalService) BulkApprove(ctx context.Context, rawIDs []string) (BulkResult, error) {
	if len(rawIDs) == 0 {
		return BulkResult{}, fmt.Errorf("%w: rawIds must not be empty", domain.ErrInvalidInput)
	}
	ctx = context.WithoutCancel(ctx)

	log, err := s.recorder.Open(ctx, domain.ProcessApproval, len(rawIDs))
	if err != nil {
		return BulkResult{}, err
	}

	type slot struct {
		item domain.EnrichedItem
		err  error
	}
	slots := make([]slot, len(rawIDs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, id := range rawIDs {
		i, id := i, id
		g.Go(func() error {
			item, err := s.Approve(ctx, id)
			slots[i] = slot{item: item, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := BulkResult{
		Successful: []domain.EnrichedItem{},
		Failed:     []BulkFailure{},
	}
	processed := []string{}
	failedIDs := []string{}
	for i, sl := range slots {
		if sl.err != nil {
			s.log(slog.LevelError, "bulk approval item failed", "raw_id", rawIDs[i], "error", sl.err)
			result.Failed = append(result.Failed, BulkFailure{RawID: rawIDs[i], Error: sl.err.Error()})
			failedIDs = append(failedIDs, rawIDs[i])
			continue
		}
		result.Successful = append(result.Successful, sl.item)
		processed = append(processed, sl.item.URL)
	}

	outcome := domain.ProcessOutcome{
		Status:        domain.DeriveStatus(len(result.Successful), len(result.Failed)),
		URLsProcessed: processed,
		URLsFailed:    failedIDs,
		TotalURLs:     len(rawIDs),
		SuccessCount:  len(result.Successful),
		FailedCount:   len(result.Failed),
	}
	if len(result.Failed) > 0 {
		outcome.ErrorDetails = map[string]any{"failures": result.Failed}
	}

	closed, err := s.recorder.Close(ctx, log.ID, outcome)
	if err != nil {
		return result, err
	}
	result.ProcessLog = closed
	return result, nil
}

// Reject permanently deletes a pending item. Approved items cannot be rejected.
func (s *ApprovalService) Reject(ctx context.Context, rawID string) error {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return fmt.Errorf("%w: rawId is required", domain.ErrInvalidInput)
	}
	if err := s.raw.DeletePendingRaw(ctx, rawID); err != nil {
		return err
	}
	s.log(slog.LevelInfo, "item rejected", "raw_id", rawID)
	return nil
}

// Publish marks the raw item behind an enriched item as published and
// announces it when a notifier is configured. Announcement errors are logged only.
func (s *ApprovalService) Publish(ctx context.Context, filteredID string) (domain.EnrichedItem, error) {
	item, err := s.enriched.GetEnriched(ctx, strings.TrimSpace(filteredID))
	if err != nil {
		return domain.EnrichedItem{}, err
	}
	if err := s.raw.MarkPublished(ctx, item.RawID); err != nil {
		return domain.EnrichedItem{}, fmt.Errorf("publish %s: %w", item.ID, err)
	}
	s.log(slog.LevelInfo, "item published", "filtered_id", item.ID, "raw_id", item.RawID)

	if s.notifier != nil {
		if err := s.notifier.AnnouncePublished(ctx, item); err != nil {
			s.log(slog.LevelWarn, "announce published item", "filtered_id", item.ID, "error", err)
		}
	}
	return item, nil
}

// Reprocess re-enriches the stored snapshot and overwrites enrichedContent.
// A failed enrichment leaves the previous content untouched.
func (s *ApprovalService) Reprocess(ctx context.Context, filteredID string) (domain.EnrichedItem, error) {
	item, err := s.enriched.GetEnriched(ctx, strings.TrimSpace(filteredID))
	if err != nil {
		return domain.EnrichedItem{}, err
	}

	bit, err := s.enrich(ctx, item.OriginalDetails, item.URL)
	if err != nil {
		return domain.EnrichedItem{}, err
	}

	updated, err := s.enriched.UpdateEnrichedContent(ctx, item.ID, bit)
	if err != nil {
		return domain.EnrichedItem{}, err
	}
	s.log(slog.LevelInfo, "item reprocessed", "filtered_id", item.ID, "category", bit.Category)
	return updated, nil
}

// ListPending returns unapproved items, newest publishedDate first.
func (s *ApprovalService) ListPending(ctx context.Context, page domain.Page) ([]domain.RawItem, error) {
	pending := false
	return s.raw.ListRaw(ctx, domain.RawFilter{Approved: &pending, Page: page.Normalize()})
}

// ListApproved returns enriched items, most recently approved first.
func (s *ApprovalService) ListApproved(ctx context.Context, page domain.Page) ([]domain.EnrichedItem, error) {
	return s.enriched.ListEnriched(ctx, page.Normalize())
}

func (s *ApprovalService) enrich(ctx context.Context, details domain.Candidate, url string) (domain.Bit, error) {
	if s.enricher == nil {
		return domain.Bit{}, fmt.Errorf("%w: no enricher configured", domain.ErrEnrichmentFailure)
	}

	req := enrichment.RequestFromDetails(details)
	req.URL = url

	result, err := s.enricher.Enrich(ctx, req)
	if err != nil {
		if !errors.Is(err, domain.ErrMalformedEnrichment) && !errors.Is(err, domain.ErrEnrichmentFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrEnrichmentFailure, err)
		}
		return domain.Bit{}, err
	}
	return enrichment.MergeBit(req, result, s.now()), nil
}

func (s *ApprovalService) log(level slog.Level, msg string, args ...any) {
	if s.logger != nil {
		s.logger.Log(context.Background(), level, msg, args...)
	}
}
