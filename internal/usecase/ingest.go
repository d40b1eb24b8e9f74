package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// IngestFailure is one candidate the store refused.
type IngestFailure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// IngestReport classifies every candidate as stored, duplicate or failed.
type IngestReport struct {
	Stored     []domain.RawItem `json:"-"`
	Processed  []string         `json:"processed"`
	Duplicates []string         `json:"duplicates"`
	Failed     []IngestFailure  `json:"failed"`
}

// FailedURLs lists the urls of failed candidates.
func (r IngestReport) FailedURLs() []string {
	urls := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		urls = append(urls, f.URL)
	}
	return urls
}

// Ingestor persists scrape results into the raw item store.
type Ingestor struct {
	store  ports.RawItemStore
	now    func() time.Time
	logger *slog.Logger
}

// NewIngestor wires the raw item store.
func NewIngestor(store ports.RawItemStore, now func() time.Time, logger *slog.Logger) *Ingestor {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Ingestor{store: store, now: now, logger: logger}
}

// Ingest inserts each candidate as a pending raw item. The store's url
// constraint is the duplicate signal; any other store error fails that
// candidate only and the batch carries on.
func (in *Ingestor) Ingest(ctx context.Context, result AggregateResult, fallbackCategory string) IngestReport {
	report := IngestReport{
		Processed:  []string{},
		Duplicates: []string{},
		Failed:     []IngestFailure{},
	}

	for _, candidate := range result.Articles {
		url := strings.TrimSpace(candidate.URL)
		if url == "" {
			report.Failed = append(report.Failed, IngestFailure{URL: candidate.URL, Error: "candidate has no url"})
			in.log(slog.LevelError, "failed to save article", "title", candidate.Title, "error", "missing url")
			continue
		}
		candidate.URL = url

		category := strings.TrimSpace(candidate.Category)
		if category == "" {
			category = fallbackCategory
			candidate.Category = fallbackCategory
		}

		published := in.now()
		if candidate.DateOfNews != nil {
			published = candidate.DateOfNews.UTC()
		}

		stored, err := in.store.InsertRaw(ctx, domain.RawItem{
			URL:           url,
			Category:      category,
			Details:       candidate,
			PublishedDate: published,
		})
		switch {
		case errors.Is(err, domain.ErrDuplicateURL):
			report.Duplicates = append(report.Duplicates, url)
			in.log(slog.LevelWarn, "skipping duplicate article", "url", url)
		case err != nil:
			report.Failed = append(report.Failed, IngestFailure{URL: url, Error: err.Error()})
			in.log(slog.LevelError, "failed to save article", "url", url, "error", err)
		default:
			report.Stored = append(report.Stored, stored)
			report.Processed = append(report.Processed, url)
			in.log(slog.LevelInfo, "saved article", "url", url, "raw_id", stored.ID, "title", candidate.Title)
		}
	}

	return report
}

// Outcome turns the report into the terminal process log update of a scrape run.
// Duplicates get their own bucket so success+failed+duplicate equals total.
func (r IngestReport) Outcome(total int, sourceErrors []SourceError) domain.ProcessOutcome {
	outcome := domain.ProcessOutcome{
		Status:         domain.DeriveStatus(len(r.Processed), len(r.Failed)),
		URLsProcessed:  r.Processed,
		URLsFailed:     r.FailedURLs(),
		URLsDuplicate:  r.Duplicates,
		TotalURLs:      total,
		SuccessCount:   len(r.Processed),
		FailedCount:    len(r.Failed),
		DuplicateCount: len(r.Duplicates),
	}

	details := map[string]any{}
	if len(sourceErrors) > 0 {
		details["scraperErrors"] = sourceErrors
	}
	if len(r.Failed) > 0 {
		details["failures"] = r.Failed
	}
	if len(details) > 0 {
		outcome.ErrorDetails = details
	}
	return outcome
}

func (in *Ingestor) log(level slog.Level, msg string, args ...any) {
	if in.logger != nil {
		in.logger.Log(context.Background(), level, msg, args...)
	}
}
