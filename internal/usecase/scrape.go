package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/scanner"
)

const candidateIDLength = 32

// ScrapeDeps wires everything a scrape run touches.
type ScrapeDeps struct {
	Orchestrator     *Orchestrator
	Ingestor         *Ingestor
	Recorder         *Recorder
	DefaultSources   []string
	DefaultLimit     int
	TodayOnly        bool
	FallbackCategory string
	Now              func() time.Time
	Logger           *slog.Logger
}

// ScrapeRequest selects sources for one run; zero values use the defaults.
type ScrapeRequest struct {
	Sources   []string
	Limit     int
	TodayOnly *bool
}

// ScrapeReport is the result handed back to callers of a scrape run.
type ScrapeReport struct {
	ProcessLog domain.ProcessLog `json:"processLog"`
	Errors     []SourceError     `json:"errors,omitempty"`
	Ingest     IngestReport      `json:"ingest"`
}

// ScrapeService implements scrapeRun and scrapeUrls.
type ScrapeService struct {
	orchestrator     *Orchestrator
	ingestor         *Ingestor
	recorder         *Recorder
	defaultSources   []string
	defaultLimit     int
	todayOnly        bool
	fallbackCategory string
	now              func() time.Time
	logger           *slog.Logger
}

// NewScrapeService constructs the scrape use case.
func NewScrapeService(deps ScrapeDeps) *ScrapeService {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	limit := deps.DefaultLimit
	if limit <= 0 {
		limit = 20
	}
	return &ScrapeService{
		orchestrator:     deps.Orchestrator,
		ingestor:         deps.Ingestor,
		recorder:         deps.Recorder,
		defaultSources:   deps.DefaultSources,
		defaultLimit:     limit,
		todayOnly:        deps.TodayOnly,
		fallbackCategory: deps.FallbackCategory,
		now:              now,
		logger:           deps.Logger,
	}
}

// RunScrape opens a scrape log, runs the sources, ingests what they produced
// and closes the log. When every source fails the log is failed fast and
// domain.ErrSourceUnavailable is returned with the failed log.
// Cancelling ctx after the call has started does not abort the run.
func (s *ScrapeService) RunScrape(ctx context.Context, req ScrapeRequest) (ScrapeReport, error) {
	ctx = context.WithoutCancel(ctx)

	sources := NormalizeSources(req.Sources)
	if len(sources) == 0 {
		sources = NormalizeSources(s.defaultSources)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	todayOnly := s.todayOnly
	if req.TodayOnly != nil {
		todayOnly = *req.TodayOnly
	}

	s.info("starting scrape", "sources", sources, "limit", limit, "today_only", todayOnly)

	log, err := s.recorder.Open(ctx, domain.ProcessScrape, len(sources))
	if err != nil {
		return ScrapeReport{}, err
	}

	if len(sources) == 0 {
		failed, ferr := s.recorder.FailFast(ctx, log, "no sources requested")
		if ferr != nil {
			return ScrapeReport{}, ferr
		}
		return ScrapeReport{ProcessLog: failed}, fmt.Errorf("%w: no sources requested", domain.ErrInvalidInput)
	}

	result := s.orchestrator.RunMany(ctx, sources, scanner.Request{
		Limit:     limit,
		TodayOnly: todayOnly,
		Now:       s.now(),
	})

	if len(result.Errors) == len(sources) {
		message := strings.Join(lo.Map(result.Errors, func(e SourceError, _ int) string {
			return e.Source + ": " + e.Error
		}), "; ")
		failed, ferr := s.recorder.FailFast(ctx, log, message)
		if ferr != nil {
			return ScrapeReport{}, ferr
		}
		return ScrapeReport{ProcessLog: failed, Errors: result.Errors},
			fmt.Errorf("%w: %s", domain.ErrSourceUnavailable, message)
	}

	s.info("scraping completed", "total_articles", result.TotalArticles, "source_errors", len(result.Errors))
	return s.persist(ctx, log, result)
}

// ScrapeURLs ingests explicitly supplied urls as bare candidates under category.
func (s *ScrapeService) ScrapeURLs(ctx context.Context, urls []string, category string) (ScrapeReport, error) {
	urls = lo.Uniq(lo.Compact(lo.Map(urls, func(u string, _ int) string { return strings.TrimSpace(u) })))
	if len(urls) == 0 {
		return ScrapeReport{}, fmt.Errorf("%w: urls must not be empty", domain.ErrInvalidInput)
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = s.fallbackCategory
	}

	ctx = context.WithoutCancel(ctx)
	log, err := s.recorder.Open(ctx, domain.ProcessScrape, len(urls))
	if err != nil {
		return ScrapeReport{}, err
	}

	now := s.now()
	articles := lo.Map(urls, func(u string, _ int) domain.Candidate {
		return domain.Candidate{
			ID:        candidateID(u),
			URL:       u,
			Category:  category,
			ScrapedAt: now,
		}
	})

	return s.persist(ctx, log, AggregateResult{
		Success:       true,
		TotalArticles: len(articles),
		Articles:      articles,
	})
}

func (s *ScrapeService) persist(ctx context.Context, log domain.ProcessLog, result AggregateResult) (ScrapeReport, error) {
	report := s.ingestor.Ingest(ctx, result, s.fallbackCategory)
	outcome := report.Outcome(result.TotalArticles, result.Errors)

	s.info("scrape summary",
		"status", outcome.Status,
		"success", outcome.SuccessCount,
		"failed", outcome.FailedCount,
		"duplicates", outcome.DuplicateCount,
		"total", outcome.TotalURLs)

	closed, err := s.recorder.Close(ctx, log.ID, outcome)
	if err != nil {
		return ScrapeReport{}, err
	}
	return ScrapeReport{ProcessLog: closed, Errors: result.Errors, Ingest: report}, nil
}

// Sources lists the registered source names.
func (s *ScrapeService) Sources() []string {
	return s.orchestrator.sources.Sources()
}

func (s *ScrapeService) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func candidateID(url string) string {
	id := base64.StdEncoding.EncodeToString([]byte(url))
	if len(id) > candidateIDLength {
		id = id[:candidateIDLength]
	}
	return id
}
