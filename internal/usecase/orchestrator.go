package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/scanner"
)

// SourceRunner is the registry surface the orchestrator needs.
type SourceRunner interface {
	Sources() []string
	Run(ctx context.Context, name string, req scanner.Request) ([]domain.Candidate, error)
}

// SourceError records one failed source of a scrape run.
type SourceError struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// AggregateResult is everything a multi-source scrape produced.
type AggregateResult struct {
	Success       bool               `json:"success"`
	TotalArticles int                `json:"totalArticles"`
	Articles      []domain.Candidate `json:"articles"`
	Errors        []SourceError      `json:"errors,omitempty"`
}

// Orchestrator runs named sources independently and aggregates their output.
type Orchestrator struct {
	sources     SourceRunner
	concurrency int
	logger      *slog.Logger
}

// NewOrchestrator wires the registry; concurrency below 1 means sequential.
func NewOrchestrator(sources SourceRunner, concurrency int, logger *slog.Logger) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{sources: sources, concurrency: concurrency, logger: logger}
}

// RunMany fetches every named source. A failing source adds an entry to Errors
// and never stops the others. Output keeps the order of sources.
func (o *Orchestrator) RunMany(ctx context.Context, sources []string, req scanner.Request) AggregateResult {
	type slot struct {
		articles []domain.Candidate
		err      error
	}
	slots := make([]slot, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, name := range sources {
		i, name := i, name
		g.Go(func() error {
			articles, err := o.sources.Run(gctx, name, req)
			slots[i] = slot{articles: articles, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := AggregateResult{Articles: []domain.Candidate{}}
	for i, s := range slots {
		if s.err != nil {
			o.log(slog.LevelError, "source failed", "source", sources[i], "error", s.err)
			result.Errors = append(result.Errors, SourceError{Source: sources[i], Error: s.err.Error()})
			continue
		}
		o.log(slog.LevelInfo, "source completed", "source", sources[i], "articles", len(s.articles))
		result.Articles = append(result.Articles, s.articles...)
	}
	result.TotalArticles = len(result.Articles)
	result.Success = result.TotalArticles > 0
	return result
}

func (o *Orchestrator) log(level slog.Level, msg string, args ...any) {
	if o.logger != nil {
		o.logger.Log(context.Background(), level, msg, args...)
	}
}

// NormalizeSources lowercases, trims and dedupes source names, dropping blanks.
func NormalizeSources(names []string) []string {
	cleaned := lo.Map(names, func(name string, _ int) string {
		return strings.ToLower(strings.TrimSpace(name))
	})
	return lo.Uniq(lo.Compact(cleaned))
}
