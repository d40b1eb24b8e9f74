package ports

import (
	"context"
	"time"

	"NewsPipeline/internal/domain"
)

// RawItemStore persists scraped items; url is unique across all rows.
type RawItemStore interface {
	// InsertRaw returns domain.ErrDuplicateURL when the url already exists.
	InsertRaw(ctx context.Context, item domain.RawItem) (domain.RawItem, error)
	GetRaw(ctx context.Context, rawID string) (domain.RawItem, error)
	ListRaw(ctx context.Context, filter domain.RawFilter) ([]domain.RawItem, error)
	// DeletePendingRaw removes an unapproved row. It returns domain.ErrNotFound for
	// a missing row and domain.ErrAlreadyApproved for an approved one.
	DeletePendingRaw(ctx context.Context, rawID string) error
	MarkPublished(ctx context.Context, rawID string) error
}

// EnrichedItemStore persists editorial output.
type EnrichedItemStore interface {
	// ApproveRaw flips the raw item to approved and inserts item in one transaction.
	ApproveRaw(ctx context.Context, item domain.EnrichedItem) (domain.EnrichedItem, error)
	GetEnriched(ctx context.Context, filteredID string) (domain.EnrichedItem, error)
	ListEnriched(ctx context.Context, page domain.Page) ([]domain.EnrichedItem, error)
	UpdateEnrichedContent(ctx context.Context, filteredID string, content domain.Bit) (domain.EnrichedItem, error)
}

// ProcessLogStore persists run audit records.
type ProcessLogStore interface {
	CreateProcessLog(ctx context.Context, log domain.ProcessLog) (domain.ProcessLog, error)
	// CompleteProcessLog applies the terminal update once; a second call
	// returns domain.ErrProcessLogClosed.
	CompleteProcessLog(ctx context.Context, processLogID string, outcome domain.ProcessOutcome) (domain.ProcessLog, error)
	ListProcessLogs(ctx context.Context, filter domain.ProcessLogFilter) ([]domain.ProcessLog, error)
}

// Enricher turns raw article content into a summary/category/subcategory triple.
type Enricher interface {
	Enrich(ctx context.Context, req domain.EnrichmentRequest) (domain.Enrichment, error)
}

// Notifier announces published items to an outbound channel (Telegram, etc.).
type Notifier interface {
	AnnouncePublished(ctx context.Context, item domain.EnrichedItem) error
}

// Scheduler controls when scheduled scrapes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
