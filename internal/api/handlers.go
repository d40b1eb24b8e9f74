package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/usecase"
)

// Scraper is the scrape surface the transport drives.
type Scraper interface {
	RunScrape(ctx context.Context, req usecase.ScrapeRequest) (usecase.ScrapeReport, error)
	ScrapeURLs(ctx context.Context, urls []string, category string) (usecase.ScrapeReport, error)
	Sources() []string
}

// Approvals is the approval workflow surface the transport drives.
type Approvals interface {
	Approve(ctx context.Context, rawID string) (domain.EnrichedItem, error)
	BulkApprove(ctx context.Context, rawIDs []string) (usecase.BulkResult, error)
	Reject(ctx context.Context, rawID string) error
	Publish(ctx context.Context, filteredID string) (domain.EnrichedItem, error)
	Reprocess(ctx context.Context, filteredID string) (domain.EnrichedItem, error)
	ListPending(ctx context.Context, page domain.Page) ([]domain.RawItem, error)
	ListApproved(ctx context.Context, page domain.Page) ([]domain.EnrichedItem, error)
}

// ProcessLogs lists the audit history.
type ProcessLogs interface {
	List(ctx context.Context, filter domain.ProcessLogFilter) ([]domain.ProcessLog, error)
}

// Handler binds HTTP requests to the use cases.
type Handler struct {
	scraper   Scraper
	approvals Approvals
	logs      ProcessLogs
	now       func() time.Time
}

// NewHandler wires the use cases into a handler.
func NewHandler(scraper Scraper, approvals Approvals, logs ProcessLogs) *Handler {
	return &Handler{
		scraper:   scraper,
		approvals: approvals,
		logs:      logs,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type scrapeRunBody struct {
	Sources   []string `json:"sources"`
	Limit     int      `json:"limit"`
	TodayOnly *bool    `json:"todayOnly"`
}

type scrapeURLsBody struct {
	URLs     []string `json:"urls"`
	Category string   `json:"category"`
}

type bulkApproveBody struct {
	RawIDs []string `json:"rawIds"`
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	ok(c, "ok", gin.H{"status": "healthy", "timestamp": h.now().Format(time.RFC3339)})
}

// ListSources returns the registered source names.
func (h *Handler) ListSources(c *gin.Context) {
	ok(c, "", h.scraper.Sources())
}

// RunScrape runs a scrape over the requested or default sources.
// The limit may come from the body or the query string.
func (h *Handler) RunScrape(c *gin.Context) {
	var body scrapeRunBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			fail(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err), nil)
			return
		}
	}
	if body.Limit == 0 {
		body.Limit = queryInt(c, "limit", 0)
	}
	if sources := c.QueryArray("source"); len(sources) > 0 && len(body.Sources) == 0 {
		body.Sources = sources
	}

	report, err := h.scraper.RunScrape(c.Request.Context(), usecase.ScrapeRequest{
		Sources:   body.Sources,
		Limit:     body.Limit,
		TodayOnly: body.TodayOnly,
	})
	if err != nil {
		fail(c, err, report)
		return
	}
	ok(c, "Scheduled scrape completed", report)
}

// ScrapeURLs ingests explicitly supplied urls.
func (h *Handler) ScrapeURLs(c *gin.Context) {
	var body scrapeURLsBody
	if err := c.ShouldBindJSON(&body); err != nil || len(body.URLs) == 0 {
		fail(c, fmt.Errorf("%w: urls array is required", domain.ErrInvalidInput), nil)
		return
	}

	report, err := h.scraper.ScrapeURLs(c.Request.Context(), body.URLs, body.Category)
	if err != nil {
		fail(c, err, nil)
		return
	}
	ok(c, "URL scraping completed", report)
}

// ListProcessLogs returns audit records, optionally filtered by ?type=.
func (h *Handler) ListProcessLogs(c *gin.Context) {
	filter := domain.ProcessLogFilter{
		Type: domain.ProcessType(strings.TrimSpace(c.Query("type"))),
		Page: pageFrom(c),
	}
	logs, err := h.logs.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err, nil)
		return
	}
	okPage(c, logs, filter.Page, len(logs))
}

// ListPending returns items awaiting a decision.
func (h *Handler) ListPending(c *gin.Context) {
	page := pageFrom(c)
	items, err := h.approvals.ListPending(c.Request.Context(), page)
	if err != nil {
		fail(c, err, nil)
		return
	}
	okPage(c, items, page, len(items))
}

// ListApproved returns enriched items.
func (h *Handler) ListApproved(c *gin.Context) {
	page := pageFrom(c)
	items, err := h.approvals.ListApproved(c.Request.Context(), page)
	if err != nil {
		fail(c, err, nil)
		return
	}
	okPage(c, items, page, len(items))
}

// Approve enriches and approves one pending item.
func (h *Handler) Approve(c *gin.Context) {
	item, err := h.approvals.Approve(c.Request.Context(), c.Param("rawId"))
	if err != nil {
		fail(c, err, nil)
		return
	}
	ok(c, "News approved and processed with AI", item)
}

// BulkApprove approves a batch of pending items.
func (h *Handler) BulkApprove(c *gin.Context) {
	var body bulkApproveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, fmt.Errorf("%w: rawIds array is required", domain.ErrInvalidInput), nil)
		return
	}
	ids := lo.Compact(lo.Map(body.RawIDs, func(id string, _ int) string { return strings.TrimSpace(id) }))
	if len(ids) == 0 {
		fail(c, fmt.Errorf("%w: rawIds array is required", domain.ErrInvalidInput), nil)
		return
	}

	result, err := h.approvals.BulkApprove(c.Request.Context(), ids)
	if err != nil {
		fail(c, err, result)
		return
	}
	ok(c, fmt.Sprintf("Approved %d news, %d failed", len(result.Successful), len(result.Failed)), result)
}

// Reject deletes a pending item.
func (h *Handler) Reject(c *gin.Context) {
	if err := h.approvals.Reject(c.Request.Context(), c.Param("rawId")); err != nil {
		fail(c, err, nil)
		return
	}
	ok(c, "News rejected and deleted", nil)
}

// Publish marks an approved item as published.
func (h *Handler) Publish(c *gin.Context) {
	item, err := h.approvals.Publish(c.Request.Context(), c.Param("filteredId"))
	if err != nil {
		fail(c, err, nil)
		return
	}
	ok(c, "News published", item)
}

// Reprocess re-runs enrichment for an approved item.
func (h *Handler) Reprocess(c *gin.Context) {
	item, err := h.approvals.Reprocess(c.Request.Context(), c.Param("filteredId"))
	if err != nil {
		fail(c, err, nil)
		return
	}
	ok(c, "AI content reprocessed", item)
}

func pageFrom(c *gin.Context) domain.Page {
	return domain.Page{
		Limit:  queryInt(c, "limit", 0),
		Offset: queryInt(c, "offset", 0),
	}.Normalize()
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
