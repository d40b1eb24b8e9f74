package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/enrichment"
)

func newApprovalService(store *memStore, enricher *fakeEnricher, notifier *fakeNotifier) *ApprovalService {
	deps := ApprovalDeps{
		RawItems:      store,
		EnrichedItems: store,
		Recorder:      NewRecorder(store, clock, nil),
		Enricher:      enricher,
		Now:           clock,
	}
	if notifier != nil {
		deps.Notifier = notifier
	}
	return NewApprovalService(deps)
}

func seedRaw(t *testing.T, store *memStore, url, title string) domain.RawItem {
	t.Helper()

	published := time.Date(2025, 3, 13, 8, 0, 0, 0, time.UTC)
	item, err := store.InsertRaw(context.Background(), domain.RawItem{
		URL:      url,
		Category: "Marketing",
		Details: domain.Candidate{
			URL:        url,
			Title:      title,
			Content:    "body of " + title,
			Publisher:  "Marketing Tech News",
			DateOfNews: &published,
		},
		PublishedDate: published,
	})
	require.NoError(t, err)
	return item
}

func okEnricher() *fakeEnricher {
	return &fakeEnricher{answer: domain.Enrichment{
		Summary:     "Short summary.",
		Category:    "Paid Media",
		Subcategory: "Meta Ads",
	}}
}

func TestApproveBuildsBitAndFlipsRaw(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	raw := seedRaw(t, store, "https://x/a", "A")
	svc := newApprovalService(store, okEnricher(), nil)

	item, err := svc.Approve(context.Background(), raw.ID)
	require.NoError(t, err)

	assert.Equal(t, raw.ID, item.RawID)
	assert.Equal(t, "Marketing", item.Category)
	assert.Equal(t, "https://x/a", item.URL)
	assert.Equal(t, fixedNow, item.ApprovedAt)
	assert.Equal(t, "A", item.OriginalDetails.Title)
	require.NotNil(t, item.EnrichedContent)
	assert.Equal(t, "Short summary.", item.EnrichedContent.Content)
	assert.Equal(t, "Paid Media", item.EnrichedContent.Category)
	assert.Equal(t, "Marketing Tech News", item.EnrichedContent.Publisher)
	assert.Equal(t, "2025-03-13T08:00:00Z", item.EnrichedContent.DateOfNews)

	stored, err := store.GetRaw(context.Background(), raw.ID)
	require.NoError(t, err)
	assert.True(t, stored.Approved)

	_, err = svc.Approve(context.Background(), raw.ID)
	assert.True(t, errors.Is(err, domain.ErrAlreadyApproved))
}

func TestApproveEnrichmentFailureLeavesItemPending(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	raw := seedRaw(t, store, "https://x/a", "A")
	enricher := okEnricher()
	enricher.fail = map[string]error{"A": errBoom}

	_, err := newApprovalService(store, enricher, nil).Approve(context.Background(), raw.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEnrichmentFailure))

	stored, err := store.GetRaw(context.Background(), raw.ID)
	require.NoError(t, err)
	assert.False(t, stored.Approved)
	assert.Empty(t, store.enriched)
}

func TestApproveKeepsMalformedClassification(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	raw := seedRaw(t, store, "https://x/a", "A")
	enricher := okEnricher()
	enricher.fail = map[string]error{"A": domain.ErrMalformedEnrichment}

	_, err := newApprovalService(store, enricher, nil).Approve(context.Background(), raw.ID)
	assert.True(t, errors.Is(err, domain.ErrMalformedEnrichment))
	assert.False(t, errors.Is(err, domain.ErrEnrichmentFailure))
}

func TestApproveMissingItem(t *testing.T) {
	t.Parallel()

	svc := newApprovalService(newMemStore(), okEnricher(), nil)

	_, err := svc.Approve(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.Approve(context.Background(), "  ")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestBulkApproveIsolatesFailures(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	a := seedRaw(t, store, "https://x/a", "A")
	b := seedRaw(t, store, "https://x/b", "B")
	c := seedRaw(t, store, "https://x/c", "C")
	enricher := okEnricher()
	enricher.fail = map[string]error{"B": errBoom}

	result, err := newApprovalService(store, enricher, nil).BulkApprove(context.Background(),
		[]string{a.ID, b.ID, c.ID})
	require.NoError(t, err)

	require.Len(t, result.Successful, 2)
	assert.Equal(t, a.ID, result.Successful[0].RawID)
	assert.Equal(t, c.ID, result.Successful[1].RawID)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, b.ID, result.Failed[0].RawID)

	log := result.ProcessLog
	assert.Equal(t, domain.ProcessApproval, log.Type)
	assert.Equal(t, domain.StatusPartial, log.Status)
	assert.Equal(t, 3, log.TotalURLs)
	assert.Equal(t, 2, log.SuccessCount)
	assert.Equal(t, 1, log.FailedCount)
	assert.Equal(t, []string{"https://x/a", "https://x/c"}, log.URLsProcessed)
	assert.Equal(t, []string{b.ID}, log.URLsFailed)
	assert.NotNil(t, log.CompletedAt)
}

func TestBulkApproveConcurrentKeepsInputOrder(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	ids := []string{}
	for _, title := range []string{"A", "B", "C", "D"} {
		ids = append(ids, seedRaw(t, store, "https://x/"+title, title).ID)
	}

	svc := NewApprovalService(ApprovalDeps{
		RawItems:        store,
		EnrichedItems:   store,
		Recorder:        NewRecorder(store, clock, nil),
		Enricher:        okEnricher(),
		BulkConcurrency: 3,
		Now:             clock,
	})

	result, err := svc.BulkApprove(context.Background(), append(ids, "missing"))
	require.NoError(t, err)

	require.Len(t, result.Successful, 4)
	for i, item := range result.Successful {
		assert.Equal(t, ids[i], item.RawID)
	}
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "missing", result.Failed[0].RawID)
	assert.Contains(t, result.Failed[0].Error, domain.ErrNotFound.Error())
	assert.Equal(t, domain.StatusPartial, result.ProcessLog.Status)
}

func TestBulkApproveRejectsEmptyBatch(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	_, err := newApprovalService(store, okEnricher(), nil).BulkApprove(context.Background(), nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Empty(t, store.logs)
}

func TestRejectIsIrreversible(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	pending := seedRaw(t, store, "https://x/a", "A")
	approved := seedRaw(t, store, "https://x/b", "B")
	svc := newApprovalService(store, okEnricher(), nil)

	_, err := svc.Approve(context.Background(), approved.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Reject(context.Background(), pending.ID))
	_, err = store.GetRaw(context.Background(), pending.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.Approve(context.Background(), pending.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(svc.Reject(context.Background(), pending.ID), domain.ErrNotFound))
	assert.True(t, errors.Is(svc.Reject(context.Background(), approved.ID), domain.ErrAlreadyApproved))
}

func TestPublishAnnouncesAndIgnoresNotifierErrors(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	raw := seedRaw(t, store, "https://x/a", "A")
	notifier := &fakeNotifier{err: errBoom}
	svc := newApprovalService(store, okEnricher(), notifier)

	item, err := svc.Approve(context.Background(), raw.ID)
	require.NoError(t, err)

	published, err := svc.Publish(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, published.ID)
	assert.Equal(t, []string{item.ID}, notifier.announced)

	stored, err := store.GetRaw(context.Background(), raw.ID)
	require.NoError(t, err)
	assert.True(t, stored.Published)

	_, err = svc.Publish(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestReprocessOverwritesContent(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	raw := seedRaw(t, store, "https://x/a", "A")
	enricher := okEnricher()
	svc := newApprovalService(store, enricher, nil)

	item, err := svc.Approve(context.Background(), raw.ID)
	require.NoError(t, err)

	enricher.answer = domain.Enrichment{Summary: "Second pass.", Category: "SEO & Organic", Subcategory: "Core Update"}
	updated, err := svc.Reprocess(context.Background(), item.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.EnrichedContent)
	assert.Equal(t, "Second pass.", updated.EnrichedContent.Content)
	assert.Equal(t, "SEO & Organic", updated.EnrichedContent.Category)
	assert.Equal(t, "Marketing", updated.Category)

	enricher.fail = map[string]error{"A": errBoom}
	_, err = svc.Reprocess(context.Background(), item.ID)
	require.Error(t, err)

	kept, err := store.GetEnriched(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Second pass.", kept.EnrichedContent.Content)
}

func TestListPendingAndApproved(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	a := seedRaw(t, store, "https://x/a", "A")
	seedRaw(t, store, "https://x/b", "B")
	svc := newApprovalService(store, okEnricher(), nil)

	_, err := svc.Approve(context.Background(), a.ID)
	require.NoError(t, err)

	pending, err := svc.ListPending(context.Background(), domain.Page{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "https://x/b", pending[0].URL)

	approved, err := svc.ListApproved(context.Background(), domain.Page{})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, a.ID, approved[0].RawID)
}

type cancellingEnricher struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	calls  int
}

func (e *cancellingEnricher) Enrich(ctx context.Context, _ domain.EnrichmentRequest) (domain.Enrichment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.cancel()
	if err := ctx.Err(); err != nil {
		return domain.Enrichment{}, err
	}
	return domain.Enrichment{Summary: "s", Category: "Paid Media", Subcategory: "Meta Ads"}, nil
}

func TestBulkApproveSurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	ids := []string{
		seedRaw(t, store, "https://x/a", "A").ID,
		seedRaw(t, store, "https://x/b", "B").ID,
		seedRaw(t, store, "https://x/c", "C").ID,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	enricher := &cancellingEnricher{cancel: cancel}
	svc := NewApprovalService(ApprovalDeps{
		RawItems:      store,
		EnrichedItems: store,
		Recorder:      NewRecorder(store, clock, nil),
		Enricher:      enricher,
		Now:           clock,
	})

	result, err := svc.BulkApprove(ctx, ids)
	require.NoError(t, err)

	assert.Equal(t, 3, enricher.calls)
	assert.Len(t, result.Successful, 3)
	assert.Empty(t, result.Failed)
	assert.Equal(t, domain.StatusSuccess, result.ProcessLog.Status)
	assert.Equal(t, 3, result.ProcessLog.SuccessCount)
}

type countingCompleter struct {
	calls int
}

func (c *countingCompleter) Complete(context.Context, string, string) (string, error) {
	c.calls++
	return `{"summary":"Manual pick.","category":"Paid Media","subcategory":"Search Ads"}`, nil
}

func TestApproveItemAddedByURL(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	report, err := newScrapeService(store, &fakeRunner{}).
		ScrapeURLs(context.Background(), []string{"https://x/manual"}, "")
	require.NoError(t, err)
	require.Equal(t, 1, report.ProcessLog.SuccessCount)

	raw := store.rawByURLFor("https://x/manual")
	completer := &countingCompleter{}
	svc := NewApprovalService(ApprovalDeps{
		RawItems:      store,
		EnrichedItems: store,
		Recorder:      NewRecorder(store, clock, nil),
		Enricher:      enrichment.NewAdapter(completer, nil),
		Now:           clock,
	})

	item, err := svc.Approve(context.Background(), raw.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, completer.calls)
	assert.Equal(t, raw.ID, item.RawID)
	require.NotNil(t, item.EnrichedContent)
	assert.Equal(t, "Manual pick.", item.EnrichedContent.Content)
	assert.Equal(t, "Paid Media", item.EnrichedContent.Category)
	assert.Equal(t, "https://x/manual", item.EnrichedContent.URL)

	stored, err := store.GetRaw(context.Background(), raw.ID)
	require.NoError(t, err)
	assert.True(t, stored.Approved)
}
