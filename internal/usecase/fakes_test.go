package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/scanner"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// memStore keeps raw items, enriched items and process logs with the same
// uniqueness and guard rules as the postgres repository.
type memStore struct {
	mu        sync.Mutex
	raw       map[string]domain.RawItem
	rawByURL  map[string]string
	enriched  map[string]domain.EnrichedItem
	logs      map[string]domain.ProcessLog
	insertErr map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		raw:       map[string]domain.RawItem{},
		rawByURL:  map[string]string{},
		enriched:  map[string]domain.EnrichedItem{},
		logs:      map[string]domain.ProcessLog{},
		insertErr: map[string]error{},
	}
}

func (m *memStore) InsertRaw(_ context.Context, item domain.RawItem) (domain.RawItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.insertErr[item.URL]; ok {
		return domain.RawItem{}, err
	}
	if _, ok := m.rawByURL[item.URL]; ok {
		return domain.RawItem{}, domain.ErrDuplicateURL
	}
	item.ID = uuid.NewString()
	item.CreatedAt = fixedNow
	item.UpdatedAt = fixedNow
	m.raw[item.ID] = item
	m.rawByURL[item.URL] = item.ID
	return item, nil
}

func (m *memStore) GetRaw(_ context.Context, rawID string) (domain.RawItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.raw[rawID]
	if !ok {
		return domain.RawItem{}, fmt.Errorf("raw item %s: %w", rawID, domain.ErrNotFound)
	}
	return item, nil
}

func (m *memStore) ListRaw(_ context.Context, filter domain.RawFilter) ([]domain.RawItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []domain.RawItem{}
	for _, item := range m.raw {
		if filter.Approved != nil && item.Approved != *filter.Approved {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedDate.After(out[j].PublishedDate) })
	return out, nil
}

func (m *memStore) DeletePendingRaw(_ context.Context, rawID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.raw[rawID]
	if !ok {
		return domain.ErrNotFound
	}
	if item.Approved {
		return domain.ErrAlreadyApproved
	}
	delete(m.raw, rawID)
	delete(m.rawByURL, item.URL)
	return nil
}

func (m *memStore) MarkPublished(_ context.Context, rawID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.raw[rawID]
	if !ok {
		return domain.ErrNotFound
	}
	item.Published = true
	m.raw[rawID] = item
	return nil
}

func (m *memStore) ApproveRaw(_ context.Context, item domain.EnrichedItem) (domain.EnrichedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.raw[item.RawID]
	if !ok {
		return domain.EnrichedItem{}, domain.ErrNotFound
	}
	if raw.Approved {
		return domain.EnrichedItem{}, domain.ErrAlreadyApproved
	}
	raw.Approved = true
	m.raw[raw.ID] = raw

	item.ID = uuid.NewString()
	item.CreatedAt = fixedNow
	item.UpdatedAt = fixedNow
	m.enriched[item.ID] = item
	return item, nil
}

func (m *memStore) GetEnriched(_ context.Context, filteredID string) (domain.EnrichedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.enriched[filteredID]
	if !ok {
		return domain.EnrichedItem{}, domain.ErrNotFound
	}
	return item, nil
}

func (m *memStore) ListEnriched(context.Context, domain.Page) ([]domain.EnrichedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []domain.EnrichedItem{}
	for _, item := range m.enriched {
		out = append(out, item)
	}
	return out, nil
}

func (m *memStore) UpdateEnrichedContent(_ context.Context, filteredID string, content domain.Bit) (domain.EnrichedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.enriched[filteredID]
	if !ok {
		return domain.EnrichedItem{}, domain.ErrNotFound
	}
	item.EnrichedContent = &content
	m.enriched[filteredID] = item
	return item, nil
}

func (m *memStore) CreateProcessLog(_ context.Context, log domain.ProcessLog) (domain.ProcessLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	log.ID = uuid.NewString()
	m.logs[log.ID] = log
	return log, nil
}

func (m *memStore) CompleteProcessLog(_ context.Context, id string, outcome domain.ProcessOutcome) (domain.ProcessLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	log, ok := m.logs[id]
	if !ok {
		return domain.ProcessLog{}, domain.ErrNotFound
	}
	if log.CompletedAt != nil {
		return domain.ProcessLog{}, domain.ErrProcessLogClosed
	}
	completed := outcome.CompletedAt
	log.Status = outcome.Status
	log.URLsProcessed = outcome.URLsProcessed
	log.URLsFailed = outcome.URLsFailed
	log.URLsDuplicate = outcome.URLsDuplicate
	log.TotalURLs = outcome.TotalURLs
	log.SuccessCount = outcome.SuccessCount
	log.FailedCount = outcome.FailedCount
	log.DuplicateCount = outcome.DuplicateCount
	log.ErrorDetails = outcome.ErrorDetails
	log.CompletedAt = &completed
	m.logs[id] = log
	return log, nil
}

func (m *memStore) ListProcessLogs(_ context.Context, filter domain.ProcessLogFilter) ([]domain.ProcessLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []domain.ProcessLog{}
	for _, log := range m.logs {
		if filter.Type != "" && log.Type != filter.Type {
			continue
		}
		out = append(out, log)
	}
	return out, nil
}

func (m *memStore) rawCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.raw)
}

func (m *memStore) rawByURLFor(url string) domain.RawItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.raw[m.rawByURL[url]]
}

// fakeRunner serves canned candidates per source name.
type fakeRunner struct {
	articles map[string][]domain.Candidate
	errs     map[string]error
}

func (f *fakeRunner) Sources() []string {
	names := []string{}
	for name := range f.articles {
		names = append(names, name)
	}
	for name := range f.errs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *fakeRunner) Run(_ context.Context, name string, _ scanner.Request) ([]domain.Candidate, error) {
	if err, ok := f.errs[name]; ok {
		return nil, err
	}
	articles, ok := f.articles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSource, name)
	}
	return articles, nil
}

// fakeEnricher answers with a fixed enrichment, failing for titles in fail.
type fakeEnricher struct {
	mu     sync.Mutex
	answer domain.Enrichment
	fail   map[string]error
	calls  int
}

func (f *fakeEnricher) Enrich(_ context.Context, req domain.EnrichmentRequest) (domain.Enrichment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.fail[req.Title]; ok {
		return domain.Enrichment{}, err
	}
	return f.answer, nil
}

type fakeNotifier struct {
	announced []string
	err       error
}

func (f *fakeNotifier) AnnouncePublished(_ context.Context, item domain.EnrichedItem) error {
	f.announced = append(f.announced, item.ID)
	return f.err
}

var errBoom = errors.New("boom")
