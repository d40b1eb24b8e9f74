package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/scanner"
)

const (
	marketingTechBaseURL   = "https://www.marketingtechnews.net"
	marketingTechPublisher = "Marketing Tech News"
	bylineDateLayout       = "2 January 2006"
)

// MarketingTechScanner reads the marketingtechnews listing page and then each article page.
type MarketingTechScanner struct {
	name      string
	listURL   string
	baseURL   string
	category  string
	publisher string
	fetcher   *documentFetcher
	logger    *slog.Logger
}

var (
	_ scanner.Source = (*MarketingTechScanner)(nil)
	_ scanner.Lister = (*MarketingTechScanner)(nil)
)

// MarketingTechOptions tweaks where the scanner looks; zero values fall back to the live site.
type MarketingTechOptions struct {
	Name      string
	ListURL   string
	BaseURL   string
	Category  string
	Publisher string
	UserAgent string
}

// NewMarketingTechScanner wires an HTTP client; a nil client gets a 10s timeout.
func NewMarketingTechScanner(client *http.Client, opts MarketingTechOptions, logger *slog.Logger) *MarketingTechScanner {
	if opts.Name == "" {
		opts.Name = "marketingtechnews"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = siteRoot(opts.ListURL)
	}
	if opts.ListURL == "" {
		opts.ListURL = strings.TrimSuffix(opts.BaseURL, "/") + "/news/"
	}
	if opts.Category == "" {
		opts.Category = "Marketing"
	}
	if opts.Publisher == "" {
		opts.Publisher = marketingTechPublisher
	}
	return &MarketingTechScanner{
		name:      opts.Name,
		listURL:   opts.ListURL,
		baseURL:   strings.TrimSuffix(opts.BaseURL, "/"),
		category:  opts.Category,
		publisher: opts.Publisher,
		fetcher:   newDocumentFetcher(client, opts.UserAgent),
		logger:    logger,
	}
}

// Name identifies the source inside the registry.
func (m *MarketingTechScanner) Name() string {
	return m.name
}

// Fetch runs the list step followed by the detail step for every kept candidate.
func (m *MarketingTechScanner) Fetch(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	return scanner.Collect(ctx, m, req, m.logger)
}

// List parses the listing page into shallow candidates.
func (m *MarketingTechScanner) List(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	doc, err := m.fetcher.fetch(ctx, m.listURL)
	if err != nil {
		return nil, err
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var candidates []domain.Candidate
	doc.Find("article").Each(func(_ int, el *goquery.Selection) {
		link := el.Find("h3 a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || strings.TrimSpace(href) == "" {
			return
		}

		published := parseByline(el.Find(".byline .content").First())
		if req.TodayOnly && !sameDay(published, now) {
			return
		}

		articleURL := normalizeURL(m.baseURL, href)
		candidates = append(candidates, domain.Candidate{
			ID:         articleURL,
			URL:        articleURL,
			Title:      title,
			Category:   m.category,
			Publisher:  m.publisher,
			Source:     m.name,
			DateOfNews: published,
			ScrapedAt:  now,
		})
	})

	return candidates, nil
}

// Detail loads the article page and fills in the body paragraphs and og:image.
func (m *MarketingTechScanner) Detail(ctx context.Context, candidate domain.Candidate) (domain.Candidate, error) {
	doc, err := m.fetcher.fetch(ctx, candidate.URL)
	if err != nil {
		return domain.Candidate{}, err
	}

	paragraphs := doc.Find(".entry-content p").Map(func(_ int, p *goquery.Selection) string {
		return strings.TrimSpace(p.Text())
	})
	candidate.Content = strings.Join(paragraphs, "\n\n")

	if thumb, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && thumb != "" {
		candidate.Thumbnail = thumb
	}

	return candidate, nil
}

// parseByline reads the byline date with the author links stripped out.
func parseByline(byline *goquery.Selection) *time.Time {
	if byline.Length() == 0 {
		return nil
	}
	clone := byline.Clone()
	clone.Children().Filter("a").Remove()
	text := strings.TrimSpace(strings.ReplaceAll(clone.Text(), "|", ""))
	return parseDate(text)
}

func parseDate(text string) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if parsed, err := time.Parse(bylineDateLayout, text); err == nil {
		return &parsed
	}
	parsed, err := dateparse.ParseIn(text, time.UTC)
	if err != nil {
		return nil
	}
	parsed = parsed.UTC()
	return &parsed
}

func sameDay(t *time.Time, now time.Time) bool {
	if t == nil {
		return false
	}
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func siteRoot(listURL string) string {
	u, err := url.Parse(listURL)
	if err != nil || u.Host == "" {
		return marketingTechBaseURL
	}
	return u.Scheme + "://" + u.Host
}

// normalizeURL keeps absolute links and resolves everything else against base.
func normalizeURL(base, path string) string {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(base, "/") + path
}

type documentFetcher struct {
	client    *http.Client
	userAgent string
}

func newDocumentFetcher(client *http.Client, userAgent string) *documentFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0"
	}
	return &documentFetcher{client: client, userAgent: userAgent}
}

func (f *documentFetcher) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := f.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document %s: %w", pageURL, err)
	}
	return doc, nil
}

func (f *documentFetcher) get(ctx context.Context, pageURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", pageURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}
	return resp, nil
}
