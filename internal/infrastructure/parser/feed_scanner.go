package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/scanner"
)

var redundantNewLines = regexp.MustCompile(`\n{3,}`)

// FeedScanner turns an RSS/Atom feed into candidates. Items without a body get
// their article page run through readability during the detail step.
type FeedScanner struct {
	name      string
	feedURL   string
	category  string
	publisher string
	parser    *gofeed.Parser
	fetcher   *documentFetcher
	logger    *slog.Logger
}

var (
	_ scanner.Source = (*FeedScanner)(nil)
	_ scanner.Lister = (*FeedScanner)(nil)
)

// FeedOptions names the feed and its defaults.
type FeedOptions struct {
	Name      string
	FeedURL   string
	Category  string
	Publisher string
	UserAgent string
}

// NewFeedScanner builds a feed source; FeedURL is required.
func NewFeedScanner(client *http.Client, opts FeedOptions, logger *slog.Logger) (*FeedScanner, error) {
	if strings.TrimSpace(opts.FeedURL) == "" {
		return nil, fmt.Errorf("feed source %s: url is required", opts.Name)
	}
	fetcher := newDocumentFetcher(client, opts.UserAgent)

	fp := gofeed.NewParser()
	fp.Client = fetcher.client
	fp.UserAgent = fetcher.userAgent

	return &FeedScanner{
		name:      opts.Name,
		feedURL:   opts.FeedURL,
		category:  opts.Category,
		publisher: opts.Publisher,
		parser:    fp,
		fetcher:   fetcher,
		logger:    logger,
	}, nil
}

// Name identifies the source inside the registry.
func (f *FeedScanner) Name() string {
	return f.name
}

// Fetch lists feed items and resolves their content.
func (f *FeedScanner) Fetch(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	return scanner.Collect(ctx, f, req, f.logger)
}

// List parses the feed; items keep their inline content for the detail step.
func (f *FeedScanner) List(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	feed, err := f.parser.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", f.feedURL, err)
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	publisher := f.publisher
	if publisher == "" {
		publisher = strings.TrimSpace(feed.Title)
	}

	candidates := make([]domain.Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		title := strings.TrimSpace(item.Title)
		if link == "" || title == "" {
			continue
		}

		published := itemDate(item)
		if req.TodayOnly && !sameDay(published, now) {
			continue
		}

		category := f.category
		if category == "" && len(item.Categories) > 0 {
			category = item.Categories[0]
		}

		body := item.Content
		if body == "" {
			body = item.Description
		}

		candidates = append(candidates, domain.Candidate{
			ID:         link,
			URL:        link,
			Title:      title,
			Content:    body,
			Thumbnail:  imageURL(item),
			Category:   category,
			Publisher:  publisher,
			Source:     f.name,
			DateOfNews: published,
			ScrapedAt:  now,
		})
	}
	return candidates, nil
}

// Detail strips inline HTML to text, or downloads the page through readability
// when the feed carried no body.
func (f *FeedScanner) Detail(ctx context.Context, candidate domain.Candidate) (domain.Candidate, error) {
	if strings.TrimSpace(candidate.Content) != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(candidate.Content))
		if err != nil {
			return domain.Candidate{}, fmt.Errorf("parse inline content %s: %w", candidate.URL, err)
		}
		candidate.Content = cleanText(doc.Text())
		return candidate, nil
	}

	pageURL, err := url.Parse(candidate.URL)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("invalid item url %s: %w", candidate.URL, err)
	}

	resp, err := f.fetcher.get(ctx, candidate.URL)
	if err != nil {
		return domain.Candidate{}, err
	}
	defer resp.Body.Close()

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("extract %s: %w", candidate.URL, err)
	}

	candidate.Content = cleanText(article.TextContent)
	if candidate.Thumbnail == "" && article.Image != "" {
		candidate.Thumbnail = article.Image
	}
	return candidate, nil
}

func itemDate(item *gofeed.Item) *time.Time {
	switch {
	case item.PublishedParsed != nil:
		t := item.PublishedParsed.UTC()
		return &t
	case item.UpdatedParsed != nil:
		t := item.UpdatedParsed.UTC()
		return &t
	default:
		return parseDate(item.Published)
	}
}

// imageURL picks item.Image, then media:thumbnail, then an image enclosure.
func imageURL(item *gofeed.Item) string {
	if item.Image != nil && isHTTPURL(item.Image.URL) {
		return item.Image.URL
	}
	if media, ok := item.Extensions["media"]; ok {
		for _, thumb := range media["thumbnail"] {
			if u := thumb.Attrs["url"]; isHTTPURL(u) {
				return u
			}
		}
	}
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && isHTTPURL(enc.URL) {
			return enc.URL
		}
	}
	return ""
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func cleanText(text string) string {
	return strings.TrimSpace(redundantNewLines.ReplaceAllString(text, "\n\n"))
}
