package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsPipeline/internal/scanner"
)

const feedBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
  <title>Ad Weekly</title>
  <item>
    <title>Inline story</title>
    <link>{{base}}/inline</link>
    <pubDate>Sat, 08 Nov 2025 09:00:00 GMT</pubDate>
    <category>Advertising</category>
    <description><![CDATA[<p>Brands shift <b>budgets</b>.</p>]]></description>
    <media:thumbnail url="https://cdn.example.org/inline.jpg"/>
  </item>
  <item>
    <title>Linked story</title>
    <link>{{base}}/linked</link>
    <pubDate>Fri, 07 Nov 2025 09:00:00 GMT</pubDate>
  </item>
  <item>
    <title></title>
    <link>{{base}}/untitled</link>
  </item>
</channel>
</rss>`

const linkedArticle = `<!DOCTYPE html>
<html><head><title>Linked story</title></head>
<body>
  <nav><a href="/">Home</a></nav>
  <article>
    <h1>Linked story</h1>
    <p>Retail media networks keep growing as advertisers look for first party data, and analysts expect spending to climb further next year across every major market.</p>
    <p>Agencies say measurement remains the largest obstacle, with buyers asking networks for clean room access and independent verification before committing larger budgets.</p>
    <p>Several platforms announced self serve tools this quarter, aiming to win smaller brands that previously could not meet minimum spend requirements.</p>
  </article>
</body></html>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed":
			w.Header().Set("Content-Type", "application/rss+xml")
			_, _ = w.Write([]byte(strings.ReplaceAll(feedBody, "{{base}}", server.URL)))
		case "/linked":
			_, _ = w.Write([]byte(linkedArticle))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFeedScannerFetch(t *testing.T) {
	t.Parallel()

	server := newFeedServer(t)
	sc, err := NewFeedScanner(server.Client(), FeedOptions{Name: "adweekly", FeedURL: server.URL + "/feed"}, nil)
	require.NoError(t, err)

	now := time.Date(2025, time.November, 8, 12, 0, 0, 0, time.UTC)
	got, err := sc.Fetch(context.Background(), scanner.Request{Limit: 10, Now: now})
	require.NoError(t, err)
	require.Len(t, got, 2)

	inline := got[0]
	assert.Equal(t, server.URL+"/inline", inline.URL)
	assert.Equal(t, "Brands shift budgets.", inline.Content)
	assert.Equal(t, "https://cdn.example.org/inline.jpg", inline.Thumbnail)
	assert.Equal(t, "Advertising", inline.Category)
	assert.Equal(t, "Ad Weekly", inline.Publisher)
	assert.Equal(t, "adweekly", inline.Source)
	require.NotNil(t, inline.DateOfNews)
	assert.Equal(t, time.Date(2025, time.November, 8, 9, 0, 0, 0, time.UTC), *inline.DateOfNews)

	linked := got[1]
	assert.Contains(t, linked.Content, "Retail media networks keep growing")
	assert.NotContains(t, linked.Content, "<p>")
}

func TestFeedScannerTodayOnly(t *testing.T) {
	t.Parallel()

	server := newFeedServer(t)
	sc, err := NewFeedScanner(server.Client(), FeedOptions{Name: "adweekly", FeedURL: server.URL + "/feed", Category: "Paid Media"}, nil)
	require.NoError(t, err)

	now := time.Date(2025, time.November, 7, 23, 0, 0, 0, time.UTC)
	got, err := sc.Fetch(context.Background(), scanner.Request{TodayOnly: true, Now: now})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Linked story", got[0].Title)
	assert.Equal(t, "Paid Media", got[0].Category)
}

func TestFeedScannerBrokenFeed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("definitely not xml"))
	}))
	defer server.Close()

	sc, err := NewFeedScanner(server.Client(), FeedOptions{Name: "broken", FeedURL: server.URL}, nil)
	require.NoError(t, err)

	_, err = sc.Fetch(context.Background(), scanner.Request{})
	assert.ErrorContains(t, err, "parse feed")
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a\n\nb", cleanText("  a\n\n\n\n\nb \n"))
}
