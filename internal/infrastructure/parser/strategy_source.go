package parser

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"NewsPipeline/internal/config"
	"NewsPipeline/internal/scanner"
)

// Scanner kinds accepted in the sources section of the config.
const (
	KindMarketingTech = "marketingtech"
	KindFeed          = "feed"
)

// BuildSources turns config-defined sources into registry entries.
func BuildSources(sites []config.SourceConfig, client *http.Client, userAgent string, logger *slog.Logger) ([]scanner.Source, error) {
	sources := make([]scanner.Source, 0, len(sites))
	for _, site := range sites {
		name := strings.TrimSpace(site.Name)
		if name == "" {
			return nil, fmt.Errorf("source with scanner %q has no name", site.Scanner)
		}

		log := logger
		if log != nil {
			log = log.With("source", name)
		}

		switch strings.ToLower(strings.TrimSpace(site.Scanner)) {
		case KindMarketingTech, "":
			sources = append(sources, NewMarketingTechScanner(client, MarketingTechOptions{
				Name:      name,
				ListURL:   site.URL,
				Category:  site.Category,
				Publisher: site.Publisher,
				UserAgent: userAgent,
			}, log))
		case KindFeed:
			feed, err := NewFeedScanner(client, FeedOptions{
				Name:      name,
				FeedURL:   site.URL,
				Category:  site.Category,
				Publisher: site.Publisher,
				UserAgent: userAgent,
			}, log)
			if err != nil {
				return nil, err
			}
			sources = append(sources, feed)
		default:
			return nil, fmt.Errorf("source %s: unknown scanner %q", name, site.Scanner)
		}
	}
	return sources, nil
}

// NewRegistry builds a scanner registry holding every configured source.
func NewRegistry(sites []config.SourceConfig, client *http.Client, userAgent string, logger *slog.Logger) (*scanner.Registry, error) {
	sources, err := BuildSources(sites, client, userAgent, logger)
	if err != nil {
		return nil, err
	}
	reg := scanner.NewRegistry()
	for _, src := range sources {
		reg.Register(src)
	}
	return reg, nil
}
