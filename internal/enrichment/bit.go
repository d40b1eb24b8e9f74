package enrichment

import (
	"time"

	"NewsPipeline/internal/domain"
)

const (
	bitTypeNews      = "News"
	unknownPublisher = "Unknown"
)

// RequestFromDetails builds the collaborator request from a stored details snapshot.
func RequestFromDetails(details domain.Candidate) domain.EnrichmentRequest {
	req := domain.EnrichmentRequest{
		Title:     details.Title,
		Content:   details.Content,
		URL:       details.URL,
		Thumbnail: details.Thumbnail,
		Publisher: details.Publisher,
	}
	if details.DateOfNews != nil {
		req.DateOfNews = details.DateOfNews.UTC().Format(time.RFC3339)
	}
	return req
}

// MergeBit combines the collaborator answer with the item's own presentation fields.
func MergeBit(req domain.EnrichmentRequest, result domain.Enrichment, now time.Time) domain.Bit {
	publisher := req.Publisher
	if publisher == "" {
		publisher = unknownPublisher
	}
	dateOfNews := req.DateOfNews
	if dateOfNews == "" {
		dateOfNews = now.UTC().Format(time.RFC3339)
	}
	return domain.Bit{
		Title:       req.Title,
		Content:     result.Summary,
		URL:         req.URL,
		Thumbnail:   req.Thumbnail,
		TypeOfBit:   bitTypeNews,
		Publisher:   publisher,
		DateOfNews:  dateOfNews,
		Category:    result.Category,
		Subcategory: result.Subcategory,
	}
}
