package domain

import "time"

// Candidate is an article emitted by a source fetcher before it is persisted.
// Its JSON form is also the opaque details payload stored on RawItem.
type Candidate struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Thumbnail  string     `json:"thumbnail,omitempty"`
	Category   string     `json:"category"`
	Publisher  string     `json:"publisher_name,omitempty"`
	Source     string     `json:"source,omitempty"`
	DateOfNews *time.Time `json:"date_of_news,omitempty"`
	ScrapedAt  time.Time  `json:"scraped_at"`
}

// RawItem is a scraped article waiting for an editorial decision.
type RawItem struct {
	ID            string    `json:"rawId"`
	URL           string    `json:"url"`
	Category      string    `json:"category"`
	Details       Candidate `json:"details"`
	PublishedDate time.Time `json:"publishedDate"`
	Approved      bool      `json:"approved"`
	Published     bool      `json:"published"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// EnrichedItem is the editorial counterpart of an approved RawItem.
// OriginalDetails is a snapshot taken at approval time.
type EnrichedItem struct {
	ID              string    `json:"filteredId"`
	RawID           string    `json:"rawId"`
	OriginalDetails Candidate `json:"originalDetails"`
	EnrichedContent *Bit      `json:"enrichedContent"`
	Category        string    `json:"category"`
	URL             string    `json:"url"`
	ApprovedAt      time.Time `json:"approvedAt"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Bit is the presentation record built from an enrichment and the item's own fields.
type Bit struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Thumbnail   string `json:"thumbnail"`
	TypeOfBit   string `json:"typeOfBit"`
	Publisher   string `json:"publisherName"`
	DateOfNews  string `json:"dateOfNews"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// Enrichment is the strict three-field answer of the enrichment collaborator.
type Enrichment struct {
	Summary     string `json:"summary"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// EnrichmentRequest carries the item fields handed to the enrichment collaborator.
type EnrichmentRequest struct {
	Title      string
	Content    string
	URL        string
	Thumbnail  string
	Publisher  string
	DateOfNews string
}

// Page bounds a listing query.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// Normalize applies the listing defaults.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// RawFilter selects raw items for listing.
type RawFilter struct {
	Approved  *bool
	Published *bool
	Page      Page
}
