package domain

import "time"

// ProcessType enumerates the kinds of audited pipeline runs.
type ProcessType string

const (
	ProcessScrape   ProcessType = "scrape"
	ProcessEnrich   ProcessType = "enrich"
	ProcessApproval ProcessType = "approval"
)

// Valid reports whether t is one of the known process types.
func (t ProcessType) Valid() bool {
	switch t {
	case ProcessScrape, ProcessEnrich, ProcessApproval:
		return true
	}
	return false
}

// ProcessStatus is the terminal (or in-flight) state of a run.
type ProcessStatus string

const (
	StatusSuccess ProcessStatus = "success"
	StatusFailed  ProcessStatus = "failed"
	// StatusPartial doubles as the in-flight state between open and close.
	StatusPartial ProcessStatus = "partial"
)

// ProcessLog is the audit record of one pipeline run.
type ProcessLog struct {
	ID             string         `json:"processLogId"`
	Type           ProcessType    `json:"processType"`
	Status         ProcessStatus  `json:"status"`
	URLsProcessed  []string       `json:"urlsProcessed"`
	URLsFailed     []string       `json:"urlsFailed"`
	URLsDuplicate  []string       `json:"urlsDuplicate"`
	TotalURLs      int            `json:"totalUrls"`
	SuccessCount   int            `json:"successCount"`
	FailedCount    int            `json:"failedCount"`
	DuplicateCount int            `json:"duplicateCount"`
	ErrorDetails   map[string]any `json:"errorDetails"`
	StartedAt      time.Time      `json:"startedAt"`
	CompletedAt    *time.Time     `json:"completedAt"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// ProcessOutcome is the single terminal update applied to a ProcessLog.
type ProcessOutcome struct {
	Status         ProcessStatus
	URLsProcessed  []string
	URLsFailed     []string
	URLsDuplicate  []string
	TotalURLs      int
	SuccessCount   int
	FailedCount    int
	DuplicateCount int
	ErrorDetails   map[string]any
	CompletedAt    time.Time
}

// ProcessLogFilter selects audit records for listing.
type ProcessLogFilter struct {
	Type ProcessType
	Page Page
}

// DeriveStatus maps run counts to a status: no failures is success,
// failures without a single success is failed, anything else is partial.
func DeriveStatus(successCount, failedCount int) ProcessStatus {
	switch {
	case failedCount == 0:
		return StatusSuccess
	case successCount == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}
