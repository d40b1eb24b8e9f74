package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"NewsPipeline/internal/domain"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      *APIError   `json:"error,omitempty"`
}

// Pagination echoes the effective page of a listing.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// APIError is the machine readable part of a failed response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func okPage(c *gin.Context, data any, page domain.Page, count int) {
	c.JSON(http.StatusOK, Envelope{
		Success:    true,
		Data:       data,
		Pagination: &Pagination{Limit: page.Limit, Offset: page.Offset, Count: count},
	})
}

// fail writes the error envelope; data carries a partial result when one exists.
func fail(c *gin.Context, err error, data any) {
	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	_ = c.Error(err)
	c.JSON(status, Envelope{
		Success: false,
		Data:    data,
		Error:   &APIError{Code: code, Message: message},
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrAlreadyApproved):
		return http.StatusConflict, "ALREADY_APPROVED"
	case errors.Is(err, domain.ErrProcessLogClosed):
		return http.StatusConflict, "PROCESS_LOG_CLOSED"
	case errors.Is(err, domain.ErrDuplicateURL):
		return http.StatusConflict, "DUPLICATE_URL"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_PARAMETER"
	case errors.Is(err, domain.ErrUnknownSource):
		return http.StatusBadRequest, "UNKNOWN_SOURCE"
	case errors.Is(err, domain.ErrMalformedEnrichment):
		return http.StatusBadGateway, "MALFORMED_ENRICHMENT"
	case errors.Is(err, domain.ErrEnrichmentFailure):
		return http.StatusBadGateway, "ENRICHMENT_FAILED"
	case errors.Is(err, domain.ErrSourceUnavailable):
		return http.StatusServiceUnavailable, "SOURCE_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
