package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// Completer sends one system/user prompt pair to a language model and returns its raw answer.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Adapter maps enrichment requests onto a Completer and validates the answer.
type Adapter struct {
	completer Completer
	logger    *slog.Logger
}

var _ ports.Enricher = (*Adapter)(nil)

// NewAdapter wires a completer.
func NewAdapter(completer Completer, logger *slog.Logger) *Adapter {
	return &Adapter{completer: completer, logger: logger}
}

// Enrich asks the collaborator for a summary and classification of one article.
// Transport failures wrap domain.ErrEnrichmentFailure; shape or taxonomy
// violations wrap domain.ErrMalformedEnrichment.
func (a *Adapter) Enrich(ctx context.Context, req domain.EnrichmentRequest) (domain.Enrichment, error) {
	if a == nil || a.completer == nil {
		return domain.Enrichment{}, fmt.Errorf("%w: no completer configured", domain.ErrEnrichmentFailure)
	}

	answer, err := a.completer.Complete(ctx, SystemPrompt, UserPrompt(req))
	if err != nil {
		return domain.Enrichment{}, fmt.Errorf("%w: %w", domain.ErrEnrichmentFailure, err)
	}
	if strings.TrimSpace(answer) == "" {
		return domain.Enrichment{}, fmt.Errorf("%w: empty response", domain.ErrEnrichmentFailure)
	}

	result, err := ParseResponse(answer)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("enrichment answer rejected", "url", req.URL, "error", err)
		}
		return domain.Enrichment{}, err
	}
	return result, nil
}

var codeFence = regexp.MustCompile("```json\\n?|\\n?```")

// ParseResponse strips code fences and decodes exactly one
// {summary, category, subcategory} object. The category is returned in its
// taxonomy spelling.
func ParseResponse(answer string) (domain.Enrichment, error) {
	cleaned := strings.TrimSpace(codeFence.ReplaceAllString(answer, ""))

	var payload struct {
		Summary     *string `json:"summary"`
		Category    *string `json:"category"`
		Subcategory *string `json:"subcategory"`
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return domain.Enrichment{}, fmt.Errorf("%w: %w", domain.ErrMalformedEnrichment, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return domain.Enrichment{}, fmt.Errorf("%w: trailing data after json object", domain.ErrMalformedEnrichment)
	}

	missing := make([]string, 0, 3)
	if payload.Summary == nil || strings.TrimSpace(*payload.Summary) == "" {
		missing = append(missing, "summary")
	}
	if payload.Category == nil || strings.TrimSpace(*payload.Category) == "" {
		missing = append(missing, "category")
	}
	if payload.Subcategory == nil || strings.TrimSpace(*payload.Subcategory) == "" {
		missing = append(missing, "subcategory")
	}
	if len(missing) > 0 {
		return domain.Enrichment{}, fmt.Errorf("%w: missing %s", domain.ErrMalformedEnrichment, strings.Join(missing, ", "))
	}

	category, ok := domain.CanonicalCategory(*payload.Category)
	if !ok {
		return domain.Enrichment{}, fmt.Errorf("%w: category %q is outside the taxonomy", domain.ErrMalformedEnrichment, *payload.Category)
	}

	return domain.Enrichment{
		Summary:     strings.TrimSpace(*payload.Summary),
		Category:    category,
		Subcategory: strings.TrimSpace(*payload.Subcategory),
	}, nil
}
