package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsPipeline/internal/enrichment"
)

// Client talks to a self-hosted enrichment service that accepts the prompt
// pair and answers with the model output as its body.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ enrichment.Completer = (*Client)(nil)

// NewClient creates a reusable HTTP client; timeout defaults to 60s.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Complete posts {instructions, input} to /enrich and returns the raw answer.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("enrichment endpoint is not configured")
	}

	payload := map[string]string{
		"instructions": system,
		"input":        user,
	}
	return c.post(ctx, "/enrich", payload)
}

func (c *Client) post(ctx context.Context, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	return string(raw), nil
}
