package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"NewsPipeline/internal/config"
	"NewsPipeline/internal/enrichment"
)

// ChatGPTClient implements enrichment.Completer backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	client  *openai.Client
	model   string
	apiKey  string
	timeout time.Duration
}

var _ enrichment.Completer = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration. BaseURL lets the client
// target any OpenAI-compatible gateway.
func NewChatGPTClient(cfg config.EnrichmentConfig) *ChatGPTClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimSuffix(base, "/")
	}
	return &ChatGPTClient{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
	}
}

// Complete sends the system and user prompts and returns the first choice.
func (c *ChatGPTClient) Complete(ctx context.Context, system, user string) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("chatgpt client is nil")
	}
	if c.apiKey == "" || c.model == "" {
		return "", fmt.Errorf("chatgpt client misconfigured")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
