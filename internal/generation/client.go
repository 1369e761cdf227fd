// Package generation sends assembled prompts to the language model.
// Whatever the underlying transport, quota or timeout failure, callers
// see a single *domain.GenerationError.
package generation

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"kbchat/internal/domain"
)

// Generator produces an answer for one assembled request.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (string, error)
	Close() error
}

// Config configures the generation client. BaseURL may point at any
// OpenAI-compatible server.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
}

// Client wraps an OpenAI-compatible chat completion endpoint.
type Client struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	maxTokens   int
	temperature float32
}

// NewClient creates a generation client. Constructed once at startup and
// injected; there is no package-level singleton.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("generation API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		timeout:     timeout,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Generate runs one chat completion. The request's system instruction
// and rendered prompt map to the system and user messages.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt()},
		},
	})
	if err != nil {
		return "", &domain.GenerationError{Message: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.GenerationError{Message: "no completion returned"}
	}
	return resp.Choices[0].Message.Content, nil
}

// Close is part of the Generator lifecycle; the HTTP client needs no
// explicit teardown.
func (c *Client) Close() error { return nil }
