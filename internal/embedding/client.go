package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"kbchat/internal/logger"
)

// DefaultDimension matches the all-MiniLM-L6-v2 model served by the
// embedding sidecar.
const DefaultDimension = 384

// Config configures the embedding service client.
type Config struct {
	BaseURL   string
	Dimension int
	Timeout   time.Duration
}

// Client talks to the embedding sidecar over HTTP. It retries transient
// failures with exponential backoff and rejects responses whose dimension
// does not match the configured one.
type Client struct {
	baseURL    string
	dimension  int
	client     *http.Client
	maxRetries uint64
	log        logger.Logger
}

// NewClient creates an embedding client. The dimension is fixed here and
// verified against every response.
func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("embedding service base URL is required")
	}
	dim := cfg.Dimension
	if dim == 0 {
		dim = DefaultDimension
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		dimension:  dim,
		client:     &http.Client{Timeout: timeout},
		maxRetries: 4,
		log:        log,
	}, nil
}

// Dimension returns the vector length this client produces.
func (c *Client) Dimension() int { return c.dimension }

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Dimension int       `json:"dimension"`
	Model     string    `json:"model"`
}

type batchRequest struct {
	Texts []string `json:"texts"`
}

type batchResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Count      int         `json:"count"`
	Dimension  int         `json:"dimension"`
	Model      string      `json:"model"`
}

// Embed returns the embedding vector for one text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}
	var out embedResponse
	if err := c.postJSON(ctx, "/embed", embedRequest{Text: text}, &out); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if err := c.checkDimension(len(out.Embedding)); err != nil {
		return nil, err
	}
	return out.Embedding, nil
}

// EmbedBatch embeds many texts in one request.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var out batchResponse
	if err := c.postJSON(ctx, "/embed/batch", batchRequest{Texts: texts}, &out); err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed batch: requested %d embeddings, got %d", len(texts), len(out.Embeddings))
	}
	for i, v := range out.Embeddings {
		if err := c.checkDimension(len(v)); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return out.Embeddings, nil
}

// Healthy probes GET /health. Any failure reports unhealthy; callers
// treat that as degraded mode, not an error.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("embedding health probe failed", "err", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *Client) checkDimension(got int) error {
	if got != c.dimension {
		return fmt.Errorf("embedding dimension %d does not match configured %d; "+
			"the index and the model must agree", got, c.dimension)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return retry.RetryableError(fmt.Errorf("embedding service returned %s", resp.Status))
		}
		if resp.StatusCode >= 300 {
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("embedding service returned %s: %s", resp.Status, payload)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}
