package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clinsafe/platform/internal/shared/config"
	"github.com/clinsafe/platform/internal/shared/errors"
)

// Client queries the knowledge service over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	threshold  float64
	maxChunks  int
}

// NewClient creates a new knowledge service client
func NewClient(cfg config.KnowledgeConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		threshold: cfg.Threshold,
		maxChunks: cfg.MaxChunks,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SearchKnowledge runs a similarity search against the knowledge base.
func (c *Client) SearchKnowledge(ctx context.Context, req SearchRequest) ([]Document, error) {
	if req.Threshold == 0 {
		req.Threshold = c.threshold
	}
	if req.Count == 0 {
		req.Count = c.maxChunks
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.DependencyUnavailable("knowledge service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.DependencyUnavailable("knowledge service",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var result struct {
		Documents []Document `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.DependencyUnavailable("knowledge service", err)
	}

	return result.Documents, nil
}
