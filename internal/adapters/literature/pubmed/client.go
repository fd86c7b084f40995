// Package pubmed implements literature.Adapter against a PubMed-style
// eutils API.
package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clinsafe/platform/internal/adapters/literature"
	"github.com/clinsafe/platform/internal/shared/config"
	"github.com/clinsafe/platform/internal/shared/errors"
)

// Client queries the literature service
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
}

// NewClient creates a new literature client
func NewClient(cfg config.LiteratureConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxResults: maxResults,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SearchLiterature searches for evidence on a condition, optionally scoped
// to one medication.
func (c *Client) SearchLiterature(ctx context.Context, condition, medication string, maxResults int) ([]literature.Article, error) {
	if maxResults <= 0 {
		maxResults = c.maxResults
	}

	term := condition
	if medication != "" {
		term = fmt.Sprintf("%s AND %s", condition, medication)
	}

	params := url.Values{}
	params.Set("term", term)
	params.Set("retmax", fmt.Sprintf("%d", maxResults))
	params.Set("retmode", "json")
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	endpoint := fmt.Sprintf("%s/esearch.fcgi?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.DependencyUnavailable("literature service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.DependencyUnavailable("literature service",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body struct {
		Result struct {
			Articles []struct {
				Title            string   `json:"title"`
				Abstract         string   `json:"abstract"`
				Journal          string   `json:"fulljournalname"`
				PubYear          int      `json:"pubyear"`
				PublicationTypes []string `json:"pubtype"`
			} `json:"articles"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.DependencyUnavailable("literature service", err)
	}

	articles := make([]literature.Article, 0, len(body.Result.Articles))
	for _, a := range body.Result.Articles {
		articles = append(articles, literature.Article{
			Title:            a.Title,
			Abstract:         a.Abstract,
			Journal:          a.Journal,
			Year:             a.PubYear,
			PublicationTypes: a.PublicationTypes,
			EvidenceTier:     literature.TierForPublicationTypes(a.PublicationTypes),
		})
	}

	return articles, nil
}
