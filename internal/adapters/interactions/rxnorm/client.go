// Package rxnorm implements interactions.Adapter against an RxNorm-style
// HTTP service.
package rxnorm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clinsafe/platform/internal/adapters/interactions"
	"github.com/clinsafe/platform/internal/shared/config"
	"github.com/clinsafe/platform/internal/shared/errors"
)

// Client queries the interaction service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new interaction service client
func NewClient(cfg config.InteractionsConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ResolveDrugIdentifier maps a drug name to its RxCUI.
func (c *Client) ResolveDrugIdentifier(ctx context.Context, name string) (string, error) {
	endpoint := fmt.Sprintf("%s/rxcui?name=%s", c.baseURL, url.QueryEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.DependencyUnavailable("interaction service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", interactions.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.DependencyUnavailable("interaction service",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body struct {
		IDGroup struct {
			RxNormID []string `json:"rxnormId"`
		} `json:"idGroup"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.DependencyUnavailable("interaction service", err)
	}
	if len(body.IDGroup.RxNormID) == 0 {
		return "", interactions.ErrNotFound
	}

	return body.IDGroup.RxNormID[0], nil
}

// CheckInteractions queries pairwise interactions across the identifier set.
func (c *Client) CheckInteractions(ctx context.Context, canonicalIDs []string) ([]interactions.Interaction, error) {
	if len(canonicalIDs) < 2 {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/interaction/list?rxcuis=%s", c.baseURL,
		url.QueryEscape(strings.Join(canonicalIDs, "+")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.DependencyUnavailable("interaction service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// No known interactions for this set
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.DependencyUnavailable("interaction service",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body struct {
		FullInteractionTypeGroup []struct {
			FullInteractionType []struct {
				InteractionPair []struct {
					InteractionConcept []struct {
						MinConceptItem struct {
							Name string `json:"name"`
						} `json:"minConceptItem"`
					} `json:"interactionConcept"`
					Severity    string `json:"severity"`
					Description string `json:"description"`
				} `json:"interactionPair"`
			} `json:"fullInteractionType"`
		} `json:"fullInteractionTypeGroup"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.DependencyUnavailable("interaction service", err)
	}

	var result []interactions.Interaction
	for _, group := range body.FullInteractionTypeGroup {
		for _, it := range group.FullInteractionType {
			for _, pair := range it.InteractionPair {
				interaction := interactions.Interaction{
					Severity:    normalizeSeverity(pair.Severity),
					Description: pair.Description,
				}
				if len(pair.InteractionConcept) >= 2 {
					interaction.Drug1 = pair.InteractionConcept[0].MinConceptItem.Name
					interaction.Drug2 = pair.InteractionConcept[1].MinConceptItem.Name
				}
				result = append(result, interaction)
			}
		}
	}

	return result, nil
}

// normalizeSeverity maps the service's free-form severity strings onto the
// fixed grades.
func normalizeSeverity(s string) interactions.Severity {
	switch strings.ToLower(s) {
	case "contraindicated":
		return interactions.SeverityContraindicated
	case "major", "high", "severe":
		return interactions.SeverityMajor
	case "moderate", "significant":
		return interactions.SeverityModerate
	default:
		return interactions.SeverityMinor
	}
}
