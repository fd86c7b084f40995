// Package openfda implements druglabel.Adapter against an openFDA-style
// drug label API.
package openfda

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/clinsafe/platform/internal/adapters/druglabel"
	"github.com/clinsafe/platform/internal/shared/config"
	"github.com/clinsafe/platform/internal/shared/errors"
)

// Client queries the openFDA drug label endpoint
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new openFDA client
func NewClient(cfg config.DrugLabelConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// labelResponse mirrors the openFDA result envelope
type labelResponse struct {
	Results []struct {
		OpenFDA struct {
			BrandName   []string `json:"brand_name"`
			GenericName []string `json:"generic_name"`
		} `json:"openfda"`
		IndicationsAndUsage     []string `json:"indications_and_usage"`
		DosageAndAdministration []string `json:"dosage_and_administration"`
		Contraindications       []string `json:"contraindications"`
		WarningsAndCautions     []string `json:"warnings_and_cautions"`
		Warnings                []string `json:"warnings"`
		BoxedWarning            []string `json:"boxed_warning"`
	} `json:"results"`
}

// LookupDrugLabel queries by brand name first, then generic name.
func (c *Client) LookupDrugLabel(ctx context.Context, name string) (*druglabel.Label, error) {
	label, err := c.search(ctx, fmt.Sprintf(`openfda.brand_name:%q`, name))
	if err == nil {
		return label, nil
	}
	if !stderrors.Is(err, druglabel.ErrNotFound) {
		return nil, err
	}
	return c.search(ctx, fmt.Sprintf(`openfda.generic_name:%q`, name))
}

func (c *Client) search(ctx context.Context, query string) (*druglabel.Label, error) {
	params := url.Values{}
	params.Set("search", query)
	params.Set("limit", "1")
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.DependencyUnavailable("drug label service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, druglabel.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.DependencyUnavailable("drug label service",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body labelResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.DependencyUnavailable("drug label service", err)
	}
	if len(body.Results) == 0 {
		return nil, druglabel.ErrNotFound
	}

	r := body.Results[0]
	label := &druglabel.Label{
		BrandName:               first(r.OpenFDA.BrandName),
		GenericName:             first(r.OpenFDA.GenericName),
		Indications:             r.IndicationsAndUsage,
		DosageAndAdministration: first(r.DosageAndAdministration),
		Contraindications:       r.Contraindications,
		Warnings:                append(r.Warnings, r.WarningsAndCautions...),
		BoxedWarning:            first(r.BoxedWarning),
	}
	return label, nil
}

func first(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}
