// Package directory wraps the external university directory API. Results
// are fetched per request and never persisted; the caller owns the
// empty-on-outage contract.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sentinelai/counsel-api/model"
)

const (
	// DefaultTimeout bounds every directory lookup
	DefaultTimeout = 10 * time.Second
)

// Client queries the university directory search endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds configuration for the directory client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new directory client
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type record struct {
	Name          string   `json:"name"`
	Country       string   `json:"country"`
	AlphaTwoCode  string   `json:"alpha_two_code"`
	Domains       []string `json:"domains"`
	WebPages      []string `json:"web_pages"`
	StateProvince *string  `json:"state-province"`
}

// Search resolves name/country queries to candidate universities. Both
// filters are optional; an empty response body maps to an empty slice.
func (c *Client) Search(ctx context.Context, name, country string) ([]model.University, error) {
	endpoint := c.baseURL + "/search"

	params := url.Values{}
	if name != "" {
		params.Set("name", name)
	}
	if country != "" {
		params.Set("country", country)
	}
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("directory returned status %d: %s", resp.StatusCode, string(body))
	}

	var records []record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode directory response: %w", err)
	}

	universities := make([]model.University, 0, len(records))
	for _, r := range records {
		u := model.University{
			Name:         r.Name,
			Country:      r.Country,
			AlphaTwoCode: r.AlphaTwoCode,
			Domains:      r.Domains,
			WebPages:     r.WebPages,
		}
		if r.StateProvince != nil {
			u.StateProvince = *r.StateProvince
		}
		universities = append(universities, u)
	}

	return universities, nil
}
