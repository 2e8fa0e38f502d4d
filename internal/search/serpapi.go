package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultSerpAPIBaseURL is the SerpAPI host.
	DefaultSerpAPIBaseURL = "https://serpapi.com"

	// FallbackResultCount is how many organic results the fallback requests.
	FallbackResultCount = 4
)

// SerpAPIConfig configures the Google-via-SerpAPI provider.
type SerpAPIConfig struct {
	APIKey  string
	BaseURL string
	Num     int
	Timeout time.Duration
}

type serpAPIResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

// SerpAPIProvider searches Google through SerpAPI. Unlike the primary
// provider, its failures are returned to the caller.
type SerpAPIProvider struct {
	cfg  SerpAPIConfig
	http *http.Client
}

func NewSerpAPIProvider(cfg SerpAPIConfig) *SerpAPIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSerpAPIBaseURL
	}
	if cfg.Num <= 0 {
		cfg.Num = FallbackResultCount
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SerpAPIProvider{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Search returns up to Num organic results. SerpAPI reports "no results" as a
// 200 with an error message and no organic_results, which yields an empty slice.
func (p *SerpAPIProvider) Search(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(p.cfg.Num))
	params.Set("api_key", p.cfg.APIKey)
	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/search.json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("serpapi: build request: %w", withoutURL(err))
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi: request: %w", withoutURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("serpapi: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var body serpAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("serpapi: decode response: %w", err)
	}

	results := make([]SearchResult, 0, len(body.OrganicResults))
	for _, r := range body.OrganicResults {
		results = append(results, SearchResult{
			Title:       r.Title,
			Link:        r.Link,
			Description: r.Snippet,
		})
	}
	return results, nil
}

// withoutURL drops the request URL from err. The URL carries api_key, and
// these errors end up in logs and tool results.
func withoutURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}
