package search

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultNaverBaseURL is the Naver Open API host.
	DefaultNaverBaseURL = "https://openapi.naver.com"

	naverNewsPath = "/v1/search/news.json"
)

// NaverConfig configures the Naver news provider.
type NaverConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	// Display is the number of items requested; 0 leaves the API default (10).
	Display int
	Timeout time.Duration
}

type naverResponse struct {
	Items []struct {
		Title        string `json:"title"`
		OriginalLink string `json:"originallink"`
		Link         string `json:"link"`
		Description  string `json:"description"`
		PubDate      string `json:"pubDate"`
	} `json:"items"`
}

// NaverProvider searches Naver news. It is the primary provider, so it never
// returns an error: every failure is logged and reported as zero results,
// which lets the coordinator fall back.
type NaverProvider struct {
	cfg      NaverConfig
	http     *http.Client
	policy   *bluemonday.Policy
	logger   *slog.Logger
	failures prometheus.Counter
}

// NewNaverProvider creates the provider. failures may be nil.
func NewNaverProvider(cfg NaverConfig, logger *slog.Logger, failures prometheus.Counter) *NaverProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNaverBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NaverProvider{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		policy:   bluemonday.StrictPolicy(),
		logger:   logger,
		failures: failures,
	}
}

// Search returns news items for the keyword, or an empty slice on any failure.
func (p *NaverProvider) Search(ctx context.Context, query string) ([]SearchResult, error) {
	results, err := p.search(ctx, query)
	if err != nil {
		p.logger.WarnContext(ctx, "Naver search failed, treating as no results", "query", query, "error", err)
		if p.failures != nil {
			p.failures.Inc()
		}
		return []SearchResult{}, nil
	}
	return results, nil
}

func (p *NaverProvider) search(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	if p.cfg.Display > 0 {
		params.Set("display", strconv.Itoa(p.cfg.Display))
	}
	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + naverNewsPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Naver-Client-Id", p.cfg.ClientID)
	req.Header.Set("X-Naver-Client-Secret", p.cfg.ClientSecret)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body naverResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]SearchResult, 0, len(body.Items))
	for _, item := range body.Items {
		results = append(results, SearchResult{
			Title:       p.plainText(item.Title),
			Link:        item.Link,
			Description: p.plainText(item.Description),
		})
	}
	return results, nil
}

// plainText strips the <b> highlighting Naver wraps around matches and
// decodes entities such as &quot;.
func (p *NaverProvider) plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(p.policy.Sanitize(s)))
}
