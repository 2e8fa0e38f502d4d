// Package search queries news providers and normalizes their results.
package search

import "context"

// SearchResult is the provider-independent shape of one hit.
type SearchResult struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
}

// Provider is a single search backend.
type Provider interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// Source labels which provider produced a result set.
type Source string

const (
	SourcePrimary  Source = "Naver Search API"
	SourceFallback Source = "Google Search API"
	SourceNone     Source = "None"
)

// Outcome is the coordinator's answer: the results and where they came from.
type Outcome struct {
	Results []SearchResult
	Source  Source
}

// Empty reports whether neither provider returned anything.
func (o Outcome) Empty() bool {
	return len(o.Results) == 0
}
