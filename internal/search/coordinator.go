package search

import (
	"context"
	"fmt"
	"log/slog"
)

// QueryReformulator derives the provider-specific queries.
type QueryReformulator interface {
	ExtractPrimaryKeyword(ctx context.Context, question string) (string, error)
	RefineForFallbackSearch(ctx context.Context, question string) (string, error)
}

// Coordinator queries the primary provider and falls back to the secondary
// provider only when the primary returns nothing.
type Coordinator struct {
	reformulator QueryReformulator
	primary      Provider
	fallback     Provider
	logger       *slog.Logger
}

// NewCoordinator wires the reformulator and both providers.
func NewCoordinator(reformulator QueryReformulator, primary, fallback Provider, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		reformulator: reformulator,
		primary:      primary,
		fallback:     fallback,
		logger:       logger,
	}
}

// Search runs the primary-then-fallback sequence for the question.
// Errors from the reformulator or the fallback provider are returned; the
// primary provider is expected to absorb its own failures.
func (c *Coordinator) Search(ctx context.Context, question string) (Outcome, error) {
	keyword, err := c.reformulator.ExtractPrimaryKeyword(ctx, question)
	if err != nil {
		return Outcome{}, err
	}

	results, err := c.primary.Search(ctx, keyword)
	if err != nil {
		return Outcome{}, fmt.Errorf("primary search: %w", err)
	}
	if len(results) > 0 {
		c.logger.InfoContext(ctx, "Primary search returned results", "keyword", keyword, "results", len(results))
		return Outcome{Results: results, Source: SourcePrimary}, nil
	}

	refined, err := c.reformulator.RefineForFallbackSearch(ctx, question)
	if err != nil {
		return Outcome{}, err
	}

	results, err = c.fallback.Search(ctx, refined)
	if err != nil {
		return Outcome{}, fmt.Errorf("fallback search: %w", err)
	}
	if len(results) > 0 {
		c.logger.InfoContext(ctx, "Fallback search returned results", "query", refined, "results", len(results))
		return Outcome{Results: results, Source: SourceFallback}, nil
	}

	c.logger.InfoContext(ctx, "No results from either provider", "keyword", keyword, "query", refined)
	return Outcome{Results: []SearchResult{}, Source: SourceNone}, nil
}
