package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReformulator struct {
	keywordCalls int
	refineCalls  int
	err          error
}

func (s *stubReformulator) ExtractPrimaryKeyword(ctx context.Context, question string) (string, error) {
	s.keywordCalls++
	return "keyword", s.err
}

func (s *stubReformulator) RefineForFallbackSearch(ctx context.Context, question string) (string, error) {
	s.refineCalls++
	return "refined query", s.err
}

type stubProvider struct {
	results []SearchResult
	err     error
	queries []string
}

func (s *stubProvider) Search(ctx context.Context, query string) ([]SearchResult, error) {
	s.queries = append(s.queries, query)
	return s.results, s.err
}

func twoResults() []SearchResult {
	return []SearchResult{
		{Title: "A", Link: "https://a", Description: "first"},
		{Title: "B", Link: "https://b", Description: "second"},
	}
}

func TestCoordinator_PrimaryHit(t *testing.T) {
	reform := &stubReformulator{}
	primary := &stubProvider{results: twoResults()}
	fallback := &stubProvider{results: twoResults()}

	out, err := NewCoordinator(reform, primary, fallback, nil).Search(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, SourcePrimary, out.Source)
	assert.Len(t, out.Results, 2)
	assert.Equal(t, []string{"keyword"}, primary.queries)
	assert.Empty(t, fallback.queries, "fallback must not be invoked when primary has results")
	assert.Equal(t, 0, reform.refineCalls)
}

func TestCoordinator_FallbackHit(t *testing.T) {
	reform := &stubReformulator{}
	primary := &stubProvider{results: []SearchResult{}}
	fallback := &stubProvider{results: twoResults()[:1]}

	out, err := NewCoordinator(reform, primary, fallback, nil).Search(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, SourceFallback, out.Source)
	assert.Len(t, out.Results, 1)
	assert.Equal(t, []string{"refined query"}, fallback.queries)
	assert.Equal(t, 1, reform.refineCalls)
}

func TestCoordinator_NoResults(t *testing.T) {
	out, err := NewCoordinator(&stubReformulator{}, &stubProvider{}, &stubProvider{}, nil).
		Search(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, SourceNone, out.Source)
	assert.True(t, out.Empty())
	assert.NotNil(t, out.Results)
}

func TestCoordinator_FallbackErrorPropagates(t *testing.T) {
	boom := errors.New("serpapi down")
	_, err := NewCoordinator(&stubReformulator{}, &stubProvider{}, &stubProvider{err: boom}, nil).
		Search(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
}

func TestCoordinator_ReformulatorErrorPropagates(t *testing.T) {
	boom := errors.New("chat down")
	primary := &stubProvider{results: twoResults()}

	_, err := NewCoordinator(&stubReformulator{err: boom}, primary, &stubProvider{}, nil).
		Search(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, primary.queries)
}
