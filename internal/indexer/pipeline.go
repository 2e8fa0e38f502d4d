// Package indexer turns search results into a per-request similarity index
// and retrieves context from it.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bull/news-rag-server/internal/search"
	"github.com/bull/news-rag-server/internal/textsplit"
	"github.com/bull/news-rag-server/internal/vectorstore"
)

// Splitter cuts a document body into chunks.
type Splitter interface {
	Split(text string) []textsplit.Chunk
}

// Embedder produces vectors for documents and queries.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Indexer builds fresh indexes from search results and runs MMR retrieval.
type Indexer struct {
	splitter Splitter
	embedder Embedder
	store    vectorstore.Store
	mmr      vectorstore.MMROptions
	logger   *slog.Logger
}

// NewIndexer creates an indexer. FetchK and Lambda from mmr are used for
// every retrieval; K is supplied per call.
func NewIndexer(
	splitter Splitter,
	embedder Embedder,
	store vectorstore.Store,
	mmr vectorstore.MMROptions,
	logger *slog.Logger,
) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		splitter: splitter,
		embedder: embedder,
		store:    store,
		mmr:      mmr,
		logger:   logger,
	}
}

// BuildIndex splits every result description, embeds all chunks in one call
// and loads them into a new index. The caller must Close the index.
// On error no index is returned.
func (ix *Indexer) BuildIndex(ctx context.Context, results []search.SearchResult) (vectorstore.Index, error) {
	start := time.Now()

	chunks := ix.chunk(results)

	index, err := ix.store.NewIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	if len(chunks) == 0 {
		ix.logger.Debug("No chunks to index", "results", len(results))
		return index, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := ix.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		ix.closeQuietly(index)
		return nil, fmt.Errorf("embeddings: %w", err)
	}

	if err := index.Add(ctx, chunks, vectors); err != nil {
		ix.closeQuietly(index)
		return nil, fmt.Errorf("load index: %w", err)
	}

	ix.logger.Info("Built index",
		"results", len(results),
		"chunks", len(chunks),
		"duration", time.Since(start),
	)
	return index, nil
}

// chunk maps results to chunks carrying the result's title and link.
// Empty chunks are dropped.
func (ix *Indexer) chunk(results []search.SearchResult) []vectorstore.Chunk {
	var chunks []vectorstore.Chunk
	for _, result := range results {
		for _, piece := range ix.splitter.Split(result.Description) {
			if strings.TrimSpace(piece.Content) == "" {
				continue
			}
			chunks = append(chunks, vectorstore.Chunk{
				Content: piece.Content,
				Title:   result.Title,
				Link:    result.Link,
			})
		}
	}
	return chunks
}

// Retrieve embeds the question and returns at most k chunks chosen by
// maximal marginal relevance.
func (ix *Indexer) Retrieve(ctx context.Context, index vectorstore.Index, question string, k int) ([]vectorstore.ScoredChunk, error) {
	if index.Len() == 0 || k <= 0 {
		return []vectorstore.ScoredChunk{}, nil
	}

	query, err := ix.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	opts := ix.mmr
	opts.K = k
	chunks, err := index.MaxMarginalRelevance(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("mmr search: %w", err)
	}

	ix.logger.Debug("Retrieved context", "chunks", len(chunks), "k", k)
	return chunks, nil
}

func (ix *Indexer) closeQuietly(index vectorstore.Index) {
	// The request context may already be cancelled.
	if err := index.Close(context.Background()); err != nil {
		ix.logger.Warn("Failed to close index", "error", err)
	}
}
