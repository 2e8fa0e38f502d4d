// Package vectorstore holds per-request similarity indexes over news chunks.
package vectorstore

import "context"

// Chunk is a piece of a search result description with its source metadata.
type Chunk struct {
	Content string // Chunk text (embedded)
	Title   string // Title of the originating search result
	Link    string // Link of the originating search result
}

// ScoredChunk is a retrieved chunk with its cosine similarity to the query.
type ScoredChunk struct {
	Chunk
	Score float64
}

// MMROptions tunes maximal marginal relevance selection.
type MMROptions struct {
	// K is the number of chunks to return.
	K int
	// FetchK is the number of nearest candidates MMR chooses from.
	FetchK int
	// Lambda weighs relevance (1) against diversity (0).
	Lambda float64
}

// DefaultMMROptions mirrors the common retriever defaults.
func DefaultMMROptions() MMROptions {
	return MMROptions{K: 3, FetchK: 20, Lambda: 0.5}
}

// Index is an ephemeral similarity index scoped to one request.
// Implementations are not safe for concurrent use.
type Index interface {
	// Add stores chunks with their embeddings; len(chunks) must equal len(vectors).
	Add(ctx context.Context, chunks []Chunk, vectors [][]float32) error
	// MaxMarginalRelevance returns at most opts.K chunks, never more than Len().
	MaxMarginalRelevance(ctx context.Context, query []float32, opts MMROptions) ([]ScoredChunk, error)
	// Len reports how many chunks the index holds.
	Len() int
	// Close releases the index and anything it created remotely.
	Close(ctx context.Context) error
}

// Store creates fresh indexes.
type Store interface {
	NewIndex(ctx context.Context) (Index, error)
}
