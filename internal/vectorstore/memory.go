package vectorstore

import (
	"context"
	"fmt"
)

// MemoryStore creates in-process indexes that live only as long as the request.
type MemoryStore struct{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewIndex returns an empty in-memory index.
func (s *MemoryStore) NewIndex(ctx context.Context) (Index, error) {
	return &memoryIndex{}, nil
}

type memoryIndex struct {
	chunks    []Chunk
	vectors   [][]float32
	dimension int
	closed    bool
}

func (m *memoryIndex) Add(ctx context.Context, chunks []Chunk, vectors [][]float32) error {
	if m.closed {
		return ErrIndexClosed
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", ErrLengthMismatch, len(chunks), len(vectors))
	}
	for i, v := range vectors {
		if m.dimension == 0 {
			m.dimension = len(v)
		}
		if len(v) != m.dimension {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(v), m.dimension)
		}
	}

	m.chunks = append(m.chunks, chunks...)
	m.vectors = append(m.vectors, vectors...)
	return nil
}

func (m *memoryIndex) MaxMarginalRelevance(ctx context.Context, query []float32, opts MMROptions) ([]ScoredChunk, error) {
	if m.closed {
		return nil, ErrIndexClosed
	}
	if len(m.vectors) == 0 {
		return []ScoredChunk{}, nil
	}
	if len(query) != m.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(query), m.dimension)
	}

	fetchK := max(opts.FetchK, opts.K)
	candidates := topBySimilarity(query, m.vectors, fetchK)

	candidateVectors := make([][]float32, len(candidates))
	for i, pos := range candidates {
		candidateVectors[i] = m.vectors[pos]
	}

	picked := MaxMarginalRelevance(query, candidateVectors, opts.Lambda, opts.K)

	out := make([]ScoredChunk, 0, len(picked))
	for _, p := range picked {
		pos := candidates[p]
		out = append(out, ScoredChunk{
			Chunk: m.chunks[pos],
			Score: CosineSimilarity(query, m.vectors[pos]),
		})
	}
	return out, nil
}

func (m *memoryIndex) Len() int {
	return len(m.chunks)
}

func (m *memoryIndex) Close(ctx context.Context) error {
	m.closed = true
	m.chunks = nil
	m.vectors = nil
	return nil
}
