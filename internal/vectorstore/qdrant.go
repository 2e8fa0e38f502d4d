package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// collectionPrefix namespaces the throwaway collections this service creates.
const collectionPrefix = "news_rag_"

// QdrantStore creates one short-lived Qdrant collection per index. The
// collection is dropped when the index is closed, so nothing outlives the request.
type QdrantStore struct {
	client *qdrant.Client
	host   string
	port   int
}

// NewQdrantStore creates a new Qdrant client with health validation.
// It performs health check with retry on startup and fails fast if Qdrant is unreachable.
func NewQdrantStore(ctx context.Context, host string, port int) (*QdrantStore, error) {
	// Create Qdrant client using gRPC
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	store := &QdrantStore{
		client: client,
		host:   host,
		port:   port,
	}

	if err := store.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return store, nil
}

// healthCheckWithRetry performs health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *QdrantStore) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStore) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// NewIndex reserves a unique collection name. The collection itself is
// created on the first Add, once the vector dimension is known.
func (s *QdrantStore) NewIndex(ctx context.Context) (Index, error) {
	return &qdrantIndex{
		client:     s.client,
		collection: collectionPrefix + uuid.NewString(),
	}, nil
}

// Close closes the Qdrant client connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

type qdrantIndex struct {
	client     *qdrant.Client
	collection string
	dimension  int
	count      int
	created    bool
	closed     bool
}

func (q *qdrantIndex) ensureCollection(ctx context.Context, dimension int) error {
	if q.created {
		return nil
	}
	err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	q.created = true
	q.dimension = dimension
	return nil
}

func (q *qdrantIndex) Add(ctx context.Context, chunks []Chunk, vectors [][]float32) error {
	if q.closed {
		return ErrIndexClosed
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", ErrLengthMismatch, len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	if err := q.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) != q.dimension {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(vectors[i]), q.dimension)
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(q.count + i)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content": chunk.Content,
				"title":   chunk.Title,
				"link":    chunk.Link,
			}),
		}
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}

	q.count += len(chunks)
	return nil
}

// MaxMarginalRelevance uses Qdrant's native MMR query. Qdrant's diversity
// parameter is the complement of lambda.
func (q *qdrantIndex) MaxMarginalRelevance(ctx context.Context, query []float32, opts MMROptions) ([]ScoredChunk, error) {
	if q.closed {
		return nil, ErrIndexClosed
	}
	if q.count == 0 || opts.K <= 0 {
		return []ScoredChunk{}, nil
	}
	if len(query) != q.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(query), q.dimension)
	}

	limit := min(opts.K, q.count)
	fetchK := max(opts.FetchK, limit)

	results, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query: qdrant.NewQueryMMR(qdrant.NewVectorInput(query...), &qdrant.Mmr{
			Diversity:       qdrant.PtrOf(float32(1 - opts.Lambda)),
			CandidatesLimit: qdrant.PtrOf(uint32(fetchK)),
		}),
		Limit:       qdrant.PtrOf(uint64(limit)),
		WithPayload: qdrant.NewWithPayload(true),
		WithVectors: qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}

	out := make([]ScoredChunk, 0, len(results))
	for _, result := range results {
		payload := result.GetPayload()
		out = append(out, ScoredChunk{
			Chunk: Chunk{
				Content: payload["content"].GetStringValue(),
				Title:   payload["title"].GetStringValue(),
				Link:    payload["link"].GetStringValue(),
			},
			Score: CosineSimilarity(query, denseVector(result)),
		})
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (q *qdrantIndex) Len() int {
	return q.count
}

// Close drops the collection backing this index.
func (q *qdrantIndex) Close(ctx context.Context) error {
	if q.closed {
		return nil
	}
	q.closed = true
	if !q.created {
		return nil
	}
	if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", q.collection, err)
	}
	return nil
}

func denseVector(p *qdrant.ScoredPoint) []float32 {
	v := p.GetVectors().GetVector()
	if dense := v.GetDense().GetData(); len(dense) > 0 {
		return dense
	}
	return v.GetData()
}
