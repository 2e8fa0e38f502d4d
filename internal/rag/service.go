// Package rag orchestrates search, indexing, retrieval and generation for a
// single question.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bull/news-rag-server/internal/answer"
	"github.com/bull/news-rag-server/internal/assistant"
	"github.com/bull/news-rag-server/internal/metrics"
	"github.com/bull/news-rag-server/internal/search"
	"github.com/bull/news-rag-server/internal/tracing"
	"github.com/bull/news-rag-server/internal/vectorstore"
)

// NoResultsReply is the reply sent when neither provider finds anything.
const NoResultsReply = "No results found from both Naver and Google."

// DefaultK is how many chunks feed the answer on both paths.
const DefaultK = 3

// Searcher finds news for a question.
type Searcher interface {
	Search(ctx context.Context, question string) (search.Outcome, error)
}

// ContextIndexer builds a per-request index and retrieves from it.
type ContextIndexer interface {
	BuildIndex(ctx context.Context, results []search.SearchResult) (vectorstore.Index, error)
	Retrieve(ctx context.Context, index vectorstore.Index, question string, k int) ([]vectorstore.ScoredChunk, error)
}

// AnswerGenerator produces a grounded reply.
type AnswerGenerator interface {
	Generate(ctx context.Context, question string, chunks []vectorstore.ScoredChunk) (string, error)
}

// AssistantRunner runs a question through an assistant thread.
type AssistantRunner interface {
	Run(ctx context.Context, question, threadID, instructions string) (assistant.Summary, error)
}

// ChatResult is the outcome of the stateless path. Found is false when both
// providers came back empty, in which case only Reply and Source are set.
type ChatResult struct {
	Found   bool
	Reply   string
	Source  search.Source
	Results []search.SearchResult
}

// AssistantResult is the outcome of the stateful path.
type AssistantResult struct {
	Found   bool
	Reply   string
	Source  search.Source
	Results []search.SearchResult
	Summary assistant.Summary
}

// Service runs the pipeline. It holds no per-request state.
type Service struct {
	searcher  Searcher
	indexer   ContextIndexer
	generator AnswerGenerator
	assistant AssistantRunner
	metrics   *metrics.Metrics
	k         int
	logger    *slog.Logger
}

// NewService wires the pipeline stages. A nil m disables metrics.
func NewService(
	searcher Searcher,
	indexer ContextIndexer,
	generator AnswerGenerator,
	runner AssistantRunner,
	m *metrics.Metrics,
	k int,
	logger *slog.Logger,
) *Service {
	if k <= 0 {
		k = DefaultK
	}
	if m == nil {
		m = metrics.New(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		searcher:  searcher,
		indexer:   indexer,
		generator: generator,
		assistant: runner,
		metrics:   m,
		k:         k,
		logger:    logger,
	}
}

// Search runs only the provider fallback sequence.
func (s *Service) Search(ctx context.Context, question string) (search.Outcome, error) {
	ctx, span := tracing.Start(ctx, "rag.search")
	defer span.End()

	start := time.Now()
	outcome, err := s.searcher.Search(ctx, question)
	s.metrics.ObserveStage(metrics.StageSearch, start)
	if err != nil {
		span.RecordError(err)
		return search.Outcome{}, fmt.Errorf("search: %w", err)
	}
	if outcome.Source == search.SourceFallback {
		s.metrics.SearchFallbackTotal.Inc()
	}
	return outcome, nil
}

// Chat answers question with one chat completion over the retrieved news.
func (s *Service) Chat(ctx context.Context, question string) (ChatResult, error) {
	outcome, err := s.Search(ctx, question)
	if err != nil {
		return ChatResult{}, err
	}
	if outcome.Empty() {
		s.metrics.RequestsTotal.WithLabelValues("chat", string(search.SourceNone)).Inc()
		return ChatResult{Reply: NoResultsReply, Source: search.SourceNone}, nil
	}

	chunks, err := s.retrieve(ctx, question, outcome.Results)
	if err != nil {
		return ChatResult{}, err
	}

	genCtx, span := tracing.Start(ctx, "rag.generate")
	start := time.Now()
	reply, err := s.generator.Generate(genCtx, question, chunks)
	s.metrics.ObserveStage(metrics.StageGenerate, start)
	span.End()
	if err != nil {
		return ChatResult{}, err
	}

	s.metrics.RequestsTotal.WithLabelValues("chat", string(outcome.Source)).Inc()
	s.logger.InfoContext(ctx, "Answered chat", "source", outcome.Source, "chunks", len(chunks))

	return ChatResult{
		Found:   true,
		Reply:   reply,
		Source:  outcome.Source,
		Results: toResults(chunks),
	}, nil
}

// Assistant answers question in the assistant thread threadID, starting a
// new thread when threadID is empty.
func (s *Service) Assistant(ctx context.Context, question, threadID string) (AssistantResult, error) {
	outcome, err := s.Search(ctx, question)
	if err != nil {
		return AssistantResult{}, err
	}
	if outcome.Empty() {
		s.metrics.RequestsTotal.WithLabelValues("assistant", string(search.SourceNone)).Inc()
		return AssistantResult{Reply: NoResultsReply, Source: search.SourceNone}, nil
	}

	chunks, err := s.retrieve(ctx, question, outcome.Results)
	if err != nil {
		return AssistantResult{}, err
	}

	instructions := answer.RenderAssistantInstructions(question, answer.BuildContext(chunks))

	runCtx, span := tracing.Start(ctx, "rag.assistant")
	start := time.Now()
	summary, err := s.assistant.Run(runCtx, question, threadID, instructions)
	s.metrics.ObserveStage(metrics.StageAssistant, start)
	span.End()
	if err != nil {
		return AssistantResult{}, fmt.Errorf("assistant: %w", err)
	}

	s.metrics.RequestsTotal.WithLabelValues("assistant", string(outcome.Source)).Inc()
	s.logger.InfoContext(ctx, "Answered assistant", "source", outcome.Source, "thread_id", summary.ThreadID)

	return AssistantResult{
		Found:   true,
		Source:  outcome.Source,
		Results: toResults(chunks),
		Summary: summary,
	}, nil
}

// retrieve indexes results into a fresh index, pulls the top chunks and
// drops the index.
func (s *Service) retrieve(ctx context.Context, question string, results []search.SearchResult) ([]vectorstore.ScoredChunk, error) {
	indexCtx, span := tracing.Start(ctx, "rag.index")
	start := time.Now()
	index, err := s.indexer.BuildIndex(indexCtx, results)
	s.metrics.ObserveStage(metrics.StageIndex, start)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	defer func() {
		if err := index.Close(context.Background()); err != nil {
			s.logger.Warn("Failed to close index", "error", err)
		}
	}()

	retrieveCtx, span := tracing.Start(ctx, "rag.retrieve")
	start = time.Now()
	chunks, err := s.indexer.Retrieve(retrieveCtx, index, question, s.k)
	s.metrics.ObserveStage(metrics.StageRetrieve, start)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return chunks, nil
}

func toResults(chunks []vectorstore.ScoredChunk) []search.SearchResult {
	out := make([]search.SearchResult, len(chunks))
	for i, c := range chunks {
		out[i] = search.SearchResult{
			Title:       c.Title,
			Link:        c.Link,
			Description: c.Content,
		}
	}
	return out
}
