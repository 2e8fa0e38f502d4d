// Package app assembles the news pipeline from configuration. Both the
// server and the CLI build their dependencies through here.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bull/news-rag-server/internal/answer"
	"github.com/bull/news-rag-server/internal/assistant"
	"github.com/bull/news-rag-server/internal/config"
	"github.com/bull/news-rag-server/internal/embedding"
	"github.com/bull/news-rag-server/internal/indexer"
	"github.com/bull/news-rag-server/internal/llm"
	"github.com/bull/news-rag-server/internal/metrics"
	"github.com/bull/news-rag-server/internal/query"
	"github.com/bull/news-rag-server/internal/rag"
	"github.com/bull/news-rag-server/internal/search"
	"github.com/bull/news-rag-server/internal/textsplit"
	"github.com/bull/news-rag-server/internal/vectorstore"
)

// App holds the wired pipeline and the resources it owns.
type App struct {
	Service *rag.Service
	Metrics *metrics.Metrics
	// Health is nil when the vector store has no remote backend to probe.
	Health interface {
		Health(ctx context.Context) error
	}

	closers []func() error
}

// Build creates every pipeline stage from cfg. reg may be nil, in which case
// metrics are collected but not exported.
func Build(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Metrics: metrics.New(reg)}

	// Chat and embeddings share one Upstage client
	upstage, err := embedding.NewClient(cfg.UpstageAPIKey, cfg.UpstageBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	chat := llm.NewChat(upstage.Client(), cfg.ChatModel)
	embedder := embedding.NewEmbedder(upstage, cfg.EmbeddingModel, cfg.EmbeddingBatchSize)

	// Search
	reformulator := rag.InstrumentReformulator(query.NewReformulator(chat), a.Metrics)
	naver := search.NewNaverProvider(search.NaverConfig{
		ClientID:     cfg.NaverClientID,
		ClientSecret: cfg.NaverClientSecret,
		BaseURL:      cfg.NaverBaseURL,
		Display:      cfg.NaverDisplay,
		Timeout:      cfg.SearchTimeout,
	}, logger, a.Metrics.PrimarySearchErrors)
	serp := search.NewSerpAPIProvider(search.SerpAPIConfig{
		APIKey:  cfg.SerpAPIKey,
		BaseURL: cfg.SerpAPIBaseURL,
		Num:     search.FallbackResultCount,
		Timeout: cfg.SearchTimeout,
	})
	coordinator := search.NewCoordinator(reformulator, naver, serp, logger)

	// Retrieval
	store, err := a.openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	ix := indexer.NewIndexer(
		textsplit.NewRecursiveSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder,
		store,
		vectorstore.MMROptions{K: rag.DefaultK, FetchK: cfg.MMRFetchK, Lambda: cfg.MMRLambda},
		logger,
	)

	// Assistant
	assistantAPI, err := assistant.NewOpenAIAPI(cfg.OpenAIAPIKey)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to create assistant client: %w", err)
	}
	manager := assistant.NewManager(assistantAPI, assistant.Config{
		Model:      cfg.AssistantModel,
		RunTimeout: cfg.AssistantRunTimeout,
	}, logger)

	a.Service = rag.NewService(
		coordinator,
		ix,
		answer.NewGenerator(chat),
		manager,
		a.Metrics,
		rag.DefaultK,
		logger,
	)
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (vectorstore.Store, error) {
	switch cfg.VectorStore {
	case config.VectorStoreQdrant:
		store, err := vectorstore.NewQdrantStore(ctx, cfg.QdrantHost, cfg.QdrantPort)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
		}
		logger.Info("using qdrant vector store", "host", cfg.QdrantHost, "port", cfg.QdrantPort)
		a.Health = store
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return vectorstore.NewMemoryStore(), nil
	}
}

// Close releases long-lived connections.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
