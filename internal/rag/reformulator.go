package rag

import (
	"context"
	"time"

	"github.com/bull/news-rag-server/internal/metrics"
	"github.com/bull/news-rag-server/internal/search"
	"github.com/bull/news-rag-server/internal/tracing"
)

// timedReformulator records reformulation latency and spans.
type timedReformulator struct {
	next    search.QueryReformulator
	metrics *metrics.Metrics
}

// InstrumentReformulator wraps r so each call is timed under the
// reformulate stage.
func InstrumentReformulator(r search.QueryReformulator, m *metrics.Metrics) search.QueryReformulator {
	return &timedReformulator{next: r, metrics: m}
}

func (t *timedReformulator) ExtractPrimaryKeyword(ctx context.Context, question string) (string, error) {
	ctx, span := tracing.Start(ctx, "rag.reformulate.keyword")
	defer span.End()
	defer t.metrics.ObserveStage(metrics.StageReformulate, time.Now())
	return t.next.ExtractPrimaryKeyword(ctx, question)
}

func (t *timedReformulator) RefineForFallbackSearch(ctx context.Context, question string) (string, error) {
	ctx, span := tracing.Start(ctx, "rag.reformulate.refine")
	defer span.End()
	defer t.metrics.ObserveStage(metrics.StageReformulate, time.Now())
	return t.next.RefineForFallbackSearch(ctx, question)
}
