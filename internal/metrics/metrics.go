// Package metrics defines the Prometheus collectors for the RAG pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "news_rag"

// Pipeline stages timed by StageDuration.
const (
	StageReformulate = "reformulate"
	StageSearch      = "search"
	StageIndex       = "index"
	StageRetrieve    = "retrieve"
	StageGenerate    = "generate"
	StageAssistant   = "assistant"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	RequestsTotal       *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	SearchFallbackTotal prometheus.Counter
	PrimarySearchErrors prometheus.Counter
}

// New registers the collectors on reg. A nil reg leaves them unregistered,
// which tests use to avoid global state.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of answered requests by endpoint and result source",
			},
			[]string{"endpoint", "source"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		SearchFallbackTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_fallback_total",
				Help:      "Total number of searches that fell back to the secondary provider",
			},
		),
		PrimarySearchErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "primary_search_errors_total",
				Help:      "Total number of swallowed primary search failures",
			},
		),
	}
}

// ObserveStage records the time since start for stage.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
