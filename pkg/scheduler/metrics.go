package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for page renders.
var (
	pageRendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loop_page_renders_total",
		Help: "Total page renders by outcome (ok, partial, aborted, invalid)",
	}, []string{"status"})

	blockFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loop_block_fetch_duration_seconds",
		Help:    "Duration of block fetches by stream",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"stream"})

	blockFetchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loop_block_fetch_failures_total",
		Help: "Total failed block fetches by stream",
	}, []string{"stream"})

	itemsRenderedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loop_items_rendered_total",
		Help: "Total items rendered by stream",
	}, []string{"stream"})

	shortResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loop_short_results_total",
		Help: "Total block fetches that returned fewer items than requested",
	}, []string{"stream"})
)
