// Package metrics documents the Prometheus metrics exported by the loop
// scheduler. Metrics are defined next to the code that records them
// (scheduler, store) to avoid circular dependencies; this package exposes
// the registry and an HTTP handler for them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all loop metrics are registered with via
// promauto.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler serving the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Render Metrics (pkg/scheduler):
//   - loop_page_renders_total{status} (Counter): Page renders by outcome (ok, partial, aborted, invalid)
//   - loop_block_fetch_duration_seconds{stream} (Histogram): Block fetch latency by stream
//   - loop_block_fetch_failures_total{stream} (Counter): Failed block fetches by stream
//   - loop_items_rendered_total{stream} (Counter): Items rendered by stream
//   - loop_short_results_total{stream} (Counter): Fetches returning fewer items than requested
//
// Store Metrics (pkg/store):
//   - loop_store_operations_total{store, operation, status} (Counter): Store operations
//     (store: memory, redis; operation: fetch, put, delete; status: ok, error)
//
// Example Prometheus Queries:
//
//   # Partial page rate
//   rate(loop_page_renders_total{status="partial"}[5m]) / rate(loop_page_renders_total[5m])
//
//   # Streams running dry
//   topk(5, rate(loop_short_results_total[15m]))
//
//   # P95 block fetch latency per stream
//   histogram_quantile(0.95, sum by (stream, le) (rate(loop_block_fetch_duration_seconds_bucket[5m])))
