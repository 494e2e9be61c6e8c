// Package store holds what the content store implementations share: the
// collection a fetch reads from and their Prometheus metrics.
//
// Implementations live in the memstore (B-tree, in process) and redisstore
// (Redis sorted sets) subpackages. Both implement scheduler.QueryExecutor:
//
//   - specs with an Offset return the window [Offset, Offset+Limit) of the
//     collection in rank order
//   - specs without an Offset return up to Limit random items whose IDs are
//     not in ExcludeIDs
//
// Both return short results when the collection is exhausted.
package store

import (
	"github.com/Sternrassler/loop-pattern/pkg/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// QuerySource is the stream query parameter naming the collection to read.
// Without it a stream reads the collection named after itself, so several
// streams can share one collection.
const QuerySource = "source"

// Source returns the collection a fetch spec reads from.
func Source(spec scheduler.FetchSpec) string {
	if src := spec.Query[QuerySource]; src != "" {
		return src
	}
	return spec.Stream
}

// Operations tracks store operations by store, operation and status.
var Operations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "loop_store_operations_total",
		Help: "Total content store operations",
	},
	[]string{"store", "operation", "status"}, // operation: "fetch", "put", "delete"; status: "ok", "error"
)

// Observe records one operation outcome.
func Observe(storeName, operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	Operations.WithLabelValues(storeName, operation, status).Inc()
}

// Exclusions turns an exclusion list into a lookup set.
func Exclusions(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
