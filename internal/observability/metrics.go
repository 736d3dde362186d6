package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TreeAssemblyDepth records the depth of each assembled reply tree.
	TreeAssemblyDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "threadline_tree_assembly_depth",
		Help:    "Depth of assembled reply trees",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64, 128},
	})

	// TreeAssemblyNodes records how many nodes each assembled tree holds.
	TreeAssemblyNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "threadline_tree_assembly_nodes",
		Help:    "Node count of assembled reply trees",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	// DanglingReferences counts stored references that no longer resolve, by kind.
	DanglingReferences = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadline_dangling_references_total",
		Help: "Stored thread references that did not resolve to a record",
	}, []string{"kind"})

	// DegradedReads counts read paths that fell back to an empty result.
	DegradedReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadline_degraded_reads_total",
		Help: "Read operations answered with an empty result after a store failure",
	}, []string{"operation"})

	// ThreadMutations counts successful thread writes by kind.
	ThreadMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadline_thread_mutations_total",
		Help: "Thread writes by kind (create, reply, like, unlike, delete)",
	}, []string{"kind"})

	// CacheResults counts cache lookups by cache name and outcome.
	CacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadline_cache_results_total",
		Help: "Cache lookups by cache and outcome (hit, miss, error)",
	}, []string{"cache", "outcome"})

	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadline_redis_errors_total",
		Help: "Failed Redis commands by command name",
	}, []string{"command"})

	// WebSocketConnections is the number of open activity stream connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "threadline_websocket_connections",
		Help: "Open activity websocket connections",
	})

	// WebSocketDrops counts outbound messages dropped by reason.
	WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadline_websocket_drops_total",
		Help: "Outbound websocket messages dropped, by reason",
	}, []string{"reason"})
)
