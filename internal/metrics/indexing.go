package metrics

import "github.com/prometheus/client_golang/prometheus"

// Index build Prometheus metrics.
var (
	IndexBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagedex",
			Name:      "index_builds_total",
			Help:      "Total number of index builds",
		},
		[]string{"status"}, // "success" / "failure"
	)

	IndexBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pagedex",
			Name:      "index_build_duration_seconds",
			Help:      "Index build duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	IndexedChunks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pagedex",
			Name:      "indexed_chunks",
			Help:      "Number of chunks in the collection after the last build",
		},
	)
)

var indexMetricsRegistered bool

// RegisterIndexMetrics registers Prometheus index build metrics. Must be called once from main.
func RegisterIndexMetrics() {
	if indexMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexBuildsTotal)
	prometheus.MustRegister(IndexBuildDuration)
	prometheus.MustRegister(IndexedChunks)
	indexMetricsRegistered = true
}
