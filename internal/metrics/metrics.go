package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "s2grid_queries_total",
		Help: "Total number of S2 queries by kind",
	}, []string{"query"})
	QueryFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "s2grid_query_failures_total",
		Help: "Total number of failed S2 queries by kind and reason",
	}, []string{"query", "reason"})
	QueryDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "s2grid_query_duration_seconds",
		Help:    "S2 query duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"query"})
	ResultCells = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "s2grid_result_cells",
		Help:    "Number of cells returned per query",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"query"})
	SkippedIDsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "s2grid_skipped_ids_total",
		Help: "Total number of unparsable cell ids skipped in polygon lookups",
	})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "s2grid_cache_hits_total",
		Help: "Total cache hits by cache",
	}, []string{"cache"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "s2grid_cache_misses_total",
		Help: "Total cache misses by cache",
	}, []string{"cache"})
)

func init() {
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryFailuresTotal)
	prometheus.MustRegister(QueryDurationSeconds)
	prometheus.MustRegister(ResultCells)
	prometheus.MustRegister(SkippedIDsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
}

// Handler /metrics 用のハンドラー
func Handler() http.Handler { return promhttp.Handler() }
