package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval and chat Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "searches_total",
			Help:      "Total number of retrieval passes",
		},
		[]string{"backend", "outcome"}, // outcome: ok / empty / error
	)

	SubQueriesPerQuery = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docdex",
			Name:      "sub_queries_per_query",
			Help:      "Number of sub-queries a user query decomposed into",
			Buckets:   []float64{1, 2, 3, 4, 5},
		},
	)

	CorpusDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docdex",
			Name:      "corpus_documents",
			Help:      "Number of documents in the loaded corpus snapshot",
		},
	)

	ContextCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "context_cache_total",
			Help:      "Formatted-context cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ModelStreamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "model_streams_total",
			Help:      "Total number of chat model streams",
		},
		[]string{"model", "status"}, // status: success / error
	)

	ModelStreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docdex",
			Name:      "model_stream_duration_seconds",
			Help:      "Chat model stream duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers retrieval and chat metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SubQueriesPerQuery)
	prometheus.MustRegister(CorpusDocuments)
	prometheus.MustRegister(ContextCacheTotal)
	prometheus.MustRegister(ModelStreamsTotal)
	prometheus.MustRegister(ModelStreamDuration)
	retrievalMetricsRegistered = true
}
