package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for embedding calls, search tiers and ingestion.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casedex",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "casedex",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casedex",
			Name:      "embedding_fallbacks_total",
			Help:      "Embedding cascade fallbacks by stage",
		},
		[]string{"stage"}, // "text_only" / "zero_vector"
	)

	SearchTierTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casedex",
			Name:      "search_tier_total",
			Help:      "Similar-case searches answered per tier",
		},
		[]string{"tier"}, // "primary" / "lexical" / "synthetic"
	)

	IngestCasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casedex",
			Name:      "ingest_cases_total",
			Help:      "Corpus cases processed during ingestion",
		},
		[]string{"status"}, // "indexed" / "skipped"
	)
)

var registered bool

// Register registers all casedex metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingFallbacksTotal)
	prometheus.MustRegister(SearchTierTotal)
	prometheus.MustRegister(IngestCasesTotal)
	registered = true
}
