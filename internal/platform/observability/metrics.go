package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_recommendations_served_total",
		Help: "The total number of recommendation lists served by strategy",
	}, []string{"strategy"})

	RecommendationRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recommender_request_duration_seconds",
		Help:    "Duration of recommendation requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})

	SimilarityComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_similarity_computations_total",
		Help: "The total number of similarity score computations by outcome",
	}, []string{"outcome"})

	Degradations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_degradations_total",
		Help: "Total number of degraded computations by reason",
	}, []string{"component", "reason"})

	CorpusSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "recommender_corpus_size",
		Help: "Number of descriptions in the fitted similarity corpus",
	})

	CorpusRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_corpus_refreshes_total",
		Help: "Total number of corpus refits by status",
	}, []string{"status"})

	FeedbackEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_feedback_events_total",
		Help: "Total number of feedback events recorded by type",
	}, []string{"type"})

	FeedbackRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recommender_feedback_rejected_total",
		Help: "Total number of rejected feedback events",
	})

	ColdStartRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_cold_start_requests_total",
		Help: "Total number of cold-start recommendation requests by source pool",
	}, []string{"pool"})

	EmbeddingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_embedding_requests_total",
		Help: "Total number of embedding requests by provider and status",
	}, []string{"provider", "model", "status"})

	EmbeddingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recommender_embedding_latency_seconds",
		Help:    "Latency of embedding requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "model"})

	EmbeddingFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_embedding_fallbacks_total",
		Help: "Total number of embedding provider fallbacks",
	}, []string{"from_provider", "to_provider"})

	EmbeddingProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "recommender_embedding_provider_available",
		Help: "Whether an embedding provider is currently available (1) or not (0)",
	}, []string{"provider"})

	EmbeddingCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_embedding_cache_total",
		Help: "Embedding memoization cache lookups by result",
	}, []string{"result"})
)
