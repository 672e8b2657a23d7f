package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExtractionsTotal tracks extraction requests per platform and outcome
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractor_extractions_total",
			Help: "Total number of extraction requests",
		},
		[]string{"platform", "outcome"},
	)

	// ExtractionDuration tracks end-to-end extraction latency
	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extractor_extraction_duration_seconds",
			Help:    "End-to-end extraction latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"platform"},
	)

	// CacheHits tracks response cache hits per platform
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractor_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"platform"},
	)

	// RateLimitRejections tracks rejected requests per context
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractor_ratelimit_rejections_total",
			Help: "Total number of rate-limited requests",
		},
		[]string{"context"},
	)

	// CredentialSelections tracks credential hand-outs per platform
	CredentialSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractor_credential_selections_total",
			Help: "Total number of credential selections",
		},
		[]string{"platform"},
	)

	// CredentialOutcomes tracks recorded outcomes per platform
	CredentialOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractor_credential_outcomes_total",
			Help: "Total number of credential outcome reports",
		},
		[]string{"platform", "outcome"},
	)

	// ResolveDuration tracks short-link resolution latency
	ResolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "extractor_resolve_duration_seconds",
			Help:    "Short-link resolution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
