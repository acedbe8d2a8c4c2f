// Package metrics defines Prometheus metrics for vindex.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vindex"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 if the liveness probe last succeeded, 0 otherwise.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 if the readiness probe last succeeded, 0 otherwise.",
	})
)

// Ingestion metrics.
var (
	IngestionListingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingestion_listings_total",
		Help:      "Total number of listings ingested.",
	})

	IngestionErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingestion_errors_total",
		Help:      "Total number of ingestion errors.",
	})

	IngestionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ingestion_duration_seconds",
		Help:      "Duration of ingestion cycles in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Validation and confidence metrics.
var (
	ValidationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_failures_total",
		Help:      "Total number of field validation failures by field.",
	}, []string{"field"})

	ConfidenceDistribution = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "confidence_distribution",
		Help:      "Distribution of overall extraction confidence scores.",
		Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10), // 0.1 .. 1.0
	})

	ReviewQueueEnqueuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_queue_enqueued_total",
		Help:      "Total number of extractions parked for manual review.",
	})
)

// Matching metrics.
var MatchOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "match_outcomes_total",
	Help:      "Total number of record matching passes by outcome.",
}, []string{"outcome"})

// Extraction metrics.
var (
	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "extraction_duration_seconds",
		Help:      "Duration of LLM extraction calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	ExtractionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extraction_failures_total",
		Help:      "Total number of extraction failures.",
	})
)

// Audit metrics.
var (
	AuditAccuracy = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_accuracy",
		Help:      "Distribution of cross-source audit accuracy scores.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11), // 0.0 .. 1.0
	})

	AuditCriticalTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_critical_total",
		Help:      "Total number of audits with critical discrepancies.",
	})
)

// Fetch metrics.
var (
	FetchCallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_calls_total",
		Help:      "Total cumulative listing page fetches.",
	})

	FetchDailyUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fetch_daily_usage",
		Help:      "Current daily fetch count within the rolling 24-hour window.",
	})

	FetchDailyLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_daily_limit_hits_total",
		Help:      "Total number of times the daily fetch limit was reached.",
	})
)

// Notification metrics.
var NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "notification_failures_total",
	Help:      "Total number of notification send failures.",
})
