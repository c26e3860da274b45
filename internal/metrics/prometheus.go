package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the pick tracking service

var (
	// Results API metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picktrack_api_calls_total",
			Help: "Total number of results API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "picktrack_api_call_duration_seconds",
			Help:    "Duration of results API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "picktrack_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "picktrack_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "picktrack_cache_operation_duration_seconds",
			Help:    "Duration of cache operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// Reconciliation metrics
	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picktrack_reconcile_runs_total",
			Help: "Total number of reconciliation runs",
		},
		[]string{"status"},
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "picktrack_reconcile_duration_seconds",
			Help:    "Duration of reconciliation runs in seconds",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120},
		},
	)

	PicksGraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picktrack_picks_graded_total",
			Help: "Total number of picks graded, by outcome",
		},
		[]string{"outcome"},
	)

	PicksVoided = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "picktrack_picks_voided_total",
			Help: "Total number of picks voided after the match window expired",
		},
	)

	MatchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "picktrack_match_failures_total",
			Help: "Pending picks that found no result row this run",
		},
	)

	PendingPicks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "picktrack_pending_picks",
			Help: "Number of picks currently pending",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picktrack_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "picktrack_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "picktrack_last_successful_run_timestamp",
			Help: "Timestamp of the last successful reconciliation run",
		},
	)
)

// RecordAPICall records a results API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordCacheOperation records a cache operation duration
func RecordCacheOperation(operation string, duration float64) {
	CacheOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordReconcileRun records a reconciliation run
func RecordReconcileRun(status string, duration float64) {
	ReconcileRunsTotal.WithLabelValues(status).Inc()
	ReconcileDuration.Observe(duration)

	if status == "success" {
		LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordGrade records a graded pick by outcome
func RecordGrade(outcome string) {
	PicksGraded.WithLabelValues(outcome).Inc()
}

// RecordVoid records a voided pick
func RecordVoid() {
	PicksVoided.Inc()
}

// RecordMatchFailure records a pick that found no result row
func RecordMatchFailure() {
	MatchFailures.Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
