// Package metrics provides Prometheus metrics for the tourcheck eligibility service.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by callers.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// Manager manages all Prometheus metrics for the tourcheck service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	registry         prometheus.Registerer

	// Confidence cache
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	cacheEvictions  *prometheus.CounterVec
	cachePersists   *prometheus.CounterVec
	cacheEntries    prometheus.Gauge
	cacheLoadErrors prometheus.Counter

	// Player verdicts and inference
	verdicts         *prometheus.CounterVec
	inferenceResults *prometheus.CounterVec
	methodErrors     *prometheus.CounterVec

	// Roster authority
	rosterRefreshes    *prometheus.CounterVec
	rosterSize         prometheus.Gauge
	rosterLastUpdate   prometheus.Gauge
	rosterFetchLatency prometheus.Histogram

	// Match classification
	classifications *prometheus.CounterVec
	statusChecks    *prometheus.CounterVec
	batchLatency    *prometheus.HistogramVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tourcheck",
		subsystem:        "eligibility",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help})
	}

	m.cacheHits = counter("cache_hits_total", "Confidence cache lookups that found a live entry")
	m.cacheMisses = counter("cache_misses_total", "Confidence cache lookups that found nothing or an expired entry")
	m.cacheEvictions = counterVec("cache_evictions_total", "Entries removed from the confidence cache", "reason")
	m.cachePersists = counterVec("cache_persist_total", "Durable snapshot writes by result", "result")
	m.cacheEntries = gauge("cache_entries", "Entries currently held by the confidence cache")
	m.cacheLoadErrors = counter("cache_load_errors_total", "Durable snapshot reads that failed or were corrupt")

	m.verdicts = counterVec("verdicts_total", "Player verdicts by source and eligibility", "source", "eligible")
	m.inferenceResults = counterVec("inference_results_total", "Inference results by source and gender", "source", "gender")
	m.methodErrors = counterVec("inference_method_errors_total", "Inference method failures recovered as unknown", "method")

	m.rosterRefreshes = counterVec("roster_refresh_total", "Roster refresh attempts by result", "result")
	m.rosterSize = gauge("roster_size", "Names in the live roster")
	m.rosterLastUpdate = gauge("roster_last_update_unix", "Unix timestamp of the roster snapshot in use")
	m.rosterFetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_fetch_latency_milliseconds",
		Help:      "Roster data source fetch latency in milliseconds",
		Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	m.classifications = counterVec("match_classifications_total", "Match classifications by rule and outcome", "rule", "eligible")
	m.statusChecks = counterVec("status_checks_total", "Simplified status checks by outcome", "status")
	m.batchLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "batch_latency_milliseconds",
			Help:      "Latency of one bulk batch in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"operation"},
	)

	m.httpRequests = counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds (user experience)",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = counterVec("errors_by_endpoint_total", "Total number of errors by endpoint",
		"endpoint", "method", "error_type")

	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

func on() bool { return globalManager.enabled.Load() }

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled.Store(enabled)
}

// Cache Metrics Functions.

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	if on() {
		globalManager.cacheHits.Inc()
	}
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	if on() {
		globalManager.cacheMisses.Inc()
	}
}

// RecordCacheEviction counts removed entries. reason is one of expired, removed, cleared.
func RecordCacheEviction(reason string, n int) {
	if on() && n > 0 {
		globalManager.cacheEvictions.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordCachePersist records one durable snapshot write.
func RecordCachePersist(result string) {
	if on() {
		globalManager.cachePersists.WithLabelValues(result).Inc()
	}
}

// RecordCacheLoadError counts failed or corrupt snapshot reads.
func RecordCacheLoadError() {
	if on() {
		globalManager.cacheLoadErrors.Inc()
	}
}

// UpdateCacheEntries sets the number of entries in the cache index.
func UpdateCacheEntries(count int) {
	if on() {
		globalManager.cacheEntries.Set(float64(count))
	}
}

// Verdict and Inference Metrics Functions.

// RecordVerdict counts one player verdict.
func RecordVerdict(source string, eligible bool) {
	if on() {
		globalManager.verdicts.WithLabelValues(source, boolLabel(eligible)).Inc()
	}
}

// RecordInference counts one inference result.
func RecordInference(source, gender string) {
	if on() {
		globalManager.inferenceResults.WithLabelValues(source, gender).Inc()
	}
}

// RecordInferenceMethodError counts a recovered inference method failure.
func RecordInferenceMethodError(method string) {
	if on() {
		globalManager.methodErrors.WithLabelValues(method).Inc()
	}
}

// Roster Metrics Functions.

// RecordRosterRefresh counts a refresh attempt.
func RecordRosterRefresh(result string) {
	if on() {
		globalManager.rosterRefreshes.WithLabelValues(result).Inc()
	}
}

// UpdateRoster publishes the live roster size and its update time.
func UpdateRoster(size int, lastUpdateUnix int64) {
	if on() {
		globalManager.rosterSize.Set(float64(size))
		globalManager.rosterLastUpdate.Set(float64(lastUpdateUnix))
	}
}

// RecordRosterFetchLatency records data source fetch latency.
func RecordRosterFetchLatency(latencyMs float64) {
	if on() {
		globalManager.rosterFetchLatency.Observe(latencyMs)
	}
}

// Match Metrics Functions.

// RecordClassification counts a match classification.
func RecordClassification(rule string, eligible bool) {
	if on() {
		globalManager.classifications.WithLabelValues(rule, boolLabel(eligible)).Inc()
	}
}

// RecordStatusCheck counts a simplified status check. status is the returned value.
func RecordStatusCheck(status string) {
	if on() {
		if status == "" {
			status = "none"
		}
		globalManager.statusChecks.WithLabelValues(status).Inc()
	}
}

// RecordBatchLatency records the latency of one bulk batch.
func RecordBatchLatency(operation string, latencyMs float64) {
	if on() {
		globalManager.batchLatency.WithLabelValues(operation).Observe(latencyMs)
	}
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if on() {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if on() {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if on() {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
