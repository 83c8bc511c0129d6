// Package metrics provides Prometheus metrics for the activity aggregation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         prometheus.Counter

	// Upstream providers
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	sourceFailures   *prometheus.CounterVec
	tokenRefreshes   *prometheus.CounterVec
	stravaPages      prometheus.Histogram

	// Cache
	cacheOperations *prometheus.CounterVec

	// Aggregation
	aggregateLatency prometheus.Histogram
	aggregateDays    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // service registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pulse",
		subsystem:        "activity",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per collector
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.rateLimited = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rate_limited_total",
		Help:      "Requests rejected because the client exhausted its budget",
	})

	m.upstreamRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "upstream_requests_total",
			Help:      "Outbound provider calls by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	m.upstreamLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "upstream_latency_milliseconds",
			Help:      "Latency of a full provider fetch in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"source"},
	)

	m.sourceFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "source_failures_total",
			Help:      "Sources degraded to an empty contribution, by failure kind",
		},
		[]string{"source", "kind"},
	)

	m.tokenRefreshes = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "token_refreshes_total",
			Help:      "OAuth access token refreshes by outcome",
		},
		[]string{"outcome"},
	)

	m.stravaPages = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "strava_pages_per_fetch",
		Help:      "Number of activity pages read per Strava fetch",
		Buckets:   []float64{1, 2, 3, 5, 8, 13},
	})

	m.cacheOperations = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes by keyspace and result",
		},
		[]string{"keyspace", "result"},
	)

	m.aggregateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregate_latency_milliseconds",
		Help:      "Time spent building a combined year from the three sources",
		Buckets:   m.histogramBuckets,
	})

	m.aggregateDays = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregate_active_days",
		Help:      "Number of active days in a freshly built combined year",
		Buckets:   []float64{0, 10, 50, 100, 200, 300, 366},
	})
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited increments the rejected request counter.
func RecordRateLimited() {
	globalManager.rateLimited.Inc()
}

// RecordUpstreamRequest counts one provider call. Outcome is "ok" or "error".
func RecordUpstreamRequest(source, outcome string) {
	globalManager.upstreamRequests.WithLabelValues(source, outcome).Inc()
}

// RecordUpstreamLatency records how long a provider fetch took.
func RecordUpstreamLatency(source string, latencyMs float64) {
	globalManager.upstreamLatency.WithLabelValues(source).Observe(latencyMs)
}

// RecordSourceFailure counts a source degraded inside an aggregate.
func RecordSourceFailure(source, kind string) {
	globalManager.sourceFailures.WithLabelValues(source, kind).Inc()
}

// RecordTokenRefresh counts an OAuth refresh attempt.
func RecordTokenRefresh(outcome string) {
	globalManager.tokenRefreshes.WithLabelValues(outcome).Inc()
}

// RecordStravaPages records the page count of one pagination run.
func RecordStravaPages(pages int) {
	globalManager.stravaPages.Observe(float64(pages))
}

// RecordCacheOperation counts a cache hit, miss, write, error or bypass.
func RecordCacheOperation(keyspace, result string) {
	globalManager.cacheOperations.WithLabelValues(keyspace, result).Inc()
}

// RecordAggregate records a rebuilt combined year.
func RecordAggregate(latencyMs float64, days int) {
	globalManager.aggregateLatency.Observe(latencyMs)
	globalManager.aggregateDays.Observe(float64(days))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
