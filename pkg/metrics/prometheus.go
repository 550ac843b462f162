// Package metrics provides Prometheus metrics for the fantasy family league service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the league service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// League state
	mutations       *prometheus.CounterVec
	mutationLatency *prometheus.HistogramVec
	players         prometheus.Gauge
	members         prometheus.Gauge
	catalogSize     prometheus.Gauge
	ledgerSize      prometheus.Gauge
	duplicates      prometheus.Counter

	// Persistence
	saves        *prometheus.CounterVec
	saveLatency  *prometheus.HistogramVec
	savePending  prometheus.Gauge
	saveLastUnix prometheus.Gauge

	// Save queue
	queueDepth     prometheus.Gauge
	queueEnqueued  prometheus.Counter
	queueCoalesced prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fantasy",
		subsystem:        "league",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.mutations = auto.NewCounterVec(
		m.counterOpts("mutations_total", "Engine mutations by operation and result"),
		[]string{"operation", "result"},
	)
	m.mutationLatency = auto.NewHistogramVec(
		m.histogramOpts("mutation_latency_milliseconds", "Engine mutation latency in milliseconds"),
		[]string{"operation"},
	)
	m.players = auto.NewGauge(m.gaugeOpts("players", "Number of players in the league"))
	m.members = auto.NewGauge(m.gaugeOpts("family_members", "Number of drafted family members"))
	m.catalogSize = auto.NewGauge(m.gaugeOpts("life_events", "Number of life event definitions in the catalog"))
	m.ledgerSize = auto.NewGauge(m.gaugeOpts("logged_events", "Number of entries in the activity ledger"))
	m.duplicates = auto.NewCounter(m.counterOpts("duplicate_submissions_total", "Log submissions rejected by idempotency key"))

	m.saves = auto.NewCounterVec(
		m.counterOpts("persistence_saves_total", "Snapshot saves by store and result"),
		[]string{"store", "result"},
	)
	m.saveLatency = auto.NewHistogramVec(
		m.histogramOpts("persistence_save_latency_milliseconds", "Snapshot save latency in milliseconds"),
		[]string{"store"},
	)
	m.savePending = auto.NewGauge(m.gaugeOpts("persistence_pending", "1 when in-memory state has not been saved yet"))
	m.saveLastUnix = auto.NewGauge(m.gaugeOpts("persistence_last_saved_unix", "Unix time of the last successful save"))

	m.queueDepth = auto.NewGauge(m.gaugeOpts("save_queue_depth", "Pending save requests"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("save_requests_total", "Save requests accepted by the queue"))
	m.queueCoalesced = auto.NewCounter(m.counterOpts("save_requests_coalesced_total", "Save requests merged into an already pending save"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors"),
		[]string{"component", "error_type"},
	)
}

// RecordMutation counts one engine operation and its latency.
func RecordMutation(operation, result string, latencyMs float64) {
	globalManager.mutations.WithLabelValues(operation, result).Inc()
	globalManager.mutationLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateLeagueSize sets the state gauges in one call.
func UpdateLeagueSize(players, members, catalog, ledger int) {
	globalManager.players.Set(float64(players))
	globalManager.members.Set(float64(members))
	globalManager.catalogSize.Set(float64(catalog))
	globalManager.ledgerSize.Set(float64(ledger))
}

// RecordDuplicateSubmission increments the idempotency duplicate counter.
func RecordDuplicateSubmission() {
	globalManager.duplicates.Inc()
}

// RecordSave records a snapshot save attempt against a store.
func RecordSave(store, result string, latencyMs float64) {
	globalManager.saves.WithLabelValues(store, result).Inc()
	globalManager.saveLatency.WithLabelValues(store).Observe(latencyMs)
}

// UpdateSavePending flags whether unsaved changes exist.
func UpdateSavePending(pending bool) {
	v := 0.0
	if pending {
		v = 1
	}
	globalManager.savePending.Set(v)
}

// UpdateLastSaved sets the unix time of the last successful save.
func UpdateLastSaved(unix int64) {
	globalManager.saveLastUnix.Set(float64(unix))
}

// UpdateQueueDepth sets the number of pending save requests.
func UpdateQueueDepth(depth int) {
	globalManager.queueDepth.Set(float64(depth))
}

// RecordQueueEnqueue increments the accepted save request counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueCoalesced increments the merged save request counter.
func RecordQueueCoalesced() {
	globalManager.queueCoalesced.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
