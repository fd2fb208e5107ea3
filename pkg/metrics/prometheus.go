// Package metrics provides Prometheus metrics for the gearscan service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Scene lifecycle
	framesProcessed  prometheus.Counter
	framesMissing    prometheus.Counter
	presenceMatches  *prometheus.CounterVec
	stateTransitions *prometheus.CounterVec
	sceneExits       *prometheus.CounterVec
	tickLatency      prometheus.Histogram

	// Analysis
	analyses           *prometheus.CounterVec
	analysisLatency    prometheus.Histogram
	recognizerFailures *prometheus.CounterVec
	calibrations       prometheus.Counter

	// Notification pipeline
	notificationsEnqueued   *prometheus.CounterVec
	notificationsDropped    *prometheus.CounterVec
	notificationsDispatched *prometheus.CounterVec
	notificationsDuplicate  prometheus.Counter
	sinkErrors              *prometheus.CounterVec
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	workerCount             prometheus.Gauge

	// Result repository
	resultsStored prometheus.Counter
	resultsTotal  prometheus.Gauge
	storeLatency  *prometheus.HistogramVec
	storeErrors   *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gearscan",
		subsystem:        "scene",
		histogramBuckets: []float64{0.5, 1, 2, 5, 10, 20, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.framesProcessed = m.counter("frames_processed_total", "Frames ticked through the scene dispatcher")
	m.framesMissing = m.counter("frames_missing_total", "Ticks delivered without a frame")
	m.presenceMatches = m.counterVec("presence_matches_total", "Presence check outcomes per scene", "scene", "matched")
	m.stateTransitions = m.counterVec("state_transitions_total", "Scene state machine transitions", "scene", "from", "to")
	m.sceneExits = m.counterVec("exits_total", "Confirmed scene exits by outcome", "scene", "outcome")
	m.tickLatency = m.histogram("tick_latency_milliseconds", "Time spent processing one frame")

	m.analyses = m.counterVec("analyses_total", "Region analyses by phase and result", "phase", "result")
	m.analysisLatency = m.histogram("analysis_latency_milliseconds", "Time spent in one region analysis")
	m.recognizerFailures = m.counterVec("recognizer_failures_total", "Recognizer failures per field", "field")
	m.calibrations = m.counter("calibrations_total", "Offset calibration hints received")

	m.notificationsEnqueued = m.counterVec("notifications_enqueued_total", "Notifications accepted by the queue", "kind")
	m.notificationsDropped = m.counterVec("notifications_dropped_total", "Notifications rejected by the queue", "kind", "reason")
	m.notificationsDispatched = m.counterVec("notifications_dispatched_total", "Notifications delivered to sinks", "kind")
	m.notificationsDuplicate = m.counter("notifications_duplicate_total", "Notifications skipped as already delivered")
	m.sinkErrors = m.counterVec("sink_errors_total", "Sink failures", "sink")
	m.queueSize = m.gauge("queue_size", "Current notification backlog")
	m.queueCapacity = m.gauge("queue_capacity", "Notification queue capacity")
	m.workerCount = m.gauge("worker_count", "Notification workers running")

	m.resultsStored = m.counter("results_stored_total", "Committed result records persisted")
	m.resultsTotal = m.gauge("results_total", "Result records currently held by the repository")
	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Repository operation latency", "op")
	m.storeErrors = m.counterVec("store_errors_total", "Repository operation failures", "op")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// RecordFrameProcessed counts one dispatcher tick and its latency.
func RecordFrameProcessed(latencyMs float64) {
	globalManager.framesProcessed.Inc()
	globalManager.tickLatency.Observe(latencyMs)
}

// RecordFrameMissing counts a tick without a frame.
func RecordFrameMissing() {
	globalManager.framesMissing.Inc()
}

// RecordPresence counts a presence check outcome.
func RecordPresence(scene string, matched bool) {
	globalManager.presenceMatches.WithLabelValues(scene, boolLabel(matched)).Inc()
}

// RecordStateTransition counts a state machine transition.
func RecordStateTransition(scene, from, to string) {
	globalManager.stateTransitions.WithLabelValues(scene, from, to).Inc()
}

// RecordSceneExit counts a confirmed exit; outcome is analyzed, fallback, failed or suppressed.
func RecordSceneExit(scene, outcome string) {
	globalManager.sceneExits.WithLabelValues(scene, outcome).Inc()
}

// RecordAnalysis counts one analysis; phase is provisional or final.
func RecordAnalysis(phase string, ok bool, latencyMs float64) {
	result := "resolved"
	if !ok {
		result = "failed"
	}
	globalManager.analyses.WithLabelValues(phase, result).Inc()
	globalManager.analysisLatency.Observe(latencyMs)
}

// RecordRecognizerFailure counts a failed field recognition.
func RecordRecognizerFailure(field string) {
	globalManager.recognizerFailures.WithLabelValues(field).Inc()
}

// RecordCalibration counts an offset hint.
func RecordCalibration() {
	globalManager.calibrations.Inc()
}

// RecordNotificationEnqueued counts an accepted notification.
func RecordNotificationEnqueued(kind string) {
	globalManager.notificationsEnqueued.WithLabelValues(kind).Inc()
}

// RecordNotificationDropped counts a rejected notification.
func RecordNotificationDropped(kind, reason string) {
	globalManager.notificationsDropped.WithLabelValues(kind, reason).Inc()
}

// RecordNotificationDispatched counts a notification handed to the sinks.
func RecordNotificationDispatched(kind string) {
	globalManager.notificationsDispatched.WithLabelValues(kind).Inc()
}

// RecordNotificationDuplicate counts a notification skipped by the deduper.
func RecordNotificationDuplicate() {
	globalManager.notificationsDuplicate.Inc()
}

// RecordSinkError counts a sink failure.
func RecordSinkError(sink string) {
	globalManager.sinkErrors.WithLabelValues(sink).Inc()
}

// UpdateQueueSize sets the current queue backlog.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordResultStored counts a persisted record.
func RecordResultStored() {
	globalManager.resultsStored.Inc()
}

// UpdateResultsTotal sets the number of records held by the repository.
func UpdateResultsTotal(count int) {
	globalManager.resultsTotal.Set(float64(count))
}

// RecordStoreLatency observes a repository operation.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStoreError counts a repository failure.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
