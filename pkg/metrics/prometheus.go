// Package metrics provides Prometheus instrumentation for the podium
// leaderboard engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the engine emits.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Ingestion outcomes. The outcome label carries created/updated/stale/
	// below_threshold/not_applicable so stale drops stay visible without
	// being errors.
	reportsIngested   *prometheus.CounterVec
	reportsDuplicate  prometheus.Counter
	disqualifications prometheus.Counter

	// Rank index health.
	indexUpdateLatency prometheus.Histogram
	indexQueryLatency  prometheus.Histogram
	entriesTotal       prometheus.Gauge
	boardsTotal        prometheus.Gauge

	// Snapshot capture.
	snapshotCaptureDuration prometheus.Histogram
	snapshotCaptures        prometheus.Counter
	snapshotDuplicates      prometheus.Counter
	snapshotFailures        prometheus.Counter
	snapshotLastUnix        prometheus.Gauge

	// Report queue.
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	queueEnqueueErrs prometheus.Counter

	// Ingestion workers.
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP adapter.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Cross-cutting error tracking.
	errorsByComponent *prometheus.CounterVec

	// Process health, refreshed by the updater in main.
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry so the default Go collectors stay out of the way.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "podium",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initCollectors()
	return m
}

func (m *Manager) initCollectors() {
	factory := promauto.With(m.registry)

	m.reportsIngested = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reports_ingested_total",
		Help:      "Score reports processed, labeled by outcome.",
	}, []string{"outcome"})
	m.reportsDuplicate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reports_duplicate_total",
		Help:      "Score reports rejected by the idempotency cache.",
	})
	m.disqualifications = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "disqualifications_total",
		Help:      "Entries soft-removed from the rank index.",
	})

	m.indexUpdateLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "index_update_latency_ms",
		Help:      "Latency of rank index mutations in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.indexQueryLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "index_query_latency_ms",
		Help:      "Latency of rank index reads in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.entriesTotal = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entries_total",
		Help:      "Live entries across all boards and intervals.",
	})
	m.boardsTotal = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "board_indexes_total",
		Help:      "Materialized (board, interval) rank indexes.",
	})

	m.snapshotCaptureDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_capture_duration_ms",
		Help:      "Duration of snapshot captures in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.snapshotCaptures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_captures_total",
		Help:      "Snapshots successfully written to the archive.",
	})
	m.snapshotDuplicates = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_duplicates_total",
		Help:      "Capture attempts that found the boundary already archived.",
	})
	m.snapshotFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_failures_total",
		Help:      "Capture attempts that exhausted their retries.",
	})
	m.snapshotLastUnix = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_last_capture_unix",
		Help:      "Unix timestamp of the last successful capture.",
	})

	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Score reports currently queued.",
	})
	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the report queue.",
	})
	m.queueUtilization = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization",
		Help:      "Queue fill ratio between 0 and 1.",
	})
	m.queueEnqueues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueues_total",
		Help:      "Reports accepted onto the queue.",
	})
	m.queueDequeues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeues_total",
		Help:      "Reports handed to workers.",
	})
	m.queueEnqueueErrs = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Enqueue attempts rejected (full, closed, cancelled).",
	})

	m.workerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Running ingestion workers.",
	})
	m.workerProcessingLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_ms",
		Help:      "End-to-end report processing latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.workerErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Reports that failed processing.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.errorsByComponent = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and kind.",
	}, []string{"component", "kind"})

	m.systemMemoryUsage = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Heap bytes currently allocated.",
	})
	m.systemGoroutineCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Goroutines currently running.",
	})
}

// Package-level helpers delegating to the global manager.

// RecordReportOutcome counts one processed report by outcome label.
func RecordReportOutcome(outcome string) {
	if globalManager.enabled {
		globalManager.reportsIngested.WithLabelValues(outcome).Inc()
	}
}

// RecordReportDuplicate counts a report rejected by the idempotency cache.
func RecordReportDuplicate() {
	if globalManager.enabled {
		globalManager.reportsDuplicate.Inc()
	}
}

// RecordDisqualification counts a soft removal.
func RecordDisqualification() {
	if globalManager.enabled {
		globalManager.disqualifications.Inc()
	}
}

// RecordIndexUpdateLatency observes a rank index mutation latency.
func RecordIndexUpdateLatency(ms float64) {
	if globalManager.enabled {
		globalManager.indexUpdateLatency.Observe(ms)
	}
}

// RecordIndexQueryLatency observes a rank index read latency.
func RecordIndexQueryLatency(ms float64) {
	if globalManager.enabled {
		globalManager.indexQueryLatency.Observe(ms)
	}
}

// UpdateEntriesTotal sets the live entry gauge.
func UpdateEntriesTotal(n int) {
	if globalManager.enabled {
		globalManager.entriesTotal.Set(float64(n))
	}
}

// UpdateBoardsTotal sets the materialized board index gauge.
func UpdateBoardsTotal(n int) {
	if globalManager.enabled {
		globalManager.boardsTotal.Set(float64(n))
	}
}

// RecordSnapshotCapture observes a successful capture and its duration.
func RecordSnapshotCapture(durationMs float64) {
	if globalManager.enabled {
		globalManager.snapshotCaptureDuration.Observe(durationMs)
		globalManager.snapshotCaptures.Inc()
	}
}

// RecordSnapshotDuplicate counts an AlreadyCaptured no-op.
func RecordSnapshotDuplicate() {
	if globalManager.enabled {
		globalManager.snapshotDuplicates.Inc()
	}
}

// RecordSnapshotFailure counts a capture that exhausted retries.
func RecordSnapshotFailure() {
	if globalManager.enabled {
		globalManager.snapshotFailures.Inc()
	}
}

// UpdateSnapshotLastUnix records the last successful capture time.
func UpdateSnapshotLastUnix(ts float64) {
	if globalManager.enabled {
		globalManager.snapshotLastUnix.Set(ts)
	}
}

// UpdateQueueSize sets the queued report gauge.
func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the configured queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// UpdateQueueUtilization sets the queue fill ratio gauge.
func UpdateQueueUtilization(utilization float64) {
	if globalManager.enabled {
		globalManager.queueUtilization.Set(utilization)
	}
}

// RecordQueueEnqueue counts an accepted report.
func RecordQueueEnqueue() {
	if globalManager.enabled {
		globalManager.queueEnqueues.Inc()
	}
}

// RecordQueueDequeue counts a report handed to a worker.
func RecordQueueDequeue() {
	if globalManager.enabled {
		globalManager.queueDequeues.Inc()
	}
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() {
	if globalManager.enabled {
		globalManager.queueEnqueueErrs.Inc()
	}
}

// UpdateWorkerCount sets the running worker gauge.
func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency observes end-to-end report latency.
func RecordWorkerProcessingLatency(ms float64) {
	if globalManager.enabled {
		globalManager.workerProcessingLatency.Observe(ms)
	}
}

// RecordWorkerError counts a failed report.
func RecordWorkerError() {
	if globalManager.enabled {
		globalManager.workerErrors.Inc()
	}
}

// RecordHTTPRequest counts a finished HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	}
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, status string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(durationMs)
	}
}

// RecordErrorByComponent counts an error for a component/kind pair.
func RecordErrorByComponent(component, kind string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
	}
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// GetRegistry exposes the custom registry for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
