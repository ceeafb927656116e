// Package metrics provides Prometheus metrics for the icetime TOI engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Tick outcomes recorded by RecordTicks.
const (
	TickDistributed = "distributed"
	TickShootout    = "shootout"
	TickAnomaly     = "anomaly"
	TickClipped     = "clipped"
)

// Manager manages all Prometheus metrics for the TOI engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Engine
	gamesProcessed   prometheus.Counter
	gamesFailed      *prometheus.CounterVec
	ticks            *prometheus.CounterVec
	gameLatency      prometheus.Histogram
	shiftsRejected   *prometheus.CounterVec
	shiftsDuplicate  prometheus.Counter
	rowsCombined     *prometheus.CounterVec
	batchesCompleted prometheus.Counter
	batchLatency     prometheus.Histogram

	// Sinks
	rowsWritten *prometheus.CounterVec
	sinkLatency *prometheus.HistogramVec
	sinkErrors  *prometheus.CounterVec

	// Queue and workers
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueEnqueued     prometheus.Counter
	queueDequeued     prometheus.Counter
	queueEnqueueError *prometheus.CounterVec
	workerActive      prometheus.Gauge
	workerPanics      prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "icetime",
		subsystem:        "toi",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.gamesProcessed = auto.NewCounter(m.counterOpts("games_processed_total",
		"Games whose timeline was built and distributed"))
	m.gamesFailed = auto.NewCounterVec(m.counterOpts("games_failed_total",
		"Games skipped because of a structural or processing error"), []string{"reason"})
	m.ticks = auto.NewCounterVec(m.counterOpts("ticks_total",
		"Timeline ticks by outcome"), []string{"outcome"})
	m.gameLatency = auto.NewHistogram(m.histogramOpts("game_latency_milliseconds",
		"Time to build, project and distribute one game",
		[]float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500}))
	m.shiftsRejected = auto.NewCounterVec(m.counterOpts("shifts_rejected_total",
		"Malformed shifts rejected before timeline construction"), []string{"reason"})
	m.shiftsDuplicate = auto.NewCounter(m.counterOpts("shifts_duplicate_total",
		"Duplicate shift rows dropped"))
	m.rowsCombined = auto.NewCounterVec(m.counterOpts("rows_combined_total",
		"Flattened TOI rows produced by the combiner"), []string{"table"})
	m.batchesCompleted = auto.NewCounter(m.counterOpts("batches_completed_total",
		"Completed batch runs"))
	m.batchLatency = auto.NewHistogram(m.histogramOpts("batch_latency_milliseconds",
		"End-to-end batch latency", m.histogramBuckets))

	m.rowsWritten = auto.NewCounterVec(m.counterOpts("rows_written_total",
		"TOI rows persisted by sink and table"), []string{"sink", "table"})
	m.sinkLatency = auto.NewHistogramVec(m.histogramOpts("sink_latency_milliseconds",
		"Sink write latency", m.histogramBuckets), []string{"sink"})
	m.sinkErrors = auto.NewCounterVec(m.counterOpts("sink_errors_total",
		"Failed sink writes"), []string{"sink"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Games waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Queue capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Games enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total", "Games dequeued"))
	m.queueEnqueueError = auto.NewCounterVec(m.counterOpts("queue_enqueue_errors_total",
		"Rejected enqueue attempts"), []string{"reason"})
	m.workerActive = auto.NewGauge(m.gaugeOpts("worker_active", "Workers currently running"))
	m.workerPanics = auto.NewCounter(m.counterOpts("worker_panics_total",
		"Panics recovered while processing a game"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Live goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds",
		"Average GC pause", []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50}))
}

// RecordGameProcessed counts a distributed game and its processing latency.
func RecordGameProcessed(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.gamesProcessed.Inc()
	globalManager.gameLatency.Observe(latencyMs)
}

// RecordGameFailed counts a game skipped for reason.
func RecordGameFailed(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.gamesFailed.WithLabelValues(reason).Inc()
}

// RecordTicks adds n ticks with the given outcome (see Tick* constants).
func RecordTicks(outcome string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.ticks.WithLabelValues(outcome).Add(float64(n))
}

// RecordShiftRejected counts a malformed shift.
func RecordShiftRejected(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.shiftsRejected.WithLabelValues(reason).Inc()
}

// RecordShiftDuplicate counts a dropped duplicate shift.
func RecordShiftDuplicate() {
	if !globalManager.enabled {
		return
	}
	globalManager.shiftsDuplicate.Inc()
}

// RecordRowsCombined adds n combined rows for table.
func RecordRowsCombined(table string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.rowsCombined.WithLabelValues(table).Add(float64(n))
}

// RecordBatchCompleted counts a finished batch and its latency.
func RecordBatchCompleted(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.batchesCompleted.Inc()
	globalManager.batchLatency.Observe(latencyMs)
}

// RecordRowsWritten adds n persisted rows for sink and table.
func RecordRowsWritten(sink, table string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.rowsWritten.WithLabelValues(sink, table).Add(float64(n))
}

// RecordSinkLatency observes a sink write latency.
func RecordSinkLatency(sink string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.sinkLatency.WithLabelValues(sink).Observe(latencyMs)
}

// RecordSinkError counts a failed sink write.
func RecordSinkError(sink string) {
	if !globalManager.enabled {
		return
	}
	globalManager.sinkErrors.WithLabelValues(sink).Inc()
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an enqueued game.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a dequeued game.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueError.WithLabelValues(reason).Inc()
}

// UpdateWorkerActive adjusts the running worker gauge by delta.
func UpdateWorkerActive(delta int) {
	globalManager.workerActive.Add(float64(delta))
}

// RecordWorkerPanic counts a recovered worker panic.
func RecordWorkerPanic() {
	globalManager.workerPanics.Inc()
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets the allocated heap size in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(n int) {
	globalManager.systemGoroutineCount.Set(float64(n))
}

// RecordSystemGCPauseTime observes an average GC pause in milliseconds.
func RecordSystemGCPauseTime(ms float64) {
	globalManager.systemGCPauseTime.Observe(ms)
}

// RefreshInterval returns how often the system gauges should be sampled.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
