package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Service metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec
	ServiceErrors   *prometheus.CounterVec

	// Engine metrics
	EngineFiles       prometheus.Gauge
	EngineDirectories prometheus.Gauge
	EngineBytes       prometheus.Gauge
	EngineOperations  prometheus.Gauge

	// Persistence metrics
	FlushesTotal  prometheus.Counter
	FlushFailures prometheus.Counter

	// Snapshot metrics
	SnapshotsSaved    prometheus.Counter
	SnapshotsRestored prometheus.Counter

	// Shell metrics
	ShellSessionsActive prometheus.Gauge

	// Process metrics
	ProcSessionsActive prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64
	TotalErrors       int64
	ActiveShells      int64
	ActiveConnections int64
	TotalDuration     float64 // sum of all request durations
	RequestCount      int64   // count for averaging
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "virtuos_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "virtuos_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "virtuos_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "virtuos_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Service metrics
		ServiceCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "virtuos_service_calls_total",
				Help: "Total number of service calls",
			},
			[]string{"service", "method", "status"},
		),
		ServiceDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "virtuos_service_duration_seconds",
				Help:    "Service call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"service", "method"},
		),
		ServiceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "virtuos_service_errors_total",
				Help: "Total number of service errors",
			},
			[]string{"service", "method", "error_type"},
		),

		// Engine metrics
		EngineFiles: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "virtuos_engine_files",
				Help: "Number of files in the virtual tree",
			},
		),
		EngineDirectories: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "virtuos_engine_directories",
				Help: "Number of directories in the virtual tree",
			},
		),
		EngineBytes: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "virtuos_engine_bytes",
				Help: "Total content bytes held by the virtual tree",
			},
		),
		EngineOperations: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "virtuos_engine_operations",
				Help: "Mutating operations applied since construction",
			},
		),

		// Persistence metrics
		FlushesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "virtuos_flushes_total",
				Help: "Total number of state flushes to the disk store",
			},
		),
		FlushFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "virtuos_flush_failures_total",
				Help: "Total number of failed state flushes",
			},
		),

		// Snapshot metrics
		SnapshotsSaved: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "virtuos_snapshots_saved_total",
				Help: "Total number of snapshots saved",
			},
		),
		SnapshotsRestored: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "virtuos_snapshots_restored_total",
				Help: "Total number of snapshots restored",
			},
		),

		// Shell metrics
		ShellSessionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "virtuos_shell_sessions_active",
				Help: "Number of active shell sessions",
			},
		),

		// Process metrics
		ProcSessionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "virtuos_proc_sessions_active",
				Help: "Number of active process sessions",
			},
		),

		// WebSocket metrics
		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "virtuos_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "virtuos_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "virtuos_uptime_seconds",
				Help: "Backend uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordServiceCall records a service call
func (m *Metrics) RecordServiceCall(service, method, status string, duration time.Duration) {
	m.ServiceCalls.WithLabelValues(service, method, status).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordServiceError records a service error
func (m *Metrics) RecordServiceError(service, method, errorType string) {
	m.ServiceErrors.WithLabelValues(service, method, errorType).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SetEngineStats updates the virtual tree gauges
func (m *Metrics) SetEngineStats(files, directories int, bytes, operations int64) {
	m.EngineFiles.Set(float64(files))
	m.EngineDirectories.Set(float64(directories))
	m.EngineBytes.Set(float64(bytes))
	m.EngineOperations.Set(float64(operations))
}

// IncFlushes increments the flush counter
func (m *Metrics) IncFlushes() {
	m.FlushesTotal.Inc()
}

// IncFlushFailures increments the failed flush counter
func (m *Metrics) IncFlushFailures() {
	m.FlushFailures.Inc()
}

// IncSnapshotsSaved increments the snapshots saved counter
func (m *Metrics) IncSnapshotsSaved() {
	m.SnapshotsSaved.Inc()
}

// IncSnapshotsRestored increments the snapshots restored counter
func (m *Metrics) IncSnapshotsRestored() {
	m.SnapshotsRestored.Inc()
}

// SetShellSessions sets the number of active shell sessions
func (m *Metrics) SetShellSessions(count int) {
	m.ShellSessionsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveShells = int64(count)
	m.mu.Unlock()
}

// SetProcSessions sets the number of active process sessions
func (m *Metrics) SetProcSessions(count int) {
	m.ProcSessionsActive.Set(float64(count))
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}
