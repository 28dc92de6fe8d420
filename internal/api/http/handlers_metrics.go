package http

import (
	"time"

	"github.com/virtuoslabs/virtuos/backend/internal/infrastructure/monitoring"
)

// HandlerMetrics wraps handlers with metrics tracking
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// TrackServiceOperation tracks registry dispatch operations
func (hm *HandlerMetrics) TrackServiceOperation(operation string) func() {
	start := time.Now()
	return func() {
		duration := time.Since(start)
		hm.metrics.RecordServiceCall("service_registry", operation, "success", duration)
	}
}

// TrackSnapshotOperation tracks snapshot manager operations
func (hm *HandlerMetrics) TrackSnapshotOperation(operation string) func() {
	start := time.Now()
	return func() {
		duration := time.Since(start)
		hm.metrics.RecordServiceCall("snapshot_manager", operation, "success", duration)
	}
}

// TrackShellOperation tracks shell session operations
func (hm *HandlerMetrics) TrackShellOperation(operation string) func() {
	start := time.Now()
	return func() {
		duration := time.Since(start)
		hm.metrics.RecordServiceCall("shell_manager", operation, "success", duration)
	}
}
