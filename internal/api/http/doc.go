// Package http provides HTTP handlers for the VirtuOS REST API.
//
// This package implements all HTTP endpoints using the Gin framework,
// including health checks, service execution, snapshot management,
// and shell sessions.
//
// Endpoints:
//   - Health: / and /health
//   - Services: /services, /services/discover, /services/execute
//   - Snapshots: /snapshots, /snapshots/:id, /snapshots/:id/restore,
//     /snapshots/push, /snapshots/pull
//   - Shell: /shell/sessions, /shell/sessions/:id,
//     /shell/sessions/:id/exec
//   - Metrics: /metrics (Prometheus), /metrics/json, /metrics/dashboard
//   - Logs: /logs/stream
//
// Example Usage:
//
//	handlers := http.NewHandlers(engine, registry, snapshots, replicator, shellMgr, metrics, logger)
//	router.GET("/health", handlers.Health)
//	router.POST("/services/execute", handlers.ExecuteService)
package http
