/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the backend
service, tracking HTTP requests, service calls, engine state, and system
metrics.

# Features

- HTTP request metrics (latency, throughput, size)
- Service call metrics (duration, errors)
- Virtual tree gauges (files, directories, bytes, operations)
- Persistence flush counters
- Snapshot lifecycle counters
- Shell and process session gauges
- WebSocket connection metrics
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record custom metrics
	metrics.SetShellSessions(5)
	metrics.IncSnapshotsSaved()

	// Time operations
	timer := monitoring.NewTimer(metrics, "filesystem", "file.create")
	// ... perform operation ...
	timer.Stop("success")

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
