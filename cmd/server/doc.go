// Package main is the entry point for the VirtuOS backend server.
//
// The server hosts a virtual filesystem engine behind a REST API, a
// WebSocket shell stream, and a service provider registry, and keeps
// the engine durable through a write-through disk snapshot.
//
// The server provides:
//   - REST API for tool execution against the engine
//   - Named snapshots with optional peer replication
//   - Line-shell sessions over HTTP and WebSocket
//   - Prometheus metrics, rate limiting and CORS
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -disk ./data/virtual_disk.json
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown with a final snapshot flush
package main
