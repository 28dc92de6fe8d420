// Package filesystem exposes the virtual filesystem engine as a tool
// service.
//
// This package is organized into specialized modules:
//   - basic: Core file operations (create, read, update, append, touch, delete)
//   - directory: Directory operations (create, list, change, current, tree)
//   - operations: File transfers (copy, move with partial-move reporting)
//   - search: Name, content and glob searches over the tree
//   - metadata: Node descriptors, tree statistics, hashing, MIME detection
//   - formats: Structured formats (JSON, YAML, TOML, CSV) over virtual content
//   - host: Confined import/export between the tree and a host directory
//
// All operations:
//   - Delegate to the engine's public operations only
//   - Report expected failures as Result errors, never panics
//   - Return structured JSON results
//
// Example Usage:
//
//	provider := filesystem.NewProvider(engine, cfg.Host.Root)
//	result, err := provider.Execute(ctx, "filesystem.file.read", params, appCtx)
package filesystem
