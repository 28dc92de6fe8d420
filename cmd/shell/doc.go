// Package main is a local interactive shell for the virtual
// filesystem. It opens the snapshot artifact directly, so no server
// needs to run; every mutation is flushed back to the same artifact
// the server reads.
//
// Usage:
//
//	./shell -disk ./data/virtual_disk.json
package main
