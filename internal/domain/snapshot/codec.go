// Package snapshot persists the filesystem engine: a JSON artifact
// codec, disk and in-memory stores for the write-through primary
// snapshot, a manager for named point-in-time snapshots, and a
// replicator that ships snapshots to a remote peer.
package snapshot

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
)

// Version identifies the artifact layout.
const Version = 1

// Virtual disk geometry recorded in artifact metadata. The values are
// descriptive only; no block allocation is simulated.
const (
	TotalBlocks = 1000
	BlockSize   = 512
)

// Metadata describes the artifact itself rather than the tree.
type Metadata struct {
	DiskID       string    `json:"disk_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
	TotalBlocks  int       `json:"total_blocks"`
	BlockSize    int       `json:"block_size"`
	UsedBlocks   int       `json:"used_blocks"`
}

// Artifact is the on-disk snapshot document. The tree is stored
// nested-by-containment with children as ordered arrays; parent links
// are rebuilt from nesting when the tree is imported.
type Artifact struct {
	Version  int            `json:"version"`
	Tree     *vfs.NodeState `json:"tree"`
	Cursor   string         `json:"cursor"`
	Counters vfs.Counters   `json:"counters"`
	Metadata Metadata       `json:"metadata"`
}

// Encode renders an engine state as an indented, human-readable JSON
// artifact.
func Encode(state *vfs.State, meta Metadata) ([]byte, error) {
	if state == nil || state.Root == nil {
		return nil, fmt.Errorf("encode: state is empty")
	}
	doc := &Artifact{
		Version:  Version,
		Tree:     state.Root,
		Cursor:   state.Cursor,
		Counters: state.Counters,
		Metadata: meta,
	}
	data, err := sonic.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// Decode parses an artifact back into an engine state and its
// metadata.
func Decode(data []byte) (*vfs.State, Metadata, error) {
	var doc Artifact
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, Metadata{}, fmt.Errorf("decode: %w", err)
	}
	if doc.Tree == nil {
		return nil, Metadata{}, fmt.Errorf("decode: artifact has no tree")
	}
	state := &vfs.State{
		Root:     doc.Tree,
		Cursor:   doc.Cursor,
		Counters: doc.Counters,
	}
	return state, doc.Metadata, nil
}
