package snapshot

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
)

func testState(t *testing.T) *vfs.State {
	t.Helper()

	fs := vfs.New()
	require.NoError(t, fs.CreateDirectory("docs"))
	require.NoError(t, fs.CreateFile("docs/readme.txt", "hello"))
	require.NoError(t, fs.CreateFile("notes.txt", "scratch"))
	_, err := fs.ChangeDirectory("docs")
	require.NoError(t, err)
	return fs.Export()
}

// TestEncodeDecodeRoundTrip verifies that an encoded artifact decodes
// back to the same tree, cursor, counters and metadata.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	state := testState(t)
	meta := Metadata{
		DiskID:       "disk-1",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
		LastModified: time.Now().UTC().Truncate(time.Second),
		TotalBlocks:  TotalBlocks,
		BlockSize:    BlockSize,
	}

	data, err := Encode(state, meta)
	require.NoError(t, err)

	decoded, gotMeta, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, state.Root, decoded.Root)
	assert.Equal(t, state.Cursor, decoded.Cursor)
	assert.Equal(t, state.Counters, decoded.Counters)
	assert.Equal(t, meta, gotMeta)
}

// TestEncodeRejectsNilState verifies that nothing is encodable without
// an exported tree.
func TestEncodeRejectsNilState(t *testing.T) {
	_, err := Encode(nil, Metadata{})
	assert.Error(t, err)
}

// TestDecodeRejectsMissingTree verifies that an artifact without a tree
// is treated as corrupt rather than decoded into an empty filesystem.
func TestDecodeRejectsMissingTree(t *testing.T) {
	_, _, err := Decode([]byte(`{"version": 1, "cursor": "/"}`))
	assert.Error(t, err)
}

// TestDecodeRejectsGarbage verifies that non-JSON input surfaces a
// decode error.
func TestDecodeRejectsGarbage(t *testing.T) {
	_, _, err := Decode([]byte("not json at all"))
	assert.Error(t, err)
}

// TestEncodeWritesIndentedArtifact verifies the artifact stays human
// readable on disk.
func TestEncodeWritesIndentedArtifact(t *testing.T) {
	data, err := Encode(testState(t), Metadata{DiskID: "disk-1"})
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.Contains(text, "\n  "), "artifact should be indented")
	assert.Contains(t, text, `"version"`)
	assert.Contains(t, text, `"tree"`)
	assert.Contains(t, text, `"cursor"`)
}
