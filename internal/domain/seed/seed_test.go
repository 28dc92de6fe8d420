package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
)

const workspaceManifest = `
name: developer workspace
description: starter tree for new sessions
directories:
  - path: /docs
  - path: /src/app
files:
  - path: /docs/readme.txt
    content: welcome aboard
  - path: /src/app/main.py
    content: |
      print("hello")
`

// TestParseManifest verifies YAML decoding of a full manifest.
func TestParseManifest(t *testing.T) {
	m, err := Parse([]byte(workspaceManifest))
	require.NoError(t, err)

	assert.Equal(t, "developer workspace", m.Name)
	require.Len(t, m.Directories, 2)
	assert.Equal(t, "/src/app", m.Directories[1].Path)
	require.Len(t, m.Files, 2)
	assert.Equal(t, "welcome aboard", m.Files[0].Content)
	assert.Equal(t, "print(\"hello\")\n", m.Files[1].Content)
}

// TestParseManifestRejectsBadYAML verifies that syntax errors surface.
func TestParseManifestRejectsBadYAML(t *testing.T) {
	_, err := Parse([]byte("files:\n  - path: [unclosed"))
	assert.Error(t, err)
}

// TestParseManifestRequiresPaths verifies that entries without a path
// are rejected up front.
func TestParseManifestRequiresPaths(t *testing.T) {
	_, err := Parse([]byte("files:\n  - content: orphaned\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")

	_, err = Parse([]byte("directories:\n  - path: \"\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

// TestLoadManifest verifies reading a manifest from disk.
func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(workspaceManifest), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "developer workspace", m.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// TestSeederApply verifies that a manifest builds the declared tree.
func TestSeederApply(t *testing.T) {
	fs := vfs.New()
	m, err := Parse([]byte(workspaceManifest))
	require.NoError(t, err)

	sum := NewSeeder(fs, nil).Apply(m)

	assert.Equal(t, 3, sum.Directories)
	assert.Equal(t, 2, sum.Files)
	assert.Equal(t, 0, sum.Failed)

	assert.True(t, fs.Exists("/docs"))
	assert.True(t, fs.Exists("/src/app"))
	content, err := fs.ReadFile("/docs/readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "welcome aboard", content)
}

// TestSeederApplyCreatesFileParents verifies that a file entry creates
// any missing parent directories without declaring them.
func TestSeederApplyCreatesFileParents(t *testing.T) {
	fs := vfs.New()
	m := &Manifest{Files: []FileSpec{{Path: "/a/b/c.txt", Content: "deep"}}}

	sum := NewSeeder(fs, nil).Apply(m)

	assert.Equal(t, 2, sum.Directories)
	assert.Equal(t, 1, sum.Files)
	assert.True(t, fs.Exists("/a/b/c.txt"))
}

// TestSeederApplyNeverOverwrites verifies that a second pass skips
// everything that already exists and leaves content untouched.
func TestSeederApplyNeverOverwrites(t *testing.T) {
	fs := vfs.New()
	require.NoError(t, fs.CreateDirectory("/docs"))
	require.NoError(t, fs.CreateFile("/docs/readme.txt", "operator edit"))

	m, err := Parse([]byte(workspaceManifest))
	require.NoError(t, err)

	seeder := NewSeeder(fs, nil)
	first := seeder.Apply(m)
	assert.Equal(t, 2, first.Directories)
	assert.Equal(t, 1, first.Files)
	assert.Equal(t, 2, first.Skipped, "existing docs and readme should be skipped")
	assert.Equal(t, 0, first.Failed)

	second := seeder.Apply(m)
	assert.Equal(t, 0, second.Directories)
	assert.Equal(t, 0, second.Files)
	assert.Equal(t, 4, second.Skipped)

	content, err := fs.ReadFile("/docs/readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "operator edit", content)
}

// TestSeederApplyContinuesPastFailures verifies that one bad entry does
// not stop the rest of the manifest.
func TestSeederApplyContinuesPastFailures(t *testing.T) {
	fs := vfs.New()
	m := &Manifest{Files: []FileSpec{
		{Path: "/bad:name.txt", Content: "rejected"},
		{Path: "/good.txt", Content: "kept"},
	}}

	sum := NewSeeder(fs, nil).Apply(m)

	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Files)
	assert.False(t, fs.Exists("/bad:name.txt"))
	assert.True(t, fs.Exists("/good.txt"))
}

// TestSeedDirectory verifies applying every manifest in a directory,
// skipping non-manifest and unreadable files.
func TestSeedDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10-base.yaml"),
		[]byte("files:\n  - path: /base.txt\n    content: base\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20-extra.yml"),
		[]byte("files:\n  - path: /extra.txt\n    content: extra\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "30-broken.yaml"),
		[]byte(": not yaml"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"),
		[]byte("ignored"), 0o644))

	fs := vfs.New()
	sum, err := NewSeeder(fs, nil).SeedDirectory(dir)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Files)
	assert.Equal(t, 1, sum.Failed)
	assert.True(t, fs.Exists("/base.txt"))
	assert.True(t, fs.Exists("/extra.txt"))
}

// TestSeedDirectoryMissing verifies that an absent seed directory is a
// no-op rather than an error.
func TestSeedDirectoryMissing(t *testing.T) {
	fs := vfs.New()
	sum, err := NewSeeder(fs, nil).SeedDirectory(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
}
