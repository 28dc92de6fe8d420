package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTreeRendering tests the branch-drawn layout: directories first,
// groups alphabetical case-insensitive, prefixes tracking nesting
func TestTreeRendering(t *testing.T) {
	fs := New()
	require.NoError(t, fs.CreateFile("zeta.txt", ""))
	require.NoError(t, fs.CreateDirectory("beta"))
	require.NoError(t, fs.CreateDirectory("beta/sub"))
	require.NoError(t, fs.CreateFile("beta/sub/deep.txt", ""))
	require.NoError(t, fs.CreateFile("beta/b1.txt", ""))
	require.NoError(t, fs.CreateDirectory("Alpha"))
	require.NoError(t, fs.CreateFile("apple.txt", ""))

	out, err := fs.Tree("")
	require.NoError(t, err)

	want := "/\n" +
		"├── Alpha\n" +
		"├── beta\n" +
		"│   ├── sub\n" +
		"│   │   └── deep.txt\n" +
		"│   └── b1.txt\n" +
		"├── apple.txt\n" +
		"└── zeta.txt\n"
	assert.Equal(t, want, out)
}

// TestTreeOfSubdirectory tests rendering rooted at a nested path
func TestTreeOfSubdirectory(t *testing.T) {
	fs := New()
	require.NoError(t, fs.CreateDirectory("docs"))
	require.NoError(t, fs.CreateFile("docs/a.txt", ""))

	out, err := fs.Tree("docs")
	require.NoError(t, err)
	assert.Equal(t, "/docs\n└── a.txt\n", out)
}

// TestTreeErrors tests rendering failure conditions
func TestTreeErrors(t *testing.T) {
	fs := New()
	require.NoError(t, fs.CreateFile("a.txt", ""))

	_, err := fs.Tree("missing")
	assert.Equal(t, StatusNotFound, StatusOf(err))

	_, err = fs.Tree("a.txt")
	assert.Equal(t, StatusWrongKind, StatusOf(err))
}

// TestFind tests the docs/readme.txt lookup scenario
func TestFind(t *testing.T) {
	fs := New()
	require.NoError(t, fs.CreateDirectory("docs"))
	require.NoError(t, fs.CreateFile("docs/readme.txt", "hello"))
	require.NoError(t, fs.CreateFile("other.txt", ""))

	matches, err := fs.Find("", "read", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/readme.txt"}, matches)
}

// TestFindPreOrderInsertionOrder tests traversal and result ordering
func TestFindPreOrderInsertionOrder(t *testing.T) {
	fs := New()
	// Deliberately not alphabetical: find must replay insertion order.
	require.NoError(t, fs.CreateDirectory("data"))
	require.NoError(t, fs.CreateFile("data/apple.txt", ""))
	require.NoError(t, fs.CreateDirectory("data/archive"))
	require.NoError(t, fs.CreateFile("notes.txt", ""))

	matches, err := fs.Find("", "a", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/data", "/data/apple.txt", "/data/archive"}, matches)
}

// TestFindKindFilter tests that the filter narrows matches without pruning descent
func TestFindKindFilter(t *testing.T) {
	fs := New()
	require.NoError(t, fs.CreateDirectory("data"))
	require.NoError(t, fs.CreateFile("data/apple.txt", ""))
	require.NoError(t, fs.CreateDirectory("data/archive"))

	files, err := fs.Find("", "a", KindFile)
	require.NoError(t, err)
	// apple.txt sits inside a directory that itself matches; the filter
	// must not stop the walk from entering it.
	assert.Equal(t, []string{"/data/apple.txt"}, files)

	dirs, err := fs.Find("", "a", KindDirectory)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data", "/data/archive"}, dirs)
}

// TestFindCaseInsensitive tests pattern matching across cases
func TestFindCaseInsensitive(t *testing.T) {
	fs := New()
	require.NoError(t, fs.CreateFile("README.TXT", ""))

	matches, err := fs.Find("", "read", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/README.TXT"}, matches)

	matches, err = fs.Find("", "ReAdMe", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/README.TXT"}, matches)
}

// TestFindFromSubdirectory tests that results stay absolute
func TestFindFromSubdirectory(t *testing.T) {
	fs := New()
	require.NoError(t, fs.CreateDirectory("docs"))
	require.NoError(t, fs.CreateFile("docs/readme.txt", ""))
	require.NoError(t, fs.CreateFile("readme.md", ""))
	_, err := fs.ChangeDirectory("docs")
	require.NoError(t, err)

	// From inside docs only its own descendants are visible.
	matches, err := fs.Find("", "read", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/readme.txt"}, matches)

	// An explicit start directory overrides the cursor.
	matches, err = fs.Find("/", "read", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/readme.txt", "/readme.md"}, matches)
}

// TestFindNoMatches tests the empty result
func TestFindNoMatches(t *testing.T) {
	fs := New()
	require.NoError(t, fs.CreateFile("a.txt", ""))

	matches, err := fs.Find("", "zzz", "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

// TestFindErrors tests start-directory failures
func TestFindErrors(t *testing.T) {
	fs := New()
	require.NoError(t, fs.CreateFile("a.txt", ""))

	_, err := fs.Find("missing", "x", "")
	assert.Equal(t, StatusNotFound, StatusOf(err))

	_, err = fs.Find("a.txt", "x", "")
	assert.Equal(t, StatusWrongKind, StatusOf(err))
}

// TestSearchByName tests name matching from the root
func TestSearchByName(t *testing.T) {
	fs := New()
	require.NoError(t, fs.CreateDirectory("projects"))
	require.NoError(t, fs.CreateFile("projects/roadmap.txt", "plans"))
	require.NoError(t, fs.CreateFile("map.txt", ""))

	results := fs.Search("map", false)
	assert.Equal(t, []Match{
		{Path: "/projects/roadmap.txt", Kind: KindFile, MatchType: MatchName},
		{Path: "/map.txt", Kind: KindFile, MatchType: MatchName},
	}, results)
}

// TestSearchContent tests the separate content match category
func TestSearchContent(t *testing.T) {
	fs := New()
	require.NoError(t, fs.CreateFile("notes.txt", "Hello World"))
	require.NoError(t, fs.CreateFile("world.txt", "nothing here"))

	results := fs.Search("world", true)
	assert.Equal(t, []Match{
		{Path: "/notes.txt", Kind: KindFile, MatchType: MatchContent},
		{Path: "/world.txt", Kind: KindFile, MatchType: MatchName},
	}, results)
}

// TestSearchBothCategories tests that one file can match twice
func TestSearchBothCategories(t *testing.T) {
	fs := New()
	require.NoError(t, fs.CreateFile("log.txt", "log entries"))

	results := fs.Search("log", true)
	require.Len(t, results, 2)
	assert.Equal(t, Match{Path: "/log.txt", Kind: KindFile, MatchType: MatchName}, results[0])
	assert.Equal(t, Match{Path: "/log.txt", Kind: KindFile, MatchType: MatchContent}, results[1])
}

// TestSearchIgnoresContentWithoutFlag tests the content switch
func TestSearchIgnoresContentWithoutFlag(t *testing.T) {
	fs := New()
	require.NoError(t, fs.CreateFile("notes.txt", "secret"))

	assert.Empty(t, fs.Search("secret", false))
	assert.Len(t, fs.Search("secret", true), 1)
}

// TestSearchWholeTreeFromAnyCursor tests that search always starts at the root
func TestSearchWholeTreeFromAnyCursor(t *testing.T) {
	fs := New()
	require.NoError(t, fs.CreateDirectory("deep"))
	require.NoError(t, fs.CreateFile("top.txt", ""))
	_, err := fs.ChangeDirectory("deep")
	require.NoError(t, err)

	results := fs.Search("top", false)
	require.Len(t, results, 1)
	assert.Equal(t, "/top.txt", results[0].Path)
}
