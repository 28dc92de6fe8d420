package vfs

import (
	"sort"
	"strings"
)

// Match is one search hit: a node whose name or content contains the
// pattern.
type Match struct {
	Path      string `json:"path"`
	Kind      Kind   `json:"type"`
	MatchType string `json:"match_type"`
}

// Match categories.
const (
	MatchName    = "name"
	MatchContent = "content"
)

// Tree renders a directory and its descendants as a branch-drawn tree.
// The first line is the directory's absolute path; children are listed
// directories first, each group alphabetical case-insensitive. The
// empty path renders the current directory.
func (fs *Filesystem) Tree(path string) (string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	node := fs.resolve(path)
	if node == nil {
		return "", errorf(StatusNotFound, "directory '%s' does not exist", path)
	}
	if !node.isDir() {
		return "", errorf(StatusWrongKind, "'%s' is not a directory", path)
	}

	var b strings.Builder
	b.WriteString(node.fullPath())
	b.WriteByte('\n')
	renderTree(&b, node, "")
	return b.String(), nil
}

func renderTree(b *strings.Builder, dir *Node, prefix string) {
	children := dir.ordered()
	sort.SliceStable(children, func(i, j int) bool {
		if (children[i].kind == KindFile) != (children[j].kind == KindFile) {
			return children[j].kind == KindFile
		}
		return strings.ToLower(children[i].name) < strings.ToLower(children[j].name)
	})

	for i, child := range children {
		branch, continuation := "├── ", "│   "
		if i == len(children)-1 {
			branch, continuation = "└── ", "    "
		}
		b.WriteString(prefix)
		b.WriteString(branch)
		b.WriteString(child.name)
		b.WriteByte('\n')
		if child.isDir() {
			renderTree(b, child, prefix+continuation)
		}
	}
}

// Find returns the absolute paths of descendants whose names contain
// the pattern, case-insensitive. A kind filter narrows matches without
// pruning descent. Traversal is pre-order with children visited in
// insertion order; the start directory itself is never reported. The
// empty path searches from the current directory.
func (fs *Filesystem) Find(path, pattern string, kind Kind) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	start := fs.resolve(path)
	if start == nil {
		return nil, errorf(StatusNotFound, "directory '%s' does not exist", path)
	}
	if !start.isDir() {
		return nil, errorf(StatusWrongKind, "'%s' is not a directory", path)
	}

	needle := strings.ToLower(pattern)
	results := []string{}
	findMatches(start, needle, kind, &results)
	return results, nil
}

func findMatches(dir *Node, needle string, kind Kind, results *[]string) {
	for _, child := range dir.ordered() {
		if (kind == "" || child.kind == kind) && strings.Contains(strings.ToLower(child.name), needle) {
			*results = append(*results, child.fullPath())
		}
		if child.isDir() {
			findMatches(child, needle, kind, results)
		}
	}
}

// Search walks the whole tree from the root looking for nodes whose
// names contain the pattern, case-insensitive. With content search
// enabled, file contents are checked too and reported as a separate
// match category, so one file can appear once per category.
func (fs *Filesystem) Search(pattern string, searchContent bool) []Match {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	needle := strings.ToLower(pattern)
	results := []Match{}
	searchNode(fs.root, needle, searchContent, &results)
	return results
}

func searchNode(node *Node, needle string, searchContent bool, results *[]Match) {
	if strings.Contains(strings.ToLower(node.name), needle) {
		*results = append(*results, Match{Path: node.fullPath(), Kind: node.kind, MatchType: MatchName})
	}
	if searchContent && !node.isDir() && strings.Contains(strings.ToLower(node.content), needle) {
		*results = append(*results, Match{Path: node.fullPath(), Kind: KindFile, MatchType: MatchContent})
	}
	if node.isDir() {
		for _, child := range node.ordered() {
			searchNode(child, needle, searchContent, results)
		}
	}
}
