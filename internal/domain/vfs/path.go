package vfs

import "strings"

// splitSegments breaks a path on "/", dropping the empty segments that
// leading, trailing, or doubled separators produce.
func splitSegments(path string) []string {
	parts := strings.Split(path, "/")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// splitLeaf separates the parent path from the leaf name of a path
// being created. An empty parent means the current directory.
func splitLeaf(path string) (parent, leaf string) {
	i := strings.LastIndex(path, "/")
	switch {
	case i < 0:
		return "", path
	case i == 0:
		return "/", path[1:]
	default:
		return path[:i], path[i+1:]
	}
}

// resolveFrom walks a path from the given start node. Absolute paths
// restart at the root. "." stays in place and ".." moves to the parent,
// clamping at the root rather than failing. Any other segment must name
// a child of a directory; otherwise resolution returns nil. Resolution
// is a pure lookup and never creates nodes or mutates state.
func (fs *Filesystem) resolveFrom(start *Node, path string) *Node {
	current := start
	if strings.HasPrefix(path, "/") {
		current = fs.root
	}
	for _, seg := range splitSegments(path) {
		switch seg {
		case ".":
		case "..":
			if current.parent != nil {
				current = current.parent
			}
		default:
			if !current.isDir() {
				return nil
			}
			next := current.child(seg)
			if next == nil {
				return nil
			}
			current = next
		}
	}
	return current
}

// resolve resolves a path against the current directory. The empty
// path resolves to the current directory itself.
func (fs *Filesystem) resolve(path string) *Node {
	return fs.resolveFrom(fs.cwd, path)
}
