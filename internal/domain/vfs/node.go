package vfs

import (
	"time"
)

// Kind discriminates file nodes from directory nodes.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
)

// Permission strings are descriptive metadata only, never enforced.
const (
	filePermissions = "rw-"
	dirPermissions  = "rwx"
)

// Node is a single file or directory in the virtual tree.
//
// A node is owned by its parent directory. The parent pointer is a
// back-reference used for path reconstruction and ".." navigation,
// never for lifetime management. Directories keep children in a
// name-keyed map plus an insertion-order slice so traversal can replay
// creation order after a snapshot round trip.
type Node struct {
	name        string
	kind        Kind
	content     string
	size        int64
	created     time.Time
	modified    time.Time
	permissions string
	accessCount uint64

	parent   *Node
	children map[string]*Node
	order    []string
}

func newFile(name, content string, now time.Time) *Node {
	return &Node{
		name:        name,
		kind:        KindFile,
		content:     content,
		size:        int64(len(content)),
		created:     now,
		modified:    now,
		permissions: filePermissions,
	}
}

func newDirectory(name string, now time.Time) *Node {
	return &Node{
		name:        name,
		kind:        KindDirectory,
		created:     now,
		modified:    now,
		permissions: dirPermissions,
		children:    make(map[string]*Node),
	}
}

func (n *Node) isDir() bool { return n.kind == KindDirectory }

// child returns the named child, or nil for files and unknown names.
func (n *Node) child(name string) *Node {
	if n.children == nil {
		return nil
	}
	return n.children[name]
}

// addChild links a node under a directory, recording insertion order.
func (n *Node) addChild(c *Node) {
	c.parent = n
	n.children[c.name] = c
	n.order = append(n.order, c.name)
}

// removeChild detaches the named child from a directory.
func (n *Node) removeChild(name string) {
	delete(n.children, name)
	for i, o := range n.order {
		if o == name {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
}

// ordered returns children in insertion order.
func (n *Node) ordered() []*Node {
	out := make([]*Node, 0, len(n.order))
	for _, name := range n.order {
		if c := n.children[name]; c != nil {
			out = append(out, c)
		}
	}
	return out
}

// setContent replaces a file's payload and recomputes its byte size.
func (n *Node) setContent(content string, now time.Time) {
	n.content = content
	n.size = int64(len(content))
	n.modified = now
}

// touch bumps the access counter. Access does not refresh modified
// time; only content mutation does.
func (n *Node) touch() { n.accessCount++ }

// fullPath rebuilds the absolute path by walking parent links to the
// root and joining names with "/".
func (n *Node) fullPath() string {
	if n.parent == nil {
		return "/"
	}
	if n.parent.parent == nil {
		return "/" + n.name
	}
	return n.parent.fullPath() + "/" + n.name
}

// sizeRecursive returns a file's size, or the sum of all descendant
// file sizes for a directory. Directory size is never stored; it is
// always derived on demand.
func (n *Node) sizeRecursive() int64 {
	if !n.isDir() {
		return n.size
	}
	var total int64
	for _, name := range n.order {
		total += n.children[name].sizeRecursive()
	}
	return total
}
