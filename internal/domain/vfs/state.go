package vfs

import "time"

// NodeState is the serializable image of one node. Children are kept
// as an ordered slice so insertion order survives a round trip; parent
// links are never stored and are rebuilt from nesting on import.
type NodeState struct {
	Name        string       `json:"name"`
	Kind        Kind         `json:"type"`
	Content     string       `json:"content,omitempty"`
	Size        int64        `json:"size"`
	Created     time.Time    `json:"created_at"`
	Modified    time.Time    `json:"modified_at"`
	Permissions string       `json:"permissions"`
	AccessCount uint64       `json:"access_count"`
	Children    []*NodeState `json:"children,omitempty"`
}

// State is the full serializable image of an engine: the node graph,
// the cursor path, and the lifetime operation counters.
type State struct {
	Root     *NodeState `json:"tree"`
	Cursor   string     `json:"cursor"`
	Counters Counters   `json:"counters"`
}

// Export captures a deep serializable image of the engine.
func (fs *Filesystem) Export() *State {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.exportLocked()
}

func (fs *Filesystem) exportLocked() *State {
	return &State{
		Root:     exportNode(fs.root),
		Cursor:   fs.cwd.fullPath(),
		Counters: fs.counters,
	}
}

func exportNode(n *Node) *NodeState {
	s := &NodeState{
		Name:        n.name,
		Kind:        n.kind,
		Content:     n.content,
		Size:        n.size,
		Created:     n.created,
		Modified:    n.modified,
		Permissions: n.permissions,
		AccessCount: n.accessCount,
	}
	if n.isDir() {
		s.Children = make([]*NodeState, 0, len(n.order))
		for _, name := range n.order {
			s.Children = append(s.Children, exportNode(n.children[name]))
		}
	}
	return s
}

// importNode rebuilds a node and its subtree, re-establishing parent
// back-references and repairing kind invariants: files never carry
// children, directories never carry content.
func importNode(s *NodeState, parent *Node) *Node {
	n := &Node{
		name:        s.Name,
		kind:        s.Kind,
		size:        s.Size,
		created:     s.Created,
		modified:    s.Modified,
		permissions: s.Permissions,
		accessCount: s.AccessCount,
		parent:      parent,
	}
	if s.Kind == KindDirectory {
		if n.permissions == "" {
			n.permissions = dirPermissions
		}
		n.children = make(map[string]*Node, len(s.Children))
		for _, cs := range s.Children {
			c := importNode(cs, n)
			n.children[c.name] = c
			n.order = append(n.order, c.name)
		}
	} else {
		if n.permissions == "" {
			n.permissions = filePermissions
		}
		n.content = s.Content
	}
	return n
}
