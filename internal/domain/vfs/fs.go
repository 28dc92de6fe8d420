// Package vfs implements the virtual filesystem engine: a mutable tree
// of file and directory nodes addressed by absolute or relative paths,
// mutated under structural invariants, and flushed to a snapshot store
// after every successful mutation.
package vfs

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Persister stores a snapshot of the engine state. It is invoked after
// every successful mutation, so the engine never has an unsaved-state
// window longer than one operation.
type Persister interface {
	Persist(state *State) error
}

// Counters tracks lifetime operation totals. They reset at engine
// construction; snapshots record them for inspection only.
type Counters struct {
	FilesCreated       int `json:"files_created"`
	FilesDeleted       int `json:"files_deleted"`
	DirectoriesCreated int `json:"directories_created"`
	DirectoriesDeleted int `json:"directories_deleted"`
	TotalOperations    int `json:"total_operations"`
}

// Entry describes one child in a directory listing.
type Entry struct {
	Name        string    `json:"name"`
	Kind        Kind      `json:"type"`
	Size        int64     `json:"size"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Permissions string    `json:"permissions"`
	AccessCount uint64    `json:"access_count"`
}

// Info is the full metadata descriptor for a single node.
type Info struct {
	Name          string    `json:"name"`
	Kind          Kind      `json:"type"`
	FullPath      string    `json:"full_path"`
	Size          int64     `json:"size"`
	SizeRecursive int64     `json:"size_recursive"`
	Created       time.Time `json:"created"`
	Modified      time.Time `json:"modified"`
	Permissions   string    `json:"permissions"`
	AccessCount   uint64    `json:"access_count"`
}

// Stats aggregates tree-wide totals. The root directory is excluded
// from the directory count.
type Stats struct {
	CurrentDirectory string   `json:"current_directory"`
	TotalFiles       int      `json:"total_files"`
	TotalDirectories int      `json:"total_directories"`
	TotalSizeBytes   int64    `json:"total_size_bytes"`
	Operations       Counters `json:"operations"`
}

// Filesystem is a virtual file tree with a navigation cursor and
// write-through persistence. Each instance owns its graph exclusively;
// construct separate instances rather than sharing snapshot files.
// Methods are safe for concurrent use.
type Filesystem struct {
	mu        sync.RWMutex
	root      *Node
	cwd       *Node
	counters  Counters
	persister Persister
	log       *zap.Logger
}

// Option configures a Filesystem.
type Option func(*Filesystem)

// WithPersister attaches a write-through snapshot store.
func WithPersister(p Persister) Option {
	return func(fs *Filesystem) { fs.persister = p }
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(fs *Filesystem) { fs.log = log }
}

// New creates an empty filesystem containing only the root directory,
// with the cursor at the root.
func New(opts ...Option) *Filesystem {
	fs := &Filesystem{log: zap.NewNop()}
	fs.root = newDirectory("/", time.Now())
	fs.cwd = fs.root
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

// NewFromState rebuilds an engine from a snapshot image. Parent links
// are reconstructed from nesting. The cursor is re-resolved against
// the rebuilt tree and falls back to the root when its stored path no
// longer names a directory. Counters always start at zero.
func NewFromState(state *State, opts ...Option) *Filesystem {
	fs := New(opts...)
	if state == nil || state.Root == nil {
		return fs
	}
	fs.root = importNode(state.Root, nil)
	fs.cwd = fs.root
	if target := fs.resolveFrom(fs.root, state.Cursor); target != nil && target.isDir() {
		fs.cwd = target
	}
	return fs
}

// persistLocked flushes the current state through the persister. The
// write lock must be held. A flush failure is surfaced to the caller
// but never rolls back the in-memory mutation.
func (fs *Filesystem) persistLocked(op string) error {
	fs.counters.TotalOperations++
	if fs.persister == nil {
		return nil
	}
	if err := fs.persister.Persist(fs.exportLocked()); err != nil {
		fs.log.Warn("snapshot write failed", zap.String("op", op), zap.Error(err))
		return errorf(StatusPersistence, "%s but snapshot write failed: %v", op, err)
	}
	return nil
}

// CreateFile creates a file at the given path. The parent directory
// must already exist; intermediate directories are never created.
// Content size is the UTF-8 byte length.
func (fs *Filesystem) CreateFile(path, content string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.createFileLocked(path, content)
}

func (fs *Filesystem) createFileLocked(path, content string) error {
	parentPath, name := splitLeaf(path)
	if err := ValidateName(name); err != nil {
		return err
	}
	parent := fs.resolve(parentPath)
	if parent == nil {
		return errorf(StatusNotFound, "cannot create file: parent directory does not exist")
	}
	if !parent.isDir() {
		return errorf(StatusWrongKind, "cannot create file: parent is not a directory")
	}
	if parent.child(name) != nil {
		return errorf(StatusAlreadyExists, "'%s' already exists", name)
	}

	parent.addChild(newFile(name, content, time.Now()))
	fs.counters.FilesCreated++
	return fs.persistLocked(fmt.Sprintf("file '%s' created", name))
}

// CreateDirectory creates an empty directory at the given path.
func (fs *Filesystem) CreateDirectory(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parentPath, name := splitLeaf(path)
	if err := ValidateName(name); err != nil {
		return err
	}
	parent := fs.resolve(parentPath)
	if parent == nil {
		return errorf(StatusNotFound, "cannot create directory: parent directory does not exist")
	}
	if !parent.isDir() {
		return errorf(StatusWrongKind, "cannot create directory: parent is not a directory")
	}
	if parent.child(name) != nil {
		return errorf(StatusAlreadyExists, "'%s' already exists", name)
	}

	parent.addChild(newDirectory(name, time.Now()))
	fs.counters.DirectoriesCreated++
	return fs.persistLocked(fmt.Sprintf("directory '%s' created", name))
}

// ReadFile returns a file's content and bumps its access counter. The
// bump is a mutation, so a successful read persists. When the flush
// fails the content is still returned alongside the error: the read
// itself succeeded and callers may use the data.
func (fs *Filesystem) ReadFile(path string) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	node := fs.resolve(path)
	if node == nil {
		return "", errorf(StatusNotFound, "file '%s' does not exist", path)
	}
	if node.isDir() {
		return "", errorf(StatusWrongKind, "'%s' is a directory, not a file", path)
	}

	node.touch()
	if err := fs.persistLocked(fmt.Sprintf("file '%s' read", path)); err != nil {
		return node.content, err
	}
	return node.content, nil
}

// UpdateFile replaces a file's content, recomputing size and refreshing
// the modified timestamp.
func (fs *Filesystem) UpdateFile(path, content string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	node := fs.resolve(path)
	if node == nil {
		return errorf(StatusNotFound, "file '%s' does not exist", path)
	}
	if node.isDir() {
		return errorf(StatusWrongKind, "'%s' is a directory, not a file", path)
	}

	node.setContent(content, time.Now())
	node.touch()
	return fs.persistLocked(fmt.Sprintf("file '%s' updated", path))
}

// AppendFile appends to a file's content, creating the file when it
// does not exist yet.
func (fs *Filesystem) AppendFile(path, content string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	node := fs.resolve(path)
	if node == nil {
		return fs.createFileLocked(path, content)
	}
	if node.isDir() {
		return errorf(StatusWrongKind, "'%s' is a directory, not a file", path)
	}

	node.setContent(node.content+content, time.Now())
	node.touch()
	return fs.persistLocked(fmt.Sprintf("file '%s' appended", path))
}

// Touch creates an empty file when the path is free and otherwise
// bumps the existing file's access counter.
func (fs *Filesystem) Touch(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	node := fs.resolve(path)
	if node == nil {
		return fs.createFileLocked(path, "")
	}
	if node.isDir() {
		return errorf(StatusWrongKind, "'%s' is a directory, not a file", path)
	}

	node.touch()
	return fs.persistLocked(fmt.Sprintf("file '%s' touched", path))
}

// Delete removes a file or an empty directory. The root is never
// deletable. Deleting the current directory moves the cursor to its
// parent.
func (fs *Filesystem) Delete(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	node := fs.resolve(path)
	if node == nil {
		return errorf(StatusNotFound, "'%s' does not exist", path)
	}
	if node == fs.root {
		return errorf(StatusRootProtected, "cannot delete root directory")
	}
	if node.isDir() && len(node.children) > 0 {
		return errorf(StatusNotEmpty, "directory '%s' is not empty", node.name)
	}

	if node == fs.cwd {
		fs.cwd = node.parent
	}
	node.parent.removeChild(node.name)
	if node.isDir() {
		fs.counters.DirectoriesDeleted++
		return fs.persistLocked(fmt.Sprintf("directory '%s' deleted", node.name))
	}
	fs.counters.FilesDeleted++
	return fs.persistLocked(fmt.Sprintf("file '%s' deleted", node.name))
}

// ListDirectory returns the direct children of a directory sorted by
// name ascending. Directory sizes are the recursive sum of descendant
// file sizes. The empty path lists the current directory.
func (fs *Filesystem) ListDirectory(path string) ([]Entry, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	node := fs.resolve(path)
	if node == nil {
		return nil, errorf(StatusNotFound, "directory '%s' does not exist", path)
	}
	if !node.isDir() {
		return nil, errorf(StatusWrongKind, "'%s' is not a directory", path)
	}

	entries := make([]Entry, 0, len(node.children))
	for _, child := range node.ordered() {
		entries = append(entries, Entry{
			Name:        child.name,
			Kind:        child.kind,
			Size:        child.sizeRecursive(),
			Created:     child.created,
			Modified:    child.modified,
			Permissions: child.permissions,
			AccessCount: child.accessCount,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// ChangeDirectory moves the navigation cursor and returns the new
// absolute path. The target's access counter is bumped.
func (fs *Filesystem) ChangeDirectory(path string) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	node := fs.resolve(path)
	if node == nil {
		return "", errorf(StatusNotFound, "directory '%s' does not exist", path)
	}
	if !node.isDir() {
		return "", errorf(StatusWrongKind, "'%s' is not a directory", path)
	}

	fs.cwd = node
	node.touch()
	newPath := node.fullPath()
	if err := fs.persistLocked(fmt.Sprintf("directory changed to '%s'", newPath)); err != nil {
		return "", err
	}
	return newPath, nil
}

// Copy duplicates a file by reading the source and creating the
// destination. A failed create leaves no partial state beyond the
// read's access-count bump.
func (fs *Filesystem) Copy(source, destination string) error {
	content, err := fs.ReadFile(source)
	if err != nil {
		return stageError("failed to read source", err)
	}
	if err := fs.CreateFile(destination, content); err != nil {
		return stageError("failed to create destination", err)
	}
	return nil
}

// Move copies the source to the destination, then removes the source.
// When removal fails after a successful copy, both nodes are kept and
// a MoveError reports the partial outcome; nothing is rolled back.
func (fs *Filesystem) Move(source, destination string) error {
	if err := fs.Copy(source, destination); err != nil {
		return err
	}
	if err := fs.Delete(source); err != nil {
		return &MoveError{Source: source, Destination: destination, Err: err}
	}
	return nil
}

// Info returns the metadata descriptor for a single node without
// recursing into it. The directory size field is the recursive
// aggregate, computed on demand.
func (fs *Filesystem) Info(path string) (*Info, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	node := fs.resolve(path)
	if node == nil {
		return nil, errorf(StatusNotFound, "'%s' does not exist", path)
	}
	return &Info{
		Name:          node.name,
		Kind:          node.kind,
		FullPath:      node.fullPath(),
		Size:          node.size,
		SizeRecursive: node.sizeRecursive(),
		Created:       node.created,
		Modified:      node.modified,
		Permissions:   node.permissions,
		AccessCount:   node.accessCount,
	}, nil
}

// Stats aggregates totals across the whole tree plus the lifetime
// operation counters.
func (fs *Filesystem) Stats() *Stats {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	files, dirs := countNodes(fs.root)
	if dirs > 0 {
		dirs--
	}
	return &Stats{
		CurrentDirectory: fs.cwd.fullPath(),
		TotalFiles:       files,
		TotalDirectories: dirs,
		TotalSizeBytes:   fs.root.sizeRecursive(),
		Operations:       fs.counters,
	}
}

func countNodes(n *Node) (files, dirs int) {
	if !n.isDir() {
		return 1, 0
	}
	dirs = 1
	for _, name := range n.order {
		f, d := countNodes(n.children[name])
		files += f
		dirs += d
	}
	return files, dirs
}

// Reset replaces the entire tree and cursor from a snapshot image and
// flushes the result. Lifetime counters keep running; the reset itself
// counts as one operation.
func (fs *Filesystem) Reset(state *State) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if state == nil || state.Root == nil {
		fs.root = newDirectory("/", time.Now())
		fs.cwd = fs.root
		return fs.persistLocked("filesystem reset")
	}
	fs.root = importNode(state.Root, nil)
	fs.cwd = fs.root
	if target := fs.resolveFrom(fs.root, state.Cursor); target != nil && target.isDir() {
		fs.cwd = target
	}
	return fs.persistLocked("filesystem restored")
}

// CurrentPath returns the absolute path of the current directory.
func (fs *Filesystem) CurrentPath() string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.cwd.fullPath()
}

// Exists reports whether a path resolves to any node.
func (fs *Filesystem) Exists(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.resolve(path) != nil
}
