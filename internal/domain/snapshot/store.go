package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
)

// ErrNoSnapshot reports that no prior snapshot exists. Engine
// construction treats it as a fresh start, not a failure.
var ErrNoSnapshot = errors.New("no snapshot")

var gzipMagic = []byte{0x1f, 0x8b}

// Store persists and recalls the engine's primary snapshot.
type Store interface {
	vfs.Persister
	Load() (*vfs.State, error)
}

// DiskStats describes the snapshot file backing the engine.
type DiskStats struct {
	Path        string `json:"disk_file"`
	TotalBlocks int    `json:"total_blocks"`
	UsedBlocks  int    `json:"used_blocks"`
	FreeBlocks  int    `json:"free_blocks"`
	BlockSize   int    `json:"block_size"`
	SizeBytes   int64  `json:"size_bytes"`
	Compressed  bool   `json:"compressed"`
}

// DiskStore writes the artifact to a single file on the host, replacing
// it atomically via a temp-file rename. Compression is optional;
// loading always sniffs for it so either form reads back.
type DiskStore struct {
	path     string
	compress bool
	log      *zap.Logger

	mu        sync.Mutex
	meta      Metadata
	lastBytes int64
}

// NewDiskStore opens a disk store at the given path, adopting the
// metadata of an existing artifact when one is readable.
func NewDiskStore(path string, compress bool, log *zap.Logger) *DiskStore {
	if log == nil {
		log = zap.NewNop()
	}
	s := &DiskStore{path: path, compress: compress, log: log}

	now := time.Now()
	s.meta = Metadata{
		DiskID:      uuid.NewString(),
		CreatedAt:   now,
		TotalBlocks: TotalBlocks,
		BlockSize:   BlockSize,
	}
	if _, meta, err := s.read(); err == nil {
		s.meta = meta
		if s.meta.DiskID == "" {
			s.meta.DiskID = uuid.NewString()
		}
		if s.meta.TotalBlocks == 0 {
			s.meta.TotalBlocks = TotalBlocks
			s.meta.BlockSize = BlockSize
		}
	}
	return s
}

// Persist encodes the state and replaces the artifact file.
func (s *DiskStore) Persist(state *vfs.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.meta.LastModified = time.Now()
	data, err := Encode(state, s.meta)
	if err != nil {
		return err
	}
	if s.compress {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("compress snapshot: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("compress snapshot: %w", err)
		}
		data = buf.Bytes()
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	s.lastBytes = int64(len(data))
	return nil
}

// Load reads the artifact back into an engine state. A missing file
// yields ErrNoSnapshot; an unreadable or corrupt file yields a
// descriptive error so the caller can fall back to a fresh tree.
func (s *DiskStore) Load() (*vfs.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, meta, err := s.read()
	if err != nil {
		return nil, err
	}
	s.meta = meta
	return state, nil
}

func (s *DiskStore) read() (*vfs.State, Metadata, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, Metadata{}, ErrNoSnapshot
	}
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("read snapshot: %w", err)
	}
	if bytes.HasPrefix(data, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, Metadata{}, fmt.Errorf("decompress snapshot: %w", err)
		}
		defer zr.Close()
		if data, err = io.ReadAll(zr); err != nil {
			return nil, Metadata{}, fmt.Errorf("decompress snapshot: %w", err)
		}
	}
	state, meta, err := Decode(data)
	if err != nil {
		return nil, Metadata{}, err
	}
	s.lastBytes = int64(len(data))
	return state, meta, nil
}

// Stats reports the backing file's shape.
func (s *DiskStore) Stats() DiskStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := s.lastBytes
	if fi, err := os.Stat(s.path); err == nil {
		size = fi.Size()
	}
	return DiskStats{
		Path:        s.path,
		TotalBlocks: s.meta.TotalBlocks,
		UsedBlocks:  s.meta.UsedBlocks,
		FreeBlocks:  s.meta.TotalBlocks - s.meta.UsedBlocks,
		BlockSize:   s.meta.BlockSize,
		SizeBytes:   size,
		Compressed:  s.compress,
	}
}

// Path returns the artifact location.
func (s *DiskStore) Path() string { return s.path }

// MemStore keeps the last persisted state in memory. It backs tests
// and the ephemeral mode where durability is disabled.
type MemStore struct {
	mu    sync.Mutex
	state *vfs.State
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore { return &MemStore{} }

// Persist retains the state.
func (s *MemStore) Persist(state *vfs.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return nil
}

// Load returns the retained state, or ErrNoSnapshot before the first
// persist.
func (s *MemStore) Load() (*vfs.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, ErrNoSnapshot
	}
	return s.state, nil
}
