package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/id"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/utils"
)

const snapshotExt = ".snapshot.json"

// Snapshot is a named point-in-time image of the engine, kept apart
// from the write-through primary artifact.
type Snapshot struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	Checksum    string     `json:"checksum"`
	State       *vfs.State `json:"state"`
}

// SnapshotMetadata is the listing view of a snapshot, without the tree.
type SnapshotMetadata struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Checksum    string    `json:"checksum"`
	Files       int       `json:"files"`
	Directories int       `json:"directories"`
}

// ToMetadata strips the tree for listings.
func (s *Snapshot) ToMetadata() SnapshotMetadata {
	files, dirs := countState(s.State.Root)
	if dirs > 0 {
		dirs--
	}
	return SnapshotMetadata{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		Checksum:    s.Checksum,
		Files:       files,
		Directories: dirs,
	}
}

func countState(n *vfs.NodeState) (files, dirs int) {
	if n == nil {
		return 0, 0
	}
	if n.Kind != vfs.KindDirectory {
		return 1, 0
	}
	dirs = 1
	for _, c := range n.Children {
		f, d := countState(c)
		files += f
		dirs += d
	}
	return files, dirs
}

// ManagerStats summarizes manager activity.
type ManagerStats struct {
	TotalSnapshots int        `json:"total_snapshots"`
	LastSaved      *time.Time `json:"last_saved,omitempty"`
	LastRestored   *time.Time `json:"last_restored,omitempty"`
}

// Manager saves and restores named snapshots of an engine. Snapshots
// are written one file each under a directory and cached in memory;
// files written by earlier processes are picked up on demand.
type Manager struct {
	engine    *vfs.Filesystem
	dir       string
	hasher    *utils.Hasher
	log       *zap.Logger
	snapshots sync.Map

	mu           sync.RWMutex
	lastSaved    *time.Time
	lastRestored *time.Time
}

// NewManager creates a snapshot manager writing under dir.
func NewManager(engine *vfs.Filesystem, dir string, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		engine: engine,
		dir:    dir,
		hasher: utils.DefaultHasher(),
		log:    log,
	}
}

// Save captures the engine's current state as a named snapshot and
// writes it to disk.
func (m *Manager) Save(name, description string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.engine.Export()
	checksum, err := m.hasher.HashJSON(state)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum state: %w", err)
	}

	now := time.Now()
	snap := &Snapshot{
		ID:          id.NewSnapshotID().String(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		Checksum:    checksum,
		State:       state,
	}

	data, err := sonic.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(m.snapshotPath(snap.ID), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	m.snapshots.Store(snap.ID, snap)
	m.lastSaved = &now
	m.log.Info("snapshot saved",
		zap.String("snapshot_id", snap.ID),
		zap.String("name", name),
		zap.Int("bytes", len(data)))
	return snap, nil
}

// validateID gates every ID that reaches snapshotPath. IDs arrive
// from the network (replication peers, REST clients), so anything
// outside the safe alphabet is rejected before it can name a file.
func validateID(snapID string) error {
	return utils.ValidateID(snapID, "snapshot id", true)
}

// Get returns a snapshot by ID, reading it from disk when it is not
// cached. The checksum is verified against the stored tree.
func (m *Manager) Get(snapID string) (*Snapshot, error) {
	if err := validateID(snapID); err != nil {
		return nil, err
	}
	if cached, ok := m.snapshots.Load(snapID); ok {
		return cached.(*Snapshot), nil
	}

	data, err := os.ReadFile(m.snapshotPath(snapID))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap Snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if snap.State == nil || snap.State.Root == nil {
		return nil, fmt.Errorf("snapshot %s has no tree", snapID)
	}
	if snap.Checksum != "" {
		sum, err := m.hasher.HashJSON(snap.State)
		if err != nil {
			return nil, fmt.Errorf("failed to checksum state: %w", err)
		}
		if sum != snap.Checksum {
			return nil, fmt.Errorf("snapshot %s failed checksum verification", snapID)
		}
	}

	m.snapshots.Store(snapID, &snap)
	return &snap, nil
}

// Import stores a snapshot produced elsewhere, typically received
// from a replication peer. The checksum is verified before anything
// is written.
func (m *Manager) Import(snap *Snapshot) error {
	if snap == nil || snap.ID == "" {
		return fmt.Errorf("snapshot has no id")
	}
	if err := validateID(snap.ID); err != nil {
		return err
	}
	if snap.State == nil || snap.State.Root == nil {
		return fmt.Errorf("snapshot %s has no tree", snap.ID)
	}
	if snap.Checksum != "" {
		sum, err := m.hasher.HashJSON(snap.State)
		if err != nil {
			return fmt.Errorf("failed to checksum state: %w", err)
		}
		if sum != snap.Checksum {
			return fmt.Errorf("snapshot %s failed checksum verification", snap.ID)
		}
	}

	data, err := sonic.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(m.snapshotPath(snap.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	m.snapshots.Store(snap.ID, snap)
	m.log.Info("snapshot imported",
		zap.String("snapshot_id", snap.ID),
		zap.String("name", snap.Name))
	return nil
}

// Restore replaces the engine's tree with a saved snapshot.
func (m *Manager) Restore(snapID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, err := m.Get(snapID)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if err := m.engine.Reset(snap.State); err != nil {
		return fmt.Errorf("failed to apply snapshot: %w", err)
	}

	now := time.Now()
	m.lastRestored = &now
	m.log.Info("snapshot restored",
		zap.String("snapshot_id", snapID),
		zap.String("name", snap.Name))
	return nil
}

// List returns metadata for every snapshot, newest first. Snapshot
// files not yet cached are loaded from the directory.
func (m *Manager) List() ([]SnapshotMetadata, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		snapID := strings.TrimSuffix(name, snapshotExt)
		if _, ok := m.snapshots.Load(snapID); ok {
			continue
		}
		if _, err := m.Get(snapID); err != nil {
			m.log.Warn("skipping unreadable snapshot", zap.String("file", name), zap.Error(err))
		}
	}

	var metadata []SnapshotMetadata
	m.snapshots.Range(func(_, value interface{}) bool {
		metadata = append(metadata, value.(*Snapshot).ToMetadata())
		return true
	})
	sort.Slice(metadata, func(i, j int) bool {
		return metadata[i].CreatedAt.After(metadata[j].CreatedAt)
	})
	return metadata, nil
}

// Delete removes a snapshot from disk and cache.
func (m *Manager) Delete(snapID string) error {
	if err := validateID(snapID); err != nil {
		return err
	}
	if err := os.Remove(m.snapshotPath(snapID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	m.snapshots.Delete(snapID)
	return nil
}

// Stats returns snapshot manager statistics.
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int
	m.snapshots.Range(func(_, _ interface{}) bool {
		total++
		return true
	})
	return ManagerStats{
		TotalSnapshots: total,
		LastSaved:      m.lastSaved,
		LastRestored:   m.lastRestored,
	}
}

// snapshotPath generates the file path for a snapshot ID.
func (m *Manager) snapshotPath(snapID string) string {
	return filepath.Join(m.dir, snapID+snapshotExt)
}
