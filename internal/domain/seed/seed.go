// Package seed populates a fresh filesystem engine from YAML manifests.
//
// A manifest declares directories and files to create. Seeding is
// applied only on first boot, when no snapshot artifact exists yet, and
// never overwrites paths that are already present.
package seed

import (
	"fmt"
	"os"
	gopath "path"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
)

// FileSpec declares one file to create.
type FileSpec struct {
	Path    string `yaml:"path"`
	Content string `yaml:"content"`
}

// DirectorySpec declares one directory to create.
type DirectorySpec struct {
	Path string `yaml:"path"`
}

// Manifest is the root structure of a seed file.
type Manifest struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Directories []DirectorySpec `yaml:"directories,omitempty"`
	Files       []FileSpec      `yaml:"files,omitempty"`
}

// Summary reports what one seeding pass did.
type Summary struct {
	Directories int `json:"directories"`
	Files       int `json:"files"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
}

func (s *Summary) add(other Summary) {
	s.Directories += other.Directories
	s.Files += other.Files
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates manifest content.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	for i, dir := range m.Directories {
		if strings.TrimSpace(dir.Path) == "" {
			return nil, fmt.Errorf("directories[%d]: path is required", i)
		}
	}
	for i, file := range m.Files {
		if strings.TrimSpace(file.Path) == "" {
			return nil, fmt.Errorf("files[%d]: path is required", i)
		}
	}
	return &m, nil
}

// Seeder applies manifests to an engine.
type Seeder struct {
	engine *vfs.Filesystem
	log    *zap.Logger
}

// NewSeeder creates a seeder for the given engine.
func NewSeeder(engine *vfs.Filesystem, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{engine: engine, log: log}
}

// Apply creates the manifest's directories and files. Existing paths are
// skipped, individual failures are logged and counted, and the rest of
// the manifest still applies.
func (s *Seeder) Apply(m *Manifest) Summary {
	var sum Summary

	for _, dir := range m.Directories {
		created, err := s.ensureDirectory(absolute(dir.Path))
		if err != nil {
			s.log.Warn("failed to seed directory", zap.String("path", dir.Path), zap.Error(err))
			sum.Failed++
			continue
		}
		if created == 0 {
			sum.Skipped++
		}
		sum.Directories += created
	}

	for _, file := range m.Files {
		path := absolute(file.Path)
		if parent := gopath.Dir(path); parent != "/" {
			created, err := s.ensureDirectory(parent)
			if err != nil {
				s.log.Warn("failed to seed file", zap.String("path", file.Path), zap.Error(err))
				sum.Failed++
				continue
			}
			sum.Directories += created
		}
		if s.engine.Exists(path) {
			sum.Skipped++
			continue
		}
		if err := s.engine.CreateFile(path, file.Content); err != nil {
			s.log.Warn("failed to seed file", zap.String("path", file.Path), zap.Error(err))
			sum.Failed++
			continue
		}
		sum.Files++
	}

	s.log.Info("seed manifest applied",
		zap.String("name", m.Name),
		zap.Int("directories", sum.Directories),
		zap.Int("files", sum.Files),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed))
	return sum
}

// SeedDirectory applies every .yaml and .yml manifest under dir in name
// order. A missing directory is not an error; unreadable manifests are
// logged and skipped.
func (s *Seeder) SeedDirectory(dir string) (Summary, error) {
	var sum Summary

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		s.log.Info("no seed directory", zap.String("dir", dir))
		return sum, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return sum, fmt.Errorf("failed to list seed directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		m, err := Load(filepath.Join(dir, name))
		if err != nil {
			s.log.Warn("skipping unreadable manifest", zap.String("file", name), zap.Error(err))
			sum.Failed++
			continue
		}
		sum.add(s.Apply(m))
	}
	return sum, nil
}

// ensureDirectory creates path and any missing parents, returning how
// many directories were created.
func (s *Seeder) ensureDirectory(path string) (int, error) {
	var created int
	current := "/"
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" {
			continue
		}
		current = gopath.Join(current, seg)
		if s.engine.Exists(current) {
			continue
		}
		if err := s.engine.CreateDirectory(current); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func absolute(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
