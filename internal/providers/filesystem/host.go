package filesystem

import (
	"context"
	"fmt"
	"os"
	gopath "path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/charlievieth/fastwalk"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/types"
)

// Files larger than this are skipped on import; the tree holds content
// in memory.
const maxImportSize = 1 << 20

// HostOps bridges the virtual tree and a confined host directory. All
// host paths are resolved under Root; escapes are rejected.
type HostOps struct {
	*VFSOps
	Root string
}

// GetTools returns host bridge tool definitions
func (h *HostOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.host.import",
			Name:        "Import from Host",
			Description: "Import a host directory of text files into the virtual tree",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Host directory, relative to the configured host root", Required: true},
				{Name: "target", Type: "string", Description: "Virtual directory to import into, defaults to /", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.host.export",
			Name:        "Export to Host",
			Description: "Write a virtual subtree to a host directory",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Virtual directory to export", Required: true},
				{Name: "target", Type: "string", Description: "Host directory, relative to the configured host root", Required: true},
			},
			Returns: "object",
		},
	}
}

// resolveHost confines a host path under the configured root
func (h *HostOps) resolveHost(path string) (string, error) {
	if h.Root == "" {
		return "", fmt.Errorf("host bridge not configured")
	}
	full := filepath.Join(h.Root, path)
	rel, err := filepath.Rel(h.Root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path '%s' escapes the host root", path)
	}
	return full, nil
}

// ensureVirtualDir creates each missing segment of a directory path
func (h *HostOps) ensureVirtualDir(path string) error {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	current := "/"
	for _, segment := range strings.Split(trimmed, "/") {
		current = gopath.Join(current, segment)
		if h.FS.Exists(current) {
			continue
		}
		if err := h.FS.CreateDirectory(current); err != nil {
			return err
		}
	}
	return nil
}

// Import walks a host directory and copies its text files into the
// virtual tree. Binary files, oversized files and already existing
// virtual paths are skipped, not overwritten.
func (h *HostOps) Import(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	source, ok := params["source"].(string)
	if !ok || source == "" {
		return Failure("source parameter required")
	}

	target, _ := params["target"].(string)
	if target == "" {
		target = "/"
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}

	hostDir, err := h.resolveHost(source)
	if err != nil {
		return Failure(err.Error())
	}
	stat, err := os.Stat(hostDir)
	if err != nil {
		return Failure(fmt.Sprintf("host directory not readable: %v", err))
	}
	if !stat.IsDir() {
		return Failure(fmt.Sprintf("'%s' is not a directory", source))
	}

	if err := h.ensureVirtualDir(target); err != nil {
		return Failure(err.Error())
	}

	var files, dirs, skipped int64

	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, hostDir, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			atomic.AddInt64(&skipped, 1)
			return nil
		}

		rel, err := filepath.Rel(hostDir, p)
		if err != nil || rel == "." {
			return nil
		}
		vpath := gopath.Join(target, filepath.ToSlash(rel))

		if d.IsDir() {
			if h.FS.Exists(vpath) {
				return nil
			}
			if err := h.FS.CreateDirectory(vpath); err != nil {
				atomic.AddInt64(&skipped, 1)
				return nil
			}
			atomic.AddInt64(&dirs, 1)
			return nil
		}

		if h.FS.Exists(vpath) {
			atomic.AddInt64(&skipped, 1)
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxImportSize {
			atomic.AddInt64(&skipped, 1)
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil || !utf8.Valid(data) {
			atomic.AddInt64(&skipped, 1)
			return nil
		}

		if err := h.FS.CreateFile(vpath, string(data)); err != nil {
			atomic.AddInt64(&skipped, 1)
			return nil
		}
		atomic.AddInt64(&files, 1)
		return nil
	})
	if walkErr != nil {
		return Failure(fmt.Sprintf("import failed: %v", walkErr))
	}

	return Success(map[string]interface{}{
		"imported_files":       files,
		"imported_directories": dirs,
		"skipped":              skipped,
		"source":               source,
		"target":               target,
	})
}

// Export writes a virtual subtree to a host directory
func (h *HostOps) Export(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	source, ok := params["source"].(string)
	if !ok || source == "" {
		return Failure("source parameter required")
	}

	target, ok := params["target"].(string)
	if !ok || target == "" {
		return Failure("target parameter required")
	}

	base, err := h.FS.Info(source)
	if err != nil {
		return Failure(err.Error())
	}
	if base.Kind != vfs.KindDirectory {
		return Failure(fmt.Sprintf("'%s' is not a directory", source))
	}

	hostDir, err := h.resolveHost(target)
	if err != nil {
		return Failure(err.Error())
	}
	if err := os.MkdirAll(hostDir, 0o755); err != nil {
		return Failure(fmt.Sprintf("cannot create host directory: %v", err))
	}

	prefix := base.FullPath
	if prefix != "/" {
		prefix += "/"
	}

	// Pre-order traversal, so parents land before their children.
	descendants, err := h.FS.Find(source, "", "")
	if err != nil {
		return Failure(err.Error())
	}

	var files, dirs int
	for _, vpath := range descendants {
		rel := strings.TrimPrefix(vpath, prefix)
		hostPath := filepath.Join(hostDir, filepath.FromSlash(rel))

		info, err := h.FS.Info(vpath)
		if err != nil {
			continue
		}

		if info.Kind == vfs.KindDirectory {
			if err := os.MkdirAll(hostPath, 0o755); err != nil {
				return Failure(fmt.Sprintf("export failed at '%s': %v", vpath, err))
			}
			dirs++
			continue
		}

		content, err := h.FS.ReadFile(vpath)
		if err != nil {
			continue
		}
		if err := os.WriteFile(hostPath, []byte(content), 0o644); err != nil {
			return Failure(fmt.Sprintf("export failed at '%s': %v", vpath, err))
		}
		files++
	}

	return Success(map[string]interface{}{
		"exported_files":       files,
		"exported_directories": dirs,
		"source":               source,
		"target":               target,
	})
}
