package filesystem

import (
	"context"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/types"
)

// SearchOps handles name, content and glob searches over the tree
type SearchOps struct {
	*VFSOps
}

// GetTools returns search tool definitions
func (s *SearchOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.find",
			Name:        "Find by Name",
			Description: "Find descendants whose names contain a pattern",
			Parameters: []types.Parameter{
				{Name: "pattern", Type: "string", Description: "Case-insensitive name fragment", Required: true},
				{Name: "path", Type: "string", Description: "Start directory, defaults to the current directory", Required: false},
				{Name: "kind", Type: "string", Description: "Restrict matches to 'file' or 'directory'", Required: false},
			},
			Returns: "array",
		},
		{
			ID:          "filesystem.search",
			Name:        "Search Tree",
			Description: "Search the whole tree by name and optionally by file content",
			Parameters: []types.Parameter{
				{Name: "pattern", Type: "string", Description: "Case-insensitive pattern", Required: true},
				{Name: "content", Type: "boolean", Description: "Also match file contents", Required: false},
			},
			Returns: "array",
		},
		{
			ID:          "filesystem.glob",
			Name:        "Glob Match",
			Description: "Match descendant paths against a doublestar glob pattern",
			Parameters: []types.Parameter{
				{Name: "pattern", Type: "string", Description: "Glob pattern, ** crosses directories", Required: true},
				{Name: "path", Type: "string", Description: "Start directory, defaults to the current directory", Required: false},
			},
			Returns: "array",
		},
	}
}

// Find locates descendants by name fragment
func (s *SearchOps) Find(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	pattern, ok := params["pattern"].(string)
	if !ok {
		return Failure("pattern parameter required")
	}

	path, _ := params["path"].(string)
	kindStr, _ := params["kind"].(string)

	var kind vfs.Kind
	switch kindStr {
	case "":
	case "file":
		kind = vfs.KindFile
	case "directory":
		kind = vfs.KindDirectory
	default:
		return Failure("kind must be 'file' or 'directory'")
	}

	matches, err := s.FS.Find(path, pattern, kind)
	if err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{
		"pattern": pattern,
		"matches": matches,
		"count":   len(matches),
	})
}

// Search scans the whole tree by name and optional content
func (s *SearchOps) Search(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	pattern, ok := params["pattern"].(string)
	if !ok || pattern == "" {
		return Failure("pattern parameter required")
	}

	content, _ := params["content"].(bool)

	matches := s.FS.Search(pattern, content)

	return Success(map[string]interface{}{
		"pattern": pattern,
		"matches": matches,
		"count":   len(matches),
	})
}

// Glob matches descendant paths against a doublestar pattern. Paths
// are matched relative to the start directory.
func (s *SearchOps) Glob(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	pattern, ok := params["pattern"].(string)
	if !ok || pattern == "" {
		return Failure("pattern parameter required")
	}
	if !doublestar.ValidatePattern(pattern) {
		return Failure("invalid glob pattern")
	}

	path, _ := params["path"].(string)

	base, err := s.FS.Info(path)
	if err != nil {
		return Failure(err.Error())
	}

	// Empty fragment matches every descendant.
	candidates, err := s.FS.Find(path, "", "")
	if err != nil {
		return Failure(err.Error())
	}

	prefix := base.FullPath
	if prefix != "/" {
		prefix += "/"
	}

	matches := []string{}
	for _, candidate := range candidates {
		rel := strings.TrimPrefix(candidate, prefix)
		if ok, _ := doublestar.Match(pattern, rel); ok {
			matches = append(matches, candidate)
		}
	}

	return Success(map[string]interface{}{
		"pattern": pattern,
		"matches": matches,
		"count":   len(matches),
	})
}
