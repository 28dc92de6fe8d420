package filesystem

import (
	"context"
	"fmt"

	"github.com/virtuoslabs/virtuos/backend/internal/shared/types"
)

// DirectoryOps handles directory operations
type DirectoryOps struct {
	*VFSOps
}

// GetTools returns directory operation tool definitions
func (d *DirectoryOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.dir.create",
			Name:        "Create Directory",
			Description: "Create a new directory",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.dir.list",
			Name:        "List Directory",
			Description: "List directory contents sorted by name",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path, defaults to the current directory", Required: false},
			},
			Returns: "array",
		},
		{
			ID:          "filesystem.dir.change",
			Name:        "Change Directory",
			Description: "Move the navigation cursor to a directory",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path", Required: true},
			},
			Returns: "string",
		},
		{
			ID:          "filesystem.dir.current",
			Name:        "Current Directory",
			Description: "Return the absolute path of the current directory",
			Returns:     "string",
		},
		{
			ID:          "filesystem.dir.tree",
			Name:        "Directory Tree",
			Description: "Render a directory and its descendants as a tree",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path, defaults to the current directory", Required: false},
			},
			Returns: "string",
		},
	}
}

// Create creates a directory
func (d *DirectoryOps) Create(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	if err := d.FS.CreateDirectory(path); err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{
		"message": fmt.Sprintf("directory '%s' created", leaf(path)),
		"path":    path,
	})
}

// List lists directory contents
func (d *DirectoryOps) List(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, _ := params["path"].(string)

	entries, err := d.FS.ListDirectory(path)
	if err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{
		"path":    path,
		"entries": entries,
		"count":   len(entries),
	})
}

// Change moves the navigation cursor
func (d *DirectoryOps) Change(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	newPath, err := d.FS.ChangeDirectory(path)
	if err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{
		"message": fmt.Sprintf("directory changed to '%s'", newPath),
		"path":    newPath,
	})
}

// Current returns the cursor position
func (d *DirectoryOps) Current(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return Success(map[string]interface{}{
		"path": d.FS.CurrentPath(),
	})
}

// Tree renders a directory subtree
func (d *DirectoryOps) Tree(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, _ := params["path"].(string)

	rendered, err := d.FS.Tree(path)
	if err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{
		"path": path,
		"tree": rendered,
	})
}
