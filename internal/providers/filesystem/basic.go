package filesystem

import (
	"context"
	"fmt"

	"github.com/virtuoslabs/virtuos/backend/internal/shared/types"
)

// BasicOps handles basic file operations
type BasicOps struct {
	*VFSOps
}

// GetTools returns basic file operation tool definitions
func (b *BasicOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.file.create",
			Name:        "Create File",
			Description: "Create a new file with optional content",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "content", Type: "string", Description: "Initial content", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.file.read",
			Name:        "Read File",
			Description: "Read file contents",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "string",
		},
		{
			ID:          "filesystem.file.update",
			Name:        "Update File",
			Description: "Replace file contents",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "content", Type: "string", Description: "New content", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.file.append",
			Name:        "Append to File",
			Description: "Append content to a file, creating it when missing",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "content", Type: "string", Description: "Content to append", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.file.touch",
			Name:        "Touch File",
			Description: "Create an empty file or bump an existing file's access count",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.file.delete",
			Name:        "Delete",
			Description: "Delete a file or empty directory",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File or directory path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.file.exists",
			Name:        "Check Existence",
			Description: "Check if a file or directory exists",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File or directory path", Required: true},
			},
			Returns: "boolean",
		},
	}
}

// Create creates a new file
func (b *BasicOps) Create(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	content, _ := params["content"].(string)

	if err := b.FS.CreateFile(path, content); err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{
		"message": fmt.Sprintf("file '%s' created", leaf(path)),
		"path":    path,
		"size":    len(content),
	})
}

// Read reads file contents
func (b *BasicOps) Read(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	content, err := b.FS.ReadFile(path)
	if err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{
		"path":    path,
		"content": content,
		"size":    len(content),
	})
}

// Update replaces file contents
func (b *BasicOps) Update(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	content, ok := params["content"].(string)
	if !ok {
		return Failure("content parameter required")
	}

	if err := b.FS.UpdateFile(path, content); err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{
		"message": fmt.Sprintf("file '%s' updated", leaf(path)),
		"path":    path,
		"size":    len(content),
	})
}

// Append appends content to a file
func (b *BasicOps) Append(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	content, ok := params["content"].(string)
	if !ok {
		return Failure("content parameter required")
	}

	if err := b.FS.AppendFile(path, content); err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{
		"appended": true,
		"path":     path,
	})
}

// Touch creates an empty file or bumps an existing one
func (b *BasicOps) Touch(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	if err := b.FS.Touch(path); err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{
		"touched": true,
		"path":    path,
	})
}

// Delete removes a file or empty directory
func (b *BasicOps) Delete(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	if err := b.FS.Delete(path); err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{
		"message": fmt.Sprintf("'%s' deleted", leaf(path)),
		"deleted": true,
		"path":    path,
	})
}

// Exists checks if a path resolves
func (b *BasicOps) Exists(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	return Success(map[string]interface{}{
		"exists": b.FS.Exists(path),
		"path":   path,
	})
}
