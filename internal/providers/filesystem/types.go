package filesystem

import (
	gopath "path"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/types"
)

// VFSOps provides shared access to the virtual filesystem engine
type VFSOps struct {
	FS *vfs.Filesystem
}

// leaf returns the last segment of a path for user-facing messages
func leaf(path string) string {
	name := gopath.Base(path)
	if name == "." || name == "/" {
		return path
	}
	return name
}

// Success helper
func Success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure helper
func Failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}
