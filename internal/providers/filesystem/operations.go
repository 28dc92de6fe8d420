package filesystem

import (
	"context"
	"errors"
	"fmt"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/types"
)

// OperationsOps handles file transfer operations (copy, move)
type OperationsOps struct {
	*VFSOps
}

// GetTools returns transfer operation tool definitions
func (o *OperationsOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.copy",
			Name:        "Copy File",
			Description: "Copy a file to a new path",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Source file path", Required: true},
				{Name: "destination", Type: "string", Description: "Destination file path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.move",
			Name:        "Move File",
			Description: "Move or rename a file",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Source file path", Required: true},
				{Name: "destination", Type: "string", Description: "Destination file path", Required: true},
			},
			Returns: "object",
		},
	}
}

// Copy duplicates a file
func (o *OperationsOps) Copy(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	source, ok := params["source"].(string)
	if !ok || source == "" {
		return Failure("source parameter required")
	}

	destination, ok := params["destination"].(string)
	if !ok || destination == "" {
		return Failure("destination parameter required")
	}

	if err := o.FS.Copy(source, destination); err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{
		"message":     fmt.Sprintf("copied '%s' to '%s'", leaf(source), leaf(destination)),
		"copied":      true,
		"source":      source,
		"destination": destination,
	})
}

// Move copies a file then removes the original. A copy that lands but
// cannot shed its source is reported as a partial move, with both
// nodes kept.
func (o *OperationsOps) Move(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	source, ok := params["source"].(string)
	if !ok || source == "" {
		return Failure("source parameter required")
	}

	destination, ok := params["destination"].(string)
	if !ok || destination == "" {
		return Failure("destination parameter required")
	}

	if err := o.FS.Move(source, destination); err != nil {
		var moveErr *vfs.MoveError
		if errors.As(err, &moveErr) {
			msg := moveErr.Error()
			return &types.Result{
				Success: false,
				Data: map[string]interface{}{
					"partial":     true,
					"source":      source,
					"destination": destination,
				},
				Error: &msg,
			}, nil
		}
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{
		"message":     fmt.Sprintf("moved '%s' to '%s'", leaf(source), leaf(destination)),
		"moved":       true,
		"source":      source,
		"destination": destination,
	})
}
