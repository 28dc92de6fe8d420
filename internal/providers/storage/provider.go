// Package storage provides namespaced key-value storage backed by the
// virtual filesystem. Each value lives as a JSON file under the storage
// base directory, so stored data survives snapshots, replication and
// restarts along with the rest of the tree.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	gopath "path"
	"strings"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/types"
)

// DefaultBase is the virtual directory that holds all namespaces.
const DefaultBase = "/system/storage"

// Provider persists key-value pairs as JSON files on the engine.
type Provider struct {
	fs   *vfs.Filesystem
	base string
}

// NewProvider creates a storage provider rooted at base. An empty base
// falls back to DefaultBase.
func NewProvider(fs *vfs.Filesystem, base string) *Provider {
	if base == "" {
		base = DefaultBase
	}
	return &Provider{fs: fs, base: base}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "storage",
		Name:        "Storage Service",
		Description: "Persistent key-value storage scoped per namespace",
		Category:    types.CategoryStorage,
		Capabilities: []string{
			"read",
			"write",
			"delete",
			"list",
		},
		Tools: []types.Tool{
			{
				ID:          "storage.set",
				Name:        "Set Value",
				Description: "Store a value by key",
				Parameters: []types.Parameter{
					{Name: "key", Type: "string", Description: "Storage key", Required: true},
					{Name: "value", Type: "any", Description: "Value to store", Required: true},
				},
				Returns: "boolean",
			},
			{
				ID:          "storage.get",
				Name:        "Get Value",
				Description: "Retrieve a value by key",
				Parameters: []types.Parameter{
					{Name: "key", Type: "string", Description: "Storage key", Required: true},
				},
				Returns: "any",
			},
			{
				ID:          "storage.remove",
				Name:        "Remove Value",
				Description: "Delete a value by key",
				Parameters: []types.Parameter{
					{Name: "key", Type: "string", Description: "Storage key", Required: true},
				},
				Returns: "boolean",
			},
			{
				ID:          "storage.list",
				Name:        "List Keys",
				Description: "List all keys in this namespace",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
			{
				ID:          "storage.clear",
				Name:        "Clear All",
				Description: "Remove all keys in this namespace",
				Parameters:  []types.Parameter{},
				Returns:     "boolean",
			},
		},
	}
}

// Execute runs a storage operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	if appCtx == nil || appCtx.Namespace == nil || *appCtx.Namespace == "" {
		return failure("namespace required for storage operations")
	}
	ns := *appCtx.Namespace
	if err := validateNamespace(ns); err != nil {
		return failure(err.Error())
	}

	switch toolID {
	case "storage.set":
		return p.set(ns, params)
	case "storage.get":
		return p.get(ns, params)
	case "storage.remove":
		return p.remove(ns, params)
	case "storage.list":
		return p.list(ns)
	case "storage.clear":
		return p.clear(ns)
	default:
		return failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (p *Provider) set(ns string, params map[string]interface{}) (*types.Result, error) {
	key, ok := params["key"].(string)
	if !ok || key == "" {
		return failure("key parameter required")
	}
	if strings.Contains(key, "/") {
		return failure("key must not contain '/'")
	}

	value, ok := params["value"]
	if !ok {
		return failure("value parameter required")
	}

	data, err := json.Marshal(value)
	if err != nil {
		return failure(fmt.Sprintf("failed to serialize value: %v", err))
	}

	path := p.keyPath(ns, key)
	if err := p.ensureDir(gopath.Dir(path)); err != nil {
		return failure(err.Error())
	}

	if p.fs.Exists(path) {
		err = p.fs.UpdateFile(path, string(data))
	} else {
		err = p.fs.CreateFile(path, string(data))
	}
	if err != nil {
		return failure(fmt.Sprintf("write failed: %v", err))
	}

	return success(map[string]interface{}{"stored": true, "key": key})
}

func (p *Provider) get(ns string, params map[string]interface{}) (*types.Result, error) {
	key, ok := params["key"].(string)
	if !ok || key == "" {
		return failure("key parameter required")
	}

	content, err := p.fs.ReadFile(p.keyPath(ns, key))
	if err != nil {
		if vfs.StatusOf(err) == vfs.StatusNotFound {
			return success(map[string]interface{}{"value": nil})
		}
		return failure(fmt.Sprintf("read failed: %v", err))
	}

	var value interface{}
	if err := json.Unmarshal([]byte(content), &value); err != nil {
		return failure(fmt.Sprintf("failed to deserialize: %v", err))
	}

	return success(map[string]interface{}{"value": value})
}

func (p *Provider) remove(ns string, params map[string]interface{}) (*types.Result, error) {
	key, ok := params["key"].(string)
	if !ok || key == "" {
		return failure("key parameter required")
	}

	if err := p.fs.Delete(p.keyPath(ns, key)); err != nil {
		if vfs.StatusOf(err) == vfs.StatusNotFound {
			return success(map[string]interface{}{"deleted": false, "key": key})
		}
		return failure(fmt.Sprintf("delete failed: %v", err))
	}

	return success(map[string]interface{}{"deleted": true, "key": key})
}

func (p *Provider) list(ns string) (*types.Result, error) {
	keys, err := p.keys(ns)
	if err != nil {
		return failure(err.Error())
	}
	return success(map[string]interface{}{"keys": keys, "count": len(keys)})
}

func (p *Provider) clear(ns string) (*types.Result, error) {
	keys, err := p.keys(ns)
	if err != nil {
		return failure(err.Error())
	}

	dir := p.nsDir(ns)
	for _, key := range keys {
		if err := p.fs.Delete(gopath.Join(dir, key+".json")); err != nil {
			return failure(fmt.Sprintf("clear failed at '%s': %v", key, err))
		}
	}

	// Drop the now empty namespace directory; a fresh set recreates it.
	if p.fs.Exists(dir) {
		if err := p.fs.Delete(dir); err != nil {
			return failure(fmt.Sprintf("clear failed: %v", err))
		}
	}

	return success(map[string]interface{}{"cleared": true, "count": len(keys)})
}

// keys lists the stored key names for a namespace. A namespace that was
// never written to is an empty list, not an error.
func (p *Provider) keys(ns string) ([]string, error) {
	entries, err := p.fs.ListDirectory(p.nsDir(ns))
	if err != nil {
		if vfs.StatusOf(err) == vfs.StatusNotFound {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list failed: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Kind != vfs.KindFile {
			continue
		}
		keys = append(keys, strings.TrimSuffix(entry.Name, ".json"))
	}
	return keys, nil
}

// validateNamespace keeps every namespace a single directory segment
// under the base. The namespace arrives from request context, so path
// separators or dot segments would let storage tools write anywhere
// in the tree.
func validateNamespace(ns string) error {
	if strings.ContainsAny(ns, `/\`) || ns == "." || ns == ".." {
		return fmt.Errorf("invalid namespace %q", ns)
	}
	return nil
}

func (p *Provider) nsDir(ns string) string {
	return gopath.Join(p.base, ns)
}

func (p *Provider) keyPath(ns, key string) string {
	return gopath.Join(p.nsDir(ns), key+".json")
}

// ensureDir creates every missing segment of a virtual directory path.
func (p *Provider) ensureDir(path string) error {
	if path == "/" || p.fs.Exists(path) {
		return nil
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	current := ""
	for _, segment := range segments {
		current += "/" + segment
		if p.fs.Exists(current) {
			continue
		}
		if err := p.fs.CreateDirectory(current); err != nil {
			return fmt.Errorf("cannot prepare storage directory: %w", err)
		}
	}
	return nil
}

func success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

func failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}
