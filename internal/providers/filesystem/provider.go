package filesystem

import (
	"context"
	"fmt"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/types"
)

// Provider exposes the virtual filesystem engine as a tool service
type Provider struct {
	basic      *BasicOps
	directory  *DirectoryOps
	operations *OperationsOps
	search     *SearchOps
	metadata   *MetadataOps
	formats    *FormatsOps
	host       *HostOps
}

// NewProvider creates a filesystem provider over an engine instance.
// hostRoot confines host imports and exports; empty disables them.
func NewProvider(fs *vfs.Filesystem, hostRoot string) *Provider {
	ops := &VFSOps{FS: fs}
	return &Provider{
		basic:      &BasicOps{ops},
		directory:  &DirectoryOps{ops},
		operations: &OperationsOps{ops},
		search:     &SearchOps{ops},
		metadata:   &MetadataOps{ops},
		formats:    &FormatsOps{ops},
		host:       &HostOps{VFSOps: ops, Root: hostRoot},
	}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	tools := []types.Tool{}
	tools = append(tools, p.basic.GetTools()...)
	tools = append(tools, p.directory.GetTools()...)
	tools = append(tools, p.operations.GetTools()...)
	tools = append(tools, p.search.GetTools()...)
	tools = append(tools, p.metadata.GetTools()...)
	tools = append(tools, p.formats.GetTools()...)
	tools = append(tools, p.host.GetTools()...)

	return types.Service{
		ID:          "filesystem",
		Name:        "Filesystem Service",
		Description: "Virtual file tree operations: files, directories, search, formats and host bridging",
		Category:    types.CategoryFilesystem,
		Capabilities: []string{
			"create",
			"read",
			"update",
			"delete",
			"navigate",
			"search",
			"glob",
			"formats",
			"hash",
			"host_bridge",
		},
		Tools: tools,
	}
}

// Execute runs a filesystem tool
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	// Basic file operations
	case "filesystem.file.create":
		return p.basic.Create(ctx, params, appCtx)
	case "filesystem.file.read":
		return p.basic.Read(ctx, params, appCtx)
	case "filesystem.file.update":
		return p.basic.Update(ctx, params, appCtx)
	case "filesystem.file.append":
		return p.basic.Append(ctx, params, appCtx)
	case "filesystem.file.touch":
		return p.basic.Touch(ctx, params, appCtx)
	case "filesystem.file.delete":
		return p.basic.Delete(ctx, params, appCtx)
	case "filesystem.file.exists":
		return p.basic.Exists(ctx, params, appCtx)

	// Directory operations
	case "filesystem.dir.create":
		return p.directory.Create(ctx, params, appCtx)
	case "filesystem.dir.list":
		return p.directory.List(ctx, params, appCtx)
	case "filesystem.dir.change":
		return p.directory.Change(ctx, params, appCtx)
	case "filesystem.dir.current":
		return p.directory.Current(ctx, params, appCtx)
	case "filesystem.dir.tree":
		return p.directory.Tree(ctx, params, appCtx)

	// Transfers
	case "filesystem.copy":
		return p.operations.Copy(ctx, params, appCtx)
	case "filesystem.move":
		return p.operations.Move(ctx, params, appCtx)

	// Search
	case "filesystem.find":
		return p.search.Find(ctx, params, appCtx)
	case "filesystem.search":
		return p.search.Search(ctx, params, appCtx)
	case "filesystem.glob":
		return p.search.Glob(ctx, params, appCtx)

	// Metadata
	case "filesystem.info":
		return p.metadata.Info(ctx, params, appCtx)
	case "filesystem.stats":
		return p.metadata.Stats(ctx, params, appCtx)
	case "filesystem.stats.distribution":
		return p.metadata.Distribution(ctx, params, appCtx)
	case "filesystem.file.hash":
		return p.metadata.Hash(ctx, params, appCtx)
	case "filesystem.file.mime":
		return p.metadata.Mime(ctx, params, appCtx)

	// Formats
	case "filesystem.json.read":
		return p.formats.JSONRead(ctx, params, appCtx)
	case "filesystem.json.write":
		return p.formats.JSONWrite(ctx, params, appCtx)
	case "filesystem.json.merge":
		return p.formats.JSONMerge(ctx, params, appCtx)
	case "filesystem.yaml.read":
		return p.formats.YAMLRead(ctx, params, appCtx)
	case "filesystem.yaml.write":
		return p.formats.YAMLWrite(ctx, params, appCtx)
	case "filesystem.toml.read":
		return p.formats.TOMLRead(ctx, params, appCtx)
	case "filesystem.toml.write":
		return p.formats.TOMLWrite(ctx, params, appCtx)
	case "filesystem.csv.read":
		return p.formats.CSVRead(ctx, params, appCtx)
	case "filesystem.csv.write":
		return p.formats.CSVWrite(ctx, params, appCtx)
	case "filesystem.csv.to_json":
		return p.formats.CSVToJSON(ctx, params, appCtx)
	case "filesystem.encoding.detect":
		return p.formats.DetectEncoding(ctx, params, appCtx)

	// Host bridge
	case "filesystem.host.import":
		return p.host.Import(ctx, params, appCtx)
	case "filesystem.host.export":
		return p.host.Export(ctx, params, appCtx)

	default:
		return Failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}
