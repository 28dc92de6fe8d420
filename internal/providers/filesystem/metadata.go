package filesystem

import (
	"context"
	"sort"

	"github.com/gabriel-vasile/mimetype"
	"gonum.org/v1/gonum/stat"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/types"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/utils"
)

// MetadataOps handles node metadata and tree statistics
type MetadataOps struct {
	*VFSOps
}

// GetTools returns metadata tool definitions
func (m *MetadataOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.info",
			Name:        "Node Info",
			Description: "Get the full metadata descriptor for a file or directory",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File or directory path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.stats",
			Name:        "Tree Statistics",
			Description: "Aggregate totals across the whole tree plus operation counters",
			Returns:     "object",
		},
		{
			ID:          "filesystem.stats.distribution",
			Name:        "Size Distribution",
			Description: "Statistical distribution of file sizes across the tree",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Start directory, defaults to the root", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.file.hash",
			Name:        "Hash File",
			Description: "Compute a content digest (sha256 or blake2b)",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "algorithm", Type: "string", Description: "sha256 (default) or blake2b", Required: false},
			},
			Returns: "string",
		},
		{
			ID:          "filesystem.file.mime",
			Name:        "Detect MIME Type",
			Description: "Detect the MIME type of a file's content",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "object",
		},
	}
}

// Info returns the metadata descriptor for one node
func (m *MetadataOps) Info(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	info, err := m.FS.Info(path)
	if err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{
		"name":           info.Name,
		"type":           info.Kind,
		"full_path":      info.FullPath,
		"size":           info.Size,
		"size_recursive": info.SizeRecursive,
		"created":        info.Created,
		"modified":       info.Modified,
		"permissions":    info.Permissions,
		"access_count":   info.AccessCount,
	})
}

// Stats returns tree-wide totals
func (m *MetadataOps) Stats(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	stats := m.FS.Stats()

	return Success(map[string]interface{}{
		"current_directory": stats.CurrentDirectory,
		"total_files":       stats.TotalFiles,
		"total_directories": stats.TotalDirectories,
		"total_size_bytes":  stats.TotalSizeBytes,
		"operations":        stats.Operations,
	})
}

// Distribution computes size statistics over every file below a path
func (m *MetadataOps) Distribution(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, _ := params["path"].(string)
	if path == "" {
		path = "/"
	}

	files, err := m.FS.Find(path, "", vfs.KindFile)
	if err != nil {
		return Failure(err.Error())
	}

	sizes := make([]float64, 0, len(files))
	var total int64
	for _, f := range files {
		info, err := m.FS.Info(f)
		if err != nil {
			continue
		}
		sizes = append(sizes, float64(info.Size))
		total += info.Size
	}

	if len(sizes) == 0 {
		return Success(map[string]interface{}{
			"path":  path,
			"count": 0,
			"total": 0,
		})
	}

	sort.Float64s(sizes)
	return Success(map[string]interface{}{
		"path":   path,
		"count":  len(sizes),
		"total":  total,
		"mean":   stat.Mean(sizes, nil),
		"median": stat.Quantile(0.5, stat.Empirical, sizes, nil),
		"stddev": stat.StdDev(sizes, nil),
		"p90":    stat.Quantile(0.9, stat.Empirical, sizes, nil),
		"p99":    stat.Quantile(0.99, stat.Empirical, sizes, nil),
		"min":    sizes[0],
		"max":    sizes[len(sizes)-1],
	})
}

// Hash computes a content digest
func (m *MetadataOps) Hash(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	name, _ := params["algorithm"].(string)
	algorithm, err := utils.ParseAlgorithm(name)
	if err != nil {
		return Failure(err.Error())
	}

	content, err := m.FS.ReadFile(path)
	if err != nil {
		return Failure(err.Error())
	}

	hasher := utils.NewHasher(algorithm)
	digest := hasher.HashString(content)

	return Success(map[string]interface{}{
		"path":      path,
		"algorithm": string(algorithm),
		"hash":      digest,
		"short":     utils.ShortHash(digest),
	})
}

// Mime detects a file's MIME type from its content
func (m *MetadataOps) Mime(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	content, err := m.FS.ReadFile(path)
	if err != nil {
		return Failure(err.Error())
	}

	mtype := mimetype.Detect([]byte(content))

	return Success(map[string]interface{}{
		"path":      path,
		"mime":      mtype.String(),
		"extension": mtype.Extension(),
	})
}
