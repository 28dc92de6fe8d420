package filesystem

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/saintfish/chardet"

	"github.com/virtuoslabs/virtuos/backend/internal/shared/types"
)

// FormatsOps handles structured file format operations
type FormatsOps struct {
	*VFSOps
}

// GetTools returns format operation tool definitions
func (f *FormatsOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.json.read",
			Name:        "Read JSON",
			Description: "Parse a JSON file",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.json.write",
			Name:        "Write JSON",
			Description: "Write data as an indented JSON file",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "data", Type: "object", Description: "Data to write", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID:          "filesystem.json.merge",
			Name:        "Merge JSON Files",
			Description: "Merge multiple JSON object files into one",
			Parameters: []types.Parameter{
				{Name: "files", Type: "array", Description: "Array of file paths", Required: true},
				{Name: "output", Type: "string", Description: "Output file path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.yaml.read",
			Name:        "Read YAML",
			Description: "Parse a YAML file",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.yaml.write",
			Name:        "Write YAML",
			Description: "Write data as a YAML file",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "data", Type: "object", Description: "Data to write", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID:          "filesystem.toml.read",
			Name:        "Read TOML",
			Description: "Parse a TOML file",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.toml.write",
			Name:        "Write TOML",
			Description: "Write data as a TOML file",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "data", Type: "object", Description: "Data to write", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID:          "filesystem.csv.read",
			Name:        "Read CSV",
			Description: "Parse a CSV file to an array of objects",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "has_header", Type: "boolean", Description: "First row is header (default true)", Required: false},
			},
			Returns: "array",
		},
		{
			ID:          "filesystem.csv.write",
			Name:        "Write CSV",
			Description: "Write an array of objects as CSV",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "data", Type: "array", Description: "Array of objects", Required: true},
				{Name: "headers", Type: "array", Description: "Column headers (optional)", Required: false},
			},
			Returns: "boolean",
		},
		{
			ID:          "filesystem.csv.to_json",
			Name:        "CSV to JSON",
			Description: "Convert a CSV file to a JSON file",
			Parameters: []types.Parameter{
				{Name: "input", Type: "string", Description: "CSV file path", Required: true},
				{Name: "output", Type: "string", Description: "JSON file path", Required: true},
				{Name: "has_header", Type: "boolean", Description: "CSV has header (default true)", Required: false},
			},
			Returns: "boolean",
		},
		{
			ID:          "filesystem.encoding.detect",
			Name:        "Detect Encoding",
			Description: "Detect the character encoding of a file's content",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "object",
		},
	}
}

// write stores content at a path, creating the file when missing.
func (f *FormatsOps) write(path, content string) error {
	if f.FS.Exists(path) {
		return f.FS.UpdateFile(path, content)
	}
	return f.FS.CreateFile(path, content)
}

// parseJSON uses sonic for payloads >10KB, encoding/json for smaller
func parseJSON(data []byte, v interface{}) error {
	if len(data) > 10240 {
		return sonic.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// encodeJSON uses sonic for objects with many keys
func encodeJSON(v interface{}, keys int) ([]byte, error) {
	if keys > 100 {
		return sonic.MarshalIndent(v, "", "  ")
	}
	return json.MarshalIndent(v, "", "  ")
}

// JSONRead parses a JSON file
func (f *FormatsOps) JSONRead(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	content, err := f.FS.ReadFile(path)
	if err != nil {
		return Failure(err.Error())
	}

	var parsed interface{}
	if err := parseJSON([]byte(content), &parsed); err != nil {
		return Failure(fmt.Sprintf("JSON parse error: %v", err))
	}

	return Success(map[string]interface{}{"path": path, "data": parsed})
}

// JSONWrite writes data as an indented JSON file
func (f *FormatsOps) JSONWrite(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	data, ok := params["data"]
	if !ok {
		return Failure("data parameter required")
	}

	keys := 0
	if m, ok := data.(map[string]interface{}); ok {
		keys = len(m)
	}

	jsonData, err := encodeJSON(data, keys)
	if err != nil {
		return Failure(fmt.Sprintf("JSON encoding error: %v", err))
	}

	if err := f.write(path, string(jsonData)); err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{"written": true, "path": path, "size": len(jsonData)})
}

// JSONMerge merges multiple JSON object files into one
func (f *FormatsOps) JSONMerge(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	filesParam, ok := params["files"].([]interface{})
	if !ok || len(filesParam) == 0 {
		return Failure("files array required")
	}

	output, ok := params["output"].(string)
	if !ok || output == "" {
		return Failure("output parameter required")
	}

	merged := make(map[string]interface{})

	// Read and merge all files; unreadable or non-object files are skipped
	for _, fileParam := range filesParam {
		filePath, ok := fileParam.(string)
		if !ok {
			continue
		}

		content, err := f.FS.ReadFile(filePath)
		if err != nil {
			continue
		}

		var parsed map[string]interface{}
		if err := parseJSON([]byte(content), &parsed); err != nil {
			continue
		}

		for key, value := range parsed {
			merged[key] = value
		}
	}

	jsonData, err := encodeJSON(merged, len(merged))
	if err != nil {
		return Failure(fmt.Sprintf("JSON encoding error: %v", err))
	}

	if err := f.write(output, string(jsonData)); err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{"written": true, "path": output, "keys": len(merged), "size": len(jsonData)})
}

// YAMLRead parses a YAML file
func (f *FormatsOps) YAMLRead(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	content, err := f.FS.ReadFile(path)
	if err != nil {
		return Failure(err.Error())
	}

	var parsed interface{}
	if err := yaml.Unmarshal([]byte(content), &parsed); err != nil {
		return Failure(fmt.Sprintf("YAML parse error: %v", err))
	}

	return Success(map[string]interface{}{"path": path, "data": parsed})
}

// YAMLWrite writes data as a YAML file
func (f *FormatsOps) YAMLWrite(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	data, ok := params["data"]
	if !ok {
		return Failure("data parameter required")
	}

	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return Failure(fmt.Sprintf("YAML encoding error: %v", err))
	}

	if err := f.write(path, string(yamlData)); err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{"written": true, "path": path, "size": len(yamlData)})
}

// TOMLRead parses a TOML file
func (f *FormatsOps) TOMLRead(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	content, err := f.FS.ReadFile(path)
	if err != nil {
		return Failure(err.Error())
	}

	var parsed map[string]interface{}
	if err := toml.Unmarshal([]byte(content), &parsed); err != nil {
		return Failure(fmt.Sprintf("TOML parse error: %v", err))
	}

	return Success(map[string]interface{}{"path": path, "data": parsed})
}

// TOMLWrite writes data as a TOML file
func (f *FormatsOps) TOMLWrite(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	data, ok := params["data"]
	if !ok {
		return Failure("data parameter required")
	}

	tomlData, err := toml.Marshal(data)
	if err != nil {
		return Failure(fmt.Sprintf("TOML encoding error: %v", err))
	}

	if err := f.write(path, string(tomlData)); err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{"written": true, "path": path, "size": len(tomlData)})
}

// CSVRead parses a CSV file
func (f *FormatsOps) CSVRead(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	hasHeader := true
	if h, ok := params["has_header"].(bool); ok {
		hasHeader = h
	}

	content, err := f.FS.ReadFile(path)
	if err != nil {
		return Failure(err.Error())
	}

	headers, rows, err := parseCSV(content, hasHeader)
	if err != nil {
		return Failure(fmt.Sprintf("CSV parse error: %v", err))
	}

	return Success(map[string]interface{}{"path": path, "rows": rows, "count": len(rows), "headers": headers})
}

// CSVWrite writes an array of objects as CSV
func (f *FormatsOps) CSVWrite(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	dataArr, ok := params["data"].([]interface{})
	if !ok || len(dataArr) == 0 {
		return Failure("data array required")
	}

	// Extract headers
	var headers []string
	if headersParam, ok := params["headers"].([]interface{}); ok {
		for _, h := range headersParam {
			if hStr, ok := h.(string); ok {
				headers = append(headers, hStr)
			}
		}
	} else {
		// Auto-detect from first row
		if firstRow, ok := dataArr[0].(map[string]interface{}); ok {
			for key := range firstRow {
				headers = append(headers, key)
			}
		}
	}

	if len(headers) == 0 {
		return Failure("no headers found")
	}

	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return Failure(fmt.Sprintf("CSV write error: %v", err))
	}

	for _, rowData := range dataArr {
		rowMap, ok := rowData.(map[string]interface{})
		if !ok {
			continue
		}

		row := make([]string, len(headers))
		for i, header := range headers {
			if val, ok := rowMap[header]; ok {
				row[i] = fmt.Sprintf("%v", val)
			}
		}

		if err := writer.Write(row); err != nil {
			return Failure(fmt.Sprintf("CSV write error: %v", err))
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return Failure(fmt.Sprintf("CSV flush error: %v", err))
	}

	if err := f.write(path, buf.String()); err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{"written": true, "path": path, "rows": len(dataArr)})
}

// CSVToJSON converts a CSV file to a JSON file
func (f *FormatsOps) CSVToJSON(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	input, ok := params["input"].(string)
	if !ok || input == "" {
		return Failure("input parameter required")
	}

	output, ok := params["output"].(string)
	if !ok || output == "" {
		return Failure("output parameter required")
	}

	hasHeader := true
	if h, ok := params["has_header"].(bool); ok {
		hasHeader = h
	}

	content, err := f.FS.ReadFile(input)
	if err != nil {
		return Failure(err.Error())
	}

	_, rows, err := parseCSV(content, hasHeader)
	if err != nil {
		return Failure(fmt.Sprintf("CSV parse error: %v", err))
	}
	if len(rows) == 0 {
		return Failure("empty CSV file")
	}

	jsonData, err := encodeJSON(rows, len(rows))
	if err != nil {
		return Failure(fmt.Sprintf("JSON encoding error: %v", err))
	}

	if err := f.write(output, string(jsonData)); err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{"converted": true, "input": input, "output": output, "rows": len(rows)})
}

// DetectEncoding detects the character encoding of a file's content
func (f *FormatsOps) DetectEncoding(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	content, err := f.FS.ReadFile(path)
	if err != nil {
		return Failure(err.Error())
	}
	if content == "" {
		return Failure("cannot detect encoding of an empty file")
	}

	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest([]byte(content))
	if err != nil {
		return Failure(fmt.Sprintf("detection failed: %v", err))
	}

	return Success(map[string]interface{}{
		"path":       path,
		"charset":    result.Charset,
		"language":   result.Language,
		"confidence": result.Confidence,
	})
}

// parseCSV splits CSV content into headers plus row maps
func parseCSV(content string, hasHeader bool) ([]string, []map[string]interface{}, error) {
	reader := csv.NewReader(strings.NewReader(content))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) == 0 {
		return nil, []map[string]interface{}{}, nil
	}

	var headers []string
	startRow := 0

	if hasHeader {
		headers = records[0]
		startRow = 1
	} else {
		// Generate headers: col0, col1, ...
		for i := 0; i < len(records[0]); i++ {
			headers = append(headers, fmt.Sprintf("col%d", i))
		}
	}

	rows := []map[string]interface{}{}
	for i := startRow; i < len(records); i++ {
		row := make(map[string]interface{})
		for j, value := range records[i] {
			if j < len(headers) {
				row[headers[j]] = value
			}
		}
		rows = append(rows, row)
	}

	return headers, rows, nil
}
