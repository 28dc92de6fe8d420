package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	return NewProvider(vfs.New(), t.TempDir())
}

func exec(t *testing.T, p *Provider, toolID string, params map[string]interface{}) map[string]interface{} {
	t.Helper()
	result, err := p.Execute(context.Background(), toolID, params, nil)
	if err != nil {
		t.Fatalf("%s returned error: %v", toolID, err)
	}
	if !result.Success {
		t.Fatalf("%s failed: %v", toolID, *result.Error)
	}
	return result.Data
}

func execFail(t *testing.T, p *Provider, toolID string, params map[string]interface{}) string {
	t.Helper()
	result, err := p.Execute(context.Background(), toolID, params, nil)
	if err != nil {
		t.Fatalf("%s returned error: %v", toolID, err)
	}
	if result.Success {
		t.Fatalf("%s unexpectedly succeeded", toolID)
	}
	return *result.Error
}

func TestFileLifecycle(t *testing.T) {
	p := newTestProvider(t)

	data := exec(t, p, "filesystem.file.create", map[string]interface{}{
		"path": "/notes.txt", "content": "hello",
	})
	if data["message"].(string) != "file 'notes.txt' created" {
		t.Errorf("unexpected message: %v", data["message"])
	}

	data = exec(t, p, "filesystem.file.exists", map[string]interface{}{"path": "/notes.txt"})
	if !data["exists"].(bool) {
		t.Error("file should exist")
	}

	data = exec(t, p, "filesystem.file.read", map[string]interface{}{"path": "/notes.txt"})
	if data["content"].(string) != "hello" {
		t.Errorf("expected 'hello', got %v", data["content"])
	}

	exec(t, p, "filesystem.file.update", map[string]interface{}{
		"path": "/notes.txt", "content": "rewritten",
	})
	exec(t, p, "filesystem.file.append", map[string]interface{}{
		"path": "/notes.txt", "content": " twice",
	})

	data = exec(t, p, "filesystem.file.read", map[string]interface{}{"path": "/notes.txt"})
	if data["content"].(string) != "rewritten twice" {
		t.Errorf("expected 'rewritten twice', got %v", data["content"])
	}

	exec(t, p, "filesystem.file.delete", map[string]interface{}{"path": "/notes.txt"})
	data = exec(t, p, "filesystem.file.exists", map[string]interface{}{"path": "/notes.txt"})
	if data["exists"].(bool) {
		t.Error("file should be gone after delete")
	}
}

func TestFileCreateRejections(t *testing.T) {
	p := newTestProvider(t)

	msg := execFail(t, p, "filesystem.file.create", map[string]interface{}{"path": "/bad:name.txt"})
	if !strings.Contains(msg, "forbidden") {
		t.Errorf("expected forbidden-character message, got %q", msg)
	}

	exec(t, p, "filesystem.file.create", map[string]interface{}{"path": "/dup.txt"})
	msg = execFail(t, p, "filesystem.file.create", map[string]interface{}{"path": "/dup.txt"})
	if !strings.Contains(msg, "already exists") {
		t.Errorf("expected already-exists message, got %q", msg)
	}

	msg = execFail(t, p, "filesystem.file.create", map[string]interface{}{"path": "/missing/child.txt"})
	if !strings.Contains(msg, "parent directory does not exist") {
		t.Errorf("expected missing-parent message, got %q", msg)
	}

	execFail(t, p, "filesystem.file.create", map[string]interface{}{})
}

func TestTouchBumpsExisting(t *testing.T) {
	p := newTestProvider(t)

	exec(t, p, "filesystem.file.touch", map[string]interface{}{"path": "/empty.txt"})
	data := exec(t, p, "filesystem.file.read", map[string]interface{}{"path": "/empty.txt"})
	if data["content"].(string) != "" {
		t.Errorf("touched file should be empty, got %v", data["content"])
	}

	exec(t, p, "filesystem.file.touch", map[string]interface{}{"path": "/empty.txt"})
	info := exec(t, p, "filesystem.info", map[string]interface{}{"path": "/empty.txt"})
	// One bump from the read, one from the second touch.
	if info["access_count"].(uint64) != 2 {
		t.Errorf("expected access count 2, got %v", info["access_count"])
	}
}

func TestDirectoryOperations(t *testing.T) {
	p := newTestProvider(t)

	exec(t, p, "filesystem.dir.create", map[string]interface{}{"path": "/docs"})
	exec(t, p, "filesystem.file.create", map[string]interface{}{"path": "/docs/a.txt", "content": "aa"})
	exec(t, p, "filesystem.file.create", map[string]interface{}{"path": "/docs/b.txt", "content": "b"})

	data := exec(t, p, "filesystem.dir.list", map[string]interface{}{"path": "/docs"})
	if data["count"].(int) != 2 {
		t.Fatalf("expected 2 entries, got %v", data["count"])
	}
	entries := data["entries"].([]vfs.Entry)
	if entries[0].Name != "a.txt" || entries[1].Name != "b.txt" {
		t.Errorf("entries not sorted by name: %v, %v", entries[0].Name, entries[1].Name)
	}

	data = exec(t, p, "filesystem.dir.change", map[string]interface{}{"path": "docs"})
	if data["path"].(string) != "/docs" {
		t.Errorf("expected /docs, got %v", data["path"])
	}

	data = exec(t, p, "filesystem.dir.current", nil)
	if data["path"].(string) != "/docs" {
		t.Errorf("cursor should be at /docs, got %v", data["path"])
	}

	data = exec(t, p, "filesystem.dir.tree", map[string]interface{}{"path": "/"})
	tree := data["tree"].(string)
	if !strings.Contains(tree, "└── ") || !strings.Contains(tree, "docs") {
		t.Errorf("unexpected tree rendering:\n%s", tree)
	}

	execFail(t, p, "filesystem.dir.list", map[string]interface{}{"path": "/docs/a.txt"})
}

func TestCopyAndMove(t *testing.T) {
	p := newTestProvider(t)

	exec(t, p, "filesystem.file.create", map[string]interface{}{"path": "/src.txt", "content": "payload"})

	exec(t, p, "filesystem.copy", map[string]interface{}{"source": "/src.txt", "destination": "/copy.txt"})
	data := exec(t, p, "filesystem.file.exists", map[string]interface{}{"path": "/src.txt"})
	if !data["exists"].(bool) {
		t.Error("copy should keep the source")
	}

	exec(t, p, "filesystem.move", map[string]interface{}{"source": "/copy.txt", "destination": "/moved.txt"})
	data = exec(t, p, "filesystem.file.exists", map[string]interface{}{"path": "/copy.txt"})
	if data["exists"].(bool) {
		t.Error("move should remove the source")
	}

	data = exec(t, p, "filesystem.file.read", map[string]interface{}{"path": "/moved.txt"})
	if data["content"].(string) != "payload" {
		t.Errorf("moved content mismatch: %v", data["content"])
	}

	msg := execFail(t, p, "filesystem.move", map[string]interface{}{"source": "/nope.txt", "destination": "/x.txt"})
	if !strings.Contains(msg, "failed to read source") {
		t.Errorf("expected read-stage failure, got %q", msg)
	}
}

func TestSearchTools(t *testing.T) {
	p := newTestProvider(t)

	exec(t, p, "filesystem.dir.create", map[string]interface{}{"path": "/src"})
	exec(t, p, "filesystem.dir.create", map[string]interface{}{"path": "/src/report"})
	exec(t, p, "filesystem.file.create", map[string]interface{}{"path": "/src/report.txt", "content": "quarterly numbers"})
	exec(t, p, "filesystem.file.create", map[string]interface{}{"path": "/src/report/summary.md", "content": "see report.txt"})

	data := exec(t, p, "filesystem.find", map[string]interface{}{"pattern": "report", "path": "/"})
	if data["count"].(int) != 2 {
		t.Errorf("expected 2 matches, got %v: %v", data["count"], data["matches"])
	}

	data = exec(t, p, "filesystem.find", map[string]interface{}{"pattern": "report", "path": "/", "kind": "directory"})
	matches := data["matches"].([]string)
	if len(matches) != 1 || matches[0] != "/src/report" {
		t.Errorf("kind filter failed: %v", matches)
	}

	data = exec(t, p, "filesystem.search", map[string]interface{}{"pattern": "quarterly", "content": true})
	found := data["matches"].([]vfs.Match)
	if len(found) != 1 || found[0].MatchType != vfs.MatchContent {
		t.Errorf("content search failed: %+v", found)
	}

	data = exec(t, p, "filesystem.glob", map[string]interface{}{"pattern": "**/*.md", "path": "/"})
	globbed := data["matches"].([]string)
	if len(globbed) != 1 || globbed[0] != "/src/report/summary.md" {
		t.Errorf("glob failed: %v", globbed)
	}

	execFail(t, p, "filesystem.find", map[string]interface{}{"pattern": "x", "kind": "link"})
}

func TestMetadataTools(t *testing.T) {
	p := newTestProvider(t)

	exec(t, p, "filesystem.dir.create", map[string]interface{}{"path": "/data"})
	exec(t, p, "filesystem.file.create", map[string]interface{}{"path": "/data/small.txt", "content": "ab"})
	exec(t, p, "filesystem.file.create", map[string]interface{}{"path": "/data/large.txt", "content": strings.Repeat("x", 10)})

	info := exec(t, p, "filesystem.info", map[string]interface{}{"path": "/data"})
	if info["type"].(vfs.Kind) != vfs.KindDirectory {
		t.Errorf("expected directory kind, got %v", info["type"])
	}
	if info["size_recursive"].(int64) != 12 {
		t.Errorf("expected recursive size 12, got %v", info["size_recursive"])
	}

	stats := exec(t, p, "filesystem.stats", nil)
	if stats["total_files"].(int) != 2 || stats["total_directories"].(int) != 1 {
		t.Errorf("unexpected totals: %v files, %v dirs", stats["total_files"], stats["total_directories"])
	}

	dist := exec(t, p, "filesystem.stats.distribution", nil)
	if dist["count"].(int) != 2 {
		t.Fatalf("expected 2 sampled files, got %v", dist["count"])
	}
	if mean := dist["mean"].(float64); mean != 6 {
		t.Errorf("expected mean 6, got %v", mean)
	}
	if dist["min"].(float64) != 2 || dist["max"].(float64) != 10 {
		t.Errorf("unexpected min/max: %v/%v", dist["min"], dist["max"])
	}
}

func TestHashTool(t *testing.T) {
	p := newTestProvider(t)

	exec(t, p, "filesystem.file.create", map[string]interface{}{"path": "/h.txt", "content": "hello"})

	data := exec(t, p, "filesystem.file.hash", map[string]interface{}{"path": "/h.txt"})
	sha := data["hash"].(string)
	if sha != "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824" {
		t.Errorf("unexpected sha256: %s", sha)
	}
	if data["short"].(string) != sha[:8] {
		t.Errorf("short hash mismatch: %v", data["short"])
	}

	data = exec(t, p, "filesystem.file.hash", map[string]interface{}{"path": "/h.txt", "algorithm": "blake2b"})
	if blake := data["hash"].(string); len(blake) != 64 || blake == sha {
		t.Errorf("unexpected blake2b digest: %s", blake)
	}

	msg := execFail(t, p, "filesystem.file.hash", map[string]interface{}{"path": "/h.txt", "algorithm": "md5"})
	if !strings.Contains(msg, "unsupported hash algorithm") {
		t.Errorf("expected unsupported-algorithm message, got %q", msg)
	}
}

func TestMimeTool(t *testing.T) {
	p := newTestProvider(t)

	exec(t, p, "filesystem.file.create", map[string]interface{}{
		"path": "/config.json", "content": `{"name": "virtuos"}`,
	})

	data := exec(t, p, "filesystem.file.mime", map[string]interface{}{"path": "/config.json"})
	if mime := data["mime"].(string); !strings.HasPrefix(mime, "application/json") {
		t.Errorf("expected JSON mime, got %s", mime)
	}
}

func TestFormatRoundTrips(t *testing.T) {
	p := newTestProvider(t)

	payload := map[string]interface{}{"name": "virtuos", "port": 8000}

	exec(t, p, "filesystem.json.write", map[string]interface{}{"path": "/cfg.json", "data": payload})
	data := exec(t, p, "filesystem.json.read", map[string]interface{}{"path": "/cfg.json"})
	parsed := data["data"].(map[string]interface{})
	if parsed["name"].(string) != "virtuos" {
		t.Errorf("json round trip lost name: %v", parsed)
	}

	exec(t, p, "filesystem.yaml.write", map[string]interface{}{"path": "/cfg.yaml", "data": payload})
	data = exec(t, p, "filesystem.yaml.read", map[string]interface{}{"path": "/cfg.yaml"})
	if data["data"] == nil {
		t.Error("yaml round trip returned nothing")
	}

	exec(t, p, "filesystem.toml.write", map[string]interface{}{"path": "/cfg.toml", "data": payload})
	data = exec(t, p, "filesystem.toml.read", map[string]interface{}{"path": "/cfg.toml"})
	tomlParsed := data["data"].(map[string]interface{})
	if tomlParsed["name"].(string) != "virtuos" {
		t.Errorf("toml round trip lost name: %v", tomlParsed)
	}
}

func TestJSONMerge(t *testing.T) {
	p := newTestProvider(t)

	exec(t, p, "filesystem.file.create", map[string]interface{}{
		"path": "/a.json", "content": `{"alpha": 1, "shared": "a"}`,
	})
	exec(t, p, "filesystem.file.create", map[string]interface{}{
		"path": "/b.json", "content": `{"beta": 2, "shared": "b"}`,
	})

	data := exec(t, p, "filesystem.json.merge", map[string]interface{}{
		"files":  []interface{}{"/a.json", "/b.json", "/missing.json"},
		"output": "/merged.json",
	})
	if data["keys"].(int) != 3 {
		t.Errorf("expected 3 merged keys, got %v", data["keys"])
	}

	read := exec(t, p, "filesystem.json.read", map[string]interface{}{"path": "/merged.json"})
	merged := read["data"].(map[string]interface{})
	// Later files win on key collisions.
	if merged["shared"].(string) != "b" {
		t.Errorf("expected later file to win, got %v", merged["shared"])
	}
}

func TestCSVTools(t *testing.T) {
	p := newTestProvider(t)

	exec(t, p, "filesystem.file.create", map[string]interface{}{
		"path":    "/people.csv",
		"content": "name,age\nada,36\nalan,41\n",
	})

	data := exec(t, p, "filesystem.csv.read", map[string]interface{}{"path": "/people.csv"})
	if data["count"].(int) != 2 {
		t.Fatalf("expected 2 rows, got %v", data["count"])
	}
	rows := data["rows"].([]map[string]interface{})
	if rows[0]["name"].(string) != "ada" || rows[1]["age"].(string) != "41" {
		t.Errorf("unexpected rows: %v", rows)
	}

	exec(t, p, "filesystem.csv.write", map[string]interface{}{
		"path":    "/out.csv",
		"data":    []interface{}{map[string]interface{}{"city": "berlin"}},
		"headers": []interface{}{"city"},
	})
	read := exec(t, p, "filesystem.file.read", map[string]interface{}{"path": "/out.csv"})
	if content := read["content"].(string); !strings.HasPrefix(content, "city\nberlin") {
		t.Errorf("unexpected csv output: %q", content)
	}

	exec(t, p, "filesystem.csv.to_json", map[string]interface{}{"input": "/people.csv", "output": "/people.json"})
	jsonRead := exec(t, p, "filesystem.json.read", map[string]interface{}{"path": "/people.json"})
	converted := jsonRead["data"].([]interface{})
	if len(converted) != 2 {
		t.Errorf("expected 2 converted rows, got %d", len(converted))
	}
}

func TestEncodingDetect(t *testing.T) {
	p := newTestProvider(t)

	exec(t, p, "filesystem.file.create", map[string]interface{}{
		"path": "/plain.txt", "content": "plain ascii text for the detector to chew on",
	})

	data := exec(t, p, "filesystem.encoding.detect", map[string]interface{}{"path": "/plain.txt"})
	if data["charset"].(string) == "" {
		t.Error("expected a detected charset")
	}

	exec(t, p, "filesystem.file.create", map[string]interface{}{"path": "/empty.txt"})
	execFail(t, p, "filesystem.encoding.detect", map[string]interface{}{"path": "/empty.txt"})
}

func TestHostImportExport(t *testing.T) {
	root := t.TempDir()
	p := NewProvider(vfs.New(), root)

	src := filepath.Join(root, "in", "nested")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "in", "top.txt"), []byte("top"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "deep.txt"), []byte("deep"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "blob.bin"), []byte{0xff, 0xfe, 0x00, 0x01}, 0o644); err != nil {
		t.Fatal(err)
	}

	data := exec(t, p, "filesystem.host.import", map[string]interface{}{"source": "in", "target": "/imported"})
	if data["imported_files"].(int64) != 2 {
		t.Errorf("expected 2 imported files, got %v", data["imported_files"])
	}
	if data["skipped"].(int64) != 1 {
		t.Errorf("binary file should be skipped, got %v skipped", data["skipped"])
	}

	read := exec(t, p, "filesystem.file.read", map[string]interface{}{"path": "/imported/nested/deep.txt"})
	if read["content"].(string) != "deep" {
		t.Errorf("imported content mismatch: %v", read["content"])
	}

	exec(t, p, "filesystem.host.export", map[string]interface{}{"source": "/imported", "target": "out"})
	exported, err := os.ReadFile(filepath.Join(root, "out", "nested", "deep.txt"))
	if err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
	if string(exported) != "deep" {
		t.Errorf("exported content mismatch: %q", exported)
	}

	msg := execFail(t, p, "filesystem.host.import", map[string]interface{}{"source": "../outside"})
	if !strings.Contains(msg, "escapes the host root") {
		t.Errorf("expected escape rejection, got %q", msg)
	}
}

func TestUnknownTool(t *testing.T) {
	p := newTestProvider(t)

	msg := execFail(t, p, "filesystem.fly", nil)
	if !strings.Contains(msg, "unknown tool") {
		t.Errorf("expected unknown-tool message, got %q", msg)
	}
}

func TestDefinitionCoversExecute(t *testing.T) {
	p := newTestProvider(t)
	def := p.Definition()

	if def.ID != "filesystem" {
		t.Fatalf("unexpected service id %q", def.ID)
	}

	// Every advertised tool must route somewhere.
	for _, tool := range def.Tools {
		result, err := p.Execute(context.Background(), tool.ID, map[string]interface{}{}, nil)
		if err != nil {
			t.Fatalf("%s returned transport error: %v", tool.ID, err)
		}
		if !result.Success && result.Error != nil && strings.Contains(*result.Error, "unknown tool") {
			t.Errorf("tool %s advertised but not routed", tool.ID)
		}
	}
}
