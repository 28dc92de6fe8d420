package shell

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
)

func execTool(t *testing.T, p *Provider, toolID string, params map[string]interface{}) map[string]interface{} {
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

func TestProviderSessionTools(t *testing.T) {
	p := NewProvider(vfs.New(), Options{})

	data := execTool(t, p, "shell.create_session", nil)
	info := data["session"].(SessionInfo)
	if !strings.HasPrefix(info.ID, "sess_") {
		t.Errorf("unexpected session id: %s", info.ID)
	}

	data = execTool(t, p, "shell.execute", map[string]interface{}{
		"session_id": info.ID,
		"command":    "mkdir projects",
	})
	if data["output"].(string) != "directory 'projects' created" {
		t.Errorf("unexpected output: %v", data["output"])
	}

	data = execTool(t, p, "shell.history", map[string]interface{}{"session_id": info.ID})
	if data["count"].(int) != 1 {
		t.Errorf("expected 1 history entry, got %v", data["count"])
	}

	data = execTool(t, p, "shell.list_sessions", nil)
	if data["count"].(int) != 1 {
		t.Errorf("expected 1 session, got %v", data["count"])
	}

	execTool(t, p, "shell.close_session", map[string]interface{}{"session_id": info.ID})
	data = execTool(t, p, "shell.list_sessions", nil)
	if data["count"].(int) != 0 {
		t.Errorf("expected no sessions after close, got %v", data["count"])
	}

	result, _ := p.Execute(context.Background(), "shell.execute", map[string]interface{}{
		"session_id": info.ID,
		"command":    "pwd",
	}, nil)
	if result.Success {
		t.Error("expected failure executing in a closed session")
	}
}

func TestProviderScript(t *testing.T) {
	p := NewProvider(vfs.New(), Options{})

	data := execTool(t, p, "shell.script", map[string]interface{}{
		"code": `fs.mkdir("/src"); fs.create("/src/a.txt", "from js"); fs.read("/src/a.txt")`,
	})
	if data["value"].(string) != "from js" {
		t.Errorf("unexpected script value: %v", data["value"])
	}

	data = execTool(t, p, "shell.script", map[string]interface{}{
		"code": `console.log("built", 2, "files"); fs.exists("/src/a.txt")`,
	})
	if data["value"].(bool) != true {
		t.Errorf("expected true, got %v", data["value"])
	}
	console := data["console"].([]LogEntry)
	if len(console) != 1 || console[0].Message != "built 2 files" {
		t.Errorf("unexpected console: %+v", console)
	}
}

func TestProviderScriptErrors(t *testing.T) {
	p := NewProvider(vfs.New(), Options{})

	// Engine errors surface as JavaScript exceptions.
	result, _ := p.Execute(context.Background(), "shell.script", map[string]interface{}{
		"code": `fs.read("/missing.txt")`,
	}, nil)
	if result.Success {
		t.Error("expected failure reading a missing file")
	}
	if !strings.Contains(*result.Error, "does not exist") {
		t.Errorf("unexpected error: %v", *result.Error)
	}

	result, _ = p.Execute(context.Background(), "shell.script", map[string]interface{}{
		"code":       `while (true) {}`,
		"timeout_ms": float64(50),
	}, nil)
	if result.Success {
		t.Error("expected timeout failure")
	}
}

func TestProviderScriptContextCancel(t *testing.T) {
	p := NewProvider(vfs.New(), Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, _ := p.Execute(ctx, "shell.script", map[string]interface{}{
		"code": `while (true) {}`,
	}, nil)
	if result.Success {
		t.Error("expected cancellation failure")
	}
}

func TestProviderUnknownTool(t *testing.T) {
	p := NewProvider(vfs.New(), Options{})

	result, _ := p.Execute(context.Background(), "shell.reboot", nil, nil)
	if result.Success || !strings.Contains(*result.Error, "unknown tool") {
		t.Error("expected unknown-tool failure")
	}
}

func TestProviderDefinition(t *testing.T) {
	p := NewProvider(vfs.New(), Options{})
	def := p.Definition()

	if def.ID != "shell" {
		t.Fatalf("unexpected service id %q", def.ID)
	}
	if len(def.Tools) != 6 {
		t.Errorf("expected 6 tools, got %d", len(def.Tools))
	}
}
