package shell

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
)

// LogEntry is one console line captured during a script run.
type LogEntry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ScriptResult carries the outcome of a script run.
type ScriptResult struct {
	Value    interface{}
	Console  []LogEntry
	Duration time.Duration
}

// Runner executes JavaScript against the engine. Each run gets a fresh
// VM; the only shared state is the tree itself.
type Runner struct {
	fs      *vfs.Filesystem
	timeout time.Duration
}

// NewRunner creates a script runner with the given default timeout.
func NewRunner(fs *vfs.Filesystem, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Runner{fs: fs, timeout: timeout}
}

// Run executes a script with a timeout. The last evaluated expression
// becomes the result value. Engine errors raised by the fs bindings
// surface as JavaScript exceptions.
func (r *Runner) Run(ctx context.Context, code string, timeout time.Duration) (*ScriptResult, error) {
	if timeout <= 0 {
		timeout = r.timeout
	}

	vm := goja.New()
	vm.SetMaxCallStackSize(1024)

	var console []LogEntry
	r.setupGlobals(vm, &console)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-timer.C:
			vm.Interrupt("script timeout exceeded")
		case <-ctx.Done():
			vm.Interrupt("context cancelled")
		case <-stop:
		}
	}()

	start := time.Now()
	val, err := vm.RunString(code)
	result := &ScriptResult{Console: console, Duration: time.Since(start)}
	if err != nil {
		return result, fmt.Errorf("script failed: %w", err)
	}

	if val != nil && !goja.IsUndefined(val) && !goja.IsNull(val) {
		result.Value = val.Export()
	}
	return result, nil
}

// setupGlobals binds the console and the fs object and removes the
// Node-style globals.
func (r *Runner) setupGlobals(vm *goja.Runtime, console *[]LogEntry) {
	vm.Set("require", goja.Undefined())
	vm.Set("process", goja.Undefined())
	vm.Set("module", goja.Undefined())
	vm.Set("exports", goja.Undefined())

	consoleObj := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		level := level
		consoleObj.Set(level, func(call goja.FunctionCall) goja.Value {
			var msg string
			for i, arg := range call.Arguments {
				if i > 0 {
					msg += " "
				}
				msg += arg.String()
			}
			*console = append(*console, LogEntry{Level: level, Message: msg})
			return goja.Undefined()
		})
	}
	vm.Set("console", consoleObj)

	fsObj := vm.NewObject()
	fsObj.Set("create", func(path, content string) error {
		return r.fs.CreateFile(path, content)
	})
	fsObj.Set("read", func(path string) (string, error) {
		return r.fs.ReadFile(path)
	})
	fsObj.Set("update", func(path, content string) error {
		return r.fs.UpdateFile(path, content)
	})
	fsObj.Set("append", func(path, content string) error {
		return r.fs.AppendFile(path, content)
	})
	fsObj.Set("delete", func(path string) error {
		return r.fs.Delete(path)
	})
	fsObj.Set("mkdir", func(path string) error {
		return r.fs.CreateDirectory(path)
	})
	fsObj.Set("exists", func(path string) bool {
		return r.fs.Exists(path)
	})
	fsObj.Set("list", func(path string) ([]map[string]interface{}, error) {
		entries, err := r.fs.ListDirectory(path)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]interface{}, 0, len(entries))
		for _, entry := range entries {
			out = append(out, map[string]interface{}{
				"name": entry.Name,
				"type": string(entry.Kind),
				"size": entry.Size,
			})
		}
		return out, nil
	})
	fsObj.Set("cd", func(path string) (string, error) {
		return r.fs.ChangeDirectory(path)
	})
	fsObj.Set("cwd", func() string {
		return r.fs.CurrentPath()
	})
	fsObj.Set("tree", func(path string) (string, error) {
		return r.fs.Tree(path)
	})
	fsObj.Set("find", func(path, pattern string) ([]string, error) {
		return r.fs.Find(path, pattern, "")
	})
	vm.Set("fs", fsObj)
}
