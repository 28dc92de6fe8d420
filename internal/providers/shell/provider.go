package shell

import (
	"context"
	"fmt"
	"time"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/types"
)

// Provider exposes shell sessions and scripting as tools.
type Provider struct {
	manager *Manager
	runner  *Runner
}

// NewProvider creates a shell provider over the engine.
func NewProvider(fs *vfs.Filesystem, opts Options) *Provider {
	opts = opts.withDefaults()
	return &Provider{
		manager: NewManager(fs, opts),
		runner:  NewRunner(fs, opts.ScriptTimeout),
	}
}

// Manager exposes the session manager for the HTTP and WS layers.
func (p *Provider) Manager() *Manager {
	return p.manager
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "shell",
		Name:        "Shell Service",
		Description: "Line shell sessions and JavaScript scripting over the virtual tree",
		Category:    types.CategoryShell,
		Capabilities: []string{
			"sessions",
			"execute",
			"history",
			"script",
		},
		Tools: []types.Tool{
			{
				ID:          "shell.create_session",
				Name:        "Create Session",
				Description: "Open a new shell session with the cursor at the root",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "shell.execute",
				Name:        "Execute Command",
				Description: "Run one command line in a session",
				Parameters: []types.Parameter{
					{Name: "session_id", Type: "string", Description: "Session ID", Required: true},
					{Name: "command", Type: "string", Description: "Command line to run", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "shell.history",
				Name:        "Command History",
				Description: "List the commands run in a session",
				Parameters: []types.Parameter{
					{Name: "session_id", Type: "string", Description: "Session ID", Required: true},
				},
				Returns: "array",
			},
			{
				ID:          "shell.list_sessions",
				Name:        "List Sessions",
				Description: "List open shell sessions",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
			{
				ID:          "shell.close_session",
				Name:        "Close Session",
				Description: "Close a shell session",
				Parameters: []types.Parameter{
					{Name: "session_id", Type: "string", Description: "Session ID", Required: true},
				},
				Returns: "boolean",
			},
			{
				ID:          "shell.script",
				Name:        "Run Script",
				Description: "Run a JavaScript snippet with an fs binding to the tree",
				Parameters: []types.Parameter{
					{Name: "code", Type: "string", Description: "JavaScript source", Required: true},
					{Name: "timeout_ms", Type: "number", Description: "Run timeout in milliseconds"},
				},
				Returns: "object",
			},
		},
	}
}

// Execute runs a shell tool
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "shell.create_session":
		return p.createSession()
	case "shell.execute":
		return p.execute(params)
	case "shell.history":
		return p.history(params)
	case "shell.list_sessions":
		return p.listSessions()
	case "shell.close_session":
		return p.closeSession(params)
	case "shell.script":
		return p.script(ctx, params)
	default:
		return failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (p *Provider) createSession() (*types.Result, error) {
	info, err := p.manager.Create()
	if err != nil {
		return failure(err.Error())
	}
	return success(map[string]interface{}{"session": info})
}

func (p *Provider) execute(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok || sessionID == "" {
		return failure("session_id parameter required")
	}
	command, ok := params["command"].(string)
	if !ok {
		return failure("command parameter required")
	}

	result, err := p.manager.Execute(sessionID, command)
	if err != nil {
		return failure(err.Error())
	}
	return success(map[string]interface{}{
		"output":  result.Output,
		"cwd":     result.CWD,
		"exited":  result.Exited,
		"cleared": result.Cleared,
	})
}

func (p *Provider) history(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok || sessionID == "" {
		return failure("session_id parameter required")
	}

	history, err := p.manager.History(sessionID)
	if err != nil {
		return failure(err.Error())
	}
	return success(map[string]interface{}{"history": history, "count": len(history)})
}

func (p *Provider) listSessions() (*types.Result, error) {
	sessions := p.manager.List()
	return success(map[string]interface{}{"sessions": sessions, "count": len(sessions)})
}

func (p *Provider) closeSession(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok || sessionID == "" {
		return failure("session_id parameter required")
	}

	if err := p.manager.Close(sessionID); err != nil {
		return failure(err.Error())
	}
	return success(map[string]interface{}{"closed": true, "session_id": sessionID})
}

func (p *Provider) script(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	code, ok := params["code"].(string)
	if !ok || code == "" {
		return failure("code parameter required")
	}

	var timeout time.Duration
	if ms, ok := params["timeout_ms"].(float64); ok && ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	result, err := p.runner.Run(ctx, code, timeout)
	if err != nil {
		return failure(err.Error())
	}
	return success(map[string]interface{}{
		"value":       result.Value,
		"console":     result.Console,
		"duration_ms": result.Duration.Milliseconds(),
	})
}

func success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

func failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}
