package proc

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/virtuoslabs/virtuos/backend/internal/shared/types"
)

// Provider implements host process tools.
type Provider struct {
	launcher *Launcher
}

// NewProvider creates a process provider.
func NewProvider(opts Options) *Provider {
	return &Provider{launcher: NewLauncher(opts)}
}

// Launcher exposes the session launcher for the transport layers.
func (p *Provider) Launcher() *Launcher {
	return p.launcher
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "proc",
		Name:        "Process Service",
		Description: "Host process inspection and command execution",
		Category:    types.CategoryProcess,
		Capabilities: []string{
			"list",
			"search",
			"inspect",
			"kill",
			"launch",
		},
		Tools: []types.Tool{
			{
				ID:          "proc.list",
				Name:        "List Processes",
				Description: "List all host processes with pid and name",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
			{
				ID:          "proc.search",
				Name:        "Search Processes",
				Description: "Find processes whose name contains a substring",
				Parameters: []types.Parameter{
					{Name: "query", Type: "string", Description: "Name fragment to match", Required: true},
				},
				Returns: "array",
			},
			{
				ID:          "proc.info",
				Name:        "Process Info",
				Description: "Get status, user and resource usage for a process",
				Parameters: []types.Parameter{
					{Name: "pid", Type: "number", Description: "Process ID", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "proc.kill",
				Name:        "Kill Process",
				Description: "Terminate a process by pid",
				Parameters: []types.Parameter{
					{Name: "pid", Type: "number", Description: "Process ID", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "proc.stats",
				Name:        "Host Stats",
				Description: "Get host CPU, memory and process count",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "proc.launch",
				Name:        "Launch Command",
				Description: "Run a shell command under a PTY session",
				Parameters: []types.Parameter{
					{Name: "command", Type: "string", Description: "Command line to run", Required: true},
					{Name: "workdir", Type: "string", Description: "Working directory", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "proc.read",
				Name:        "Read Output",
				Description: "Drain buffered output from a launched session",
				Parameters: []types.Parameter{
					{Name: "session_id", Type: "string", Description: "Session identifier", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "proc.kill_session",
				Name:        "Kill Session",
				Description: "Terminate a launched session and discard it",
				Parameters: []types.Parameter{
					{Name: "session_id", Type: "string", Description: "Session identifier", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "proc.list_sessions",
				Name:        "List Sessions",
				Description: "List launched sessions",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
		},
	}
}

// Execute runs a process operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "proc.list":
		return p.list()
	case "proc.search":
		return p.search(params)
	case "proc.info":
		return p.info(params)
	case "proc.kill":
		return p.kill(params)
	case "proc.stats":
		return p.stats()
	case "proc.launch":
		return p.launch(params)
	case "proc.read":
		return p.read(params)
	case "proc.kill_session":
		return p.killSession(params)
	case "proc.list_sessions":
		return p.listSessions()
	default:
		return failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (p *Provider) list() (*types.Result, error) {
	procs, err := process.Processes()
	if err != nil {
		return failure(fmt.Sprintf("failed to list processes: %v", err))
	}

	entries := make([]map[string]interface{}, 0, len(procs))
	for _, proc := range procs {
		name, err := proc.Name()
		if err != nil {
			continue
		}
		if name == "" {
			name = "(unnamed)"
		}
		entries = append(entries, map[string]interface{}{
			"pid":  proc.Pid,
			"name": name,
		})
	}

	return success(map[string]interface{}{
		"processes": entries,
		"count":     len(entries),
	})
}

func (p *Provider) search(params map[string]interface{}) (*types.Result, error) {
	query, ok := params["query"].(string)
	if !ok || query == "" {
		return failure("query parameter required")
	}

	procs, err := process.Processes()
	if err != nil {
		return failure(fmt.Sprintf("failed to list processes: %v", err))
	}

	needle := strings.ToLower(query)
	matches := make([]map[string]interface{}, 0)
	for _, proc := range procs {
		name, err := proc.Name()
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(name), needle) {
			matches = append(matches, map[string]interface{}{
				"pid":  proc.Pid,
				"name": name,
			})
		}
	}

	return success(map[string]interface{}{
		"matches": matches,
		"count":   len(matches),
	})
}

func (p *Provider) info(params map[string]interface{}) (*types.Result, error) {
	pidParam, ok := params["pid"].(float64)
	if !ok {
		return failure("pid parameter required")
	}
	pid := int32(pidParam)

	proc, err := process.NewProcess(pid)
	if err != nil {
		return failure(fmt.Sprintf("process %d not found", pid))
	}

	name, err := proc.Name()
	if err != nil {
		return failure(fmt.Sprintf("failed to inspect process %d: %v", pid, err))
	}
	if name == "" {
		name = "(unnamed)"
	}

	status := ""
	if st, err := proc.Status(); err == nil {
		status = strings.Join(st, ",")
	}
	username, _ := proc.Username()
	cpuPercent, _ := proc.CPUPercent()
	memPercent, _ := proc.MemoryPercent()

	return success(map[string]interface{}{
		"pid":            pid,
		"name":           name,
		"status":         status,
		"username":       username,
		"cpu_percent":    cpuPercent,
		"memory_percent": float64(memPercent),
	})
}

func (p *Provider) kill(params map[string]interface{}) (*types.Result, error) {
	pidParam, ok := params["pid"].(float64)
	if !ok {
		return failure("pid parameter required")
	}
	pid := int32(pidParam)

	proc, err := process.NewProcess(pid)
	if err != nil {
		return failure(fmt.Sprintf("process %d not found", pid))
	}
	if err := proc.Terminate(); err != nil {
		return failure(fmt.Sprintf("failed to terminate process %d: %v", pid, err))
	}

	return success(map[string]interface{}{
		"killed": true,
		"pid":    pid,
	})
}

func (p *Provider) stats() (*types.Result, error) {
	cpuPercent := 0.0
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuPercent = percents[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return failure(fmt.Sprintf("failed to read memory stats: %v", err))
	}

	count := 0
	if procs, err := process.Processes(); err == nil {
		count = len(procs)
	}

	return success(map[string]interface{}{
		"cpu_percent":        cpuPercent,
		"memory_percent":     vm.UsedPercent,
		"memory_total_bytes": vm.Total,
		"memory_used_bytes":  vm.Used,
		"process_count":      count,
	})
}

func (p *Provider) launch(params map[string]interface{}) (*types.Result, error) {
	command, ok := params["command"].(string)
	if !ok || command == "" {
		return failure("command parameter required")
	}
	workdir, _ := params["workdir"].(string)

	info, err := p.launcher.Launch(command, workdir)
	if err != nil {
		return failure(err.Error())
	}

	return success(map[string]interface{}{
		"session": info,
	})
}

func (p *Provider) read(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok || sessionID == "" {
		return failure("session_id parameter required")
	}

	output, info, err := p.launcher.Read(sessionID)
	if err != nil {
		return failure(err.Error())
	}

	return success(map[string]interface{}{
		"output":  output,
		"session": info,
	})
}

func (p *Provider) killSession(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok || sessionID == "" {
		return failure("session_id parameter required")
	}

	if err := p.launcher.Kill(sessionID); err != nil {
		return failure(err.Error())
	}

	return success(map[string]interface{}{
		"killed": true,
	})
}

func (p *Provider) listSessions() (*types.Result, error) {
	infos := p.launcher.List()
	return success(map[string]interface{}{
		"sessions": infos,
		"count":    len(infos),
	})
}

func success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

func failure(message string) (*types.Result, error) {
	return &types.Result{Success: false, Error: &message}, nil
}
