package types

// ExecuteRequest represents a service execution request
type ExecuteRequest struct {
	ToolID    string                 `json:"tool_id" binding:"required"`
	Params    map[string]interface{} `json:"params"`
	SessionID *string                `json:"session_id,omitempty"`
	Namespace *string                `json:"namespace,omitempty"`
}

// DiscoverRequest represents a service discovery request
type DiscoverRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit,omitempty"`
}

// ShellRequest represents a shell command submission
type ShellRequest struct {
	Command string `json:"command" binding:"required"`
}

// SnapshotRequest represents a named snapshot save request
type SnapshotRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ReplicateRequest names a snapshot to push to or pull from the peer
type ReplicateRequest struct {
	SnapshotID string `json:"snapshot_id" binding:"required"`
	Restore    bool   `json:"restore,omitempty"`
}

// WSMessage represents a WebSocket frame on the shell stream
type WSMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Command   string `json:"command,omitempty"`
	Output    string `json:"output,omitempty"`
	CWD       string `json:"cwd,omitempty"`
	Exited    bool   `json:"exited,omitempty"`
	Cleared   bool   `json:"cleared,omitempty"`
	Error     string `json:"error,omitempty"`
}
