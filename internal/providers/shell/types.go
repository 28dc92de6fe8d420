package shell

import (
	"sync"
	"time"
)

// Options configure the session manager.
type Options struct {
	MaxSessions   int
	ScriptTimeout time.Duration
	HistoryLimit  int
}

func (o Options) withDefaults() Options {
	if o.MaxSessions <= 0 {
		o.MaxSessions = 32
	}
	if o.ScriptTimeout <= 0 {
		o.ScriptTimeout = 5 * time.Second
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 100
	}
	return o
}

// Session is one line shell bound to the shared tree. Every session
// keeps its own cursor; relative paths resolve against it without
// touching the engine's directory cursor.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	cwd      string
	lastUsed time.Time
	history  []string
	exited   bool
}

// SessionInfo is the exported view of a session.
type SessionInfo struct {
	ID        string    `json:"id"`
	CWD       string    `json:"cwd"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
	Commands  int       `json:"commands"`
}

// infoLocked snapshots the session. The session mutex must be held.
func (s *Session) infoLocked() SessionInfo {
	return SessionInfo{
		ID:        s.ID,
		CWD:       s.cwd,
		CreatedAt: s.CreatedAt,
		LastUsed:  s.lastUsed,
		Commands:  len(s.history),
	}
}

func (s *Session) info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infoLocked()
}

// ExecResult carries a single command's outcome. Output holds both
// normal and error text, the way an interactive shell prints them.
type ExecResult struct {
	Output  string `json:"output"`
	CWD     string `json:"cwd"`
	Exited  bool   `json:"exited"`
	Cleared bool   `json:"cleared"`
}
