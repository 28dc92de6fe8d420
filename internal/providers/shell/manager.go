package shell

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/id"
)

// Manager owns the shell sessions. All sessions operate on the same
// engine; what separates them is the cursor and the history.
type Manager struct {
	fs       *vfs.Filesystem
	opts     Options
	sessions *xsync.Map[string, *Session]
}

// NewManager creates a session manager over the given engine.
func NewManager(fs *vfs.Filesystem, opts Options) *Manager {
	return &Manager{
		fs:       fs,
		opts:     opts.withDefaults(),
		sessions: xsync.NewMap[string, *Session](),
	}
}

// Create opens a new session with the cursor at the root.
func (m *Manager) Create() (SessionInfo, error) {
	if m.sessions.Size() >= m.opts.MaxSessions {
		return SessionInfo{}, fmt.Errorf("session limit reached (%d)", m.opts.MaxSessions)
	}

	now := time.Now()
	session := &Session{
		ID:        string(id.NewSessionID()),
		CreatedAt: now,
		cwd:       "/",
		lastUsed:  now,
	}
	m.sessions.Store(session.ID, session)
	return session.info(), nil
}

func (m *Manager) get(sessionID string) (*Session, error) {
	session, ok := m.sessions.Load(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return session, nil
}

// Execute runs one command line in a session and returns its output.
// Command failures are reported in the output text, not as errors;
// the error return covers session problems only.
func (m *Manager) Execute(sessionID, line string) (*ExecResult, error) {
	session, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.exited {
		return nil, fmt.Errorf("session is closed: %s", sessionID)
	}
	session.lastUsed = time.Now()

	trimmed := strings.TrimSpace(line)
	if trimmed != "" {
		session.history = append(session.history, trimmed)
		if len(session.history) > m.opts.HistoryLimit {
			session.history = session.history[len(session.history)-m.opts.HistoryLimit:]
		}
	}

	command, args := tokenize(trimmed)
	result := m.run(session, command, args)
	result.CWD = session.cwd

	if result.Exited {
		session.exited = true
		m.sessions.Delete(session.ID)
	}
	return result, nil
}

// History returns a copy of a session's command history.
func (m *Manager) History(sessionID string) ([]string, error) {
	session, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	history := make([]string, len(session.history))
	copy(history, session.history)
	return history, nil
}

// List returns the open sessions ordered by creation time.
func (m *Manager) List() []SessionInfo {
	var infos []SessionInfo
	m.sessions.Range(func(_ string, session *Session) bool {
		infos = append(infos, session.info())
		return true
	})
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Get returns the exported view of one session.
func (m *Manager) Get(sessionID string) (SessionInfo, error) {
	session, err := m.get(sessionID)
	if err != nil {
		return SessionInfo{}, err
	}
	return session.info(), nil
}

// Close removes a session.
func (m *Manager) Close(sessionID string) error {
	session, err := m.get(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	session.exited = true
	session.mu.Unlock()

	m.sessions.Delete(sessionID)
	return nil
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	return m.sessions.Size()
}
