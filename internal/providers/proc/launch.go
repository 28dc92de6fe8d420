package proc

import (
	"fmt"
	"os/exec"
	"sort"
	"time"

	"github.com/creack/pty"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/virtuoslabs/virtuos/backend/internal/shared/id"
)

// Launcher starts host commands under a PTY and keeps their output in
// ring buffers until a client reads it.
type Launcher struct {
	opts     Options
	sessions *xsync.Map[string, *Session]
}

// NewLauncher creates a launcher.
func NewLauncher(opts Options) *Launcher {
	return &Launcher{
		opts:     opts.withDefaults(),
		sessions: xsync.NewMap[string, *Session](),
	}
}

// Launch runs a command line through the shell under a PTY. The
// session stays around after exit so its remaining output and exit
// code can still be read.
func (l *Launcher) Launch(command, workdir string) (SessionInfo, error) {
	if command == "" {
		return SessionInfo{}, fmt.Errorf("command must not be empty")
	}
	if l.sessions.Size() >= l.opts.MaxProcesses {
		return SessionInfo{}, fmt.Errorf("process limit reached (%d)", l.opts.MaxProcesses)
	}

	cmd := exec.Command("/bin/sh", "-c", command)
	if workdir != "" {
		cmd.Dir = workdir
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 24, Cols: 80})
	if err != nil {
		return SessionInfo{}, fmt.Errorf("failed to start PTY: %w", err)
	}

	session := &Session{
		ID:        string(id.NewProcessID()),
		Command:   command,
		StartedAt: time.Now(),
		cmd:       cmd,
		ptmx:      ptmx,
		outputBuf: NewBuffer(256 * 1024),
		exitCode:  -1,
	}
	l.sessions.Store(session.ID, session)

	go l.readOutput(session)
	go l.monitorProcess(session)

	return l.info(session), nil
}

// readOutput drains the PTY into the ring buffer until EOF.
func (l *Launcher) readOutput(session *Session) {
	buf := make([]byte, 4096)
	for {
		n, err := session.ptmx.Read(buf)
		if n > 0 {
			session.outputBuf.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
}

// monitorProcess records the exit code once the command finishes.
func (l *Launcher) monitorProcess(session *Session) {
	session.cmd.Wait()

	session.mu.Lock()
	session.exited = true
	session.exitCode = session.cmd.ProcessState.ExitCode()
	session.mu.Unlock()

	session.ptmx.Close()
}

func (l *Launcher) get(sessionID string) (*Session, error) {
	session, ok := l.sessions.Load(sessionID)
	if !ok {
		return nil, fmt.Errorf("process session not found: %s", sessionID)
	}
	return session, nil
}

// Read drains the buffered output of a session.
func (l *Launcher) Read(sessionID string) (string, SessionInfo, error) {
	session, err := l.get(sessionID)
	if err != nil {
		return "", SessionInfo{}, err
	}
	return string(session.outputBuf.ReadAll()), l.info(session), nil
}

// Kill terminates a running session and removes it.
func (l *Launcher) Kill(sessionID string) error {
	session, err := l.get(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	running := !session.exited
	session.mu.Unlock()

	if running && session.cmd.Process != nil {
		session.cmd.Process.Kill()
	}

	l.sessions.Delete(sessionID)
	return nil
}

// List returns all sessions ordered by start time.
func (l *Launcher) List() []SessionInfo {
	var infos []SessionInfo
	l.sessions.Range(func(_ string, session *Session) bool {
		infos = append(infos, l.info(session))
		return true
	})
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].StartedAt.Before(infos[j].StartedAt)
	})
	return infos
}

// Count returns the number of tracked sessions.
func (l *Launcher) Count() int {
	return l.sessions.Size()
}

func (l *Launcher) info(session *Session) SessionInfo {
	session.mu.RLock()
	defer session.mu.RUnlock()

	pid := 0
	if session.cmd.Process != nil {
		pid = session.cmd.Process.Pid
	}
	return SessionInfo{
		ID:        session.ID,
		PID:       pid,
		Command:   session.Command,
		StartedAt: session.StartedAt,
		Running:   !session.exited,
		ExitCode:  session.exitCode,
	}
}
