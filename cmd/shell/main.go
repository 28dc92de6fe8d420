package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/snapshot"
	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
	"github.com/virtuoslabs/virtuos/backend/internal/providers/shell"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F87AF")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	outputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D0D0D0"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type shellModel struct {
	sessions  *shell.Manager
	sessionID string
	cwd       string

	input    textinput.Model
	viewport viewport.Model
	lines    []string
	ready    bool
}

func newShellModel(sessions *shell.Manager, sessionID, cwd string) *shellModel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "type 'help' for commands"
	ti.Focus()

	return &shellModel{
		sessions:  sessions,
		sessionID: sessionID,
		cwd:       cwd,
		input:     ti,
		lines:     []string{"VirtuOS shell. Type 'help' for commands, 'exit' to leave."},
	}
}

func (m *shellModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *shellModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.input.Width = msg.Width - 4
		m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			line := m.input.Value()
			m.input.SetValue("")
			return m.exec(line)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *shellModel) exec(line string) (tea.Model, tea.Cmd) {
	m.lines = append(m.lines, promptStyle.Render(m.cwd+" $ ")+line)

	result, err := m.sessions.Execute(m.sessionID, line)
	if err != nil {
		m.lines = append(m.lines, outputStyle.Render(err.Error()))
		m.refresh()
		return m, nil
	}
	if result.Cleared {
		m.lines = nil
		m.refresh()
		return m, nil
	}
	if result.Output != "" {
		m.lines = append(m.lines, outputStyle.Render(result.Output))
	}
	if result.CWD != "" {
		m.cwd = result.CWD
	}
	m.refresh()
	if result.Exited {
		return m, tea.Quit
	}
	return m, nil
}

func (m *shellModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m *shellModel) View() string {
	if !m.ready {
		return "Starting shell..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("VirtuOS Shell"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(promptStyle.Render(m.cwd + " $ "))
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter run • pgup/pgdn scroll • ctrl+c quit"))
	return b.String()
}

func main() {
	diskPath := flag.String("disk", "./data/virtual_disk.json", "Snapshot artifact path")
	compress := flag.Bool("compress", false, "Gzip the snapshot artifact")
	flag.Parse()

	logger := zap.NewNop()
	store := snapshot.NewDiskStore(*diskPath, *compress, logger)

	var engine *vfs.Filesystem
	state, err := store.Load()
	switch {
	case err == nil:
		engine = vfs.NewFromState(state, vfs.WithPersister(store))
	case errors.Is(err, snapshot.ErrNoSnapshot):
		engine = vfs.New(vfs.WithPersister(store))
	default:
		fmt.Printf("snapshot unreadable (%v), starting fresh\n", err)
		engine = vfs.New(vfs.WithPersister(store))
	}

	sessions := shell.NewManager(engine, shell.Options{MaxSessions: 1})
	info, err := sessions.Create()
	if err != nil {
		log.Fatalf("Failed to open shell session: %v", err)
	}

	p := tea.NewProgram(newShellModel(sessions, info.ID, info.CWD), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Shell error: %v", err)
	}
}
