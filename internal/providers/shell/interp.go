package shell

import (
	"errors"
	"fmt"
	gopath "path"
	"strings"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
)

const timeLayout = "2006-01-02 15:04:05"

// tokenize splits a command line into the command and its arguments.
// Single and double quotes group words; the outer quotes are stripped.
func tokenize(line string) (string, []string) {
	var parts []string
	var current strings.Builder
	inQuotes := false
	var quote rune

	for _, c := range line {
		switch {
		case (c == '"' || c == '\'') && !inQuotes:
			inQuotes = true
			quote = c
		case c == quote && inQuotes:
			inQuotes = false
			quote = 0
		case c == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(c)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	if len(parts) == 0 {
		return "", nil
	}
	return strings.ToLower(parts[0]), parts[1:]
}

// resolve turns a command argument into an absolute path against the
// session cursor. Join cleans ".." segments, so climbing past the root
// lands on the root.
func (m *Manager) resolve(s *Session, path string) string {
	if path == "" {
		return s.cwd
	}
	if strings.HasPrefix(path, "/") {
		return gopath.Clean(path)
	}
	return gopath.Join(s.cwd, path)
}

// run executes one parsed command. The session mutex is held by the
// caller.
func (m *Manager) run(s *Session, command string, args []string) *ExecResult {
	switch command {
	case "":
		return &ExecResult{}
	case "help":
		return &ExecResult{Output: helpText}
	case "ls":
		return m.cmdLs(s, args)
	case "cd":
		return m.cmdCd(s, args)
	case "pwd":
		return &ExecResult{Output: s.cwd}
	case "mkdir":
		return m.cmdMkdir(s, args)
	case "rmdir", "rm":
		return m.cmdRm(s, args, command)
	case "touch":
		return m.cmdTouch(s, args)
	case "cat":
		return m.cmdCat(s, args)
	case "echo":
		return m.cmdEcho(s, args)
	case "write":
		return m.cmdWrite(s, args)
	case "append":
		return m.cmdAppend(s, args)
	case "cp":
		return m.cmdCp(s, args)
	case "mv":
		return m.cmdMv(s, args)
	case "find":
		return m.cmdFind(args)
	case "tree":
		return m.cmdTree(s, args)
	case "info":
		return m.cmdInfo(s, args)
	case "stats":
		return m.cmdStats()
	case "history":
		return m.cmdHistory(s)
	case "clear":
		return &ExecResult{Cleared: true}
	case "exit", "quit":
		return &ExecResult{Output: "session closed", Exited: true}
	default:
		return &ExecResult{Output: fmt.Sprintf("unknown command '%s', try 'help'", command)}
	}
}

const helpText = `directories:  ls [-l] [path]   cd [path]   pwd   mkdir <name>   rmdir <name>   tree [path]
files:        touch <name>   cat <file>   echo <text> [> file]   write <file> <text>
              append <file> <text>   rm <name>   cp <source> <dest>   mv <source> <dest>
search:       find <pattern> [-c]
inspect:      info <name>   stats
session:      history   clear   exit`

func (m *Manager) cmdLs(s *Session, args []string) *ExecResult {
	detailed := false
	path := ""
	for _, arg := range args {
		if arg == "-l" {
			detailed = true
		} else if path == "" {
			path = arg
		}
	}

	entries, err := m.fs.ListDirectory(m.resolve(s, path))
	if err != nil {
		return &ExecResult{Output: err.Error()}
	}
	if len(entries) == 0 {
		return &ExecResult{Output: "directory is empty"}
	}

	var b strings.Builder
	if detailed {
		fmt.Fprintf(&b, "%-10s %-10s %-10s %-20s %s\n", "permissions", "type", "size", "modified", "name")
		b.WriteString(strings.Repeat("-", 70))
		b.WriteString("\n")
		for _, entry := range entries {
			size := fmt.Sprintf("%d", entry.Size)
			name := entry.Name
			if entry.Kind == vfs.KindDirectory {
				size = fmt.Sprintf("<%d>", entry.Size)
				name += "/"
			}
			fmt.Fprintf(&b, "%-10s %-10s %-10s %-20s %s\n",
				entry.Permissions, entry.Kind, size, entry.Modified.Format(timeLayout), name)
		}
		return &ExecResult{Output: strings.TrimRight(b.String(), "\n")}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name
		if entry.Kind == vfs.KindDirectory {
			name += "/"
		}
		names = append(names, name)
	}
	return &ExecResult{Output: strings.Join(names, "  ")}
}

func (m *Manager) cmdCd(s *Session, args []string) *ExecResult {
	target := "/"
	if len(args) > 0 {
		target = args[0]
	}

	resolved := m.resolve(s, target)
	info, err := m.fs.Info(resolved)
	if err != nil {
		return &ExecResult{Output: err.Error()}
	}
	if info.Kind != vfs.KindDirectory {
		return &ExecResult{Output: fmt.Sprintf("'%s' is not a directory", target)}
	}

	s.cwd = info.FullPath
	return &ExecResult{}
}

func (m *Manager) cmdMkdir(s *Session, args []string) *ExecResult {
	if len(args) == 0 {
		return &ExecResult{Output: "usage: mkdir <name>"}
	}
	resolved := m.resolve(s, args[0])
	if err := m.fs.CreateDirectory(resolved); err != nil {
		return &ExecResult{Output: err.Error()}
	}
	return &ExecResult{Output: fmt.Sprintf("directory '%s' created", gopath.Base(resolved))}
}

func (m *Manager) cmdRm(s *Session, args []string, command string) *ExecResult {
	if len(args) == 0 {
		return &ExecResult{Output: fmt.Sprintf("usage: %s <name>", command)}
	}

	resolved := m.resolve(s, args[0])
	if err := m.fs.Delete(resolved); err != nil {
		return &ExecResult{Output: err.Error()}
	}
	// Removing the directory under the session cursor strands it; step
	// up to the parent, the way the engine cursor behaves.
	if s.cwd == resolved {
		s.cwd = gopath.Dir(resolved)
	}
	return &ExecResult{Output: fmt.Sprintf("'%s' deleted", gopath.Base(resolved))}
}

func (m *Manager) cmdTouch(s *Session, args []string) *ExecResult {
	if len(args) == 0 {
		return &ExecResult{Output: "usage: touch <name>"}
	}

	resolved := m.resolve(s, args[0])
	existed := m.fs.Exists(resolved)
	if err := m.fs.Touch(resolved); err != nil {
		return &ExecResult{Output: err.Error()}
	}
	if existed {
		return &ExecResult{Output: fmt.Sprintf("'%s' touched", gopath.Base(resolved))}
	}
	return &ExecResult{Output: fmt.Sprintf("file '%s' created", gopath.Base(resolved))}
}

func (m *Manager) cmdCat(s *Session, args []string) *ExecResult {
	if len(args) == 0 {
		return &ExecResult{Output: "usage: cat <file>"}
	}

	content, err := m.fs.ReadFile(m.resolve(s, args[0]))
	if err != nil {
		return &ExecResult{Output: err.Error()}
	}
	if content == "" {
		return &ExecResult{Output: fmt.Sprintf("file '%s' is empty", args[0])}
	}
	return &ExecResult{Output: content}
}

// cmdEcho prints its arguments, or writes them to a file when the line
// contains a '>' redirection.
func (m *Manager) cmdEcho(s *Session, args []string) *ExecResult {
	if len(args) == 0 {
		return &ExecResult{Output: `usage: echo <text> [> file]`}
	}

	text := strings.Join(args, " ")
	if !strings.Contains(text, ">") {
		return &ExecResult{Output: strings.Trim(text, `"'`)}
	}

	parts := strings.SplitN(text, ">", 2)
	content := strings.Trim(strings.TrimSpace(parts[0]), `"'`)
	target := strings.TrimSpace(parts[1])
	if target == "" {
		return &ExecResult{Output: `usage: echo <text> > file`}
	}

	if err := m.writeFile(m.resolve(s, target), content); err != nil {
		return &ExecResult{Output: err.Error()}
	}
	return &ExecResult{Output: fmt.Sprintf("text written to '%s'", target)}
}

func (m *Manager) cmdWrite(s *Session, args []string) *ExecResult {
	if len(args) < 2 {
		return &ExecResult{Output: "usage: write <file> <text>"}
	}

	content := strings.Join(args[1:], " ")
	if err := m.writeFile(m.resolve(s, args[0]), content); err != nil {
		return &ExecResult{Output: err.Error()}
	}
	return &ExecResult{Output: fmt.Sprintf("content saved to '%s' (%d bytes)", args[0], len(content))}
}

// cmdAppend adds a line to a file, separating it from existing content
// with a newline.
func (m *Manager) cmdAppend(s *Session, args []string) *ExecResult {
	if len(args) < 2 {
		return &ExecResult{Output: "usage: append <file> <text>"}
	}

	resolved := m.resolve(s, args[0])
	current, err := m.fs.ReadFile(resolved)
	if err != nil {
		return &ExecResult{Output: fmt.Sprintf("cannot read '%s': %v", args[0], err)}
	}

	text := strings.Join(args[1:], " ")
	updated := text
	if current != "" {
		updated = current + "\n" + text
	}
	if err := m.fs.UpdateFile(resolved, updated); err != nil {
		return &ExecResult{Output: err.Error()}
	}
	return &ExecResult{Output: fmt.Sprintf("text appended to '%s'", args[0])}
}

func (m *Manager) cmdCp(s *Session, args []string) *ExecResult {
	if len(args) != 2 {
		return &ExecResult{Output: "usage: cp <source> <dest>"}
	}
	if err := m.fs.Copy(m.resolve(s, args[0]), m.resolve(s, args[1])); err != nil {
		return &ExecResult{Output: err.Error()}
	}
	return &ExecResult{Output: fmt.Sprintf("copied '%s' to '%s'", args[0], args[1])}
}

func (m *Manager) cmdMv(s *Session, args []string) *ExecResult {
	if len(args) != 2 {
		return &ExecResult{Output: "usage: mv <source> <dest>"}
	}

	err := m.fs.Move(m.resolve(s, args[0]), m.resolve(s, args[1]))
	if err != nil {
		var moveErr *vfs.MoveError
		if errors.As(err, &moveErr) {
			return &ExecResult{Output: fmt.Sprintf("copied but could not remove the original: %v", moveErr.Err)}
		}
		return &ExecResult{Output: err.Error()}
	}
	return &ExecResult{Output: fmt.Sprintf("'%s' moved to '%s'", args[0], args[1])}
}

func (m *Manager) cmdFind(args []string) *ExecResult {
	if len(args) == 0 {
		return &ExecResult{Output: "usage: find <pattern> [-c]"}
	}

	pattern := args[0]
	searchContent := false
	for _, arg := range args[1:] {
		if arg == "-c" {
			searchContent = true
		}
	}

	matches := m.fs.Search(pattern, searchContent)
	if len(matches) == 0 {
		return &ExecResult{Output: fmt.Sprintf("no results for '%s'", pattern)}
	}

	var b strings.Builder
	for _, match := range matches {
		fmt.Fprintf(&b, "%s (%s)\n", match.Path, match.MatchType)
	}
	fmt.Fprintf(&b, "total: %d result(s)", len(matches))
	return &ExecResult{Output: b.String()}
}

func (m *Manager) cmdTree(s *Session, args []string) *ExecResult {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}

	rendered, err := m.fs.Tree(m.resolve(s, path))
	if err != nil {
		return &ExecResult{Output: err.Error()}
	}
	return &ExecResult{Output: rendered}
}

func (m *Manager) cmdInfo(s *Session, args []string) *ExecResult {
	if len(args) == 0 {
		return &ExecResult{Output: "usage: info <name>"}
	}

	info, err := m.fs.Info(m.resolve(s, args[0]))
	if err != nil {
		return &ExecResult{Output: err.Error()}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "name:           %s\n", info.Name)
	fmt.Fprintf(&b, "type:           %s\n", info.Kind)
	fmt.Fprintf(&b, "path:           %s\n", info.FullPath)
	fmt.Fprintf(&b, "size:           %s\n", humanSize(info.Size))
	if info.Kind == vfs.KindDirectory {
		fmt.Fprintf(&b, "size recursive: %s\n", humanSize(info.SizeRecursive))
	}
	fmt.Fprintf(&b, "created:        %s\n", info.Created.Format(timeLayout))
	fmt.Fprintf(&b, "modified:       %s\n", info.Modified.Format(timeLayout))
	fmt.Fprintf(&b, "permissions:    %s\n", info.Permissions)
	fmt.Fprintf(&b, "accesses:       %d", info.AccessCount)
	return &ExecResult{Output: b.String()}
}

func (m *Manager) cmdStats() *ExecResult {
	stats := m.fs.Stats()

	var b strings.Builder
	fmt.Fprintf(&b, "current directory:    %s\n", stats.CurrentDirectory)
	fmt.Fprintf(&b, "total files:          %d\n", stats.TotalFiles)
	fmt.Fprintf(&b, "total directories:    %d\n", stats.TotalDirectories)
	fmt.Fprintf(&b, "total size:           %s\n", humanSize(stats.TotalSizeBytes))
	fmt.Fprintf(&b, "files created:        %d\n", stats.Operations.FilesCreated)
	fmt.Fprintf(&b, "files deleted:        %d\n", stats.Operations.FilesDeleted)
	fmt.Fprintf(&b, "directories created:  %d\n", stats.Operations.DirectoriesCreated)
	fmt.Fprintf(&b, "directories deleted:  %d\n", stats.Operations.DirectoriesDeleted)
	fmt.Fprintf(&b, "total operations:     %d", stats.Operations.TotalOperations)
	return &ExecResult{Output: b.String()}
}

// cmdHistory shows the last 20 commands. The session mutex is held by
// the caller, so the history is read directly.
func (m *Manager) cmdHistory(s *Session) *ExecResult {
	if len(s.history) == 0 {
		return &ExecResult{Output: "history is empty"}
	}

	start := 0
	if len(s.history) > 20 {
		start = len(s.history) - 20
	}

	var b strings.Builder
	for i, cmd := range s.history[start:] {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, cmd)
	}
	return &ExecResult{Output: strings.TrimRight(b.String(), "\n")}
}

// writeFile creates the file or overwrites it when it already exists.
func (m *Manager) writeFile(path, content string) error {
	if m.fs.Exists(path) {
		return m.fs.UpdateFile(path, content)
	}
	return m.fs.CreateFile(path, content)
}

// humanSize renders a byte count the way the shell prints sizes.
func humanSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}
