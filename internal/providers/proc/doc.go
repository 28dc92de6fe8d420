// Package proc exposes the host process table and a PTY-backed
// command launcher as service tools.
//
// Inspection tools (proc.list, proc.search, proc.info, proc.kill,
// proc.stats) read the real process table through gopsutil. Launch
// tools (proc.launch, proc.read, proc.kill_session,
// proc.list_sessions) run shell commands under a pseudo-terminal and
// keep their output in a ring buffer until a client drains it, so
// slow readers never block the child process.
package proc
