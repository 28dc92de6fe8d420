// Package shell provides interactive line shell sessions over the
// virtual filesystem, plus a sandboxed JavaScript runner bound to it.
//
// Sessions share the server's single tree. Each session keeps its own
// cursor and command history; relative paths in a command resolve
// against the session cursor before they reach the engine, so parallel
// sessions never fight over the engine's directory cursor.
//
// The command set mirrors a small Unix shell: ls, cd, pwd, mkdir,
// rmdir, touch, cat, echo with '>' redirection, write, append, rm, cp,
// mv, find, tree, info, stats, history, clear and exit. Command
// failures come back as output text, the way a shell prints them, so
// a failed rm never fails the transport call around it.
//
// Scripts run in a dop251/goja VM with an fs object exposing the
// engine operations and a console collecting log lines. A timeout
// interrupts runaway scripts.
//
// Example:
//
//	manager := shell.NewManager(engine, shell.Options{})
//	info, _ := manager.Create()
//	result, _ := manager.Execute(info.ID, "mkdir docs")
package shell
