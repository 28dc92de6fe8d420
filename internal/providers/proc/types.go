package proc

import (
	"os"
	"os/exec"
	"sync"
	"time"
)

// Options configure the provider.
type Options struct {
	MaxProcesses int
}

func (o Options) withDefaults() Options {
	if o.MaxProcesses <= 0 {
		o.MaxProcesses = 16
	}
	return o
}

// Session is one launched command running under a PTY.
type Session struct {
	ID        string
	Command   string
	StartedAt time.Time

	cmd  *exec.Cmd
	ptmx *os.File

	outputBuf *Buffer

	mu       sync.RWMutex
	exited   bool
	exitCode int
}

// SessionInfo is the public representation of a launched process.
type SessionInfo struct {
	ID        string    `json:"id"`
	PID       int       `json:"pid"`
	Command   string    `json:"command"`
	StartedAt time.Time `json:"started_at"`
	Running   bool      `json:"running"`
	ExitCode  int       `json:"exit_code"`
}

// Buffer is a thread-safe circular buffer for process output. When it
// fills up the oldest bytes are dropped.
type Buffer struct {
	data []byte
	size int
	head int
	tail int
	full bool
	mu   sync.Mutex
}

// NewBuffer creates a circular buffer of the given capacity.
func NewBuffer(size int) *Buffer {
	return &Buffer{
		data: make([]byte, size),
		size: size,
	}
}

// Write appends data, overwriting the oldest bytes when full.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range p {
		b.data[b.tail] = c
		b.tail = (b.tail + 1) % b.size
		if b.full {
			b.head = b.tail
		}
		if b.tail == b.head {
			b.full = true
		}
	}
	return len(p), nil
}

// ReadAll drains the buffer and returns everything written since the
// last read.
func (b *Buffer) ReadAll() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.head == b.tail && !b.full {
		return []byte{}
	}

	var result []byte
	if b.tail > b.head {
		result = make([]byte, b.tail-b.head)
		copy(result, b.data[b.head:b.tail])
	} else {
		first := b.data[b.head:]
		second := b.data[:b.tail]
		result = make([]byte, len(first)+len(second))
		copy(result, first)
		copy(result[len(first):], second)
	}

	b.head = b.tail
	b.full = false
	return result
}
