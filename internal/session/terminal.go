package session

import (
	"io"
	"sync"
)

// Terminal is the terminal-emulation capability a Session writes to. After
// Dispose the Session never writes to it again.
type Terminal interface {
	io.Writer
	Dispose()
}

// WriterTerminal adapts a plain writer, such as stdout in raw mode, to
// Terminal. Dispose stops forwarding but does not close the writer.
type WriterTerminal struct {
	mu       sync.Mutex
	w        io.Writer
	disposed bool
}

// NewWriterTerminal wraps w
func NewWriterTerminal(w io.Writer) *WriterTerminal {
	return &WriterTerminal{w: w}
}

func (t *WriterTerminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return len(p), nil
	}
	return t.w.Write(p)
}

// Dispose implements Terminal
func (t *WriterTerminal) Dispose() {
	t.mu.Lock()
	t.disposed = true
	t.mu.Unlock()
}

// Disposed reports whether Dispose has been called
func (t *WriterTerminal) Disposed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disposed
}
