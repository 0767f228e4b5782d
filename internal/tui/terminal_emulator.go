package tui

import (
	"bytes"
	"strings"
	"sync"

	"github.com/hinshun/vt10x"
)

// TerminalEmulator wraps vt10x so remote shell output can be drawn inside a
// pane. It is the session's Terminal: writes come from the transport
// goroutine, rendering from the bubbletea loop.
type TerminalEmulator struct {
	mu       sync.Mutex
	terminal vt10x.Terminal
	cols     int
	rows     int
	disposed bool

	dirty chan struct{}
	done  chan struct{}
}

// NewTerminalEmulator creates a new terminal emulator
func NewTerminalEmulator(cols, rows int) *TerminalEmulator {
	cols, rows = max(cols, 1), max(rows, 1)
	return &TerminalEmulator{
		terminal: vt10x.New(vt10x.WithSize(cols, rows)),
		cols:     cols,
		rows:     rows,
		dirty:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Write feeds output through the emulator and flags the screen as dirty.
// It never blocks on the UI.
func (te *TerminalEmulator) Write(data []byte) (int, error) {
	te.mu.Lock()
	if te.disposed {
		te.mu.Unlock()
		return len(data), nil
	}
	_, _ = te.terminal.Write(data)
	te.mu.Unlock()

	select {
	case te.dirty <- struct{}{}:
	default:
	}
	return len(data), nil
}

// Dirty receives a value after writes that have not been rendered yet.
// Bursts of writes coalesce into one signal.
func (te *TerminalEmulator) Dirty() <-chan struct{} { return te.dirty }

// Done is closed by Dispose
func (te *TerminalEmulator) Done() <-chan struct{} { return te.done }

// Dispose stops accepting output. Rendering keeps showing the last screen.
func (te *TerminalEmulator) Dispose() {
	te.mu.Lock()
	defer te.mu.Unlock()
	if !te.disposed {
		te.disposed = true
		close(te.done)
	}
}

// Disposed reports whether Dispose has been called
func (te *TerminalEmulator) Disposed() bool {
	te.mu.Lock()
	defer te.mu.Unlock()
	return te.disposed
}

// Resize updates the terminal dimensions
func (te *TerminalEmulator) Resize(cols, rows int) {
	if cols < 1 || rows < 1 {
		return
	}
	te.mu.Lock()
	defer te.mu.Unlock()
	te.cols = cols
	te.rows = rows
	te.terminal.Resize(cols, rows)
}

// Size returns the grid size
func (te *TerminalEmulator) Size() (cols, rows int) {
	te.mu.Lock()
	defer te.mu.Unlock()
	return te.cols, te.rows
}

// Render returns the screen as plain text with a block cursor
func (te *TerminalEmulator) Render() string {
	te.mu.Lock()
	defer te.mu.Unlock()

	var buf bytes.Buffer
	cursor := te.terminal.Cursor()
	cursorVisible := te.terminal.CursorVisible()

	for row := 0; row < te.rows; row++ {
		if row > 0 {
			buf.WriteString("\n")
		}
		for col := 0; col < te.cols; col++ {
			cell := te.terminal.Cell(col, row)
			switch {
			case cursorVisible && !te.disposed && row == cursor.Y && col == cursor.X:
				if cell.Char == 0 || cell.Char == ' ' {
					buf.WriteRune('█')
				} else {
					buf.WriteRune(cell.Char)
				}
			case cell.Char == 0:
				buf.WriteRune(' ')
			default:
				buf.WriteRune(cell.Char)
			}
		}
	}

	// trim trailing blank rows
	lines := strings.Split(buf.String(), "\n")
	last := len(lines) - 1
	for last >= 0 && strings.TrimSpace(lines[last]) == "" {
		last--
	}
	if last < 0 {
		return ""
	}
	for i := range lines[:last+1] {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.Join(lines[:last+1], "\n")
}

// CursorPosition returns the current cursor position
func (te *TerminalEmulator) CursorPosition() (row, col int) {
	te.mu.Lock()
	defer te.mu.Unlock()
	cursor := te.terminal.Cursor()
	return cursor.Y, cursor.X
}
