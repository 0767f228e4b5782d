package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vanpelt/codesandbox/internal/logger"
	"github.com/vanpelt/codesandbox/internal/session"
	"github.com/vanpelt/codesandbox/internal/tui/components"
)

// TerminalViewImpl shows the remote shell of the active target
type TerminalViewImpl struct{}

// NewTerminalView creates a new terminal view instance
func NewTerminalView() *TerminalViewImpl {
	return &TerminalViewImpl{}
}

// GetViewType returns the view type identifier
func (v *TerminalViewImpl) GetViewType() ViewType {
	return TerminalView
}

// Update handles terminal-specific message processing
func (v *TerminalViewImpl) Update(m *Model, msg tea.Msg) (*Model, tea.Cmd) {
	var cmd tea.Cmd
	m.shellViewport, cmd = m.shellViewport.Update(msg)
	return m, cmd
}

// HandleKey processes key messages for the terminal view
func (v *TerminalViewImpl) HandleKey(m *Model, msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	// Alt/Option key combinations scroll; everything else goes to the shell
	case components.KeyShellScrollUp:
		m.shellViewport.ScrollUp(1)
		return m, nil

	case components.KeyShellScrollDown:
		m.shellViewport.ScrollDown(1)
		return m, nil

	case components.KeyShellPageUp:
		m.shellViewport.PageUp()
		return m, nil

	case components.KeyShellPageDown:
		m.shellViewport.PageDown()
		return m, nil

	default:
		v.forwardInput(m, msg)
		return m, nil
	}
}

// HandleResize processes window resize for the terminal view. The pane size
// is published to the session's size source and the session is told to
// refit from a command, off the update loop.
func (v *TerminalViewImpl) HandleResize(m *Model, msg tea.WindowSizeMsg) (*Model, tea.Cmd) {
	m.shellViewport.Width = msg.Width
	m.shellViewport.Height = m.contentHeight()
	m.pane.set(m.shellViewport.Width, m.shellViewport.Height)

	if m.emulator != nil {
		m.emulator.Resize(m.shellViewport.Width, m.shellViewport.Height)
		m.refreshTerminal()
	}

	resize := m.resize
	return m, func() tea.Msg {
		resize.Notify()
		return nil
	}
}

// Render generates the terminal view content
func (v *TerminalViewImpl) Render(m *Model) string {
	height := m.contentHeight()

	if m.target == "" {
		return components.ApplySize(components.CenteredStyle, m.width, height).
			Render(components.MutedStyle.Render("No sandbox selected. Press Alt+3 to pick a directory."))
	}

	if m.connState == session.StateConnecting && m.emulator == nil {
		content := fmt.Sprintf("%s Connecting to %s…", m.shellSpinner.View(), m.target)
		return components.ApplySize(components.CenteredStyle.Padding(1, 0), m.width, height).Render(content)
	}

	if m.connState == session.StateClosed && m.emulator == nil && m.connErr != nil {
		return components.ApplySize(components.PanelStyle, m.width, height).
			Render(components.ErrorStyle.Render(fmt.Sprintf("Connection error: %v", m.connErr)))
	}

	return m.shellViewport.View()
}

// Status returns the connection badge shown in the header
func (v *TerminalViewImpl) Status(m *Model) string {
	switch m.connState {
	case session.StateOpen:
		return components.StatusConnectedStyle.Render("● connected")
	case session.StateConnecting:
		return components.StatusConnectingStyle.Render("○ connecting")
	case session.StateClosed:
		return components.StatusDisconnectedStyle.Render("○ disconnected")
	default:
		return components.MutedStyle.Render("○ idle")
	}
}

// refreshTerminal copies the emulator screen into the viewport
func (m *Model) refreshTerminal() {
	if m.emulator == nil {
		m.shellViewport.SetContent("")
		return
	}
	atBottom := m.shellViewport.AtBottom()
	m.shellViewport.SetContent(m.emulator.Render())
	if atBottom {
		m.shellViewport.GotoBottom()
	}
}

// forwardInput writes a keystroke to the session. Writes happen on the update
// loop so keystrokes reach the transport in the order they were typed.
func (v *TerminalViewImpl) forwardInput(m *Model, msg tea.KeyMsg) {
	s := m.currentSession()
	if s == nil {
		return
	}
	data := keyBytes(msg)
	if len(data) == 0 {
		logger.Debugf("⌨️ Unmapped key %q", msg.String())
		return
	}
	if _, err := s.Write(data); err != nil {
		logger.Debugf("⚠️ Failed to send input to %s: %v", s.Target(), err)
	}
}

// keyBytes maps a key event to the bytes a terminal would send for it
func keyBytes(msg tea.KeyMsg) []byte {
	var data []byte
	switch {
	case msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace:
		data = []byte(string(msg.Runes))
	case msg.Type >= 0 && msg.Type <= 31, msg.Type == tea.KeyBackspace:
		// control characters, including enter, tab and escape
		data = []byte{byte(msg.Type)}
	default:
		seq, ok := keySequences[msg.Type]
		if !ok {
			return nil
		}
		data = []byte(seq)
	}
	if msg.Alt && !msg.Paste {
		data = append([]byte{0x1b}, data...)
	}
	return data
}

var keySequences = map[tea.KeyType]string{
	tea.KeyUp:       "\x1b[A",
	tea.KeyDown:     "\x1b[B",
	tea.KeyRight:    "\x1b[C",
	tea.KeyLeft:     "\x1b[D",
	tea.KeyHome:     "\x1b[H",
	tea.KeyEnd:      "\x1b[F",
	tea.KeyPgUp:     "\x1b[5~",
	tea.KeyPgDown:   "\x1b[6~",
	tea.KeyInsert:   "\x1b[2~",
	tea.KeyDelete:   "\x1b[3~",
	tea.KeyShiftTab: "\x1b[Z",
	tea.KeyF1:       "\x1bOP",
	tea.KeyF2:       "\x1bOQ",
	tea.KeyF3:       "\x1bOR",
	tea.KeyF4:       "\x1bOS",
}
