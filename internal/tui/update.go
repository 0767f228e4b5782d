package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vanpelt/codesandbox/internal/logger"
	"github.com/vanpelt/codesandbox/internal/session"
	"github.com/vanpelt/codesandbox/internal/tui/components"
)

// Init connects the initial target and starts polling for changes
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.listDir(m.explorerPath), changesTick(m.presenter.Interval())}
	if m.target != "" {
		cmds = append(cmds, m.connect(m.target), m.fetchChanges(), m.shellSpinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update is the main update function that routes messages to appropriate handlers
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// First, handle global window sizing
	if windowMsg, ok := msg.(tea.WindowSizeMsg); ok {
		return m.handleWindowResize(windowMsg)
	}

	// Route key messages to current view
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKeyMessage(keyMsg)
	}

	// Handle spinner updates
	if spinnerMsg, ok := msg.(spinner.TickMsg); ok {
		return m.handleSpinnerTick(spinnerMsg)
	}

	// Route other messages by type
	switch msg := msg.(type) {
	case sessionSwitchedMsg:
		return m.handleSessionSwitched(msg)
	case sessionStateMsg:
		return m.handleSessionState(msg)
	case terminalOutputMsg:
		return m.handleTerminalOutput(msg)
	case changesTickMsg:
		return m.handleChangesTick()
	case changesFetchedMsg:
		return m.handleChangesFetched(msg)
	case dirListedMsg, sandboxStartedMsg:
		newModel, cmd := m.views[ExplorerView].Update(&m, msg)
		return *newModel, cmd
	case clipboardMsg:
		newModel, cmd := m.views[DiffView].Update(&m, msg)
		return *newModel, cmd
	case quitMsg:
		return m.quit()
	}

	// Let current view handle any remaining messages
	newModel, cmd := m.GetCurrentView().Update(&m, msg)
	return *newModel, cmd
}

// Window resize handler. Every pane is laid out on each resize so switching
// tabs never shows a stale size.
func (m Model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	var cmds []tea.Cmd
	for _, vt := range []ViewType{TerminalView, DiffView, ExplorerView} {
		newModel, cmd := m.views[vt].HandleResize(&m, msg)
		m = *newModel
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// Key message router with global key handling
func (m Model) handleKeyMessage(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle global navigation keys first (available in all views)
	if newModel, cmd, handled := m.handleGlobalKeys(msg); handled {
		return *newModel, cmd
	}

	// Let current view handle the key
	newModel, cmd := m.GetCurrentView().HandleKey(&m, msg)
	return *newModel, cmd
}

func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (*Model, tea.Cmd, bool) {
	key := msg.String()
	if !components.IsGlobalNavigationKey(key) {
		return m, nil, false
	}
	if key == components.KeyQuit {
		newModel, cmd := m.quit()
		mm := newModel.(Model)
		return &mm, cmd, true
	}

	m.SwitchToView(ViewType(components.TabIndex(key)))
	switch m.currentView {
	case TerminalView:
		m.refreshTerminal()
	case DiffView:
		m.refreshDiff()
	}
	return m, nil, true
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitRequested = true
	if err := m.sessions.Close(); err != nil {
		logger.Debugf("⚠️ Closing session on quit: %v", err)
	}
	return m, tea.Quit
}

// Spinner tick handler
func (m Model) handleSpinnerTick(msg spinner.TickMsg) (tea.Model, tea.Cmd) {
	if m.quitRequested || m.connState != session.StateConnecting {
		return m, nil
	}
	var cmd tea.Cmd
	m.shellSpinner, cmd = m.shellSpinner.Update(msg)
	return m, cmd
}

// switchTarget rebinds the terminal and the changes panel to target
func (m *Model) switchTarget(target string) tea.Cmd {
	logger.Infof("🎯 Switching target to %q", target)
	m.target = target
	m.sessionID = ""
	m.emulator = nil
	m.connErr = nil
	m.connState = session.StateIdle
	m.shellViewport.SetContent("")
	m.selectedFile = 0
	m.diffStatus = ""

	m.presenter.SetTarget(target)
	m.refreshDiff()

	if target == "" {
		return tea.Batch(m.connect(""), m.fetchChanges())
	}
	m.connState = session.StateConnecting
	return tea.Batch(m.connect(target), m.fetchChanges(), m.shellSpinner.Tick)
}

// Session message handlers
func (m Model) handleSessionSwitched(msg sessionSwitchedMsg) (tea.Model, tea.Cmd) {
	if msg.target != m.target {
		// an older switch finished after a newer one; make sure the target the
		// user picked last is the one left standing
		logger.Debugf("🔄 Switch to %q finished after switch to %q, reconnecting", msg.target, m.target)
		if s := m.sessions.Current(); s == nil || s.Target() != m.target {
			return m, m.connect(m.target)
		}
		return m, nil
	}

	if msg.sessionID == "" {
		if msg.err != nil {
			m.connState = session.StateClosed
			m.connErr = msg.err
		}
		return m, nil
	}

	if s := m.sessions.Current(); s == nil || s.ID() != msg.sessionID {
		// superseded by a later switch to the same target
		return m, nil
	}
	m.sessionID = msg.sessionID
	m.emulator = msg.emulator
	if m.emulator != nil {
		m.emulator.Resize(m.shellViewport.Width, m.shellViewport.Height)
	}
	m.syncSessionState()
	m.refreshTerminal()
	return m, nil
}

func (m Model) handleSessionState(msg sessionStateMsg) (tea.Model, tea.Cmd) {
	if msg.sessionID != m.sessionID {
		return m, nil
	}
	// notifications arrive on their own goroutines and may be reordered, so
	// take the state from the session rather than the message
	m.syncSessionState()
	m.refreshTerminal()
	return m, nil
}

func (m *Model) syncSessionState() {
	s := m.currentSession()
	if s == nil {
		return
	}
	m.connState = s.State()
	m.connErr = s.Reason()
}

func (m Model) handleTerminalOutput(msg terminalOutputMsg) (tea.Model, tea.Cmd) {
	if msg.sessionID != m.sessionID {
		return m, nil
	}
	m.refreshTerminal()
	return m, nil
}

// Changes handlers
func (m Model) handleChangesTick() (tea.Model, tea.Cmd) {
	if m.quitRequested {
		return m, nil
	}
	return m, tea.Batch(changesTick(m.presenter.Interval()), m.fetchChanges())
}

func (m Model) handleChangesFetched(msg changesFetchedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		logger.Debugf("⚠️ Change set fetch for %s failed: %v", msg.req.Target, msg.err)
	}
	if !m.presenter.Apply(msg.req, msg.changes, msg.err) {
		return m, nil
	}
	if files := m.changedFiles(); m.selectedFile >= len(files) {
		m.selectedFile = max(len(files)-1, 0)
	}
	m.refreshDiff()
	return m, nil
}
