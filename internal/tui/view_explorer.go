package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vanpelt/codesandbox/internal/explorer"
	"github.com/vanpelt/codesandbox/internal/logger"
	"github.com/vanpelt/codesandbox/internal/tui/components"
)

// ExplorerViewImpl browses directories on the backend and starts sandboxes
type ExplorerViewImpl struct{}

// NewExplorerView creates a new explorer view instance
func NewExplorerView() *ExplorerViewImpl {
	return &ExplorerViewImpl{}
}

// GetViewType returns the view type identifier
func (v *ExplorerViewImpl) GetViewType() ViewType {
	return ExplorerView
}

// Update handles explorer-specific message processing. Listing and start
// results are handled here whichever view is active.
func (v *ExplorerViewImpl) Update(m *Model, msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dirListedMsg:
		return v.handleListed(m, msg)
	case sandboxStartedMsg:
		return v.handleStarted(m, msg)
	}
	return m, nil
}

func (v *ExplorerViewImpl) handleListed(m *Model, msg dirListedMsg) (*Model, tea.Cmd) {
	m.explorerLoading = false
	if msg.err != nil {
		m.explorerErr = msg.err
		return m, nil
	}
	m.explorerErr = nil
	m.explorerPath = msg.path
	m.entries = msg.entries
	m.selectedEntry = 0
	return m, nil
}

// handleStarted switches the whole app to a freshly started sandbox. A
// failed start only shows an error in this panel; the target stays as it
// was.
func (v *ExplorerViewImpl) handleStarted(m *Model, msg sandboxStartedMsg) (*Model, tea.Cmd) {
	m.explorerLoading = false
	if msg.err != nil {
		logger.Warnf("⚠️ Failed to start sandbox in %s: %v", msg.path, msg.err)
		m.explorerErr = msg.err
		m.explorerMessage = ""
		return m, nil
	}

	logger.Infof("🚀 Started sandbox %s in %s", msg.target, msg.path)
	m.explorerErr = nil
	m.explorerMessage = fmt.Sprintf("Started %s", msg.target)
	cmd := m.switchTarget(msg.target)
	m.SwitchToView(TerminalView)
	return m, cmd
}

// HandleKey processes key messages for the explorer view
func (v *ExplorerViewImpl) HandleKey(m *Model, msg tea.KeyMsg) (*Model, tea.Cmd) {
	if m.opts.Explorer == nil || m.explorerLoading {
		return m, nil
	}

	switch msg.String() {
	case components.KeyUp, components.KeyVimUp:
		if m.selectedEntry > 0 {
			m.selectedEntry--
		}
	case components.KeyDown, components.KeyVimDown:
		if m.selectedEntry < len(m.entries)-1 {
			m.selectedEntry++
		}
	case components.KeyEnter:
		if m.selectedEntry < len(m.entries) {
			return v.open(m, m.entries[m.selectedEntry].Path)
		}
	case components.KeyExplorerParent:
		return v.open(m, explorer.Parent(m.explorerPath))
	case components.KeyExplorerStart:
		path := m.explorerPath
		if m.selectedEntry < len(m.entries) {
			path = m.entries[m.selectedEntry].Path
		}
		m.explorerLoading = true
		m.explorerMessage = fmt.Sprintf("Starting sandbox in %s…", path)
		return m, m.startSandbox(path)
	}
	return m, nil
}

func (v *ExplorerViewImpl) open(m *Model, path string) (*Model, tea.Cmd) {
	m.explorerLoading = true
	m.explorerMessage = ""
	return m, m.listDir(path)
}

// HandleResize processes window resize for the explorer view
func (v *ExplorerViewImpl) HandleResize(m *Model, msg tea.WindowSizeMsg) (*Model, tea.Cmd) {
	return m, nil
}

// Render generates the explorer view content
func (v *ExplorerViewImpl) Render(m *Model) string {
	height := m.contentHeight()
	if m.opts.Explorer == nil {
		return components.ApplySize(components.CenteredStyle, m.width, height).
			Render(components.MutedStyle.Render("Explorer unavailable"))
	}

	var b strings.Builder
	b.WriteString(components.TargetStyle.Render(m.explorerPath))
	b.WriteString("\n")

	switch {
	case m.explorerErr != nil:
		b.WriteString(components.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.explorerErr)))
	case m.explorerMessage != "":
		b.WriteString(components.MutedStyle.Render(m.explorerMessage))
	}
	b.WriteString("\n")

	// keep the selection on screen
	listHeight := max(height-2, 1)
	start := 0
	if m.selectedEntry >= listHeight {
		start = m.selectedEntry - listHeight + 1
	}
	end := min(start+listHeight, len(m.entries))

	if len(m.entries) == 0 && !m.explorerLoading {
		b.WriteString(components.MutedStyle.Render("No subdirectories"))
	}
	for i := start; i < end; i++ {
		name := m.entries[i].Name + "/"
		if i == m.selectedEntry {
			b.WriteString(components.SelectedStyle.Render("▸ " + name))
		} else {
			b.WriteString("  " + name)
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return components.ApplySize(components.PanelStyle, m.width, height).Render(b.String())
}
