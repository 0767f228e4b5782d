package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vanpelt/codesandbox/internal/changes"
	"github.com/vanpelt/codesandbox/internal/tui/components"
)

// DiffViewImpl shows the working-tree changes of the active target
type DiffViewImpl struct{}

// NewDiffView creates a new diff view instance
func NewDiffView() *DiffViewImpl {
	return &DiffViewImpl{}
}

// GetViewType returns the view type identifier
func (v *DiffViewImpl) GetViewType() ViewType {
	return DiffView
}

// Update handles diff-specific message processing
func (v *DiffViewImpl) Update(m *Model, msg tea.Msg) (*Model, tea.Cmd) {
	if msg, ok := msg.(clipboardMsg); ok {
		if msg.err != nil {
			m.diffStatus = components.ErrorStyle.Render(fmt.Sprintf("Copy failed: %v", msg.err))
		} else {
			m.diffStatus = fmt.Sprintf("Copied diff of %s", msg.path)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.diffViewport, cmd = m.diffViewport.Update(msg)
	return m, cmd
}

// HandleKey processes key messages for the diff view
func (v *DiffViewImpl) HandleKey(m *Model, msg tea.KeyMsg) (*Model, tea.Cmd) {
	files := m.changedFiles()

	switch msg.String() {
	case components.KeyUp, components.KeyVimUp:
		m.diffViewport.ScrollUp(1)
	case components.KeyDown, components.KeyVimDown:
		m.diffViewport.ScrollDown(1)
	case components.KeyPageUp:
		m.diffViewport.PageUp()
	case components.KeyPageDown:
		m.diffViewport.PageDown()
	case components.KeyHome, components.KeyVimTop:
		m.diffViewport.GotoTop()
	case components.KeyEnd, components.KeyVimBottom:
		m.diffViewport.GotoBottom()

	case components.KeyDiffNextFile:
		if m.selectedFile < len(files)-1 {
			m.selectedFile++
			m.refreshDiff()
			m.scrollToSelectedFile()
		}
	case components.KeyDiffPrevFile:
		if m.selectedFile > 0 {
			m.selectedFile--
			m.refreshDiff()
			m.scrollToSelectedFile()
		}

	case components.KeyDiffCopy:
		if m.selectedFile < len(files) {
			return m, m.copyDiff(files[m.selectedFile])
		}
	case components.KeyDiffRefresh:
		m.diffStatus = ""
		return m, m.fetchChanges()
	}
	return m, nil
}

// HandleResize processes window resize for the diff view
func (v *DiffViewImpl) HandleResize(m *Model, msg tea.WindowSizeMsg) (*Model, tea.Cmd) {
	m.diffViewport.Width = msg.Width
	// one row for the summary line
	m.diffViewport.Height = max(m.contentHeight()-1, 1)
	m.refreshDiff()
	return m, nil
}

// Render generates the diff view content
func (v *DiffViewImpl) Render(m *Model) string {
	return v.summary(m) + "\n" + m.diffViewport.View()
}

func (v *DiffViewImpl) summary(m *Model) string {
	snap := m.presenter.Snapshot()
	if snap.Phase != changes.PhaseReady || snap.Changes == nil {
		return components.MutedStyle.Render(snap.Phase.String())
	}
	files := snap.Changes.Files
	parts := []string{fmt.Sprintf("%d files changed", len(files))}
	if len(files) == 1 {
		parts[0] = "1 file changed"
	}
	if !snap.UpdatedAt.IsZero() {
		parts = append(parts, "updated "+snap.UpdatedAt.Format("15:04:05"))
	}
	if m.diffStatus != "" {
		parts = append(parts, m.diffStatus)
	}
	return components.MutedStyle.Render(strings.Join(parts, " · "))
}

// changedFiles returns the files of the applied change set
func (m *Model) changedFiles() []changes.FileChange {
	snap := m.presenter.Snapshot()
	if snap.Phase != changes.PhaseReady || snap.Changes == nil {
		return nil
	}
	return snap.Changes.Files
}

// refreshDiff re-renders the presenter snapshot into the viewport. The
// selected file is marked so copy and navigation have a visible anchor.
func (m *Model) refreshDiff() {
	snap := m.presenter.Snapshot()
	files := m.changedFiles()
	if len(files) == 0 {
		m.diffViewport.SetContent(m.renderer.Snapshot(snap))
		return
	}

	parts := make([]string, 0, len(files))
	for i, f := range files {
		marker := "  "
		if i == m.selectedFile {
			marker = components.SelectedStyle.Render("▸ ")
		}
		parts = append(parts, marker+m.renderer.File(f))
	}
	m.diffViewport.SetContent(strings.Join(parts, "\n\n"))
}

// scrollToSelectedFile moves the viewport to the selected file's header
func (m *Model) scrollToSelectedFile() {
	files := m.changedFiles()
	offset := 0
	for i := 0; i < m.selectedFile && i < len(files); i++ {
		offset += strings.Count(m.renderer.File(files[i]), "\n") + 2
	}
	m.diffViewport.SetYOffset(offset)
}
