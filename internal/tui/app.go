package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vanpelt/codesandbox/internal/logger"
	"github.com/vanpelt/codesandbox/internal/tui/components"
)

// App runs the terminal, diff and explorer views in one program
type App struct {
	opts    Options
	program *tea.Program
}

// NewApp creates the application
func NewApp(opts Options) *App {
	return &App{opts: opts}
}

// Run blocks until the user quits or ctx is cancelled. The live session is
// closed on the way out.
func (a *App) Run(ctx context.Context) error {
	m := NewModel(a.opts)
	a.program = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.sender.attach(a.program.Send)

	logger.Debugf("🖥️ Starting TUI (target %q)", a.opts.Target)
	_, err := a.program.Run()
	if closeErr := m.sessions.Close(); closeErr != nil {
		logger.Debugf("⚠️ Closing session: %v", closeErr)
	}

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// View renders the header, the active view and the footer
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	content := m.GetCurrentView().Render(&m)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), content, m.renderFooter())
}

func (m *Model) renderHeader() string {
	tabs := make([]string, 0, 3)
	for i, vt := range []ViewType{TerminalView, DiffView, ExplorerView} {
		label := fmt.Sprintf("%d %s", i+1, vt)
		if vt == m.currentView {
			tabs = append(tabs, components.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, components.TabStyle.Render(label))
		}
	}

	target := components.MutedStyle.Render("no sandbox")
	if m.target != "" {
		target = components.TargetStyle.Render(m.target)
	}
	status := m.views[TerminalView].(*TerminalViewImpl).Status(m)

	left := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	right := target + " " + status
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-1, 1)
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderFooter() string {
	key := components.KeyHighlightStyle.Render
	var hints []string
	switch m.currentView {
	case TerminalView:
		hints = []string{key("alt+↑↓") + " scroll"}
	case DiffView:
		hints = []string{
			key("↑↓") + " scroll",
			key("[ ]") + " file",
			key("y") + " copy",
			key("r") + " refresh",
		}
	case ExplorerView:
		hints = []string{
			key("↑↓") + " select",
			key("enter") + " open",
			key("backspace") + " up",
			key("s") + " start sandbox",
		}
	}
	hints = append(hints, key("alt+1-3")+" tabs", key("ctrl+q")+" quit")
	return components.FooterStyle.Width(max(m.width-2, 1)).Render(strings.Join(hints, "  "))
}
