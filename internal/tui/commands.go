package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vanpelt/codesandbox/internal/changes"
	"github.com/vanpelt/codesandbox/internal/explorer"
)

// Ticker commands
func changesTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return changesTickMsg{}
	})
}

// Session commands

// connect switches the live session to target. The dial happens on the
// command goroutine so a slow handshake never stalls the update loop.
func (m *Model) connect(target string) tea.Cmd {
	sessions := m.sessions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		s, err := sessions.Switch(ctx, target)
		msg := sessionSwitchedMsg{target: target, err: err}
		if s != nil {
			msg.sessionID = s.ID()
			msg.emulator, _ = s.Terminal().(*TerminalEmulator)
		}
		return msg
	}
}

// Data fetching commands
func (m *Model) fetchChanges() tea.Cmd {
	if m.opts.Changes == nil {
		return nil
	}
	req, ok := m.presenter.Begin()
	if !ok {
		return nil
	}
	source := m.opts.Changes
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		cs, err := source.Changed(ctx, req.Target)
		return changesFetchedMsg{req: req, changes: cs, err: err}
	}
}

func (m *Model) copyDiff(f changes.FileChange) tea.Cmd {
	copyText := m.copyText
	return func() tea.Msg {
		text := ""
		if f.Diff != nil {
			text = *f.Diff
		}
		return clipboardMsg{path: f.Path, err: copyText(text)}
	}
}

// Explorer commands
func (m *Model) listDir(path string) tea.Cmd {
	source := m.opts.Explorer
	if source == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		entries, err := source.List(ctx, path)
		return dirListedMsg{path: path, entries: explorer.Dirs(entries), err: err}
	}
}

func (m *Model) startSandbox(path string) tea.Cmd {
	source := m.opts.Explorer
	agent := m.opts.Agent
	if agent == "" {
		agent = explorer.DefaultAgent
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		target, err := source.Start(ctx, path, agent)
		return sandboxStartedMsg{path: path, target: target, err: err}
	}
}
