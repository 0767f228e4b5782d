package tui

import (
	"github.com/vanpelt/codesandbox/internal/changes"
	"github.com/vanpelt/codesandbox/internal/explorer"
	"github.com/vanpelt/codesandbox/internal/session"
)

// Session messages carry the id of the session they came from; anything not
// from the current session is dropped.
type sessionSwitchedMsg struct {
	target    string
	sessionID string
	emulator  *TerminalEmulator
	err       error
}

type sessionStateMsg struct {
	sessionID string
	state     session.State
	err       error
}

type terminalOutputMsg struct {
	sessionID string
}

// Changes panel messages
type changesTickMsg struct{}

type changesFetchedMsg struct {
	req     changes.Request
	changes *changes.ChangeSet
	err     error
}

type clipboardMsg struct {
	path string
	err  error
}

// Explorer messages
type dirListedMsg struct {
	path    string
	entries []explorer.DirEntry
	err     error
}

type sandboxStartedMsg struct {
	path   string
	target string
	err    error
}

type quitMsg struct{}
