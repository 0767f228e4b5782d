package tui

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vanpelt/codesandbox/internal/changes"
	"github.com/vanpelt/codesandbox/internal/explorer"
	"github.com/vanpelt/codesandbox/internal/recovery"
	"github.com/vanpelt/codesandbox/internal/session"
)

// ViewType represents the different views in the application
type ViewType int

const (
	// TerminalView shows the remote shell of the active target
	TerminalView ViewType = iota
	// DiffView shows the working-tree changes of the active target
	DiffView
	// ExplorerView browses directories and starts new sandboxes
	ExplorerView
)

func (v ViewType) String() string {
	switch v {
	case DiffView:
		return "Diff"
	case ExplorerView:
		return "Explorer"
	default:
		return "Terminal"
	}
}

// View interface that all views must implement
type View interface {
	// Update handles view-specific message processing
	Update(m *Model, msg tea.Msg) (*Model, tea.Cmd)

	// Render generates the view content
	Render(m *Model) string

	// HandleKey processes key messages for this view
	HandleKey(m *Model, msg tea.KeyMsg) (*Model, tea.Cmd)

	// HandleResize processes window resize messages
	HandleResize(m *Model, msg tea.WindowSizeMsg) (*Model, tea.Cmd)

	// GetViewType returns the view type identifier
	GetViewType() ViewType
}

// Explorer is what the explorer view needs from the backend
type Explorer interface {
	List(ctx context.Context, path string) ([]explorer.DirEntry, error)
	Start(ctx context.Context, path, agent string) (string, error)
}

// Options configure the TUI
type Options struct {
	Server *url.URL
	Auth   session.Auth
	// Target is the sandbox to attach to on start; empty opens the explorer
	Target string
	// Page holds the startup command and working directory for Target. They
	// are sent with the first connection only.
	Page url.Values

	Dialer   session.Dialer
	FitDelay time.Duration
	Tap      io.Writer

	Changes      changes.Source
	PollInterval time.Duration
	Renderer     *changes.Renderer

	Explorer  Explorer
	StartPath string
	Agent     string

	// Copy puts text on the clipboard; defaults to the system clipboard
	Copy func(text string) error
}

const (
	headerHeight   = 1
	footerHeight   = 2
	connectTimeout = 15 * time.Second
	fetchTimeout   = 5 * time.Second
)

// Model represents the main application state
type Model struct {
	opts     Options
	sender   *programSender
	pageUsed *atomic.Bool

	// Core dependencies
	sessions  *session.Manager
	resize    *session.ManualNotifier
	pane      *paneSize
	presenter *changes.Presenter
	renderer  *changes.Renderer
	copyText  func(string) error

	// Current state
	currentView   ViewType
	width         int
	height        int
	target        string
	quitRequested bool

	// Terminal view
	sessionID     string
	emulator      *TerminalEmulator
	connState     session.State
	connErr       error
	shellViewport viewport.Model
	shellSpinner  spinner.Model

	// Diff view
	diffViewport viewport.Model
	selectedFile int
	diffStatus   string

	// Explorer view
	explorerPath    string
	entries         []explorer.DirEntry
	selectedEntry   int
	explorerLoading bool
	explorerErr     error
	explorerMessage string

	// View instances
	views map[ViewType]View
}

// NewModel creates the application model. The initial target, if any, is
// connected by Init.
func NewModel(opts Options) Model {
	if opts.StartPath == "" {
		opts.StartPath = "/"
	}
	copyText := opts.Copy
	if copyText == nil {
		copyText = clipboard.WriteAll
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = changes.NewRenderer()
	}

	m := Model{
		opts:          opts,
		sender:        &programSender{},
		pageUsed:      &atomic.Bool{},
		resize:        &session.ManualNotifier{},
		pane:          &paneSize{cols: 80, rows: 24},
		presenter:     changes.NewPresenter(opts.Changes, opts.PollInterval),
		renderer:      renderer,
		copyText:      copyText,
		currentView:   TerminalView,
		connState:     session.StateIdle,
		shellSpinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		shellViewport: viewport.New(80, 24),
		diffViewport:  viewport.New(80, 24),
		explorerPath:  opts.StartPath,
		views:         make(map[ViewType]View),
	}
	m.sessions = session.NewManager(m.newSession)

	m.views[TerminalView] = NewTerminalView()
	m.views[DiffView] = NewDiffView()
	m.views[ExplorerView] = NewExplorerView()

	m.target = opts.Target
	m.presenter.SetTarget(opts.Target)
	if opts.Target == "" {
		m.currentView = ExplorerView
	} else {
		m.connState = session.StateConnecting
	}
	return m
}

// newSession builds the session for target with a fresh emulator sized to
// the terminal pane. It runs on a command goroutine, never on the update
// loop.
func (m Model) newSession(target string) (*session.Session, error) {
	cols, rows := m.pane.get()
	emu := NewTerminalEmulator(cols, rows)

	var page url.Values
	if target == m.opts.Target && m.pageUsed.CompareAndSwap(false, true) {
		page = m.opts.Page
	}

	var id atomic.Value
	sender := m.sender
	s, err := session.New(target, session.Options{
		Server:    m.opts.Server,
		Auth:      m.opts.Auth,
		Page:      page,
		Dialer:    m.opts.Dialer,
		Terminal:  emu,
		Size:      session.SizeFunc(m.pane.geometry),
		Notifiers: []session.Notifier{m.resize},
		FitDelay:  m.opts.FitDelay,
		Tap:       m.opts.Tap,
		OnStateChange: func(state session.State, reason error) {
			sid, _ := id.Load().(string)
			// never block the goroutine that changed state; it may be the
			// update loop itself
			go sender.Send(sessionStateMsg{sessionID: sid, state: state, err: reason})
		},
	})
	if err != nil {
		return nil, err
	}
	id.Store(s.ID())
	sender.pump(s.ID(), emu)
	return s, nil
}

// GetCurrentView returns the currently active view
func (m *Model) GetCurrentView() View {
	return m.views[m.currentView]
}

// SwitchToView changes the current view
func (m *Model) SwitchToView(viewType ViewType) {
	m.currentView = viewType
}

// Target returns the active target
func (m *Model) Target() string {
	return m.target
}

// currentSession returns the live session if it is the one this model is
// showing
func (m *Model) currentSession() *session.Session {
	s := m.sessions.Current()
	if s == nil || s.ID() != m.sessionID {
		return nil
	}
	return s
}

func (m *Model) contentHeight() int {
	return max(m.height-headerHeight-footerHeight, 1)
}

// programSender forwards messages into the running program. Until the
// program is attached, messages are dropped.
type programSender struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

func (s *programSender) attach(send func(tea.Msg)) {
	s.mu.Lock()
	s.send = send
	s.mu.Unlock()
}

func (s *programSender) Send(msg tea.Msg) {
	s.mu.RLock()
	send := s.send
	s.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}

// pump turns emulator dirty signals into render messages until the emulator
// is disposed
func (s *programSender) pump(sessionID string, emu *TerminalEmulator) {
	recovery.SafeGo("terminal-pump", func() {
		for {
			select {
			case <-emu.Dirty():
				s.Send(terminalOutputMsg{sessionID: sessionID})
			case <-emu.Done():
				return
			}
		}
	})
}

// paneSize is the terminal pane size shared with session size sources
type paneSize struct {
	mu   sync.Mutex
	cols int
	rows int
}

func (p *paneSize) set(cols, rows int) {
	p.mu.Lock()
	p.cols, p.rows = cols, rows
	p.mu.Unlock()
}

func (p *paneSize) get() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cols, p.rows
}

var errPaneNotLaidOut = errors.New("terminal pane not laid out")

func (p *paneSize) geometry() (session.Geometry, error) {
	cols, rows := p.get()
	if cols < 1 || rows < 1 {
		return session.Geometry{}, errPaneNotLaidOut
	}
	return session.Geometry{Cols: cols, Rows: rows}, nil
}
