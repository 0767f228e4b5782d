// Package session connects a local terminal to a remote shell bound to one
// target over a websocket byte stream.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vanpelt/codesandbox/internal/logger"
)

var (
	// ErrSessionClosed is returned by operations on a Session that has closed
	ErrSessionClosed = errors.New("session: closed")
	// ErrNotOpen is returned when a control message is attempted before the
	// transport is open
	ErrNotOpen = errors.New("session: not open")
	// ErrRemoteClosed is the close reason when the remote side hangs up cleanly
	ErrRemoteClosed = errors.New("session: closed by remote")
)

const (
	bannerOpen        = "\x1b[2m[connected to %s]\x1b[0m\r\n"
	bannerError       = "\r\n\x1b[31m[connection error: %v]\x1b[0m\r\n"
	bannerRemoteClose = "\r\n\x1b[2m[session ended by remote host]\x1b[0m\r\n"
	bannerLocalClose  = "\r\n\x1b[2m[session closed]\x1b[0m\r\n"
)

// Options configure a Session
type Options struct {
	// Server is the http(s) base URL of the backend
	Server *url.URL
	Auth   Auth
	// Page holds the page parameters the startup command and working
	// directory are taken from
	Page url.Values

	Dialer   Dialer
	Terminal Terminal

	// Size measures the rendered area. Without it the Session never sends a
	// resize on its own; hosts can still call Resize.
	Size      SizeSource
	Notifiers []Notifier
	FitDelay  time.Duration

	// Tap, if set, receives a copy of every byte written to the terminal
	Tap io.Writer

	// OnStateChange is called outside the session lock after every transition
	OnStateChange func(state State, reason error)
}

// Session is one live binding of a target, a transport and a terminal.
// A closed Session stays closed; build a new one to reconnect.
type Session struct {
	id       string
	target   string
	opts     Options
	log      zerolog.Logger
	geometry *Negotiator

	mu        sync.Mutex
	state     State
	reason    error
	transport Transport
	torndown  bool

	done     chan struct{}
	doneOnce sync.Once
}

// New builds an idle Session for target. Nothing is dialled until Open.
func New(target string, opts Options) (*Session, error) {
	if target == "" {
		return nil, ErrNoTarget
	}
	if opts.Terminal == nil {
		return nil, errors.New("session: no terminal")
	}
	if _, _, err := opts.Auth.token(target); err != nil {
		return nil, err
	}
	if opts.Dialer == nil {
		opts.Dialer = &WebsocketDialer{}
	}

	id := uuid.NewString()
	s := &Session{
		id:     id,
		target: target,
		opts:   opts,
		log:    logger.Logger.With().Str("session", id[:8]).Str("target", target).Logger(),
		done:   make(chan struct{}),
	}
	s.geometry = NewNegotiator(opts.Size, s.sendResize, opts.FitDelay)
	return s, nil
}

// ID returns the random id used to correlate logs and host messages
func (s *Session) ID() string { return s.id }

// Target returns the target the Session is bound to
func (s *Session) Target() string { return s.target }

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reason returns why the Session closed, nil while it is not closed or if
// it was closed locally.
func (s *Session) Reason() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Done is closed once the Session reaches StateClosed
func (s *Session) Done() <-chan struct{} { return s.done }

// Terminal returns the terminal the Session writes to
func (s *Session) Terminal() Terminal { return s.opts.Terminal }

// LastGeometry returns the last measured grid size
func (s *Session) LastGeometry() Geometry { return s.geometry.Last() }

// Open dials the transport and starts relaying. Startup command and working
// directory travel once, in the handshake query.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if !s.setStateLocked(StateConnecting) {
		st := s.state
		s.mu.Unlock()
		if st == StateClosed {
			return ErrSessionClosed
		}
		return fmt.Errorf("session: cannot open from state %s", st)
	}
	s.mu.Unlock()
	s.notify(StateConnecting, nil)

	endpoint, err := Endpoint(s.opts.Server, s.target, s.opts.Auth, s.opts.Page)
	if err != nil {
		s.fail(err)
		return err
	}

	s.log.Debug().Str("host", endpoint.Host).Msg("🔌 Connecting terminal")
	t, err := s.opts.Dialer.Dial(ctx, endpoint)
	if err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	if !s.setStateLocked(StateOpen) {
		// closed while dialling
		s.mu.Unlock()
		_ = t.Close()
		return ErrSessionClosed
	}
	s.transport = t
	s.writeLocked([]byte(fmt.Sprintf(bannerOpen, s.target)))
	s.mu.Unlock()

	s.log.Info().Msg("✅ Terminal connected")
	s.notify(StateOpen, nil)

	t.Start(TransportEvents{
		OnMessage: func(data []byte) { s.handleMessage(t, data) },
		OnClose:   func(err error) { s.handleRemoteClose(t, err) },
	})
	s.geometry.Watch(s.opts.Notifiers...)
	s.geometry.ScheduleInitialFit()
	return nil
}

// Write forwards keystroke or paste bytes verbatim. Input before the
// transport is open is dropped; input after close fails with ErrSessionClosed.
// The send runs outside the session lock.
func (s *Session) Write(p []byte) (int, error) {
	s.mu.Lock()
	state, t := s.state, s.transport
	s.mu.Unlock()

	switch state {
	case StateOpen:
		if err := t.Send(p); err != nil {
			return 0, err
		}
		return len(p), nil
	case StateClosed:
		return 0, ErrSessionClosed
	default:
		return len(p), nil
	}
}

// Resize sends g to the remote side if the transport is open
func (s *Session) Resize(g Geometry) error {
	if !g.Valid() {
		return fmt.Errorf("session: invalid geometry %s", g)
	}
	return s.sendResize(g)
}

// Fit remeasures the rendered area and sends the result
func (s *Session) Fit() (Geometry, bool) {
	return s.geometry.Fit()
}

func (s *Session) sendResize(g Geometry) error {
	s.mu.Lock()
	state, t := s.state, s.transport
	s.mu.Unlock()
	if state != StateOpen {
		return ErrNotOpen
	}
	return t.Send(EncodeResize(g))
}

// Close tears the Session down synchronously: when it returns the transport
// is closed, the deferred fit is cancelled, size listeners are gone and the
// terminal is disposed. Later callbacks from the old transport are no-ops.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.torndown {
		s.mu.Unlock()
		return nil
	}
	s.torndown = true
	wasClosed := !s.setStateLocked(StateClosed)

	var t Transport
	if !wasClosed {
		s.writeLocked([]byte(bannerLocalClose))
		t = s.transport
	}
	s.opts.Terminal.Dispose()
	s.mu.Unlock()

	// the state is already Closed, so callbacks from t are ignored
	var err error
	if t != nil {
		err = t.Close()
	}

	s.geometry.Stop()
	s.finish()
	if !wasClosed {
		s.log.Debug().Msg("Terminal session closed")
		s.notify(StateClosed, nil)
	}
	return err
}

func (s *Session) handleMessage(t Transport, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen || s.transport != t {
		return
	}
	s.writeLocked(data)
}

func (s *Session) handleRemoteClose(t Transport, err error) {
	s.mu.Lock()
	if s.transport != t || !s.setStateLocked(StateClosed) {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.reason = err
		s.writeLocked([]byte(fmt.Sprintf(bannerError, err)))
	} else {
		s.reason = ErrRemoteClosed
		s.writeLocked([]byte(bannerRemoteClose))
	}
	reason := s.reason
	s.mu.Unlock()

	_ = t.Close()

	if err != nil {
		s.log.Warn().Err(err).Msg("⚠️ Terminal connection lost")
	} else {
		s.log.Info().Msg("Terminal closed by remote")
	}
	s.geometry.Stop()
	s.finish()
	s.notify(StateClosed, reason)
}

// fail closes a Session whose open attempt went wrong. The terminal stays
// alive so the error banner remains visible until Close.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if !s.setStateLocked(StateClosed) {
		s.mu.Unlock()
		return
	}
	s.reason = err
	s.writeLocked([]byte(fmt.Sprintf(bannerError, err)))
	s.mu.Unlock()

	s.log.Error().Err(err).Msg("❌ Terminal connection failed")
	s.geometry.Stop()
	s.finish()
	s.notify(StateClosed, err)
}

// setStateLocked moves to the given state if that is a legal transition.
// Every state change goes through here; s.mu must be held.
func (s *Session) setStateLocked(to State) bool {
	if !s.state.canTransition(to) {
		return false
	}
	s.state = to
	return true
}

// writeLocked must be called with s.mu held
func (s *Session) writeLocked(p []byte) {
	if _, err := s.opts.Terminal.Write(p); err != nil {
		s.log.Debug().Err(err).Msg("terminal write failed")
	}
	if s.opts.Tap != nil {
		_, _ = s.opts.Tap.Write(p)
	}
}

func (s *Session) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Session) notify(state State, reason error) {
	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(state, reason)
	}
}
