package session

import (
	"errors"
	"sync"
	"time"

	"github.com/vanpelt/codesandbox/internal/logger"
)

// DefaultFitDelay lets the host finish laying out before the first measurement
const DefaultFitDelay = 150 * time.Millisecond

// SizeSource measures the area the terminal is rendered into
type SizeSource interface {
	Size() (Geometry, error)
}

// SizeFunc adapts a function to SizeSource
type SizeFunc func() (Geometry, error)

func (f SizeFunc) Size() (Geometry, error) { return f() }

// Notifier reports that the rendered area may have changed size
type Notifier interface {
	Subscribe(fn func()) (unsubscribe func())
}

// ManualNotifier is a Notifier fired explicitly by its owner, e.g. when a
// TUI learns about a new window size or relayouts its panes.
type ManualNotifier struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

// Subscribe implements Notifier
func (n *ManualNotifier) Subscribe(fn func()) func() {
	n.mu.Lock()
	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

// Notify calls every current subscriber
func (n *ManualNotifier) Notify() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Subscribers returns the number of live subscriptions
func (n *ManualNotifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

var errZeroArea = errors.New("rendered area has zero size")

// Negotiator keeps the remote grid in step with the local one. Every trigger
// does a full remeasure, so running one twice is harmless.
type Negotiator struct {
	source SizeSource
	send   func(Geometry) error
	delay  time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	unsubs  []func()
	stopped bool
	last    Geometry
}

// NewNegotiator builds a Negotiator that measures source and hands the result
// to send. A non-positive delay means DefaultFitDelay.
func NewNegotiator(source SizeSource, send func(Geometry) error, delay time.Duration) *Negotiator {
	if delay <= 0 {
		delay = DefaultFitDelay
	}
	return &Negotiator{source: source, send: send, delay: delay}
}

// Fit measures the area and sends the resulting geometry. Measurement
// failures are logged and skipped.
func (n *Negotiator) Fit() (Geometry, bool) {
	n.mu.Lock()
	stopped := n.stopped
	n.mu.Unlock()
	if stopped || n.source == nil {
		return Geometry{}, false
	}

	g, err := n.source.Size()
	if err == nil && !g.Valid() {
		err = errZeroArea
	}
	if err != nil {
		logger.Debugf("📐 Skipping fit: %v", err)
		return Geometry{}, false
	}

	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return Geometry{}, false
	}
	n.last = g
	n.mu.Unlock()

	// send may take the session lock; never call it holding ours
	if err := n.send(g); err != nil {
		logger.Debugf("📐 Resize to %s not sent: %v", g, err)
		return g, false
	}
	return g, true
}

// ScheduleInitialFit runs one Fit after the settle delay
func (n *Negotiator) ScheduleInitialFit() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		return
	}
	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.delay, func() { n.Fit() })
}

// Watch refits whenever any of the notifiers fires
func (n *Negotiator) Watch(notifiers ...Notifier) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		return
	}
	for _, nt := range notifiers {
		if nt == nil {
			continue
		}
		n.unsubs = append(n.unsubs, nt.Subscribe(func() { n.Fit() }))
	}
}

// Stop cancels the pending initial fit and removes every listener. It is safe
// to call more than once.
func (n *Negotiator) Stop() {
	n.mu.Lock()
	n.stopped = true
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	unsubs := n.unsubs
	n.unsubs = nil
	n.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// Last returns the most recently measured geometry
func (n *Negotiator) Last() Geometry {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}
