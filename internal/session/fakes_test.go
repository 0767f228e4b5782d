package session

import (
	"bytes"
	"context"
	"net"
	"net/url"
	"sync"
)

type fakeTransport struct {
	mu             sync.Mutex
	sent           [][]byte
	closed         bool
	sendAfterClose int
	events         TransportEvents
	started        bool

	// gate, if set, holds every Send until it is closed
	gate    chan struct{}
	pending int
}

func (f *fakeTransport) Start(events TransportEvents) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = events
	f.started = true
}

func (f *fakeTransport) Send(data []byte) error {
	f.mu.Lock()
	gate := f.gate
	f.pending++
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending--
	if f.closed {
		f.sendAfterClose++
		return net.ErrClosed
	}
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeTransport) sendPending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending > 0
}

func (f *fakeTransport) sentStrings() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, b := range f.sent {
		out[i] = string(b)
	}
	return out
}

func (f *fakeTransport) deliver(data string) {
	f.mu.Lock()
	ev := f.events
	f.mu.Unlock()
	if ev.OnMessage != nil {
		ev.OnMessage([]byte(data))
	}
}

func (f *fakeTransport) hangup(err error) {
	f.mu.Lock()
	ev := f.events
	f.mu.Unlock()
	if ev.OnClose != nil {
		ev.OnClose(err)
	}
}

type fakeDialer struct {
	mu         sync.Mutex
	err        error
	gate       chan struct{}
	endpoints  []*url.URL
	transports []*fakeTransport
}

func (d *fakeDialer) Dial(_ context.Context, endpoint *url.URL) (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.endpoints = append(d.endpoints, endpoint)
	if d.err != nil {
		return nil, d.err
	}
	t := &fakeTransport{gate: d.gate}
	d.transports = append(d.transports, t)
	return t, nil
}

func (d *fakeDialer) last() *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transports[len(d.transports)-1]
}

type fakeTerminal struct {
	mu                 sync.Mutex
	buf                bytes.Buffer
	disposed           bool
	writesAfterDispose int
}

func (t *fakeTerminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		t.writesAfterDispose++
		return len(p), nil
	}
	return t.buf.Write(p)
}

func (t *fakeTerminal) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disposed = true
}

func (t *fakeTerminal) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}

func (t *fakeTerminal) isDisposed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disposed
}

func (t *fakeTerminal) lateWrites() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writesAfterDispose
}

func mustURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}
