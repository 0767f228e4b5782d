package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/vanpelt/codesandbox/internal/recovery"
)

// TransportEvents receives what the remote side sends. OnClose is called at
// most once, with a nil error for a normal closure.
type TransportEvents struct {
	OnMessage func(data []byte)
	OnClose   func(err error)
}

// Transport is the byte stream bound to one session
type Transport interface {
	// Start begins delivering events. It is called once, after the session
	// has recorded the transport as open, so no early bytes are lost.
	Start(events TransportEvents)
	Send(data []byte) error
	Close() error
}

// Dialer opens transports
type Dialer interface {
	Dial(ctx context.Context, endpoint *url.URL) (Transport, error)
}

const writeWait = 10 * time.Second

// WebsocketDialer dials the terminal endpoint over a websocket
type WebsocketDialer struct {
	Dialer *websocket.Dialer
	Header http.Header
}

// Dial implements Dialer
func (d *WebsocketDialer) Dial(ctx context.Context, endpoint *url.URL) (Transport, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint.String(), d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to terminal: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to connect to terminal: %w", err)
	}
	return &wsTransport{conn: conn}, nil
}

type wsTransport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  atomic.Bool
	once    sync.Once
}

func (t *wsTransport) Start(events TransportEvents) {
	recovery.SafeGo("terminal-read", func() { t.readLoop(events) })
}

func (t *wsTransport) readLoop(events TransportEvents) {
	for {
		messageType, message, err := t.conn.ReadMessage()
		if err != nil {
			if t.closed.Load() {
				// we hung up ourselves; nobody is listening any more
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = nil
			}
			if events.OnClose != nil {
				events.OnClose(err)
			}
			return
		}

		if messageType == websocket.BinaryMessage || messageType == websocket.TextMessage {
			if events.OnMessage != nil && !t.closed.Load() {
				events.OnMessage(message)
			}
		}
	}
}

func (t *wsTransport) Send(data []byte) error {
	if t.closed.Load() {
		return net.ErrClosed
	}
	messageType := websocket.TextMessage
	if !utf8.Valid(data) {
		messageType = websocket.BinaryMessage
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(messageType, data)
}

func (t *wsTransport) Close() error {
	var err error
	t.once.Do(func() {
		t.closed.Store(true)
		// WriteControl and Close may run concurrently with a pending Send
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = t.conn.Close()
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
	})
	return err
}
