package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTerminalServer accepts one websocket, greets it with a prompt and
// records every frame it receives.
type fakeTerminalServer struct {
	*httptest.Server

	mu     sync.Mutex
	query  url.Values
	path   string
	frames []string
	types  []int
	conn   *websocket.Conn
	ready  chan struct{}
}

func newFakeTerminalServer(t *testing.T) *fakeTerminalServer {
	t.Helper()
	fs := &fakeTerminalServer{ready: make(chan struct{})}
	upgrader := websocket.Upgrader{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		fs.mu.Lock()
		fs.query = r.URL.Query()
		fs.path = r.URL.Path
		fs.conn = conn
		fs.mu.Unlock()

		_ = conn.WriteMessage(websocket.BinaryMessage, []byte("$ "))
		close(fs.ready)

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			fs.mu.Lock()
			fs.frames = append(fs.frames, string(data))
			fs.types = append(fs.types, mt)
			fs.mu.Unlock()
			if string(data) == "exit\r" {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
					time.Now().Add(time.Second))
				return
			}
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeTerminalServer) received() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.frames...)
}

func TestWebsocketDialer_RoundTrip(t *testing.T) {
	fs := newFakeTerminalServer(t)
	term := NewWriterTerminal(&syncBuffer{})
	out := term.w.(*syncBuffer)

	s, err := New("my-box", Options{
		Server:   mustURL(fs.URL),
		Auth:     Auth{Mode: AuthToken, Token: "s3cret"},
		Page:     url.Values{ParamRun: {"ls"}, ParamRunB64: {"bHMgLWxh"}, ParamCwd: {"/tmp"}},
		Terminal: term,
	})
	require.NoError(t, err)

	require.NoError(t, s.Open(context.Background()))
	<-fs.ready

	fs.mu.Lock()
	assert.Equal(t, "/terminal/my-box", fs.path)
	assert.Equal(t, "s3cret", fs.query.Get(ParamToken))
	assert.Equal(t, "bHMgLWxh", fs.query.Get(ParamRunB64))
	assert.Empty(t, fs.query.Get(ParamRun), "the base64 form wins")
	assert.Equal(t, "/tmp", fs.query.Get(ParamCwd))
	fs.mu.Unlock()

	require.Eventually(t, func() bool { return out.Contains("$ ") }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Resize(Geometry{Cols: 132, Rows: 43}))
	_, err = s.Write([]byte("echo hi\r"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(fs.received()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"__RESIZE__:132,43", "echo hi\r"}, fs.received())
	fs.mu.Lock()
	assert.Equal(t, websocket.TextMessage, fs.types[0], "control frames travel as their own text frame")
	fs.mu.Unlock()

	_, err = s.Write([]byte("exit\r"))
	require.NoError(t, err)

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not close after remote hangup")
	}
	assert.ErrorIs(t, s.Reason(), ErrRemoteClosed)
	assert.True(t, out.Contains("session ended by remote host"))
	require.NoError(t, s.Close())
	assert.True(t, term.Disposed())
}

func TestWebsocketDialer_ConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := &WebsocketDialer{}
	ep, err := Endpoint(mustURL(srv.URL), "box", Auth{Mode: AuthNone}, nil)
	require.NoError(t, err)

	_, err = d.Dial(context.Background(), ep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestWebsocketDialer_LocalCloseIsSilent(t *testing.T) {
	fs := newFakeTerminalServer(t)
	ep, err := Endpoint(mustURL(fs.URL), "box", Auth{Mode: AuthNone}, nil)
	require.NoError(t, err)

	tr, err := (&WebsocketDialer{}).Dial(context.Background(), ep)
	require.NoError(t, err)

	closed := make(chan error, 1)
	tr.Start(TransportEvents{
		OnMessage: func([]byte) {},
		OnClose:   func(err error) { closed <- err },
	})
	<-fs.ready

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	assert.Error(t, tr.Send([]byte("x")))

	select {
	case err := <-closed:
		t.Fatalf("OnClose fired after local close: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) Contains(s string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Contains(string(b.buf), s)
}
