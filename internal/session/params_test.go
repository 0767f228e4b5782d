package session

import (
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartupParams(t *testing.T) {
	tests := []struct {
		name string
		page url.Values
		want url.Values
	}{
		{
			name: "nothing",
			page: url.Values{"other": {"x"}},
			want: url.Values{},
		},
		{
			name: "plain only",
			page: url.Values{ParamRun: {"npm start"}, ParamCwd: {"/app"}},
			want: url.Values{ParamRun: {"npm start"}, ParamCwd: {"/app"}},
		},
		{
			name: "base64 preferred",
			page: url.Values{ParamRun: {"ls"}, ParamRunB64: {"bHMgLWw="}, ParamCwdB64: {"L3RtcA=="}, ParamCwd: {"/x"}},
			want: url.Values{ParamRunB64: {"bHMgLWw="}, ParamCwdB64: {"L3RtcA=="}},
		},
		{
			name: "values forwarded unmodified",
			page: url.Values{ParamRunB64: {"!!not base64!!"}, ParamRun: {"rm -rf / ; echo"}},
			want: url.Values{ParamRunB64: {"!!not base64!!"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StartupParams(tt.page))
		})
	}
}

func TestPageParams(t *testing.T) {
	v := PageParams("echo 'a & b'", "/home/me")
	run, err := base64.StdEncoding.DecodeString(v.Get(ParamRunB64))
	require.NoError(t, err)
	assert.Equal(t, "echo 'a & b'", string(run))
	cwd, err := base64.StdEncoding.DecodeString(v.Get(ParamCwdB64))
	require.NoError(t, err)
	assert.Equal(t, "/home/me", string(cwd))

	assert.Empty(t, PageParams("", ""))
}

func TestEndpoint(t *testing.T) {
	t.Run("schemes", func(t *testing.T) {
		for in, want := range map[string]string{
			"http://h:1": "ws",
			"ws://h:1":   "ws",
			"https://h":  "wss",
			"wss://h":    "wss",
		} {
			u, err := Endpoint(mustURL(in), "t", Auth{Mode: AuthNone}, nil)
			require.NoError(t, err, in)
			assert.Equal(t, want, u.Scheme, in)
		}

		_, err := Endpoint(mustURL("ftp://h"), "t", Auth{Mode: AuthNone}, nil)
		assert.Error(t, err)
	})

	t.Run("path", func(t *testing.T) {
		u, err := Endpoint(mustURL("https://h/base/"), "my box", Auth{Mode: AuthNone}, nil)
		require.NoError(t, err)
		assert.Equal(t, "/base/terminal/my box", u.Path)
		assert.Equal(t, "wss://h/base/terminal/my%20box", u.String())

		u, err = Endpoint(mustURL("http://h"), "abc", Auth{Mode: AuthNone}, nil)
		require.NoError(t, err)
		assert.Equal(t, "ws://h/terminal/abc", u.String())
	})

	t.Run("auth", func(t *testing.T) {
		server := mustURL("http://h")

		u, err := Endpoint(server, "abc", Auth{Mode: AuthNone}, nil)
		require.NoError(t, err)
		_, has := u.Query()[ParamToken]
		assert.False(t, has)

		u, err = Endpoint(server, "abc", Auth{Mode: AuthTargetID}, nil)
		require.NoError(t, err)
		assert.Equal(t, "abc", u.Query().Get(ParamToken))

		u, err = Endpoint(server, "abc", Auth{Mode: AuthToken, Token: "tok"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "tok", u.Query().Get(ParamToken))

		_, err = Endpoint(server, "abc", Auth{Mode: AuthToken}, nil)
		assert.Error(t, err)

		_, err = Endpoint(server, "abc", Auth{}, nil)
		assert.ErrorIs(t, err, ErrAuthUnspecified)
	})

	t.Run("startup parameters", func(t *testing.T) {
		page := url.Values{ParamRunB64: {"bHM="}, "container": {"abc"}, "unrelated": {"1"}}
		u, err := Endpoint(mustURL("http://h"), "abc", Auth{Mode: AuthNone}, page)
		require.NoError(t, err)
		assert.Equal(t, url.Values{ParamRunB64: {"bHM="}}, u.Query())
	})

	t.Run("no target", func(t *testing.T) {
		_, err := Endpoint(mustURL("http://h"), "", Auth{Mode: AuthNone}, nil)
		assert.ErrorIs(t, err, ErrNoTarget)
	})
}

func TestResizeControl(t *testing.T) {
	frame := EncodeResize(Geometry{Cols: 80, Rows: 24})
	assert.Equal(t, "__RESIZE__:80,24", string(frame))

	g, ok := DecodeResize(frame)
	require.True(t, ok)
	assert.Equal(t, Geometry{Cols: 80, Rows: 24}, g)

	for _, bad := range []string{"", "ls\r", "__RESIZE__:", "__RESIZE__:80", "__RESIZE__:a,b", "__RESIZE__:0,24", "x__RESIZE__:80,24"} {
		_, ok := DecodeResize([]byte(bad))
		assert.False(t, ok, bad)
	}
}

func TestStateTransitions(t *testing.T) {
	assert.True(t, StateIdle.canTransition(StateConnecting))
	assert.True(t, StateConnecting.canTransition(StateOpen))
	assert.True(t, StateOpen.canTransition(StateClosed))
	assert.True(t, StateIdle.canTransition(StateClosed))

	assert.False(t, StateClosed.canTransition(StateConnecting))
	assert.False(t, StateClosed.canTransition(StateClosed))
	assert.False(t, StateOpen.canTransition(StateConnecting))
	assert.False(t, StateIdle.canTransition(StateOpen))
	assert.Equal(t, "open", StateOpen.String())
}
