package routing

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		want       string
		redirected bool
	}{
		{"legacy with run", "http://h/?container=foo&run=ls", "http://h/container/foo?run=ls", true},
		{"legacy only", "http://h/?container=foo", "http://h/container/foo", true},
		{"legacy empty path", "http://h?container=foo", "http://h/container/foo", true},
		{"order and encoding kept", "http://h/?run_b64=bHMgLWw%3D&container=foo&cwd=%2Ftmp", "http://h/container/foo?run_b64=bHMgLWw%3D&cwd=%2Ftmp", true},
		{"already a page", "http://h/container/foo?run=ls", "http://h/container/foo?run=ls", false},
		{"root without container", "http://h/?run=ls", "http://h/?run=ls", false},
		{"empty container", "http://h/?container=", "http://h/?container=", false},
		{"other path keeps container param", "http://h/files?container=foo", "http://h/files?container=foo", false},
		{"target with slash stays one segment", "http://h/?container=a%2Fb&run=ls", "http://h/container/a%2Fb?run=ls", true},
		{"target with space", "http://h/?container=my+box", "http://h/container/my%20box", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, redirected := Resolve(mustParse(t, tt.in))
			assert.Equal(t, tt.redirected, redirected)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestResolve_ExactlyOnce(t *testing.T) {
	u := mustParse(t, "http://h/?container=foo&run=ls")

	first, redirected := Resolve(u)
	require.True(t, redirected)
	second, redirected := Resolve(first)
	assert.False(t, redirected)
	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, "http://h/?container=foo&run=ls", u.String(), "input is not modified")
}

func TestParsePage(t *testing.T) {
	page, err := ParsePage(mustParse(t, "https://sandbox.dev:8443/container/abc-123?run=npm%20test&cwd_b64=L2FwcA%3D%3D"))
	require.NoError(t, err)
	assert.Equal(t, "abc-123", page.Target)
	assert.Equal(t, "https://sandbox.dev:8443", page.Server.String())
	assert.Equal(t, "npm test", page.Params.Get("run"))
	assert.Equal(t, "L2FwcA==", page.Params.Get("cwd_b64"))

	page, err = ParsePage(mustParse(t, "http://h/?container=legacy&run=ls"))
	require.NoError(t, err)
	assert.Equal(t, "legacy", page.Target)
	assert.Equal(t, "ls", page.Params.Get("run"))
	assert.Empty(t, page.Params.Get(LegacyParam))

	page, err = ParsePage(mustParse(t, "/container/trailing/"))
	require.NoError(t, err)
	assert.Equal(t, "trailing", page.Target)
	assert.Nil(t, page.Server)

	page, err = ParsePage(mustParse(t, "http://h/?container=a%2Fb"))
	require.NoError(t, err)
	assert.Equal(t, "a/b", page.Target)

	page, err = ParsePage(PageURL(mustParse(t, "http://h"), "a/b", nil))
	require.NoError(t, err)
	assert.Equal(t, "a/b", page.Target)

	for _, bad := range []string{"http://h/", "http://h/container/", "http://h/container/a/b", "http://h/other/a"} {
		_, err := ParsePage(mustParse(t, bad))
		assert.ErrorIs(t, err, ErrNotAPage, bad)
	}
}

func TestParseLocation(t *testing.T) {
	page, err := ParseLocation("abc-123")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", page.Target)
	assert.Nil(t, page.Server)

	page, err = ParseLocation("http://localhost:6789/container/xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", page.Target)
	assert.Equal(t, "localhost:6789", page.Server.Host)

	_, err = ParseLocation("")
	assert.ErrorIs(t, err, ErrNotAPage)
}

func TestPageURL(t *testing.T) {
	u := PageURL(mustParse(t, "http://h"), "my box", url.Values{"run": {"ls"}})
	assert.Equal(t, "http://h/container/my%20box?run=ls", u.String())
}
