package logger

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestConfigure(t *testing.T) {
	defer Configure(LevelInfo, false, nil)

	var buf bytes.Buffer
	Configure(LevelWarn, false, &buf)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	Infof("dropped %d", 1)
	assert.Empty(t, buf.String())

	Warnf("kept %d", 2)
	assert.Contains(t, buf.String(), `"message":"kept 2"`)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "client.log")
	f, err := OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.WriteString("line\n")
	require.NoError(t, err)
	assert.FileExists(t, path)
}
