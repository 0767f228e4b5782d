package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("CODESANDBOX_SERVER", "")
	t.Setenv("CODESANDBOX_TOKEN", "")
	t.Setenv("DEBUG", "")

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultServer, cfg.Server)
		assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
		assert.Equal(t, DefaultFitDelay, cfg.FitDelay)
		assert.Equal(t, AuthMode(""), cfg.Auth.Mode)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "server: https://sandbox.example.com\n" +
			"poll_interval: 2s\n" +
			"auth:\n  mode: target\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://sandbox.example.com", cfg.Server)
		assert.Equal(t, 2*time.Second, cfg.PollInterval)
		assert.Equal(t, AuthTarget, cfg.Auth.Mode)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: http://a:1\n"), 0o644))
		t.Setenv("CODESANDBOX_SERVER", "http://b:2")
		t.Setenv("CODESANDBOX_TOKEN", "s3cret")
		t.Setenv("DEBUG", "1")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "http://b:2", cfg.Server)
		assert.Equal(t, AuthToken, cfg.Auth.Mode)
		assert.Equal(t, "s3cret", cfg.Auth.Token)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [unterminated\n"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad scheme", func(c *Config) { c.Server = "ftp://host" }, true},
		{"missing host", func(c *Config) { c.Server = "http://" }, true},
		{"token mode without token", func(c *Config) { c.Auth.Mode = AuthToken }, true},
		{"token mode with token", func(c *Config) { c.Auth = AuthConfig{Mode: AuthToken, Token: "x"} }, false},
		{"unknown mode", func(c *Config) { c.Auth.Mode = "magic" }, true},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }, true},
		{"negative fit delay", func(c *Config) { c.FitDelay = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWatch(t *testing.T) {
	t.Setenv("CODESANDBOX_SERVER", "")
	t.Setenv("CODESANDBOX_TOKEN", "")
	t.Setenv("DEBUG", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("syntax_style: monokai\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	require.NoError(t, Watch(ctx, path, func(cfg *Config) { reloaded <- cfg }))

	require.NoError(t, os.WriteFile(path, []byte("syntax_style: dracula\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "dracula", cfg.SyntaxStyle)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not picked up")
	}
}

func TestWatch_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "config.yaml")
	err := Watch(context.Background(), path, func(*Config) {})
	assert.Error(t, err)
}
