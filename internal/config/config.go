package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// AuthMode selects how the terminal handshake token is chosen. There is no
// implicit default: an empty mode is rejected when a session is opened.
type AuthMode string

const (
	// AuthNone omits the token parameter entirely
	AuthNone AuthMode = "none"
	// AuthTarget sends the target id as the token (legacy behaviour)
	AuthTarget AuthMode = "target"
	// AuthToken sends Auth.Token verbatim
	AuthToken AuthMode = "token"
)

const (
	DefaultServer       = "http://localhost:6789"
	DefaultPollInterval = 5 * time.Second
	DefaultFitDelay     = 150 * time.Millisecond
	DefaultSyntaxStyle  = "monokai"

	fileName = "config.yaml"
)

// AuthConfig holds the handshake token choice
type AuthConfig struct {
	Mode  AuthMode `yaml:"mode"`
	Token string   `yaml:"token"`
}

// Config is the client configuration: defaults, then the YAML file, then
// environment variables, then command line flags (applied by the caller).
type Config struct {
	Server       string        `yaml:"server"`
	Auth         AuthConfig    `yaml:"auth"`
	PollInterval time.Duration `yaml:"poll_interval"`
	FitDelay     time.Duration `yaml:"fit_delay"`
	SyntaxStyle  string        `yaml:"syntax_style"`
	LogFile      string        `yaml:"log_file"`
	LogLevel     string        `yaml:"log_level"`
	Dev          bool          `yaml:"dev"`
}

// Dir returns the per-user state directory (~/.codesandbox)
func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
		if homeDir == "" {
			homeDir = "."
		}
	}
	return filepath.Join(homeDir, ".codesandbox")
}

// DefaultPath is where Load looks when no explicit path is given
func DefaultPath() string {
	return filepath.Join(Dir(), fileName)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server:       DefaultServer,
		PollInterval: DefaultPollInterval,
		FitDelay:     DefaultFitDelay,
		SyntaxStyle:  DefaultSyntaxStyle,
		LogFile:      filepath.Join(Dir(), "client.log"),
		LogLevel:     "info",
	}
}

// Load builds a Config from defaults, the YAML file at path (a missing file is
// not an error) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CODESANDBOX_SERVER"); v != "" {
		c.Server = v
	}
	if v := os.Getenv("CODESANDBOX_TOKEN"); v != "" {
		c.Auth.Mode = AuthToken
		c.Auth.Token = v
	}
	debug := strings.ToLower(os.Getenv("DEBUG"))
	if debug == "true" || debug == "1" {
		c.LogLevel = "debug"
	}
}

// Validate checks the values that would otherwise fail late
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil {
		return fmt.Errorf("invalid server url %q: %w", c.Server, err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("invalid server url %q: unsupported scheme %q", c.Server, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server url %q: missing host", c.Server)
	}

	switch c.Auth.Mode {
	case "", AuthNone, AuthTarget:
	case AuthToken:
		if c.Auth.Token == "" {
			return errors.New("auth.mode is \"token\" but auth.token is empty")
		}
	default:
		return fmt.Errorf("unknown auth.mode %q", c.Auth.Mode)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.FitDelay < 0 {
		return fmt.Errorf("fit_delay must not be negative, got %s", c.FitDelay)
	}
	return nil
}

// ServerURL returns the parsed server base URL. Validate must have passed.
func (c *Config) ServerURL() *url.URL {
	u, _ := url.Parse(c.Server)
	return u
}
