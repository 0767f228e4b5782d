package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"
	"github.com/vanpelt/codesandbox/internal/api"
	"github.com/vanpelt/codesandbox/internal/config"
	"github.com/vanpelt/codesandbox/internal/logger"
	"github.com/vanpelt/codesandbox/internal/routing"
	"github.com/vanpelt/codesandbox/internal/session"
)

// Flags shared by every command
var (
	configPath      string
	serverFlag      string
	tokenFlag       string
	tokenFromTarget bool
	noToken         bool
	logLevelFlag    string
)

func addGlobalFlags(c *cobra.Command) {
	f := c.PersistentFlags()
	f.StringVar(&configPath, "config", "", "config file (default ~/.codesandbox/config.yaml)")
	f.StringVar(&serverFlag, "server", "", "backend base URL, e.g. https://sandbox.example.com")
	f.StringVar(&tokenFlag, "token", "", "send this token in the terminal handshake")
	f.BoolVar(&tokenFromTarget, "token-from-target", false, "send the target id as the handshake token")
	f.BoolVar(&noToken, "no-token", false, "send no handshake token")
	f.StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn or error")
}

var errAuthFlags = errors.New("--token, --token-from-target and --no-token are mutually exclusive")

// loadConfig layers the command line over the config file and environment
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if serverFlag != "" {
		cfg.Server = serverFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}

	picked := 0
	if tokenFlag != "" {
		cfg.Auth = config.AuthConfig{Mode: config.AuthToken, Token: tokenFlag}
		picked++
	}
	if tokenFromTarget {
		cfg.Auth = config.AuthConfig{Mode: config.AuthTarget}
		picked++
	}
	if noToken {
		cfg.Auth = config.AuthConfig{Mode: config.AuthNone}
		picked++
	}
	if picked > 1 {
		return nil, errAuthFlags
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// sessionAuth turns the configured auth mode into a handshake credential.
// There is no fallback: an unset mode is an error naming the ways to set it.
func sessionAuth(cfg *config.Config) (session.Auth, error) {
	switch cfg.Auth.Mode {
	case config.AuthNone:
		return session.Auth{Mode: session.AuthNone}, nil
	case config.AuthTarget:
		return session.Auth{Mode: session.AuthTargetID}, nil
	case config.AuthToken:
		return session.Auth{Mode: session.AuthToken, Token: cfg.Auth.Token}, nil
	default:
		return session.Auth{}, fmt.Errorf("%w: pass --token, --token-from-target or --no-token, or set auth.mode in %s",
			session.ErrAuthUnspecified, config.DefaultPath())
	}
}

// setupLogging points the global logger at stderr, or at the configured log
// file for commands that own the screen. The returned closer is never nil.
func setupLogging(cfg *config.Config, toFile bool) (io.Closer, error) {
	level := logger.ParseLevel(cfg.LogLevel)
	if !toFile {
		logger.Configure(level, cfg.Dev, os.Stderr)
		return io.NopCloser(nil), nil
	}

	f, err := logger.OpenFile(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	logger.Configure(level, cfg.Dev, f)
	return f, nil
}

// location is where a command connects: server, target and page parameters
type location struct {
	server *url.URL
	target string
	page   url.Values
}

// resolveLocation parses a target or page URL argument. A page URL brings
// its own server unless --server was given. --run and --cwd override the
// page's startup parameters.
func resolveLocation(cfg *config.Config, arg, run, cwd string) (location, error) {
	loc := location{server: cfg.ServerURL(), page: url.Values{}}
	if arg != "" {
		page, err := routing.ParseLocation(arg)
		if err != nil {
			return location{}, err
		}
		loc.target = page.Target
		loc.page = page.Params
		if page.Server != nil && serverFlag == "" {
			loc.server = page.Server
		}
	}

	for key, values := range session.PageParams(run, cwd) {
		loc.page[key] = values
	}
	if run != "" {
		loc.page.Del(session.ParamRun)
	}
	if cwd != "" {
		loc.page.Del(session.ParamCwd)
	}
	return loc, nil
}

// httpBase maps a websocket server URL onto the matching HTTP one
func httpBase(server *url.URL) *url.URL {
	u := *server
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return &u
}

func newAPIClient(server *url.URL) *api.Client {
	return api.NewClient(httpBase(server), nil)
}
