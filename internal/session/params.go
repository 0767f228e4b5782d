package session

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Handshake query parameters understood by the terminal endpoint
const (
	ParamToken  = "token"
	ParamRun    = "run"
	ParamRunB64 = "run_b64"
	ParamCwd    = "cwd"
	ParamCwdB64 = "cwd_b64"
)

var (
	// ErrAuthUnspecified is returned when the caller did not pick an AuthMode
	ErrAuthUnspecified = errors.New("session: auth mode not specified")
	// ErrNoTarget is returned when a session is requested without a target
	ErrNoTarget = errors.New("session: no target")
)

// AuthMode selects the handshake token. The zero value is deliberately
// invalid so every caller has to decide.
type AuthMode int

const (
	AuthUnset AuthMode = iota
	// AuthNone sends no token at all
	AuthNone
	// AuthTargetID sends the target id as the token. Target ids show up in
	// URLs, so this identifies the sandbox but does not authorize anyone.
	AuthTargetID
	// AuthToken sends Auth.Token
	AuthToken
)

// Auth is the handshake credential choice
type Auth struct {
	Mode  AuthMode
	Token string
}

func (a Auth) token(target string) (value string, send bool, err error) {
	switch a.Mode {
	case AuthNone:
		return "", false, nil
	case AuthTargetID:
		return target, true, nil
	case AuthToken:
		if a.Token == "" {
			return "", false, errors.New("session: AuthToken with empty token")
		}
		return a.Token, true, nil
	default:
		return "", false, ErrAuthUnspecified
	}
}

// StartupParams picks the startup command and working directory out of the
// page parameters. For each of run and cwd the base64 form wins when both are
// present, absent values are left out, and values pass through untouched:
// decoding and running them is the remote side's business.
func StartupParams(page url.Values) url.Values {
	out := url.Values{}
	pick := func(plain, encoded string) {
		if v, ok := page[encoded]; ok && len(v) > 0 {
			out.Set(encoded, v[0])
			return
		}
		if v, ok := page[plain]; ok && len(v) > 0 {
			out.Set(plain, v[0])
		}
	}
	pick(ParamRun, ParamRunB64)
	pick(ParamCwd, ParamCwdB64)
	return out
}

// PageParams builds page parameters for a startup command and working
// directory typed on the command line. Both travel base64-encoded so shell
// metacharacters survive the query string untouched.
func PageParams(run, cwd string) url.Values {
	v := url.Values{}
	if run != "" {
		v.Set(ParamRunB64, base64.StdEncoding.EncodeToString([]byte(run)))
	}
	if cwd != "" {
		v.Set(ParamCwdB64, base64.StdEncoding.EncodeToString([]byte(cwd)))
	}
	return v
}

// Endpoint builds the transport URL for target: ws(s)://host/terminal/{target}
// with the token and startup parameters in the query.
func Endpoint(server *url.URL, target string, auth Auth, page url.Values) (*url.URL, error) {
	if target == "" {
		return nil, ErrNoTarget
	}
	if server == nil {
		return nil, errors.New("session: no server url")
	}

	u := server.JoinPath("terminal", url.PathEscape(target))
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
		if u.RawPath != "" {
			u.RawPath = "/" + u.RawPath
		}
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("session: unsupported server scheme %q", u.Scheme)
	}

	q := StartupParams(page)
	tok, send, err := auth.token(target)
	if err != nil {
		return nil, err
	}
	if send {
		q.Set(ParamToken, tok)
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u, nil
}
