// Package routing maps page URLs onto targets. Pages live at
// /container/{target}; the old /?container={target} form is redirected once.
package routing

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// LegacyParam is the query parameter the old root page took its target from
const LegacyParam = "container"

const pagePrefix = "/container/"

// ErrNotAPage is returned for URLs that name no target
var ErrNotAPage = errors.New("routing: url does not name a target")

// Page is a resolved page location
type Page struct {
	// Server is the scheme and host the page was served from, nil for a
	// bare target
	Server *url.URL
	Target string
	Params url.Values
}

// Resolve applies the legacy redirect: a root URL carrying ?container=foo
// becomes /container/foo with the remaining query kept byte for byte.
// Anything else, including an already redirected URL, comes back unchanged
// with redirected false.
func Resolve(u *url.URL) (out *url.URL, redirected bool) {
	if u.Path != "" && u.Path != "/" {
		return u, false
	}

	var target string
	found := false
	kept := make([]string, 0)
	for _, seg := range strings.Split(u.RawQuery, "&") {
		if seg == "" {
			continue
		}
		key, value, _ := strings.Cut(seg, "=")
		if k, err := url.QueryUnescape(key); err == nil && k == LegacyParam && !found {
			v, err := url.QueryUnescape(value)
			if err != nil {
				v = value
			}
			target, found = v, true
			continue
		}
		kept = append(kept, seg)
	}
	if !found || target == "" {
		return u, false
	}

	r := *u
	r.Path = pagePrefix + target
	r.RawPath = pagePrefix + url.PathEscape(target)
	r.RawQuery = strings.Join(kept, "&")
	return &r, true
}

// ParsePage extracts the target and page parameters of a /container/{target}
// URL. The legacy form is resolved first.
func ParsePage(u *url.URL) (Page, error) {
	u, _ = Resolve(u)

	// the target is one escaped segment; an encoded slash belongs to it
	rest, ok := strings.CutPrefix(u.EscapedPath(), pagePrefix)
	rest = strings.TrimSuffix(rest, "/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return Page{}, fmt.Errorf("%w: %s", ErrNotAPage, u.Path)
	}
	target, err := url.PathUnescape(rest)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %s", ErrNotAPage, u.Path)
	}

	page := Page{Target: target, Params: u.Query()}
	if u.Host != "" {
		page.Server = &url.URL{Scheme: u.Scheme, Host: u.Host, User: u.User}
	}
	return page, nil
}

// ParseLocation accepts either a full page URL or a bare target id, as typed
// on a command line.
func ParseLocation(raw string) (Page, error) {
	if raw == "" {
		return Page{}, ErrNotAPage
	}
	if !strings.Contains(raw, "/") && !strings.Contains(raw, "?") {
		return Page{Target: raw, Params: url.Values{}}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Page{}, fmt.Errorf("invalid page url: %w", err)
	}
	return ParsePage(u)
}

// PageURL builds the canonical page URL for target on server
func PageURL(server *url.URL, target string, params url.Values) *url.URL {
	u := server.JoinPath("container", url.PathEscape(target))
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
		if u.RawPath != "" {
			u.RawPath = "/" + u.RawPath
		}
	}
	u.RawQuery = params.Encode()
	return u
}
