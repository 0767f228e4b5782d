// Package explorer browses the backend's filesystem and starts new
// sandboxes from a chosen directory.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/vanpelt/codesandbox/internal/api"
)

// DefaultAgent is the agent a sandbox is started with when none is given
const DefaultAgent = "claude"

// DirEntry is one listed filesystem entry
type DirEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

// StartRequest is the body of POST /api/start
type StartRequest struct {
	Path  string `json:"path"`
	Agent string `json:"agent"`
}

// StartResponse names the sandbox that was started
type StartResponse struct {
	Container string `json:"container"`
}

// Client lists directories and starts sandboxes
type Client struct {
	api *api.Client
}

// NewClient wraps an API client
func NewClient(c *api.Client) *Client {
	return &Client{api: c}
}

// List returns the entries of path in the order the backend sent them
func (c *Client) List(ctx context.Context, path string) ([]DirEntry, error) {
	var entries []DirEntry
	if err := c.api.Get(ctx, "/api/list", url.Values{"path": {path}}, &entries); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}
	return entries, nil
}

// Start asks the backend to spawn a sandbox rooted at path and returns its
// target id
func (c *Client) Start(ctx context.Context, path, agent string) (string, error) {
	if agent == "" {
		agent = DefaultAgent
	}
	var resp StartResponse
	if err := c.api.Post(ctx, "/api/start", StartRequest{Path: path, Agent: agent}, &resp); err != nil {
		return "", fmt.Errorf("failed to start sandbox in %s: %w", path, err)
	}
	if resp.Container == "" {
		return "", errors.New("failed to start sandbox: backend returned no container id")
	}
	return resp.Container, nil
}

// Dirs keeps only the directories of entries
func Dirs(entries []DirEntry) []DirEntry {
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir {
			out = append(out, e)
		}
	}
	return out
}

// Parent returns the parent of an absolute slash path. The root is its own
// parent.
func Parent(path string) string {
	if path == "/" || path == "" {
		return "/"
	}
	trimmed := strings.TrimSuffix(path, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx <= 0 {
		return "/"
	}
	return trimmed[:idx]
}
