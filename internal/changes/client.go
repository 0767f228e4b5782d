// Package changes polls a target's working-tree changes and renders them as
// colored unified diffs.
package changes

import (
	"context"
	"fmt"
	"net/url"

	"github.com/vanpelt/codesandbox/internal/api"
)

// FileChange is one changed file. Diff is nil when the backend sent none,
// e.g. for binary files.
type FileChange struct {
	Path   string  `json:"path"`
	Status string  `json:"status"`
	Diff   *string `json:"diff,omitempty"`
}

// HasDiff reports whether there is diff text to show
func (f FileChange) HasDiff() bool {
	return f.Diff != nil && *f.Diff != ""
}

// ChangeSet is the full list of changes of a target at one point in time
type ChangeSet struct {
	Files []FileChange `json:"files"`
}

// Source fetches change sets
type Source interface {
	Changed(ctx context.Context, target string) (*ChangeSet, error)
}

// Client fetches change sets from the backend
type Client struct {
	api *api.Client
}

// NewClient wraps an API client
func NewClient(c *api.Client) *Client {
	return &Client{api: c}
}

// Changed implements Source via GET /api/changed/{target}
func (c *Client) Changed(ctx context.Context, target string) (*ChangeSet, error) {
	var cs ChangeSet
	if err := c.api.Get(ctx, "/api/changed/"+url.PathEscape(target), nil, &cs); err != nil {
		return nil, fmt.Errorf("failed to fetch changes for %s: %w", target, err)
	}
	if cs.Files == nil {
		cs.Files = []FileChange{}
	}
	return &cs, nil
}
