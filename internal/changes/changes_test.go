package changes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanpelt/codesandbox/internal/api"
	"github.com/vanpelt/codesandbox/internal/diff"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(s string) string { return ansiRe.ReplaceAllString(s, "") }

func strPtr(s string) *string { return &s }

type fakeSource struct {
	mu    sync.Mutex
	calls []string
	sets  map[string]*ChangeSet
	err   error
}

func (f *fakeSource) Changed(_ context.Context, target string) (*ChangeSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, target)
	if f.err != nil {
		return nil, f.err
	}
	return f.sets[target], nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestClient_Changed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/changed/box-1":
			_, _ = w.Write([]byte(`{"files":[{"path":"a.go","status":"modified","diff":"@@ -1 +1 @@\n-a\n+b"},{"path":"img.png","status":"added"}]}`))
		case "/api/changed/empty":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"no such container"}`))
		}
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	c := NewClient(api.NewClient(u, nil))

	cs, err := c.Changed(context.Background(), "box-1")
	require.NoError(t, err)
	require.Len(t, cs.Files, 2)
	assert.Equal(t, "a.go", cs.Files[0].Path)
	assert.True(t, cs.Files[0].HasDiff())
	assert.False(t, cs.Files[1].HasDiff())

	cs, err = c.Changed(context.Background(), "empty")
	require.NoError(t, err)
	assert.NotNil(t, cs.Files)
	assert.Empty(t, cs.Files)

	_, err = c.Changed(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such container")
	var apiErr *api.Error
	assert.True(t, errors.As(err, &apiErr))
}

func TestPresenter_Phases(t *testing.T) {
	src := &fakeSource{sets: map[string]*ChangeSet{"A": {Files: []FileChange{{Path: "x", Status: "modified"}}}}}
	p := NewPresenter(src, time.Hour)

	assert.Equal(t, PhaseNoTarget, p.Snapshot().Phase)
	assert.False(t, p.Fetch(context.Background()), "nothing to fetch without a target")

	p.SetTarget("A")
	assert.Equal(t, PhaseLoading, p.Snapshot().Phase)

	require.True(t, p.Fetch(context.Background()))
	snap := p.Snapshot()
	assert.Equal(t, PhaseReady, snap.Phase)
	require.NotNil(t, snap.Changes)
	assert.Len(t, snap.Changes.Files, 1)

	src.mu.Lock()
	src.err = errors.New("backend down")
	src.mu.Unlock()
	require.True(t, p.Fetch(context.Background()))
	assert.Equal(t, PhaseError, p.Snapshot().Phase)
	assert.EqualError(t, p.Snapshot().Err, "backend down")

	src.mu.Lock()
	src.err = nil
	src.mu.Unlock()
	require.True(t, p.Fetch(context.Background()))
	assert.Equal(t, PhaseReady, p.Snapshot().Phase, "recovers on the next successful poll")
	assert.Nil(t, p.Snapshot().Err)

	p.SetTarget("")
	assert.Equal(t, PhaseNoTarget, p.Snapshot().Phase)
	assert.Nil(t, p.Snapshot().Changes)
}

func TestPresenter_StaleResponses(t *testing.T) {
	p := NewPresenter(&fakeSource{}, time.Hour)
	csA := &ChangeSet{Files: []FileChange{{Path: "from-a"}}}
	csB := &ChangeSet{Files: []FileChange{{Path: "from-b"}}}

	t.Run("previous target", func(t *testing.T) {
		p.SetTarget("A")
		reqA, ok := p.Begin()
		require.True(t, ok)

		p.SetTarget("B")
		reqB, _ := p.Begin()

		assert.True(t, p.Apply(reqB, csB, nil))
		assert.False(t, p.Apply(reqA, csA, nil), "late response for A must not replace B")
		assert.Equal(t, "from-b", p.Snapshot().Changes.Files[0].Path)
	})

	t.Run("same target switched away and back", func(t *testing.T) {
		p.SetTarget("A")
		old, _ := p.Begin()
		p.SetTarget("B")
		p.SetTarget("A")
		assert.False(t, p.Apply(old, csA, nil), "generation changed")
		assert.Equal(t, PhaseLoading, p.Snapshot().Phase)
	})

	t.Run("out of order on one target", func(t *testing.T) {
		p.SetTarget("C")
		first, _ := p.Begin()
		second, _ := p.Begin()
		assert.True(t, p.Apply(second, csB, nil))
		assert.False(t, p.Apply(first, csA, nil))
		assert.Equal(t, "from-b", p.Snapshot().Changes.Files[0].Path)
	})

	t.Run("stale error", func(t *testing.T) {
		p.SetTarget("D")
		first, _ := p.Begin()
		second, _ := p.Begin()
		assert.True(t, p.Apply(second, csA, nil))
		assert.False(t, p.Apply(first, nil, errors.New("late failure")))
		assert.Equal(t, PhaseReady, p.Snapshot().Phase)
	})
}

func TestPresenter_Run(t *testing.T) {
	src := &fakeSource{sets: map[string]*ChangeSet{
		"A": {Files: []FileChange{{Path: "a"}}},
		"B": {Files: []FileChange{{Path: "b"}}},
	}}
	p := NewPresenter(src, 20*time.Millisecond)

	updates := make(chan Snapshot, 64)
	p.OnChange(func(s Snapshot) {
		select {
		case updates <- s:
		default:
		}
	})
	p.SetTarget("A")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return src.callCount() >= 3 }, time.Second, 5*time.Millisecond)

	p.SetTarget("B")
	require.Eventually(t, func() bool {
		s := p.Snapshot()
		return s.Phase == PhaseReady && s.Target == "B" && s.Changes.Files[0].Path == "b"
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.NotEmpty(t, updates)
}

func TestRenderer_Lines(t *testing.T) {
	r := NewRenderer()
	lines := diff.Parse("@@ -1,2 +1,3 @@\n context\n-old\n+new1\n+new2\n")

	got := strings.Split(plain(r.Lines("a.txt", lines)), "\n")
	want := []string{
		"        │ @@ -1,2 +1,3 @@",
		"  1   1 │  context",
		"  2     │ -old",
		"      2 │ +new1",
		"      3 │ +new2",
	}
	assert.Equal(t, want, got)
}

func TestRenderer_WideGutter(t *testing.T) {
	r := NewRenderer()
	lines := diff.Parse("@@ -998,2 +1000,2 @@\n a\n-b\n")
	got := strings.Split(plain(r.Lines("a.txt", lines)), "\n")
	assert.Equal(t, " 998 1000 │  a", got[1])
	assert.Equal(t, " 999      │ -b", got[2])
}

func TestRenderer_Snapshot(t *testing.T) {
	r := NewRenderer()

	assert.Equal(t, "No sandbox selected", plain(r.Snapshot(Snapshot{Phase: PhaseNoTarget})))
	assert.Contains(t, plain(r.Snapshot(Snapshot{Phase: PhaseLoading})), "Loading")
	assert.Contains(t, plain(r.Snapshot(Snapshot{Phase: PhaseError, Err: errors.New("boom")})), "boom")
	assert.Equal(t, "No changes", plain(r.Snapshot(Snapshot{Phase: PhaseReady, Changes: &ChangeSet{}})))

	out := plain(r.Snapshot(Snapshot{Phase: PhaseReady, Changes: &ChangeSet{Files: []FileChange{
		{Path: "main.go", Status: "modified", Diff: strPtr("@@ -1 +1 @@\n-a\n+b")},
		{Path: "logo.png", Status: "added"},
		{Path: "empty.txt", Status: "added", Diff: strPtr("")},
	}}}))
	assert.Contains(t, out, "main.go (modified) +1 -1")
	assert.Contains(t, out, "logo.png (added)\nNo diff")
	assert.Contains(t, out, "empty.txt (added)\nNo diff")
}

func TestRenderer_Highlight(t *testing.T) {
	r := NewRenderer(WithHighlighter(NewHighlighter("monokai")))
	lines := diff.Parse("@@ -1 +1 @@\n+func main() {}\n")
	out := r.Lines("main.go", lines)
	assert.Contains(t, plain(out), "+func main() {}")
	assert.NotContains(t, out, "\n\n")

	h := NewHighlighter("no-such-style")
	assert.Equal(t, "", h.Line("x.go", ""))
	assert.Equal(t, "plain words", plain(h.Line("notes.unknown-ext", "plain words")))
}
