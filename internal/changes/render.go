package changes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vanpelt/codesandbox/internal/cache"
	"github.com/vanpelt/codesandbox/internal/diff"
)

// Styles used when rendering diffs
type Styles struct {
	FileHeader  lipgloss.Style
	Status      lipgloss.Style
	Stats       lipgloss.Style
	Gutter      lipgloss.Style
	Separator   lipgloss.Style
	Addition    lipgloss.Style
	Deletion    lipgloss.Style
	Context     lipgloss.Style
	HunkHeader  lipgloss.Style
	Placeholder lipgloss.Style
	Error       lipgloss.Style
}

// DefaultStyles returns the standard diff palette
func DefaultStyles() Styles {
	return Styles{
		FileHeader:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Stats:       lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Gutter:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Separator:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Addition:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Deletion:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Context:     lipgloss.NewStyle(),
		HunkHeader:  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		Placeholder: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8")),
		Error:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	}
}

// Renderer turns change sets into styled text
type Renderer struct {
	styles      Styles
	cache       *cache.DiffCache
	highlighter *Highlighter
}

// RenderOption configures a Renderer
type RenderOption func(*Renderer)

// WithStyles overrides the palette
func WithStyles(s Styles) RenderOption {
	return func(r *Renderer) { r.styles = s }
}

// WithHighlighter enables syntax highlighting of line content
func WithHighlighter(h *Highlighter) RenderOption {
	return func(r *Renderer) { r.highlighter = h }
}

// WithCache shares a parsed-diff cache between renderers
func WithCache(c *cache.DiffCache) RenderOption {
	return func(r *Renderer) { r.cache = c }
}

// NewRenderer creates a Renderer
func NewRenderer(opts ...RenderOption) *Renderer {
	r := &Renderer{styles: DefaultStyles()}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = cache.NewDiffCacheWithDefaults()
	}
	return r
}

// Snapshot renders whatever state the presenter is in
func (r *Renderer) Snapshot(s Snapshot) string {
	switch s.Phase {
	case PhaseNoTarget:
		return r.styles.Placeholder.Render("No sandbox selected")
	case PhaseLoading:
		return r.styles.Placeholder.Render("Loading changes…")
	case PhaseError:
		return r.styles.Error.Render(fmt.Sprintf("Failed to load changes: %v", s.Err))
	}
	if s.Changes == nil || len(s.Changes.Files) == 0 {
		return r.styles.Placeholder.Render("No changes")
	}

	parts := make([]string, 0, len(s.Changes.Files))
	for _, f := range s.Changes.Files {
		parts = append(parts, r.File(f))
	}
	return strings.Join(parts, "\n\n")
}

// File renders one file header followed by its diff or a placeholder
func (r *Renderer) File(f FileChange) string {
	var b strings.Builder
	b.WriteString(r.styles.FileHeader.Render(f.Path))
	b.WriteString(" ")
	b.WriteString(r.styles.Status.Render("(" + f.Status + ")"))

	if !f.HasDiff() {
		b.WriteString("\n")
		b.WriteString(r.styles.Placeholder.Render("No diff"))
		return b.String()
	}

	lines := r.cache.Parse(*f.Diff)
	added, removed := diff.Stats(lines)
	b.WriteString(" ")
	b.WriteString(r.styles.Stats.Render(fmt.Sprintf("+%d -%d", added, removed)))
	b.WriteString("\n")
	b.WriteString(r.Lines(f.Path, lines))
	return b.String()
}

// Lines renders parsed diff lines with old and new line-number gutters.
// A gutter is left blank where the line has no number on that side.
func (r *Renderer) Lines(path string, lines []diff.Line) string {
	width := gutterWidth(lines)
	blank := strings.Repeat(" ", width)
	sep := r.styles.Separator.Render("│")

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		oldCol, newCol := blank, blank
		if n, ok := l.OldNumber(); ok {
			oldCol = padNumber(n, width)
		}
		if n, ok := l.NewNumber(); ok {
			newCol = padNumber(n, width)
		}
		gutter := r.styles.Gutter.Render(oldCol + " " + newCol)
		out = append(out, gutter+" "+sep+" "+r.content(path, l))
	}
	return strings.Join(out, "\n")
}

func (r *Renderer) content(path string, l diff.Line) string {
	style := r.styles.Context
	switch l.Kind {
	case diff.HunkHeader:
		return r.styles.HunkHeader.Render(l.Content)
	case diff.Addition:
		style = r.styles.Addition
	case diff.Deletion:
		style = r.styles.Deletion
	}

	if r.highlighter == nil || l.Content == "" {
		return style.Render(l.Content)
	}
	prefix, body := l.Content[:1], l.Content[1:]
	if !strings.ContainsAny(prefix, "+- ") {
		prefix, body = "", l.Content
	}
	return style.Render(prefix) + r.highlighter.Line(path, body)
}

func gutterWidth(lines []diff.Line) int {
	maxNum := 0
	for _, l := range lines {
		if n, ok := l.OldNumber(); ok && n > maxNum {
			maxNum = n
		}
		if n, ok := l.NewNumber(); ok && n > maxNum {
			maxNum = n
		}
	}
	return max(len(strconv.Itoa(maxNum)), 3)
}

func padNumber(n, width int) string {
	s := strconv.Itoa(n)
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
