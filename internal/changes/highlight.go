package changes

import (
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter colors source lines with chroma, picking the lexer from the
// file name. Lines are highlighted one at a time, so constructs spanning
// several lines (block comments, heredocs) are only approximated.
type Highlighter struct {
	style     *chroma.Style
	formatter chroma.Formatter

	mu     sync.Mutex
	lexers map[string]chroma.Lexer
}

// NewHighlighter uses the named chroma style, falling back to chroma's
// default for unknown names.
func NewHighlighter(styleName string) *Highlighter {
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	return &Highlighter{
		style:     styles.Get(styleName),
		formatter: formatter,
		lexers:    make(map[string]chroma.Lexer),
	}
}

func (h *Highlighter) lexer(path string) chroma.Lexer {
	h.mu.Lock()
	defer h.mu.Unlock()
	if l, ok := h.lexers[path]; ok {
		return l
	}
	l := lexers.Match(path)
	if l != nil {
		l = chroma.Coalesce(l)
	}
	h.lexers[path] = l
	return l
}

// Line highlights one line of the file at path. Unknown file types and
// tokenizer failures come back unchanged.
func (h *Highlighter) Line(path, text string) string {
	if text == "" {
		return text
	}
	l := h.lexer(path)
	if l == nil {
		return text
	}
	it, err := l.Tokenise(nil, text)
	if err != nil {
		return text
	}
	var b strings.Builder
	if err := h.formatter.Format(&b, h.style, it); err != nil {
		return text
	}
	return strings.ReplaceAll(b.String(), "\n", "")
}
