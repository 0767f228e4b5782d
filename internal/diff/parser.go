// Package diff classifies the lines of a unified diff and assigns them old
// and new line numbers.
package diff

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind classifies a diff line
type Kind int

const (
	Context Kind = iota
	HunkHeader
	Addition
	Deletion
)

func (k Kind) String() string {
	switch k {
	case HunkHeader:
		return "hunk"
	case Addition:
		return "addition"
	case Deletion:
		return "deletion"
	default:
		return "context"
	}
}

// Line is one classified input line. Which line numbers are present follows
// from Kind alone: context lines have both, additions only the new number,
// deletions only the old number and hunk headers neither.
type Line struct {
	Kind    Kind
	Content string

	oldNum int
	newNum int
}

// OldNumber returns the line number in the old file, if the line has one.
func (l Line) OldNumber() (int, bool) {
	if l.Kind == Context || l.Kind == Deletion {
		return l.oldNum, true
	}
	return 0, false
}

// NewNumber returns the line number in the new file, if the line has one.
func (l Line) NewNumber() (int, bool) {
	if l.Kind == Context || l.Kind == Addition {
		return l.newNum, true
	}
	return 0, false
}

var hunkRe = regexp.MustCompile(`^@@ -(\d+)(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// Parse classifies every line of a single file's unified diff. It never fails:
// a garbled hunk header is still reported as a header but leaves the counters
// where they were.
func Parse(text string) []Line {
	if text == "" {
		return nil
	}
	raw := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	lines := make([]Line, 0, len(raw))

	oldLine, newLine := 1, 1
	for _, s := range raw {
		s = strings.TrimSuffix(s, "\r")

		switch {
		case strings.HasPrefix(s, "@@"):
			if o, n, ok := parseHunkHeader(s); ok {
				oldLine, newLine = o, n
			}
			lines = append(lines, Line{Kind: HunkHeader, Content: s})
		case strings.HasPrefix(s, "+") && !strings.HasPrefix(s, "+++"):
			lines = append(lines, Line{Kind: Addition, Content: s, newNum: newLine})
			newLine++
		case strings.HasPrefix(s, "-") && !strings.HasPrefix(s, "---"):
			lines = append(lines, Line{Kind: Deletion, Content: s, oldNum: oldLine})
			oldLine++
		default:
			lines = append(lines, Line{Kind: Context, Content: s, oldNum: oldLine, newNum: newLine})
			oldLine++
			newLine++
		}
	}
	return lines
}

func parseHunkHeader(s string) (oldStart, newStart int, ok bool) {
	m := hunkRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	o, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return o, n, true
}

// Stats counts added and removed lines
func Stats(lines []Line) (added, removed int) {
	for _, l := range lines {
		switch l.Kind {
		case Addition:
			added++
		case Deletion:
			removed++
		}
	}
	return added, removed
}
