package session

import (
	"bytes"
	"fmt"
	"strconv"
)

// ResizePrefix marks a client→server control frame. Everything else on the
// stream is raw terminal data.
const ResizePrefix = "__RESIZE__:"

// Geometry is a terminal character grid size
type Geometry struct {
	Cols int
	Rows int
}

// Valid reports whether both dimensions are positive
func (g Geometry) Valid() bool {
	return g.Cols > 0 && g.Rows > 0
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d", g.Cols, g.Rows)
}

// EncodeResize renders the resize control message for g
func EncodeResize(g Geometry) []byte {
	return []byte(ResizePrefix + strconv.Itoa(g.Cols) + "," + strconv.Itoa(g.Rows))
}

// DecodeResize parses a resize control message. ok is false for anything that
// is not exactly a well-formed resize frame.
func DecodeResize(data []byte) (g Geometry, ok bool) {
	rest, found := bytes.CutPrefix(bytes.TrimRight(data, "\r\n"), []byte(ResizePrefix))
	if !found {
		return Geometry{}, false
	}
	colsPart, rowsPart, found := bytes.Cut(rest, []byte(","))
	if !found {
		return Geometry{}, false
	}
	cols, err := strconv.Atoi(string(colsPart))
	if err != nil {
		return Geometry{}, false
	}
	rows, err := strconv.Atoi(string(rowsPart))
	if err != nil {
		return Geometry{}, false
	}
	g = Geometry{Cols: cols, Rows: rows}
	return g, g.Valid()
}
