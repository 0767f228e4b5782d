// Package capture records terminal output with timing so a session can be
// replayed later.
package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Metadata is the file format of a recording
type Metadata struct {
	CaptureDate     time.Time `json:"captureDate"`
	Target          string    `json:"target,omitempty"`
	Cols            int       `json:"cols,omitempty"`
	Rows            int       `json:"rows,omitempty"`
	TotalBytes      int       `json:"totalBytes"`
	DurationSeconds float64   `json:"durationSeconds"`
	Events          []Event   `json:"events"`
}

// Event is one chunk of output. Data is base64 in JSON.
type Event struct {
	TimestampMs int    `json:"timestampMs"`
	Data        []byte `json:"data"`
}

// Recorder is an io.Writer that timestamps every write
type Recorder struct {
	mu         sync.Mutex
	target     string
	start      time.Time
	events     []Event
	totalBytes int
	cols, rows int
	now        func() time.Time
}

// NewRecorder starts a recording for target
func NewRecorder(target string) *Recorder {
	return &Recorder{target: target, start: time.Now(), now: time.Now}
}

// SetSize records the terminal size the output was produced for
func (r *Recorder) SetSize(cols, rows int) {
	r.mu.Lock()
	r.cols, r.rows = cols, rows
	r.mu.Unlock()
}

func (r *Recorder) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	data := make([]byte, len(p))
	copy(data, p)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{
		TimestampMs: int(r.now().Sub(r.start).Milliseconds()),
		Data:        data,
	})
	r.totalBytes += len(p)
	return len(p), nil
}

// Metadata returns a snapshot of the recording so far
func (r *Recorder) Metadata() Metadata {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]Event, len(r.events))
	copy(events, r.events)
	return Metadata{
		CaptureDate:     r.start,
		Target:          r.target,
		Cols:            r.cols,
		Rows:            r.rows,
		TotalBytes:      r.totalBytes,
		DurationSeconds: r.now().Sub(r.start).Seconds(),
		Events:          events,
	}
}

// Save writes the recording as indented JSON
func (r *Recorder) Save(path string) error {
	data, err := json.MarshalIndent(r.Metadata(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode capture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write capture: %w", err)
	}
	return nil
}

// Load reads a recording
func Load(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse capture: %w", err)
	}
	return &m, nil
}

// Replay writes the recorded events to w, keeping their relative timing
// scaled by speed. A speed of zero or less writes everything at once.
func Replay(ctx context.Context, m *Metadata, w io.Writer, speed float64) error {
	last := 0
	for _, ev := range m.Events {
		if speed > 0 && ev.TimestampMs > last {
			wait := time.Duration(float64(ev.TimestampMs-last)/speed) * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		last = ev.TimestampMs
		if _, err := w.Write(ev.Data); err != nil {
			return err
		}
	}
	return nil
}
