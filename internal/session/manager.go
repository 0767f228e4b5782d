package session

import (
	"context"
	"sync"
)

// Factory builds a fresh, unopened Session for target
type Factory func(target string) (*Session, error)

// Manager holds the single live Session of a view. Switching targets tears
// the previous Session down completely before the next one is built.
type Manager struct {
	factory Factory

	mu      sync.Mutex
	current *Session
}

// NewManager returns a Manager that builds sessions with factory
func NewManager(factory Factory) *Manager {
	return &Manager{factory: factory}
}

// Switch closes the current Session and opens one for target. An empty
// target just closes. The new Session is returned even when Open fails so
// the host can show its error banner.
func (m *Manager) Switch(ctx context.Context, target string) (*Session, error) {
	m.mu.Lock()
	if m.current != nil {
		_ = m.current.Close()
		m.current = nil
	}
	if target == "" {
		m.mu.Unlock()
		return nil, nil
	}
	s, err := m.factory(target)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.current = s
	m.mu.Unlock()

	// dial outside the lock; a concurrent Switch closes s and Open bails out
	return s, s.Open(ctx)
}

// Current returns the live Session, if any
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Close tears down the current Session
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	err := m.current.Close()
	m.current = nil
	return err
}
