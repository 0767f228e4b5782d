//go:build windows

package session

// WinchNotifier never fires on Windows, which has no SIGWINCH. Hosts there
// rely on their own resize events.
type WinchNotifier struct{}

// Subscribe implements Notifier
func (WinchNotifier) Subscribe(fn func()) func() {
	return func() {}
}
