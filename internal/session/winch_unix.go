//go:build !windows

package session

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/vanpelt/codesandbox/internal/recovery"
)

// WinchNotifier fires on SIGWINCH, i.e. whenever the controlling terminal
// window is resized.
type WinchNotifier struct{}

// Subscribe implements Notifier
func (WinchNotifier) Subscribe(fn func()) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	done := make(chan struct{})

	recovery.SafeGo("sigwinch", func() {
		for {
			select {
			case <-ch:
				fn()
			case <-done:
				return
			}
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}
