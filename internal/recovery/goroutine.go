package recovery

import (
	"runtime/debug"

	"github.com/vanpelt/codesandbox/internal/logger"
)

// SafeGo runs fn in a goroutine and logs instead of crashing if it panics.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Logger.Error().
					Str("goroutine", name).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
			}
		}()
		fn()
	}()
}
