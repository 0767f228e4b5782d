package recovery

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vanpelt/codesandbox/internal/logger"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	out := &lockedBuffer{}
	logger.Configure(logger.LevelInfo, false, out)
	defer logger.Configure(logger.LevelInfo, false, nil)

	SafeGo("boom", func() {
		panic("kaboom")
	})

	assert.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, `"goroutine":"boom"`) && strings.Contains(s, "kaboom")
	}, time.Second, 5*time.Millisecond)
}
