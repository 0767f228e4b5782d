package cache

import (
	"encoding/hex"

	"github.com/vanpelt/codesandbox/internal/diff"
	"github.com/zeebo/blake3"
)

// DiffCache memoises parsed diffs by content, so a file whose diff did not
// change between polls is not parsed again.
type DiffCache struct {
	cache Cache[[]diff.Line]
}

// NewDiffCache wraps cache
func NewDiffCache(cache Cache[[]diff.Line]) *DiffCache {
	return &DiffCache{cache: cache}
}

// NewDiffCacheWithDefaults creates a DiffCache over a default LRU
func NewDiffCacheWithDefaults() *DiffCache {
	return NewDiffCache(NewLRU[[]diff.Line](DefaultMaxSize))
}

// DiffKey is the content digest a diff is cached under
func DiffKey(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Parse returns the parsed lines for text, parsing only on a miss. The
// returned slice is shared and must not be modified.
func (c *DiffCache) Parse(text string) []diff.Line {
	key := DiffKey(text)
	if lines, ok := c.cache.Get(key); ok {
		return lines
	}
	lines := diff.Parse(text)
	c.cache.Set(key, lines)
	return lines
}

// Stats exposes the underlying cache statistics
func (c *DiffCache) Stats() Stats {
	return c.cache.Stats()
}

// Close releases the underlying cache
func (c *DiffCache) Close() error {
	return c.cache.Close()
}
