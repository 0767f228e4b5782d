// Package cache keeps parsed diffs between change-set polls.
package cache

// DefaultMaxSize holds one change set worth of files with room to spare
const DefaultMaxSize = 256

// Cache is a bounded keyed store
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	Len() int
	Stats() Stats
	Close() error
}

// Stats counts lookups since the cache was created
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
	MaxSize   int   `json:"max_size"`
}

// HitRate is the share of lookups that hit, zero before the first lookup
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
