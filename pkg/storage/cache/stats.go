package cache

import "time"

// Stats is a point-in-time view. Entries and TotalSize are derived from the live map.
type Stats struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	HitRate   float64 `json:"hitRate"` // percent
	TotalSize int64   `json:"totalSize"`
	Entries   int     `json:"entries"`
	// AverageAccessTimeMs is the running mean of Get latency.
	AverageAccessTimeMs float64 `json:"averageAccessTime"`
}

type counters struct {
	hits        uint64
	misses      uint64
	accesses    uint64
	avgAccessMs float64
}

func (c *counters) observe(elapsed time.Duration) {
	c.accesses++
	ms := float64(elapsed) / float64(time.Millisecond)
	c.avgAccessMs += (ms - c.avgAccessMs) / float64(c.accesses)
}

func (c *counters) hitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total) * 100
}

// OptimizeResult reports what Optimize did.
type OptimizeResult struct {
	Cleaned    int   `json:"cleaned"`
	Compressed int   `json:"compressed"`
	Freed      int64 `json:"freed"`
}
