// Package perf collects client and process performance samples and flags the ones
// breaching display thresholds.
package perf

import "time"

type Category string

const (
	Loading         Category = "loading"
	Rendering       Category = "rendering"
	Memory          Category = "memory"
	Network         Category = "network"
	UserInteraction Category = "user-interaction"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case Loading, Rendering, Memory, Network, UserInteraction:
		return true
	}
	return false
}

// Well known metric names checked against thresholds.
const (
	InitialLoad       = "initial-load"
	FrameRate         = "frame-rate"
	MemoryUsed        = "memory-used"
	APIRequest        = "api-request"
	ContentTransition = "content-transition"
)

type Sample struct {
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Category  Category  `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

type Warning struct {
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Unit      string    `json:"unit"`
	At        time.Time `json:"at"`
}

type Stat struct {
	Category Category `json:"category"`
	Unit     string   `json:"unit"`
	Count    int      `json:"count"`
	Avg      float64  `json:"avg"`
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
	Latest   float64  `json:"latest"`
}

// ring keeps the newest len(buf) samples.
type ring struct {
	buf  []Sample
	next int
	full bool
}

func newRing(size int) *ring {
	return &ring{buf: make([]Sample, size)}
}

func (r *ring) push(s Sample) {
	r.buf[r.next] = s
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

func (r *ring) len() int {
	if r.full {
		return len(r.buf)
	}
	return r.next
}

// walk visits samples oldest first.
func (r *ring) walk(fn func(s *Sample)) {
	if r.full {
		for i := r.next; i < len(r.buf); i++ {
			fn(&r.buf[i])
		}
	}
	for i := 0; i < r.next; i++ {
		fn(&r.buf[i])
	}
}
