package cache

import "github.com/Borislavv/masjid-tv-display/pkg/storage/list"

// EvictReason tells OnEvict listeners why an entry left the store.
type EvictReason string

const (
	ReasonDeleted     EvictReason = "deleted"
	ReasonExpired     EvictReason = "expired"
	ReasonEvicted     EvictReason = "evicted"
	ReasonInvalidated EvictReason = "invalidated"
	ReasonCleared     EvictReason = "cleared"
	ReasonCorrupted   EvictReason = "corrupted"
)

// Entry is a stored value with its bookkeeping. Times are epoch milliseconds, TTL is milliseconds.
type Entry struct {
	Key          string   `json:"key"`
	Value        []byte   `json:"value"`
	Timestamp    int64    `json:"timestamp"`
	TTL          int64    `json:"ttl"`
	AccessCount  uint64   `json:"accessCount"`
	LastAccessed int64    `json:"lastAccessed"`
	Size         int      `json:"size"`
	Compressed   bool     `json:"compressed"`
	Codec        string   `json:"codec,omitempty"`
	Tags         []string `json:"tags,omitempty"`

	elem *list.Element[string]
}

// valid reports whether the entry is still servable at now (ms).
func (e *Entry) valid(now int64) bool {
	return e.TTL == 0 || now-e.Timestamp < e.TTL
}

func (e *Entry) hasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type evicted struct {
	key    string
	reason EvictReason
}
