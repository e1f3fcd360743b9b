package cache

import (
	"encoding/json"
	"runtime"

	"github.com/Borislavv/masjid-tv-display/pkg/utils"
	"github.com/rs/zerolog/log"
)

type exportEntry struct {
	Key          string          `json:"key"`
	Size         int             `json:"size"`
	Compressed   bool            `json:"compressed"`
	Codec        string          `json:"codec,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Timestamp    int64           `json:"timestamp"`
	TTL          int64           `json:"ttl"`
	AccessCount  uint64          `json:"accessCount"`
	LastAccessed int64           `json:"lastAccessed"`
	Value        json.RawMessage `json:"value,omitempty"`
}

// Export renders the store for debugging. Values of compressed entries are elided.
func (s *Store) Export() ([]byte, error) {
	stats := s.Stats()

	s.mu.Lock()
	entries := make([]exportEntry, 0, len(s.entries))
	for _, key := range s.keysLocked() {
		e := s.entries[key]
		ee := exportEntry{
			Key:          e.Key,
			Size:         e.Size,
			Compressed:   e.Compressed,
			Codec:        e.Codec,
			Tags:         e.Tags,
			Timestamp:    e.Timestamp,
			TTL:          e.TTL,
			AccessCount:  e.AccessCount,
			LastAccessed: e.LastAccessed,
		}
		if !e.Compressed && json.Valid(e.Value) {
			ee.Value = json.RawMessage(e.Value)
		}
		entries = append(entries, ee)
	}
	s.mu.Unlock()

	return json.Marshal(struct {
		Name    string        `json:"name"`
		Stats   Stats         `json:"stats"`
		Entries []exportEntry `json:"entries"`
	}{Name: s.name, Stats: stats, Entries: entries})
}

func (s *Store) keysLocked() []string {
	keys := make([]string, 0, len(s.entries))
	for el := s.order.Front(); el != nil; el = el.Next() {
		if _, ok := s.entries[el.Value]; ok {
			keys = append(keys, el.Value)
		}
	}
	return keys
}

// logStats emits the periodic debug line.
func (s *Store) logStats() {
	st := s.Stats()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	log.Info().Msgf(
		"[cache][5s] %s (entries: %d/%d, size: %s, hits: %d, misses: %d, hitRate: %.1f%%, avgAccess: %.3fms), sys (alloc: %s, goroutines: %d, GC: %d)",
		s.name, st.Entries, s.cfg.MaxSize, utils.FmtMem(st.TotalSize), st.Hits, st.Misses, st.HitRate,
		st.AverageAccessTimeMs, utils.FmtMem(int64(m.Alloc)), runtime.NumGoroutine(), m.NumGC,
	)
}
