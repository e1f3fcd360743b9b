package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"
)

// SnapshotVersion is bumped whenever the persisted layout changes. Blobs of other versions are discarded.
const SnapshotVersion = 1

const restoreTimeout = 5 * time.Second

type snapshot struct {
	Version int             `json:"version"`
	SavedAt int64           `json:"savedAt"`
	Codec   string          `json:"codec,omitempty"`
	Entries []snapshotEntry `json:"entries"`
	Stats   snapshotStats   `json:"stats"`

	seq uint64
}

type snapshotEntry struct {
	Entry
	Checksum uint64 `json:"checksum"`
}

type snapshotStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// snapshotLocked captures the store for a later write. Values are never mutated in place,
// so entries share their byte slices with the live map.
func (s *Store) snapshotLocked() *snapshot {
	if !s.persistenceOn() {
		return nil
	}
	s.seq++

	snap := &snapshot{
		Version: SnapshotVersion,
		SavedAt: s.now(),
		Entries: make([]snapshotEntry, 0, len(s.entries)),
		Stats:   snapshotStats{Hits: s.stats.hits, Misses: s.stats.misses},
		seq:     s.seq,
	}
	if s.codec != nil {
		snap.Codec = s.codec.Name()
	}
	for _, e := range s.entries {
		snap.Entries = append(snap.Entries, snapshotEntry{Entry: *e, Checksum: xxh3.Hash(e.Value)})
	}
	return snap
}

// persist writes snap unless a newer snapshot has already been written.
func (s *Store) persist(ctx context.Context, snap *snapshot) {
	if snap == nil {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if snap.seq <= s.written {
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		log.Err(err).Msgf("[cache] %s: marshal snapshot", s.name)
		return
	}
	if err = s.durable.SetItem(ctx, s.persistKey, string(data)); err != nil {
		log.Warn().Err(err).Msgf("[cache] %s: persist snapshot", s.name)
		return
	}
	s.written = snap.seq
}

// restore loads the persisted snapshot. Unreadable or foreign-version blobs are removed,
// entries with a bad checksum or already expired are skipped.
func (s *Store) restore() {
	ctx, cancel := context.WithTimeout(s.ctx, restoreTimeout)
	defer cancel()

	raw, ok, err := s.durable.GetItem(ctx, s.persistKey)
	if err != nil {
		log.Warn().Err(err).Msgf("[cache] %s: read snapshot", s.name)
		return
	}
	if !ok {
		return
	}

	var snap snapshot
	if err = json.Unmarshal([]byte(raw), &snap); err != nil {
		s.discard(ctx, fmt.Errorf("decode snapshot: %w", err))
		return
	}
	if snap.Version != SnapshotVersion {
		s.discard(ctx, fmt.Errorf("snapshot version %d, want %d", snap.Version, SnapshotVersion))
		return
	}

	now := s.now()
	restored, skipped := 0, 0

	s.mu.Lock()
	for i := range snap.Entries {
		se := snap.Entries[i]
		if se.Key == "" || xxh3.Hash(se.Value) != se.Checksum || !se.valid(now) {
			skipped++
			continue
		}
		e := se.Entry
		e.Size = len(e.Value)
		s.entries[e.Key] = &e
		s.bytes += int64(e.Size)
		restored++
	}
	s.rebuildOrderLocked()
	for len(s.entries) > s.cfg.MaxSize {
		s.evictLocked(nil)
	}
	s.stats.hits = snap.Stats.Hits
	s.stats.misses = snap.Stats.Misses
	s.reportSizeLocked()
	s.mu.Unlock()

	log.Info().Msgf("[cache] %s: restored %d entries, skipped %d", s.name, restored, skipped)
}

func (s *Store) discard(ctx context.Context, reason error) {
	log.Warn().Err(reason).Msgf("[cache] %s: discarding persisted snapshot", s.name)
	if err := s.durable.RemoveItem(ctx, s.persistKey); err != nil {
		log.Warn().Err(err).Msgf("[cache] %s: remove snapshot", s.name)
	}
}
