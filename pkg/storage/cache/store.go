// Package cache implements the bounded LRU store with TTL expiry, transparent compression
// and write-through persistence that backs every display namespace.
package cache

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/clock"
	"github.com/Borislavv/masjid-tv-display/pkg/config"
	"github.com/Borislavv/masjid-tv-display/pkg/prometheus/metrics"
	"github.com/Borislavv/masjid-tv-display/pkg/storage/codec"
	"github.com/Borislavv/masjid-tv-display/pkg/storage/durable"
	"github.com/Borislavv/masjid-tv-display/pkg/storage/list"
	"github.com/Borislavv/masjid-tv-display/pkg/task"
	"github.com/rs/zerolog/log"
)

const (
	debugLogInterval = 5 * time.Second
	stopTimeout      = 5 * time.Second
)

// Store is a namespace-scoped cache. All methods are safe for concurrent use.
type Store struct {
	ctx   context.Context
	name  string
	cfg   *config.Cache
	clock clock.Clock

	codec     codec.Codec
	offloaded *codec.Offloaded

	durable    durable.Storage
	persistKey string
	persistMu  sync.Mutex
	seq        uint64 // guarded by mu
	written    uint64 // guarded by persistMu

	metrics *metrics.Metrics

	mu      sync.Mutex
	entries map[string]*Entry
	order   *list.List[string] // LRU at the front, MRU at the back
	bytes   int64
	stats   counters
	onEvict []func(key string, reason EvictReason)

	cleanup *task.Task
	logger  *task.Task
}

// New builds a store for namespace name, restores a persisted snapshot when persistence is
// enabled and starts the periodic cleanup (and the debug stats logger when debug is on).
func New(ctx context.Context, name string, cfg *config.Cache, opts ...Option) *Store {
	cfg.Normalize()

	s := &Store{
		ctx:     ctx,
		name:    name,
		cfg:     cfg,
		clock:   clock.System(),
		entries: make(map[string]*Entry, cfg.MaxSize),
		order:   list.New[string](false),
		cleanup: task.New("cache:" + name + ":cleanup"),
		logger:  task.New("cache:" + name + ":logger"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.codec == nil && cfg.EnableCompression {
		c, err := codec.ByName(cfg.CompressionCodec)
		if err != nil {
			log.Err(err).Msgf("[cache] %s: compression disabled", name)
		} else {
			s.codec = c
		}
	}
	if s.codec != nil && cfg.OffloadCompression {
		s.offloaded = codec.NewOffloaded(ctx, s.codec, 0, cfg.CompressionTimeout)
		s.codec = s.offloaded
	}

	if s.persistenceOn() {
		s.restore()
	}

	s.cleanup.Every(ctx, cfg.CleanupInterval, func(context.Context) { s.Cleanup() })
	if cfg.IsDebugOn() {
		s.logger.Every(ctx, debugLogInterval, func(context.Context) { s.logStats() })
	}

	return s
}

func (s *Store) Name() string { return s.name }

func (s *Store) persistenceOn() bool {
	return s.cfg.EnablePersistence && s.durable != nil && s.persistKey != ""
}

func (s *Store) now() int64 {
	return s.clock.Now().UnixMilli()
}

// OnEvict registers a listener invoked (outside the store lock) for every removed entry.
func (s *Store) OnEvict(fn func(key string, reason EvictReason)) {
	s.mu.Lock()
	s.onEvict = append(s.onEvict, fn)
	s.mu.Unlock()
}

// Set stores value under key. It never fails: a codec error stores the raw value,
// a persistence error is logged.
func (s *Store) Set(key string, value []byte, opts ...SetOption) {
	o := setOptions{ttl: s.cfg.DefaultTTL}
	for _, opt := range opts {
		opt(&o)
	}

	stored, compressed, codecName := s.pack(value)
	now := s.now()

	s.mu.Lock()
	var gone []evicted
	if e, ok := s.entries[key]; ok {
		s.bytes += int64(len(stored) - e.Size)
		e.Value = stored
		e.Timestamp = now
		e.TTL = o.ttl.Milliseconds()
		e.AccessCount = 0
		e.LastAccessed = now
		e.Size = len(stored)
		e.Compressed = compressed
		e.Codec = codecName
		e.Tags = o.tags
		s.order.MoveToBack(e.elem)
	} else {
		if len(s.entries) >= s.cfg.MaxSize {
			gone = s.evictLocked(gone)
		}
		e = &Entry{
			Key:          key,
			Value:        stored,
			Timestamp:    now,
			TTL:          o.ttl.Milliseconds(),
			LastAccessed: now,
			Size:         len(stored),
			Compressed:   compressed,
			Codec:        codecName,
			Tags:         o.tags,
		}
		e.elem = s.order.PushBack(key)
		s.entries[key] = e
		s.bytes += int64(e.Size)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(gone)
	s.persist(s.ctx, snap)
}

// pack compresses value when it is over the threshold and compression actually shrinks it.
func (s *Store) pack(value []byte) (stored []byte, compressed bool, codecName string) {
	stored = bytes.Clone(value)
	if s.codec == nil || !s.cfg.EnableCompression || len(value) <= s.cfg.CompressionThreshold {
		return stored, false, ""
	}
	packed, err := s.codec.Compress(value)
	if err != nil {
		log.Warn().Err(err).Msgf("[cache] %s: compression failed, storing raw value", s.name)
		return stored, false, ""
	}
	if len(packed) >= len(value) {
		return stored, false, ""
	}
	return packed, true, s.codec.Name()
}

// Get returns a copy of the value. Expired or undecodable entries are removed and count as misses.
func (s *Store) Get(key string) ([]byte, bool) {
	from := time.Now()

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.missLocked(from)
		s.mu.Unlock()
		return nil, false
	}
	if !e.valid(s.now()) {
		gone := s.removeLocked(e, ReasonExpired, nil)
		s.missLocked(from)
		s.mu.Unlock()
		s.notify(gone)
		return nil, false
	}
	if !e.Compressed {
		s.touchLocked(e)
		s.hitLocked(from)
		value := bytes.Clone(e.Value)
		s.mu.Unlock()
		return value, true
	}
	packed, codecName := e.Value, e.Codec
	s.mu.Unlock()

	value, err := s.unpack(packed, codecName)

	s.mu.Lock()
	current, still := s.entries[key]
	if err != nil {
		log.Warn().Err(err).Msgf("[cache] %s: dropping undecodable entry %q", s.name, key)
		var gone []evicted
		if still && current == e {
			gone = s.removeLocked(e, ReasonCorrupted, nil)
		}
		s.missLocked(from)
		s.mu.Unlock()
		s.notify(gone)
		return nil, false
	}
	if still && current == e {
		s.touchLocked(e)
	}
	s.hitLocked(from)
	s.mu.Unlock()
	return value, true
}

func (s *Store) unpack(packed []byte, codecName string) ([]byte, error) {
	if s.codec == nil || s.codec.Name() != codecName {
		return nil, &codecMismatchError{want: codecName}
	}
	return s.codec.Decompress(packed)
}

type codecMismatchError struct{ want string }

func (e *codecMismatchError) Error() string {
	return "entry was compressed with unavailable codec " + e.want
}

// Has reports whether key holds a live entry without touching its LRU position.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if !e.valid(s.now()) {
		gone := s.removeLocked(e, ReasonExpired, nil)
		s.mu.Unlock()
		s.notify(gone)
		return false
	}
	s.mu.Unlock()
	return true
}

// Age returns how long ago the live entry under key was written.
func (s *Store) Age(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	now := s.now()
	if !ok || !e.valid(now) {
		return 0, false
	}
	return time.Duration(now-e.Timestamp) * time.Millisecond, true
}

// Keys lists stored keys from least to most recently used, expired ones included until swept.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keysLocked()
}

func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	gone := s.removeLocked(e, ReasonDeleted, nil)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(gone)
	s.persist(s.ctx, snap)
	return true
}

// Clear drops every entry and resets statistics.
func (s *Store) Clear() {
	s.mu.Lock()
	gone := make([]evicted, 0, len(s.entries))
	for _, e := range s.entries {
		gone = append(gone, evicted{key: e.Key, reason: ReasonCleared})
	}
	s.entries = make(map[string]*Entry, s.cfg.MaxSize)
	s.order.Init()
	s.bytes = 0
	s.stats = counters{}
	s.reportSizeLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(gone)
	s.persist(s.ctx, snap)
}

// GetByTag returns live values carrying tag. Each hit counts as a regular Get.
func (s *Store) GetByTag(tag string) map[string][]byte {
	s.mu.Lock()
	keys := make([]string, 0)
	for key, e := range s.entries {
		if e.hasTag(tag) {
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()

	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if v, ok := s.Get(key); ok {
			out[key] = v
		}
	}
	return out
}

// InvalidateByTag removes every entry carrying tag and returns how many were removed.
func (s *Store) InvalidateByTag(tag string) int {
	s.mu.Lock()
	var gone []evicted
	for _, e := range s.entries {
		if e.hasTag(tag) {
			gone = s.removeLocked(e, ReasonInvalidated, gone)
		}
	}
	var snap *snapshot
	if len(gone) > 0 {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	s.notify(gone)
	s.persist(s.ctx, snap)
	return len(gone)
}

// Cleanup sweeps expired entries and returns how many were removed.
func (s *Store) Cleanup() int {
	now := s.now()

	s.mu.Lock()
	var gone []evicted
	for _, e := range s.entries {
		if !e.valid(now) {
			gone = s.removeLocked(e, ReasonExpired, gone)
		}
	}
	var snap *snapshot
	if len(gone) > 0 {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if len(gone) > 0 {
		log.Debug().Msgf("[cache] %s: cleaned %d expired entries", s.name, len(gone))
	}
	s.notify(gone)
	s.persist(s.ctx, snap)
	return len(gone)
}

// Optimize sweeps expired entries and compresses large raw ones.
func (s *Store) Optimize() OptimizeResult {
	res := OptimizeResult{Cleaned: s.Cleanup()}
	if s.codec == nil || !s.cfg.EnableCompression {
		return res
	}

	type candidate struct {
		e     *Entry
		value []byte
	}
	s.mu.Lock()
	var candidates []candidate
	for _, e := range s.entries {
		if !e.Compressed && e.Size > s.cfg.CompressionThreshold {
			candidates = append(candidates, candidate{e: e, value: e.Value})
		}
	}
	s.mu.Unlock()

	for _, c := range candidates {
		packed, err := s.codec.Compress(c.value)
		if err != nil || len(packed) >= len(c.value) {
			continue
		}
		s.mu.Lock()
		if cur, ok := s.entries[c.e.Key]; ok && cur == c.e && !cur.Compressed && bytes.Equal(cur.Value, c.value) {
			freed := int64(cur.Size - len(packed))
			cur.Value = packed
			cur.Size = len(packed)
			cur.Compressed = true
			cur.Codec = s.codec.Name()
			s.bytes -= freed
			res.Compressed++
			res.Freed += freed
		}
		s.mu.Unlock()
	}

	if res.Compressed > 0 {
		s.mu.Lock()
		s.reportSizeLocked()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.persist(s.ctx, snap)
	}

	log.Info().Msgf("[cache] %s: optimized (cleaned: %d, compressed: %d, freed: %dB)",
		s.name, res.Cleaned, res.Compressed, res.Freed)
	return res
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, e := range s.entries {
		total += int64(e.Size)
	}
	return Stats{
		Hits:                s.stats.hits,
		Misses:              s.stats.misses,
		HitRate:             s.stats.hitRate(),
		TotalSize:           total,
		Entries:             len(s.entries),
		AverageAccessTimeMs: s.stats.avgAccessMs,
	}
}

// Stop halts background tasks and writes a final snapshot.
func (s *Store) Stop() {
	s.cleanup.Stop()
	s.logger.Stop()

	if s.persistenceOn() {
		s.mu.Lock()
		snap := s.snapshotLocked()
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		s.persist(ctx, snap)
	}
	if s.offloaded != nil {
		s.offloaded.Close()
	}
}

func (s *Store) touchLocked(e *Entry) {
	e.AccessCount++
	e.LastAccessed = s.now()
	s.order.MoveToBack(e.elem)
}

func (s *Store) hitLocked(from time.Time) {
	s.stats.hits++
	s.stats.observe(time.Since(from))
	s.metrics.CacheLookup(s.name, true)
}

func (s *Store) missLocked(from time.Time) {
	s.stats.misses++
	s.stats.observe(time.Since(from))
	s.metrics.CacheLookup(s.name, false)
}

// evictLocked drops the least recently used entry.
func (s *Store) evictLocked(gone []evicted) []evicted {
	front := s.order.Front()
	if front == nil {
		return gone
	}
	e, ok := s.entries[front.Value]
	if !ok {
		s.order.Remove(front)
		return gone
	}
	return s.removeLocked(e, ReasonEvicted, gone)
}

func (s *Store) removeLocked(e *Entry, reason EvictReason, gone []evicted) []evicted {
	delete(s.entries, e.Key)
	s.order.Remove(e.elem)
	s.bytes -= int64(e.Size)
	s.metrics.CacheEvicted(s.name, string(reason))
	s.reportSizeLocked()
	return append(gone, evicted{key: e.Key, reason: reason})
}

func (s *Store) reportSizeLocked() {
	s.metrics.CacheSize(s.name, len(s.entries), s.bytes)
}

func (s *Store) notify(gone []evicted) {
	if len(gone) == 0 {
		return
	}
	s.mu.Lock()
	listeners := append([]func(string, EvictReason){}, s.onEvict...)
	s.mu.Unlock()

	for _, g := range gone {
		for _, fn := range listeners {
			fn(g.key, g.reason)
		}
	}
}

// rebuildOrder relinks the access list by LastAccessed, oldest first.
func (s *Store) rebuildOrderLocked() {
	ordered := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		ordered = append(ordered, e)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].LastAccessed == ordered[j].LastAccessed {
			return ordered[i].Key < ordered[j].Key
		}
		return ordered[i].LastAccessed < ordered[j].LastAccessed
	})
	s.order.Init()
	for _, e := range ordered {
		e.elem = s.order.PushBack(e.Key)
	}
}
