package cache

import (
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/clock"
	"github.com/Borislavv/masjid-tv-display/pkg/prometheus/metrics"
	"github.com/Borislavv/masjid-tv-display/pkg/storage/codec"
	"github.com/Borislavv/masjid-tv-display/pkg/storage/durable"
)

// Option configures a Store at construction.
type Option func(s *Store)

func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithCodec overrides the codec chosen from config.
func WithCodec(c codec.Codec) Option {
	return func(s *Store) { s.codec = c }
}

// WithPersistence makes the store restore from and write through to storage under key.
// It has effect only when persistence is enabled in config.
func WithPersistence(storage durable.Storage, key string) Option {
	return func(s *Store) {
		s.durable = storage
		s.persistKey = key
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

type setOptions struct {
	ttl  time.Duration
	tags []string
}

// SetOption tunes a single Set call.
type SetOption func(o *setOptions)

// WithTTL overrides the default TTL, 0 means the entry never expires.
func WithTTL(ttl time.Duration) SetOption {
	return func(o *setOptions) { o.ttl = ttl }
}

func WithoutExpiry() SetOption {
	return func(o *setOptions) { o.ttl = 0 }
}

func WithTags(tags ...string) SetOption {
	return func(o *setOptions) { o.tags = append(o.tags, tags...) }
}
