package config

import "time"

const (
	DefaultCacheMaxSize         = 100
	DefaultCacheTTL             = 5 * time.Minute
	DefaultCompressionThreshold = 1024
	DefaultCacheCleanupInterval = 5 * time.Minute
	DefaultCompressionCodec     = "zstd"
	DefaultCompressionTimeout   = 5 * time.Second
)

type Cache struct {
	MaxSize              int           `mapstructure:"CACHE_MAX_SIZE"`
	DefaultTTL           time.Duration `mapstructure:"CACHE_DEFAULT_TTL"`
	EnableCompression    bool          `mapstructure:"CACHE_ENABLE_COMPRESSION"`
	CompressionThreshold int           `mapstructure:"CACHE_COMPRESSION_THRESHOLD"`
	CompressionCodec     string        `mapstructure:"CACHE_COMPRESSION_CODEC"` // zstd | gzip
	// OffloadCompression runs the codec on a worker pool, each call bounded by CompressionTimeout.
	OffloadCompression bool          `mapstructure:"CACHE_OFFLOAD_COMPRESSION"`
	CompressionTimeout time.Duration `mapstructure:"CACHE_COMPRESSION_TIMEOUT"`
	EnablePersistence  bool          `mapstructure:"CACHE_ENABLE_PERSISTENCE"`
	CleanupInterval    time.Duration `mapstructure:"CACHE_CLEANUP_INTERVAL"`
	Debug              bool          `mapstructure:"CACHE_DEBUG"`
}

func (c *Cache) Normalize() {
	if c.MaxSize <= 0 {
		c.MaxSize = DefaultCacheMaxSize
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = DefaultCacheTTL
	}
	if c.CompressionThreshold <= 0 {
		c.CompressionThreshold = DefaultCompressionThreshold
	}
	if c.CompressionCodec == "" {
		c.CompressionCodec = DefaultCompressionCodec
	}
	if c.CompressionTimeout <= 0 {
		c.CompressionTimeout = DefaultCompressionTimeout
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = DefaultCacheCleanupInterval
	}
}

func (c *Cache) IsDebugOn() bool {
	return c.Debug
}
