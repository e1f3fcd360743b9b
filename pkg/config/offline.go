package config

import "time"

const (
	DefaultMaxCacheAge     = 24 * time.Hour
	DefaultMaxRetries      = 5
	DefaultRetryDelay      = 30 * time.Second
	DefaultRefreshInterval = 5 * time.Minute
)

type Offline struct {
	DisplayID       string        `mapstructure:"DISPLAY_ID"`
	MaxCacheAge     time.Duration `mapstructure:"OFFLINE_MAX_CACHE_AGE"`
	MaxRetries      int           `mapstructure:"OFFLINE_MAX_RETRIES"`
	RetryDelay      time.Duration `mapstructure:"OFFLINE_RETRY_DELAY"`
	EnableFallback  bool          `mapstructure:"OFFLINE_ENABLE_FALLBACK"`
	RefreshInterval time.Duration `mapstructure:"OFFLINE_REFRESH_INTERVAL"`
}

func (c *Offline) Normalize() {
	if c.MaxCacheAge <= 0 {
		c.MaxCacheAge = DefaultMaxCacheAge
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
}
