package config

import (
	"time"

	displayconfig "github.com/Borislavv/masjid-tv-display/pkg/config"
	"github.com/Borislavv/masjid-tv-display/pkg/server/config"
)

type Config struct {
	fasthttpconfig.HttpServer `mapstructure:",squash"`
	displayconfig.Config      `mapstructure:",squash"`

	// LivenessProbeTimeout bounds a single health check of the app.
	LivenessProbeTimeout time.Duration `mapstructure:"LIVENESS_PROBE_FAILED_TIMEOUT"`
	// DemoContentItems is the size of the generated rotation served when no backend is set in dev.
	DemoContentItems int `mapstructure:"DEMO_CONTENT_ITEMS"`
}

func (c *Config) Normalize() *Config {
	c.HttpServer.Normalize()
	c.Config.Normalize()
	if c.LivenessProbeTimeout <= 0 {
		c.LivenessProbeTimeout = 5 * time.Second
	}
	if c.DemoContentItems <= 0 {
		c.DemoContentItems = 8
	}
	return c
}
