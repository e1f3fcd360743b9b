package config

import "time"

const (
	DefaultProbeInterval = 15 * time.Second
	DefaultProbeTimeout  = 5 * time.Second
)

type Network struct {
	// ProbeURL is polled to detect connectivity, the prober is disabled when empty.
	ProbeURL      string        `mapstructure:"NETWORK_PROBE_URL"`
	ProbeInterval time.Duration `mapstructure:"NETWORK_PROBE_INTERVAL"`
	ProbeTimeout  time.Duration `mapstructure:"NETWORK_PROBE_TIMEOUT"`
}

func (c *Network) Normalize() {
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = DefaultProbeInterval
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
}
