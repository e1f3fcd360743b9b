package config

import "time"

const (
	DefaultBackendTimeout = 10 * time.Second
	DefaultBackendRPS     = 5
)

type Backend struct {
	// BackendURL is the display REST API base, e.g. https://api.example.org.
	BackendURL     string        `mapstructure:"BACKEND_URL"`
	BackendToken   string        `mapstructure:"BACKEND_TOKEN"`
	BackendTimeout time.Duration `mapstructure:"BACKEND_TIMEOUT"`
	BackendRPS     float64       `mapstructure:"BACKEND_RPS"`
}

func (c *Backend) Normalize() {
	if c.BackendTimeout <= 0 {
		c.BackendTimeout = DefaultBackendTimeout
	}
	if c.BackendRPS <= 0 {
		c.BackendRPS = DefaultBackendRPS
	}
}
