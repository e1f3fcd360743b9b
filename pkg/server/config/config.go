package fasthttpconfig

import (
	"time"
)

const (
	DefaultServerName            = "masjid-tv-display"
	DefaultServerPort            = ":8020"
	DefaultServerShutDownTimeout = 5 * time.Second
	DefaultServerRequestTimeout  = 10 * time.Second
)

type Configurator interface {
	GetHttpServerName() string
	GetHttpServerPort() string
	GetHttpServerShutDownTimeout() time.Duration
	GetHttpServerRequestTimeout() time.Duration
	IsPrometheusMetricsEnabled() bool
}

type HttpServer struct {
	// ServerName is reported in the X-Server-Name header.
	ServerName string `mapstructure:"SERVER_NAME"`
	// ServerPort is the listen address of the local display API.
	ServerPort string `mapstructure:"SERVER_PORT"`
	// ServerShutDownTimeout is how long in-flight requests may take after shutdown starts.
	ServerShutDownTimeout time.Duration `mapstructure:"SERVER_SHUTDOWN_TIMEOUT"`
	// ServerRequestTimeout bounds the context handed to each handler.
	ServerRequestTimeout time.Duration `mapstructure:"SERVER_REQUEST_TIMEOUT"`
	// IsEnabledPrometheusMetrics exposes /metrics and instruments requests.
	IsEnabledPrometheusMetrics bool `mapstructure:"IS_PROMETHEUS_METRICS_ENABLED"`
}

func (c *HttpServer) Normalize() {
	if c.ServerName == "" {
		c.ServerName = DefaultServerName
	}
	if c.ServerPort == "" {
		c.ServerPort = DefaultServerPort
	}
	if c.ServerShutDownTimeout <= 0 {
		c.ServerShutDownTimeout = DefaultServerShutDownTimeout
	}
	if c.ServerRequestTimeout <= 0 {
		c.ServerRequestTimeout = DefaultServerRequestTimeout
	}
}

func (c HttpServer) GetHttpServerName() string {
	return c.ServerName
}

func (c HttpServer) GetHttpServerPort() string {
	return c.ServerPort
}

func (c HttpServer) GetHttpServerShutDownTimeout() time.Duration {
	return c.ServerShutDownTimeout
}

func (c HttpServer) GetHttpServerRequestTimeout() time.Duration {
	return c.ServerRequestTimeout
}

func (c HttpServer) IsPrometheusMetricsEnabled() bool {
	return c.IsEnabledPrometheusMetrics
}
