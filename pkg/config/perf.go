package config

import "time"

const (
	DefaultPerfMaxMemoryMB    = 512
	DefaultPerfSampleInterval = 5 * time.Second
	DefaultPerfWindow         = 1000
	DefaultPerfMinFrameRate   = 50
	DefaultPerfMaxLatency     = 2000 * time.Millisecond
	DefaultPerfMaxInitialLoad = 3000 * time.Millisecond
	DefaultPerfMaxTransition  = 500 * time.Millisecond
)

type Perf struct {
	PerfEnabled        bool          `mapstructure:"PERF_ENABLED"`
	PerfMaxMemoryMB    float64       `mapstructure:"PERF_MAX_MEMORY_MB"`
	PerfSampleInterval time.Duration `mapstructure:"PERF_SAMPLE_INTERVAL"`
	PerfWindow         int           `mapstructure:"PERF_WINDOW"`
	PerfMinFrameRate   float64       `mapstructure:"PERF_MIN_FRAME_RATE"`
	PerfMaxLatency     time.Duration `mapstructure:"PERF_MAX_LATENCY"`
	PerfMaxInitialLoad time.Duration `mapstructure:"PERF_MAX_INITIAL_LOAD"`
	PerfMaxTransition  time.Duration `mapstructure:"PERF_MAX_TRANSITION"`
}

func (c *Perf) Normalize() {
	if c.PerfMaxMemoryMB <= 0 {
		c.PerfMaxMemoryMB = DefaultPerfMaxMemoryMB
	}
	if c.PerfSampleInterval <= 0 {
		c.PerfSampleInterval = DefaultPerfSampleInterval
	}
	if c.PerfWindow <= 0 {
		c.PerfWindow = DefaultPerfWindow
	}
	if c.PerfMinFrameRate <= 0 {
		c.PerfMinFrameRate = DefaultPerfMinFrameRate
	}
	if c.PerfMaxLatency <= 0 {
		c.PerfMaxLatency = DefaultPerfMaxLatency
	}
	if c.PerfMaxInitialLoad <= 0 {
		c.PerfMaxInitialLoad = DefaultPerfMaxInitialLoad
	}
	if c.PerfMaxTransition <= 0 {
		c.PerfMaxTransition = DefaultPerfMaxTransition
	}
}
