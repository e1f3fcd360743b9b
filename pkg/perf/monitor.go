package perf

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/clock"
	"github.com/Borislavv/masjid-tv-display/pkg/config"
	"github.com/Borislavv/masjid-tv-display/pkg/prometheus/metrics"
	"github.com/Borislavv/masjid-tv-display/pkg/task"
	"github.com/rs/zerolog/log"
)

const maxWarnings = 100

type Option func(m *Monitor)

func WithClock(c clock.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Monitor) { m.metrics = mt }
}

type threshold struct {
	limit float64
	below bool // violation when the value drops under limit
}

// Monitor is a passive collector: it never acts on what it records.
type Monitor struct {
	cfg        *config.Perf
	clock      clock.Clock
	metrics    *metrics.Metrics
	thresholds map[string]threshold
	sampler    *task.Task

	mu       sync.Mutex
	samples  *ring
	warnings []Warning
}

func New(cfg *config.Perf, opts ...Option) *Monitor {
	cfg.Normalize()
	m := &Monitor{
		cfg:     cfg,
		clock:   clock.System(),
		samples: newRing(cfg.PerfWindow),
		sampler: task.New("perf:memory"),
		thresholds: map[string]threshold{
			InitialLoad:       {limit: ms(cfg.PerfMaxInitialLoad)},
			FrameRate:         {limit: cfg.PerfMinFrameRate, below: true},
			MemoryUsed:        {limit: cfg.PerfMaxMemoryMB},
			APIRequest:        {limit: ms(cfg.PerfMaxLatency)},
			ContentTransition: {limit: ms(cfg.PerfMaxTransition)},
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Record stores a sample and returns the threshold violation it caused, if any.
func (m *Monitor) Record(name string, value float64, unit string, category Category) *Warning {
	now := m.clock.Now()

	var warn *Warning
	if th, ok := m.thresholds[name]; ok {
		if (th.below && value < th.limit) || (!th.below && value > th.limit) {
			warn = &Warning{Metric: name, Value: value, Threshold: th.limit, Unit: unit, At: now}
		}
	}

	m.mu.Lock()
	m.samples.push(Sample{Name: name, Value: value, Unit: unit, Category: category, Timestamp: now})
	if warn != nil {
		m.warnings = append(m.warnings, *warn)
		if len(m.warnings) > maxWarnings {
			m.warnings = m.warnings[len(m.warnings)-maxWarnings:]
		}
	}
	m.mu.Unlock()

	m.metrics.PerfSample(name, string(category), unit, value)
	if warn != nil {
		m.metrics.PerfWarning(name)
		log.Warn().Msgf("[perf] threshold exceeded: %s = %.2f%s (threshold: %.0f%s)",
			name, value, unit, warn.Threshold, unit)
	}
	return warn
}

// Time starts a stopwatch; calling the returned func records the elapsed milliseconds.
func (m *Monitor) Time(name string, category Category) func() time.Duration {
	start := m.clock.Now()
	return func() time.Duration {
		elapsed := m.clock.Now().Sub(start)
		m.Record(name, ms(elapsed), "ms", category)
		return elapsed
	}
}

// Metrics returns the retained samples, oldest first.
func (m *Monitor) Metrics() []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Sample, 0, m.samples.len())
	m.samples.walk(func(s *Sample) { out = append(out, *s) })
	return out
}

func (m *Monitor) Warnings() []Warning {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Warning(nil), m.warnings...)
}

// Summary aggregates the retained samples per metric name.
func (m *Monitor) Summary() map[string]Stat {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]Stat)
	m.samples.walk(func(s *Sample) {
		st, ok := out[s.Name]
		if !ok {
			st = Stat{Category: s.Category, Unit: s.Unit, Min: s.Value, Max: s.Value}
		}
		st.Avg = (st.Avg*float64(st.Count) + s.Value) / float64(st.Count+1)
		st.Count++
		st.Latest = s.Value
		if s.Value < st.Min {
			st.Min = s.Value
		}
		if s.Value > st.Max {
			st.Max = s.Value
		}
		out[s.Name] = st
	})
	return out
}

// Start runs the memory sampler when monitoring is enabled.
func (m *Monitor) Start(ctx context.Context) {
	if !m.cfg.PerfEnabled {
		log.Info().Msg("[perf] memory sampler disabled")
		return
	}
	m.sampler.EveryNow(ctx, m.cfg.PerfSampleInterval, func(context.Context) { m.SampleMemory() })
}

func (m *Monitor) Stop() {
	m.sampler.Stop()
}

// SampleMemory records the current heap usage in MB.
func (m *Monitor) SampleMemory() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	m.Record(MemoryUsed, float64(stats.HeapAlloc)/1024/1024, "MB", Memory)
	m.Record("memory-sys", float64(stats.Sys)/1024/1024, "MB", Memory)
}
