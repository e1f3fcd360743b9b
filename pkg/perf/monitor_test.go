package perf

import (
	"context"
	"testing"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/clock"
	"github.com/Borislavv/masjid-tv-display/pkg/config"
	"github.com/Borislavv/masjid-tv-display/pkg/prometheus/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowKeepsNewest(t *testing.T) {
	m := New(&config.Perf{PerfWindow: 3})
	for i := 1; i <= 5; i++ {
		m.Record("lcp", float64(i), "ms", Rendering)
	}

	samples := m.Metrics()
	require.Len(t, samples, 3)
	assert.Equal(t, []float64{3, 4, 5}, []float64{samples[0].Value, samples[1].Value, samples[2].Value})
}

func TestDefaultWindow(t *testing.T) {
	m := New(&config.Perf{})
	for i := 0; i < 1500; i++ {
		m.Record("fid", float64(i), "ms", UserInteraction)
	}
	samples := m.Metrics()
	require.Len(t, samples, 1000)
	assert.Equal(t, float64(500), samples[0].Value)
	assert.Equal(t, float64(1499), samples[999].Value)
}

func TestThresholds(t *testing.T) {
	m := New(&config.Perf{})

	cases := []struct {
		name  string
		value float64
		unit  string
		cat   Category
		warn  bool
	}{
		{FrameRate, 49.9, "fps", Rendering, true},
		{FrameRate, 60, "fps", Rendering, false},
		{MemoryUsed, 513, "MB", Memory, true},
		{MemoryUsed, 512, "MB", Memory, false},
		{APIRequest, 2001, "ms", Network, true},
		{InitialLoad, 3500, "ms", Loading, true},
		{InitialLoad, 2500, "ms", Loading, false},
		{ContentTransition, 501, "ms", Rendering, true},
		{"cls", 100, "score", Rendering, false},
	}
	for _, tc := range cases {
		w := m.Record(tc.name, tc.value, tc.unit, tc.cat)
		assert.Equal(t, tc.warn, w != nil, "%s=%v", tc.name, tc.value)
	}
	assert.Len(t, m.Warnings(), 5)
}

func TestTimeAndSummary(t *testing.T) {
	fake := clock.NewFake(time.Unix(1_700_000_000, 0))
	m := New(&config.Perf{}, WithClock(fake))

	done := m.Time(ContentTransition, Rendering)
	fake.Advance(200 * time.Millisecond)
	assert.Equal(t, 200*time.Millisecond, done())

	done = m.Time(ContentTransition, Rendering)
	fake.Advance(600 * time.Millisecond)
	done()

	sum := m.Summary()[ContentTransition]
	assert.Equal(t, 2, sum.Count)
	assert.InDelta(t, 400, sum.Avg, 0.001)
	assert.InDelta(t, 200, sum.Min, 0.001)
	assert.InDelta(t, 600, sum.Max, 0.001)
	assert.InDelta(t, 600, sum.Latest, 0.001)
	assert.Len(t, m.Warnings(), 1)
}

func TestPrometheusMirror(t *testing.T) {
	reg := prometheus.NewRegistry()
	mt, err := metrics.New(reg)
	require.NoError(t, err)

	m := New(&config.Perf{}, WithMetrics(mt))
	m.Record(FrameRate, 30, "fps", Rendering)

	n, err := testutil.GatherAndCount(reg, "tv_display_perf_sample", "tv_display_perf_warnings_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemorySampler(t *testing.T) {
	m := New(&config.Perf{PerfEnabled: true, PerfSampleInterval: 10 * time.Millisecond})
	m.Start(context.Background())
	defer m.Stop()

	assert.Eventually(t, func() bool {
		_, ok := m.Summary()[MemoryUsed]
		return ok
	}, time.Second, 5*time.Millisecond)

	disabled := New(&config.Perf{})
	disabled.Start(context.Background())
	assert.Empty(t, disabled.Metrics())
}
