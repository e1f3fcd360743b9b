package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncTotal("/", "GET")
		m.IncStatus("/", "GET", 200)
		m.ObserveResponseTime("/", "GET", time.Millisecond)
		m.CacheLookup("content", true)
		m.CacheEvicted("content", "evicted")
		m.CacheSize("content", 1, 10)
		m.Fetch("content", "ok")
		m.RetryAttempts("content", 2)
		m.Fallback(true)
		m.Network(true, time.Second)
		m.Carousel(1, 3)
		m.PerfSample("fps", "rendering", "fps", 60)
		m.PerfWarning("fps")
	})
}

func TestRecording(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.CacheLookup("content", true)
	m.CacheLookup("content", true)
	m.CacheLookup("content", false)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("content", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("content", "miss")))

	m.Fallback(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallback))

	m.IncStatus("/x", "GET", 42)
	assert.Equal(t, 0, testutil.CollectAndCount(m.responseStatusesCounter))
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}
