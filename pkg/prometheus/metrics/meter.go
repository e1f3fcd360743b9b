package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/prometheus/metrics/keyword"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var MetricRegisterErrorMessage = "failed to register metric"

// Metrics is the single collector set of a display process.
// A nil *Metrics is valid and records nothing, so components can be built without it.
type Metrics struct {
	totalRequestsCounter    *prometheus.CounterVec
	responseStatusesCounter *prometheus.CounterVec
	responseTimeHistogram   *prometheus.HistogramVec

	cacheLookups   *prometheus.CounterVec
	cacheEvictions *prometheus.CounterVec
	cacheEntries   *prometheus.GaugeVec
	cacheBytes     *prometheus.GaugeVec

	fetches       *prometheus.CounterVec
	retryAttempts *prometheus.GaugeVec
	fallback      prometheus.Gauge

	online     prometheus.Gauge
	networkRTT prometheus.Gauge

	carouselItems prometheus.Gauge
	carouselIndex prometheus.Gauge

	perfSample   *prometheus.GaugeVec
	perfWarnings *prometheus.CounterVec
}

// New creates every collector and registers it in reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	ns := keyword.Namespace
	m := &Metrics{
		totalRequestsCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: keyword.TotalHttpRequestsMetricName, Help: "Number of local API requests.",
		}, []string{"path", "method"}),
		responseStatusesCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: keyword.HttpResponseStatusesMetricName, Help: "Statuses of local API responses.",
		}, []string{"path", "method", "status"}),
		responseTimeHistogram: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: keyword.HttpResponseTimeMsMetricName, Help: "Duration of local API requests.",
		}, []string{"path", "method"}),

		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: keyword.CacheLookupsMetricName, Help: "Cache lookups by result (hit|miss).",
		}, []string{"namespace", "result"}),
		cacheEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: keyword.CacheEvictionsMetricName, Help: "Removed cache entries by reason.",
		}, []string{"namespace", "reason"}),
		cacheEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Name: keyword.CacheEntriesMetricName, Help: "Live cache entries.",
		}, []string{"namespace"}),
		cacheBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Name: keyword.CacheBytesMetricName, Help: "Stored bytes of live cache entries.",
		}, []string{"namespace"}),

		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: keyword.FetchesMetricName, Help: "Remote fetches by resource and outcome.",
		}, []string{"resource", "outcome"}),
		retryAttempts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Name: keyword.RetryAttemptsMetricName, Help: "Consecutive failed fetches per resource.",
		}, []string{"resource"}),
		fallback: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: keyword.FallbackMetricName, Help: "1 while the display runs in fallback mode.",
		}),

		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: keyword.OnlineMetricName, Help: "1 while the display is online.",
		}),
		networkRTT: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: keyword.NetworkRTTMetricName, Help: "Last observed round trip time.",
		}),

		carouselItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: keyword.CarouselItemsMetricName, Help: "Items in the carousel rotation.",
		}),
		carouselIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: keyword.CarouselIndexMetricName, Help: "Index of the item on screen.",
		}),

		perfSample: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Name: keyword.PerfSampleMetricName, Help: "Last recorded performance sample.",
		}, []string{"name", "category", "unit"}),
		perfWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: keyword.PerfWarningMetricName, Help: "Performance threshold violations.",
		}, []string{"name"}),
	}

	for _, c := range []prometheus.Collector{
		m.totalRequestsCounter, m.responseStatusesCounter, m.responseTimeHistogram,
		m.cacheLookups, m.cacheEvictions, m.cacheEntries, m.cacheBytes,
		m.fetches, m.retryAttempts, m.fallback,
		m.online, m.networkRTT,
		m.carouselItems, m.carouselIndex,
		m.perfSample, m.perfWarnings,
	} {
		if err := reg.Register(c); err != nil {
			log.Err(err).Msg(MetricRegisterErrorMessage)
			return nil, fmt.Errorf("%s: %w", MetricRegisterErrorMessage, err)
		}
	}

	return m, nil
}

var ErrInvalidStatus = errors.New("invalid http status code")

func (m *Metrics) IncTotal(path, method string) {
	if m == nil {
		return
	}
	m.totalRequestsCounter.WithLabelValues(path, method).Inc()
}

func (m *Metrics) IncStatus(path, method string, status int) {
	if m == nil {
		return
	}
	if status < 100 || status > 599 {
		log.Err(ErrInvalidStatus).Msgf("[metrics] status %d on %s %s", status, method, path)
		return
	}
	m.responseStatusesCounter.WithLabelValues(path, method, statusLabel(status)).Inc()
}

func (m *Metrics) ObserveResponseTime(path, method string, d time.Duration) {
	if m == nil {
		return
	}
	m.responseTimeHistogram.WithLabelValues(path, method).Observe(d.Seconds())
}

func statusLabel(status int) string {
	return strconv.Itoa(status)
}

func (m *Metrics) CacheLookup(namespace string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(namespace, result).Inc()
}

func (m *Metrics) CacheEvicted(namespace, reason string) {
	if m == nil {
		return
	}
	m.cacheEvictions.WithLabelValues(namespace, reason).Inc()
}

func (m *Metrics) CacheSize(namespace string, entries int, bytes int64) {
	if m == nil {
		return
	}
	m.cacheEntries.WithLabelValues(namespace).Set(float64(entries))
	m.cacheBytes.WithLabelValues(namespace).Set(float64(bytes))
}

func (m *Metrics) Fetch(resource, outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(resource, outcome).Inc()
}

func (m *Metrics) RetryAttempts(resource string, attempts int) {
	if m == nil {
		return
	}
	m.retryAttempts.WithLabelValues(resource).Set(float64(attempts))
}

func (m *Metrics) Fallback(on bool) {
	if m == nil {
		return
	}
	m.fallback.Set(boolGauge(on))
}

func (m *Metrics) Network(online bool, rtt time.Duration) {
	if m == nil {
		return
	}
	m.online.Set(boolGauge(online))
	m.networkRTT.Set(rtt.Seconds())
}

func (m *Metrics) Carousel(index, items int) {
	if m == nil {
		return
	}
	m.carouselIndex.Set(float64(index))
	m.carouselItems.Set(float64(items))
}

func (m *Metrics) PerfSample(name, category, unit string, value float64) {
	if m == nil {
		return
	}
	m.perfSample.WithLabelValues(name, category, unit).Set(value)
}

func (m *Metrics) PerfWarning(name string) {
	if m == nil {
		return
	}
	m.perfWarnings.WithLabelValues(name).Inc()
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
