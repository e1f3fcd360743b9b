package controller

import (
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const PrometheusMetricsPath = "/metrics"

type PrometheusMetrics struct {
	handler fasthttp.RequestHandler
}

// NewPrometheusMetrics serves gatherer (prometheus.DefaultGatherer when nil).
func NewPrometheusMetrics(gatherer prometheus.Gatherer) *PrometheusMetrics {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &PrometheusMetrics{
		handler: fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
	}
}

func (m *PrometheusMetrics) Get(ctx *fasthttp.RequestCtx) {
	m.handler(ctx)
}

func (m *PrometheusMetrics) AddRoute(router *router.Router) {
	router.GET(PrometheusMetricsPath, m.Get)
}
