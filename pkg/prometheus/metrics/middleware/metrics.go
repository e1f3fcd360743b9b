package middleware

import (
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/prometheus/metrics"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

type PrometheusMetrics struct {
	metrics *metrics.Metrics
}

func NewPrometheusMetrics(metrics *metrics.Metrics) *PrometheusMetrics {
	return &PrometheusMetrics{metrics: metrics}
}

func (m *PrometheusMetrics) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		from := time.Now()

		next(ctx)

		path := routePath(ctx)
		method := string(ctx.Method())
		m.metrics.IncTotal(path, method)
		m.metrics.IncStatus(path, method, ctx.Response.StatusCode())
		m.metrics.ObserveResponseTime(path, method, time.Since(from))
	}
}

// routePath prefers the matched route pattern so path params don't explode label cardinality.
func routePath(ctx *fasthttp.RequestCtx) string {
	if p, ok := ctx.UserValue(router.MatchedRoutePathParam).(string); ok && p != "" {
		return p
	}
	return "unmatched"
}
