package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/Borislavv/masjid-tv-display/internal/display/api"
	"github.com/Borislavv/masjid-tv-display/internal/display/config"
	"github.com/Borislavv/masjid-tv-display/pkg/carousel"
	"github.com/Borislavv/masjid-tv-display/pkg/k8s/probe/liveness"
	"github.com/Borislavv/masjid-tv-display/pkg/offline"
	"github.com/Borislavv/masjid-tv-display/pkg/perf"
	"github.com/Borislavv/masjid-tv-display/pkg/prayer"
	"github.com/Borislavv/masjid-tv-display/pkg/prometheus/metrics"
	metricscontroller "github.com/Borislavv/masjid-tv-display/pkg/prometheus/metrics/controller"
	prometheusrequestmiddleware "github.com/Borislavv/masjid-tv-display/pkg/prometheus/metrics/middleware"
	httpserver "github.com/Borislavv/masjid-tv-display/pkg/server"
	"github.com/Borislavv/masjid-tv-display/pkg/server/controller"
	"github.com/Borislavv/masjid-tv-display/pkg/server/middleware"
	"github.com/Borislavv/masjid-tv-display/pkg/storage/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

var InitFailedErrorMessage = "[server] init. failed"

type Http interface {
	Start()
	IsAlive() bool
}

// Deps are the components the local API reads from and acts on.
type Deps struct {
	Carousel    *carousel.Scheduler
	Prayer      *prayer.Engine
	Coordinator *offline.Coordinator
	Stores      map[offline.Resource]*cache.Store
	Perf        *perf.Monitor
	Probe       liveness.Prober
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
}

// HttpServer is the local display API.
type HttpServer struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg           *config.Config
	deps          Deps
	server        *httpserver.HTTP
	isServerAlive *atomic.Bool
}

func New(ctx context.Context, cfg *config.Config, deps Deps) (*HttpServer, error) {
	ctx, cancel := context.WithCancel(ctx)

	srv := &HttpServer{
		ctx:           ctx,
		cancel:        cancel,
		cfg:           cfg,
		deps:          deps,
		isServerAlive: &atomic.Bool{},
	}

	server, err := httpserver.New(ctx, cfg, srv.controllers(), srv.middlewares())
	if err != nil {
		cancel()
		log.Err(err).Msg(InitFailedErrorMessage)
		return nil, errors.New(InitFailedErrorMessage)
	}
	srv.server = server

	return srv, nil
}

// Start blocks until the server context is cancelled and the listener is closed.
func (s *HttpServer) Start() {
	s.spawn(s.server.ListenAndServe)
}

// Serve is Start over an existing listener.
func (s *HttpServer) Serve(ln net.Listener) {
	s.spawn(func() { s.server.Serve(ln) })
}

// Handler exposes the wrapped router for in-process use.
func (s *HttpServer) Handler() fasthttp.RequestHandler {
	return s.server.Handler()
}

func (s *HttpServer) Stop() {
	s.cancel()
}

func (s *HttpServer) IsAlive() bool {
	return s.isServerAlive.Load()
}

func (s *HttpServer) spawn(serve func()) {
	defer s.cancel()

	wg := &sync.WaitGroup{}
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer func() {
			s.isServerAlive.Store(false)
			wg.Done()
		}()
		s.isServerAlive.Store(true)
		serve()
	}()
}

func (s *HttpServer) controllers() []controller.HttpController {
	controllers := []controller.HttpController{
		liveness.NewController(s.deps.Probe),
		api.NewDisplayController(s.ctx, s.deps.Carousel, s.deps.Prayer, s.deps.Coordinator),
		api.NewCacheController(s.deps.Coordinator, s.deps.Stores),
		api.NewPerfController(s.deps.Perf),
	}
	if s.cfg.IsPrometheusMetricsEnabled() {
		controllers = append(controllers, metricscontroller.NewPrometheusMetrics(s.deps.Gatherer))
	}
	return controllers
}

// middlewares run in slice order.
func (s *HttpServer) middlewares() []middleware.HttpMiddleware {
	middlewares := []middleware.HttpMiddleware{
		middleware.NewInitCtxMiddleware(s.ctx, s.cfg),
		middleware.NewApplicationJsonMiddleware(),
		middleware.NewWatermarkMiddleware(s.cfg),
		middleware.NewDuration(),
	}
	if s.cfg.IsPrometheusMetricsEnabled() {
		middlewares = append(middlewares, prometheusrequestmiddleware.NewPrometheusMetrics(s.deps.Metrics))
	}
	if s.cfg.IsDebugOn() {
		middlewares = append(middlewares, NewRequestStats(s.ctx))
	}
	return middlewares
}
