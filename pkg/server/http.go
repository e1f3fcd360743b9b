package httpserver

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/Borislavv/masjid-tv-display/pkg/server/config"
	"github.com/Borislavv/masjid-tv-display/pkg/server/controller"
	"github.com/Borislavv/masjid-tv-display/pkg/server/middleware"
	"github.com/fasthttp/router"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

type HTTP struct {
	ctx    context.Context
	server *fasthttp.Server
	config fasthttpconfig.Configurator
}

func New(
	ctx context.Context,
	config fasthttpconfig.Configurator,
	controllers []controller.HttpController,
	middlewares []middleware.HttpMiddleware,
) (*HTTP, error) {
	if config.GetHttpServerPort() == "" {
		return nil, errors.New("http server port is empty")
	}
	s := &HTTP{ctx: ctx, config: config}
	s.initServer(s.buildRouter(controllers), middlewares)
	return s, nil
}

// Handler is the fully wrapped request handler.
func (s *HTTP) Handler() fasthttp.RequestHandler {
	return s.server.Handler
}

// ListenAndServe blocks until the server context is done and the server has shut down.
func (s *HTTP) ListenAndServe() {
	s.run(func() error { return s.server.ListenAndServe(s.config.GetHttpServerPort()) })
}

// Serve is ListenAndServe over an existing listener.
func (s *HTTP) Serve(ln net.Listener) {
	s.run(func() error { return s.server.Serve(ln) })
}

func (s *HTTP) run(serve func() error) {
	wg := &sync.WaitGroup{}
	defer wg.Wait()

	wg.Add(1)
	go s.serve(wg, serve)

	wg.Add(1)
	go s.shutdown(wg)
}

func (s *HTTP) serve(wg *sync.WaitGroup, serve func() error) {
	defer wg.Done()

	name := s.config.GetHttpServerName()
	port := s.config.GetHttpServerPort()

	log.Info().Msgf("[fasthttp] %v was started (port: %v)", name, port)
	defer log.Info().Msgf("[fasthttp] %v was stopped (port: %v)", name, port)

	if err := serve(); err != nil {
		log.Err(err).Msgf("[fasthttp] %v failed to listen and serve port %v", name, port)
	}
}

func (s *HTTP) shutdown(wg *sync.WaitGroup) {
	defer wg.Done()

	<-s.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.GetHttpServerShutDownTimeout())
	defer cancel()

	if err := s.server.ShutdownWithContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn().Msgf("[fasthttp] %v shutdown failed: %v", s.config.GetHttpServerName(), err.Error())
		}
		return
	}
}

func (s *HTTP) buildRouter(controllers []controller.HttpController) *router.Router {
	r := router.New()
	r.SaveMatchedRoutePath = true
	for _, contr := range controllers {
		contr.AddRoute(r)
	}
	return r
}

func (s *HTTP) mergeMiddlewares(
	handler fasthttp.RequestHandler,
	middlewares []middleware.HttpMiddleware,
) fasthttp.RequestHandler {
	// the first middleware in the slice must run first, so wrap from the end
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i].Middleware(handler)
	}
	return handler
}

func (s *HTTP) initServer(r *router.Router, middlewares []middleware.HttpMiddleware) {
	s.server = &fasthttp.Server{
		Name:    s.config.GetHttpServerName(),
		Handler: s.mergeMiddlewares(r.Handler, middlewares),
	}
}
