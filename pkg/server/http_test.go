package httpserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/server/config"
	"github.com/Borislavv/masjid-tv-display/pkg/server/controller"
	"github.com/Borislavv/masjid-tv-display/pkg/server/middleware"
	serverutils "github.com/Borislavv/masjid-tv-display/pkg/server/utils"
	"github.com/fasthttp/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type echo struct{}

func (echo) AddRoute(r *router.Router) {
	r.GET("/echo/{word}", func(ctx *fasthttp.RequestCtx) {
		if _, err := serverutils.ExtractCtx(ctx); err != nil {
			serverutils.WriteError(ctx, fasthttp.StatusInternalServerError, err.Error())
			return
		}
		serverutils.WriteData(ctx, fasthttp.StatusOK, ctx.UserValue("word"))
	})
}

func TestServeWithMiddlewares(t *testing.T) {
	cfg := &fasthttpconfig.HttpServer{}
	cfg.Normalize()

	ctx, cancel := context.WithCancel(context.Background())
	srv, err := New(ctx, cfg,
		[]controller.HttpController{echo{}},
		[]middleware.HttpMiddleware{
			middleware.NewInitCtxMiddleware(ctx, cfg),
			middleware.NewApplicationJsonMiddleware(),
			middleware.NewWatermarkMiddleware(cfg),
			middleware.NewDuration(),
		},
	)
	require.NoError(t, err)

	ln := fasthttputil.NewInmemoryListener()
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(ln)
	}()

	client := &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://display.local/echo/salam")
	require.NoError(t, client.Do(req, resp))

	assert.Equal(t, fasthttp.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `{"data":"salam"}`, string(resp.Body()))
	assert.Equal(t, "application/json", string(resp.Header.ContentType()))
	assert.Equal(t, fasthttpconfig.DefaultServerName, string(resp.Header.Peek("X-Server-Name")))
	assert.NotEmpty(t, resp.Header.Peek("Server-Timing"))

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewRejectsEmptyPort(t *testing.T) {
	_, err := New(context.Background(), &fasthttpconfig.HttpServer{}, nil, nil)
	assert.Error(t, err)
}
