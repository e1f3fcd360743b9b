package repository

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/config"
	"github.com/Borislavv/masjid-tv-display/pkg/offline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func serve(t *testing.T, handler fasthttp.RequestHandler) *fasthttp.Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, handler) }()
	t.Cleanup(func() { _ = ln.Close() })
	return &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
}

func backend(client *fasthttp.Client) *Backend {
	return NewBackend(&config.Backend{BackendURL: "http://api.local/", BackendToken: "secret", BackendRPS: 100}, "display-1", 20, client)
}

func TestFetchRoutesAndUnwraps(t *testing.T) {
	var lastURI, lastAuth atomic.Value
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		lastURI.Store(string(ctx.RequestURI()))
		lastAuth.Store(string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)))
		switch string(ctx.Path()) {
		case "/api/displays/display-1/content":
			ctx.SetBodyString(`{"data":[{"id":"a"},{"id":"b"}]}`)
		case "/api/displays/display-1/prayer-times":
			ctx.SetBodyString(`{"data":{"prayer_date":"2026-03-06","fajr_time":"05:45"}}`)
		case "/api/displays/display-1/config":
			ctx.SetBodyString(`{"data":{"carousel_interval":15}}`)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	})
	b := backend(client)

	data, err := b.Fetch(context.Background(), offline.Content)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a"},{"id":"b"}]`, string(data))
	assert.Equal(t, "/api/displays/display-1/content?limit=20&status=active", lastURI.Load())
	assert.Equal(t, "Bearer secret", lastAuth.Load())

	data, err = b.Fetch(context.Background(), offline.PrayerTimes)
	require.NoError(t, err)
	assert.JSONEq(t, `{"prayer_date":"2026-03-06","fajr_time":"05:45"}`, string(data))

	data, err = b.Fetch(context.Background(), offline.Config)
	require.NoError(t, err)
	assert.JSONEq(t, `{"carousel_interval":15}`, string(data))

	_, err = b.Fetch(context.Background(), offline.Resource("ads"))
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestFetchErrorEnvelope(t *testing.T) {
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusForbidden)
		ctx.SetBodyString(`{"error":{"message":"display not approved"}}`)
	})

	_, err := backend(client).Fetch(context.Background(), offline.Config)
	require.ErrorIs(t, err, ErrBackend)
	assert.Contains(t, err.Error(), "display not approved")
}

func TestFetchBadResponses(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server error", fasthttp.StatusInternalServerError, `oops`, ErrBackend},
		{"missing data", fasthttp.StatusOK, `{"items":[]}`, ErrNoData},
		{"null data", fasthttp.StatusOK, `{"data":null}`, ErrNoData},
		{"string data", fasthttp.StatusOK, `{"data":"x"}`, ErrMalformed},
		{"broken json", fasthttp.StatusOK, `{"data":[1,2`, ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := serve(t, func(ctx *fasthttp.RequestCtx) {
				ctx.SetStatusCode(tc.status)
				ctx.SetBodyString(tc.body)
			})
			_, err := backend(client).Fetch(context.Background(), offline.Content)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestFetchNotConfigured(t *testing.T) {
	b := NewBackend(&config.Backend{}, "display-1", 0, nil)
	_, err := b.Fetch(context.Background(), offline.Content)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFetchRespectsContext(t *testing.T) {
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(200 * time.Millisecond)
		ctx.SetBodyString(`{"data":[]}`)
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := backend(client).Fetch(ctx, offline.Content)
	assert.Error(t, err)
}

func TestRateLimiterThrottles(t *testing.T) {
	client := serve(t, func(ctx *fasthttp.RequestCtx) { ctx.SetBodyString(`{"data":[]}`) })
	b := NewBackend(&config.Backend{BackendURL: "http://api.local", BackendRPS: 1}, "d", 0, client)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var err error
	for i := 0; i < 3 && err == nil; i++ {
		_, err = b.Fetch(ctx, offline.Content)
	}
	assert.Error(t, err, "a third call within 100ms exceeds a 1 rps budget with burst 2")
}
