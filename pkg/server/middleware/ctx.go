package middleware

import (
	"context"

	"github.com/Borislavv/masjid-tv-display/pkg/server/config"
	"github.com/Borislavv/masjid-tv-display/pkg/server/keyword"
	"github.com/valyala/fasthttp"
)

// InitCtxMiddleware hands every request a context derived from the server context
// and bounded by the request timeout.
type InitCtxMiddleware struct {
	ctx    context.Context
	config fasthttpconfig.Configurator
}

func NewInitCtxMiddleware(ctx context.Context, config fasthttpconfig.Configurator) *InitCtxMiddleware {
	return &InitCtxMiddleware{ctx: ctx, config: config}
}

func (m *InitCtxMiddleware) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		reqCtx, cancel := context.WithTimeout(m.ctx, m.config.GetHttpServerRequestTimeout())
		defer cancel()

		ctx.SetUserValue(keyword.CtxKey, reqCtx)

		next(ctx)
	}
}
