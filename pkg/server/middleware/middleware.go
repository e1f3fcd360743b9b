package middleware

import "github.com/valyala/fasthttp"

type HttpMiddleware interface {
	Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler
}

type ApplicationJsonMiddleware struct{}

func NewApplicationJsonMiddleware() *ApplicationJsonMiddleware {
	return &ApplicationJsonMiddleware{}
}

func (m *ApplicationJsonMiddleware) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("application/json")

		next(ctx)
	}
}
