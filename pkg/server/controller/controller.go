package controller

import "github.com/fasthttp/router"

type HttpController interface {
	AddRoute(router *router.Router)
}
