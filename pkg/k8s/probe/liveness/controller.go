package liveness

import (
	"github.com/fasthttp/router"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

const K8SProbeGetPath = "/k8s/probe"

var (
	successResponseBytes = []byte(`{"data":{"success":true}}`)
	failedResponseBytes  = []byte(`{"data":{"success":false}}`)
)

type Controller struct {
	prober Prober
}

func NewController(prober Prober) *Controller {
	return &Controller{prober: prober}
}

func (c *Controller) Probe(ctx *fasthttp.RequestCtx) {
	if c.prober.IsAlive() {
		ctx.SetStatusCode(fasthttp.StatusOK)
		if _, err := ctx.Write(successResponseBytes); err != nil {
			log.Err(err).Msg("[probe-controller] failed to write success response into *fasthttp.RequestCtx")
		}
		return
	}

	ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	if _, err := ctx.Write(failedResponseBytes); err != nil {
		log.Err(err).Msg("[probe-controller] failed to write failed response into *fasthttp.RequestCtx")
	}
}

func (c *Controller) AddRoute(router *router.Router) {
	router.GET(K8SProbeGetPath, c.Probe)
}
