package api

import (
	"encoding/json"

	"github.com/Borislavv/masjid-tv-display/pkg/offline"
	serverutils "github.com/Borislavv/masjid-tv-display/pkg/server/utils"
	"github.com/Borislavv/masjid-tv-display/pkg/storage/cache"
	"github.com/fasthttp/router"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

const (
	CachePath         = "/api/v1/display/cache"
	CacheOptimizePath = "/api/v1/display/cache/optimize"
	CacheExportPath   = "/api/v1/display/cache/{namespace}"
)

// CacheController reports and maintains the per-resource cache stores.
type CacheController struct {
	coordinator *offline.Coordinator
	stores      map[offline.Resource]*cache.Store
}

func NewCacheController(coordinator *offline.Coordinator, stores map[offline.Resource]*cache.Store) *CacheController {
	return &CacheController{coordinator: coordinator, stores: stores}
}

func (c *CacheController) Stats(r *fasthttp.RequestCtx) {
	out := make(map[offline.Resource]cache.Stats, len(c.stores))
	for ns, store := range c.stores {
		out[ns] = store.Stats()
	}
	serverutils.WriteData(r, fasthttp.StatusOK, out)
}

func (c *CacheController) Optimize(r *fasthttp.RequestCtx) {
	out := make(map[offline.Resource]cache.OptimizeResult, len(c.stores))
	for ns, store := range c.stores {
		out[ns] = store.Optimize()
	}
	serverutils.WriteData(r, fasthttp.StatusOK, out)
}

// Export dumps one namespace for debugging.
func (c *CacheController) Export(r *fasthttp.RequestCtx) {
	ns, _ := r.UserValue("namespace").(string)
	store, ok := c.stores[offline.Resource(ns)]
	if !ok {
		serverutils.WriteError(r, fasthttp.StatusNotFound, "unknown cache namespace")
		return
	}
	dump, err := store.Export()
	if err != nil {
		log.Err(err).Msg("[cache-controller] export failed")
		serverutils.WriteError(r, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	serverutils.WriteData(r, fasthttp.StatusOK, json.RawMessage(dump))
}

// Clear drops the cached payloads, all namespaces or the one given by ?namespace=.
func (c *CacheController) Clear(r *fasthttp.RequestCtx) {
	if ns := string(r.QueryArgs().Peek("namespace")); ns != "" {
		if _, ok := c.stores[offline.Resource(ns)]; !ok {
			serverutils.WriteError(r, fasthttp.StatusNotFound, "unknown cache namespace")
			return
		}
		c.coordinator.ClearCache(offline.Resource(ns))
	} else {
		c.coordinator.ClearCache()
	}
	log.Info().Msg("[cache-controller] cache cleared")
	c.Stats(r)
}

func (c *CacheController) AddRoute(router *router.Router) {
	router.GET(CachePath, c.Stats)
	router.DELETE(CachePath, c.Clear)
	router.POST(CacheOptimizePath, c.Optimize)
	router.GET(CacheExportPath, c.Export)
}
