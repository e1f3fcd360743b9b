package api

import (
	"context"
	"errors"
	"strconv"

	"github.com/Borislavv/masjid-tv-display/pkg/carousel"
	"github.com/Borislavv/masjid-tv-display/pkg/offline"
	"github.com/Borislavv/masjid-tv-display/pkg/prayer"
	serverutils "github.com/Borislavv/masjid-tv-display/pkg/server/utils"
	"github.com/buger/jsonparser"
	"github.com/fasthttp/router"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

const (
	StatePath        = "/api/v1/display/state"
	RetryPath        = "/api/v1/display/retry"
	CarouselPath     = "/api/v1/display/carousel/{action}"
	CarouselGoToPath = "/api/v1/display/carousel/goto/{index}"
	InputPath        = "/api/v1/display/input"
)

// State is everything the render layer draws on one frame.
type State struct {
	Carousel carousel.Snapshot `json:"carousel"`
	Prayer   prayer.State      `json:"prayer"`
	Offline  offline.Snapshot  `json:"offline"`
}

// DisplayController exposes carousel, prayer and sync state plus the user actions on them.
type DisplayController struct {
	ctx         context.Context
	carousel    *carousel.Scheduler
	prayer      *prayer.Engine
	coordinator *offline.Coordinator
}

func NewDisplayController(
	ctx context.Context,
	carousel *carousel.Scheduler,
	prayer *prayer.Engine,
	coordinator *offline.Coordinator,
) *DisplayController {
	return &DisplayController{ctx: ctx, carousel: carousel, prayer: prayer, coordinator: coordinator}
}

func (c *DisplayController) state() State {
	return State{
		Carousel: c.carousel.Snapshot(),
		Prayer:   c.prayer.State(),
		Offline:  c.coordinator.Snapshot(),
	}
}

func (c *DisplayController) State(r *fasthttp.RequestCtx) {
	serverutils.WriteData(r, fasthttp.StatusOK, c.state())
}

// Retry runs a manual sync. It is refused while offline or while another sync runs.
func (c *DisplayController) Retry(r *fasthttp.RequestCtx) {
	ctx := c.requestCtx(r)
	err := c.coordinator.RetrySync(ctx)
	switch {
	case errors.Is(err, offline.ErrOffline), errors.Is(err, offline.ErrSyncInProgress):
		serverutils.WriteError(r, fasthttp.StatusConflict, err.Error())
		return
	case err != nil:
		log.Err(err).Msg("[display-controller] retry failed")
		serverutils.WriteError(r, fasthttp.StatusServiceUnavailable, err.Error())
		return
	}
	serverutils.WriteData(r, fasthttp.StatusOK, c.coordinator.Snapshot())
}

func (c *DisplayController) Carousel(r *fasthttp.RequestCtx) {
	action, _ := r.UserValue("action").(string)
	switch action {
	case "next":
		c.carousel.Next()
	case "previous":
		c.carousel.Previous()
	case "pause":
		c.carousel.Pause()
	case "resume":
		c.carousel.Resume()
	case "refresh":
		c.carousel.Refresh(c.requestCtx(r))
	default:
		serverutils.WriteError(r, fasthttp.StatusNotFound, "unknown carousel action "+strconv.Quote(action))
		return
	}
	serverutils.WriteData(r, fasthttp.StatusOK, c.carousel.Snapshot())
}

func (c *DisplayController) GoTo(r *fasthttp.RequestCtx) {
	raw, _ := r.UserValue("index").(string)
	i, err := strconv.Atoi(raw)
	if err != nil {
		serverutils.WriteError(r, fasthttp.StatusBadRequest, "index must be an integer")
		return
	}
	if _, err = c.carousel.GoTo(i); err != nil {
		serverutils.WriteError(r, fasthttp.StatusBadRequest, err.Error())
		return
	}
	serverutils.WriteData(r, fasthttp.StatusOK, c.carousel.Snapshot())
}

type inputResult struct {
	Handled  bool              `json:"handled"`
	Carousel carousel.Snapshot `json:"carousel"`
}

// Input accepts {"type":"swipe","dx":..,"dy":..} or {"type":"key","key":".."}.
func (c *DisplayController) Input(r *fasthttp.RequestCtx) {
	body := r.PostBody()
	kind, err := jsonparser.GetString(body, "type")
	if err != nil {
		serverutils.WriteError(r, fasthttp.StatusBadRequest, "input type is required")
		return
	}

	var handled bool
	switch kind {
	case "swipe":
		dx, errX := jsonparser.GetFloat(body, "dx")
		dy, errY := jsonparser.GetFloat(body, "dy")
		if errX != nil || errY != nil {
			serverutils.WriteError(r, fasthttp.StatusBadRequest, "swipe needs numeric dx and dy")
			return
		}
		_, handled = c.carousel.HandleSwipe(dx, dy)
	case "key":
		key, err := jsonparser.GetString(body, "key")
		if err != nil {
			serverutils.WriteError(r, fasthttp.StatusBadRequest, "key is required")
			return
		}
		_, handled = c.carousel.HandleKey(key)
	default:
		serverutils.WriteError(r, fasthttp.StatusBadRequest, "unknown input type "+strconv.Quote(kind))
		return
	}
	serverutils.WriteData(r, fasthttp.StatusOK, inputResult{Handled: handled, Carousel: c.carousel.Snapshot()})
}

func (c *DisplayController) requestCtx(r *fasthttp.RequestCtx) context.Context {
	if ctx, err := serverutils.ExtractCtx(r); err == nil {
		return ctx
	}
	return c.ctx
}

func (c *DisplayController) AddRoute(router *router.Router) {
	router.GET(StatePath, c.State)
	router.POST(RetryPath, c.Retry)
	router.POST(CarouselPath, c.Carousel)
	router.POST(CarouselGoToPath, c.GoTo)
	router.POST(InputPath, c.Input)
}
