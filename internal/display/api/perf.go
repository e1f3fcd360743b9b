package api

import (
	"github.com/Borislavv/masjid-tv-display/pkg/perf"
	serverutils "github.com/Borislavv/masjid-tv-display/pkg/server/utils"
	"github.com/buger/jsonparser"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

const PerfPath = "/api/v1/display/perf"

type PerfController struct {
	monitor *perf.Monitor
}

func NewPerfController(monitor *perf.Monitor) *PerfController {
	return &PerfController{monitor: monitor}
}

type perfReport struct {
	Summary  map[string]perf.Stat `json:"summary"`
	Warnings []perf.Warning       `json:"warnings"`
}

func (c *PerfController) Report(r *fasthttp.RequestCtx) {
	serverutils.WriteData(r, fasthttp.StatusOK, perfReport{
		Summary:  c.monitor.Summary(),
		Warnings: c.monitor.Warnings(),
	})
}

type recorded struct {
	Warning *perf.Warning `json:"warning"`
}

// Record accepts {"name":..,"value":..,"unit":..,"category":..} from the render layer.
func (c *PerfController) Record(r *fasthttp.RequestCtx) {
	body := r.PostBody()
	name, err := jsonparser.GetString(body, "name")
	if err != nil || name == "" {
		serverutils.WriteError(r, fasthttp.StatusBadRequest, "name is required")
		return
	}
	value, err := jsonparser.GetFloat(body, "value")
	if err != nil {
		serverutils.WriteError(r, fasthttp.StatusBadRequest, "value must be a number")
		return
	}
	unit, _ := jsonparser.GetString(body, "unit")
	category, _ := jsonparser.GetString(body, "category")
	if !perf.Category(category).Valid() {
		serverutils.WriteError(r, fasthttp.StatusBadRequest, "unknown category")
		return
	}

	w := c.monitor.Record(name, value, unit, perf.Category(category))
	serverutils.WriteData(r, fasthttp.StatusAccepted, recorded{Warning: w})
}

func (c *PerfController) AddRoute(router *router.Router) {
	router.GET(PerfPath, c.Report)
	router.POST(PerfPath, c.Record)
}
