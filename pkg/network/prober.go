package network

import (
	"context"
	"fmt"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/config"
	"github.com/Borislavv/masjid-tv-display/pkg/task"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// EffectiveType maps a measured round trip to the coarse connection classes.
func EffectiveType(rtt time.Duration) string {
	switch {
	case rtt >= 2000*time.Millisecond:
		return TypeSlow2G
	case rtt >= 1400*time.Millisecond:
		return Type2G
	case rtt >= 270*time.Millisecond:
		return Type3G
	default:
		return Type4G
	}
}

// Prober polls a health URL and feeds the outcome into a Monitor.
type Prober struct {
	monitor *Monitor
	client  *fasthttp.Client
	cfg     *config.Network
	task    *task.Task
}

func NewProber(monitor *Monitor, cfg *config.Network, client *fasthttp.Client) *Prober {
	cfg.Normalize()
	if client == nil {
		client = &fasthttp.Client{
			Name:                "masjid-tv-display-probe",
			MaxConnsPerHost:     1,
			MaxIdleConnDuration: cfg.ProbeInterval * 2,
		}
	}
	return &Prober{monitor: monitor, client: client, cfg: cfg, task: task.New("network:probe")}
}

// Start probes immediately and then every ProbeInterval.
func (p *Prober) Start(ctx context.Context) {
	if p.cfg.ProbeURL == "" {
		log.Info().Msg("[network] probe url is empty, prober disabled")
		return
	}
	p.task.EveryNow(ctx, p.cfg.ProbeInterval, func(ctx context.Context) { _ = p.Probe(ctx) })
}

func (p *Prober) Stop() {
	p.task.Stop()
}

// Probe runs a single reachability check.
func (p *Prober) Probe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.cfg.ProbeURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	from := time.Now()
	err := p.client.DoTimeout(req, resp, p.cfg.ProbeTimeout)
	rtt := time.Since(from)

	if err == nil && resp.StatusCode() >= fasthttp.StatusInternalServerError {
		err = fmt.Errorf("probe status %d", resp.StatusCode())
	}
	if err != nil {
		log.Debug().Err(err).Msg("[network] probe failed")
		p.monitor.SetOnline(false)
		return err
	}

	p.monitor.SetOnline(true)
	p.monitor.SetConnection(Connection{EffectiveType: EffectiveType(rtt), RTT: rtt})
	return nil
}
