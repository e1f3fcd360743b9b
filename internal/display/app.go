package display

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Borislavv/masjid-tv-display/internal/display/config"
	"github.com/Borislavv/masjid-tv-display/internal/display/server"
	"github.com/Borislavv/masjid-tv-display/pkg/carousel"
	"github.com/Borislavv/masjid-tv-display/pkg/k8s/probe/liveness"
	"github.com/Borislavv/masjid-tv-display/pkg/mock"
	"github.com/Borislavv/masjid-tv-display/pkg/model"
	"github.com/Borislavv/masjid-tv-display/pkg/network"
	"github.com/Borislavv/masjid-tv-display/pkg/offline"
	"github.com/Borislavv/masjid-tv-display/pkg/perf"
	"github.com/Borislavv/masjid-tv-display/pkg/prayer"
	"github.com/Borislavv/masjid-tv-display/pkg/prometheus/metrics"
	"github.com/Borislavv/masjid-tv-display/pkg/repository"
	"github.com/Borislavv/masjid-tv-display/pkg/storage/cache"
	"github.com/Borislavv/masjid-tv-display/pkg/storage/durable"
	"github.com/buger/jsonparser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

// App owns every display component and disposes them in Stop.
type App struct {
	cfg    *config.Config
	ctx    context.Context
	cancel context.CancelFunc
	probe  liveness.Prober

	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	durable     durable.Storage
	stores      map[offline.Resource]*cache.Store
	monitor     *network.Monitor
	prober      *network.Prober
	coordinator *offline.Coordinator
	carousel    *carousel.Scheduler
	prayer      *prayer.Engine
	perf        *perf.Monitor
	server      *server.HttpServer

	stopOnce sync.Once
}

// Option customises App construction, mostly for tests.
type Option func(a *appOptions)

type appOptions struct {
	fetcher offline.Fetcher
	durable durable.Storage
}

// WithFetcher replaces the backend repository.
func WithFetcher(f offline.Fetcher) Option {
	return func(o *appOptions) { o.fetcher = f }
}

// WithDurable replaces the configured durable storage.
func WithDurable(s durable.Storage) Option {
	return func(o *appOptions) { o.durable = s }
}

func NewApp(ctx context.Context, cfg *config.Config, probe liveness.Prober, opts ...Option) (*App, error) {
	cfg.Normalize()

	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(ctx)
	a := &App{cfg: cfg, ctx: ctx, cancel: cancel, probe: probe}

	if err := a.init(o); err != nil {
		a.dispose()
		cancel()
		return nil, err
	}
	return a, nil
}

func (a *App) init(o appOptions) (err error) {
	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if a.metrics, err = metrics.New(a.registry); err != nil {
		return err
	}

	a.durable = o.durable
	if a.durable == nil && a.cfg.EnablePersistence {
		if a.durable, err = durable.Open(a.cfg.StorageDriver, a.cfg.StoragePath); err != nil {
			return fmt.Errorf("open durable storage: %w", err)
		}
	}

	a.stores = make(map[offline.Resource]*cache.Store, len(offline.Resources))
	for _, r := range offline.Resources {
		opts := []cache.Option{cache.WithMetrics(a.metrics)}
		if a.durable != nil {
			opts = append(opts, cache.WithPersistence(a.durable, "display_cache_"+a.cfg.DisplayID+"_"+string(r)))
		}
		a.stores[r] = cache.New(a.ctx, string(r), &a.cfg.Cache, opts...)
	}

	a.monitor = network.NewMonitor(true, network.WithMetrics(a.metrics))
	a.prober = network.NewProber(a.monitor, &a.cfg.Network, nil)

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = a.fetcher()
	}
	if a.coordinator, err = offline.New(a.ctx, &a.cfg.Offline, fetcher, a.monitor, a.stores,
		offline.WithMetrics(a.metrics), offline.WithPreload(offline.PrayerTimes, offline.Config)); err != nil {
		return err
	}

	if a.prayer, err = prayer.New(a.ctx, &a.cfg.Prayer); err != nil {
		return err
	}

	a.perf = perf.New(&a.cfg.Perf, perf.WithMetrics(a.metrics))

	a.carousel = carousel.New(a.ctx, &a.cfg.Carousel, carousel.SourceFunc(a.content),
		carousel.WithLocation(a.prayer.Location()), carousel.WithMetrics(a.metrics))

	a.coordinator.OnUpdate(a.onResource)
	a.carousel.OnChange(a.onSlide)

	a.server, err = server.New(a.ctx, a.cfg, server.Deps{
		Carousel:    a.carousel,
		Prayer:      a.prayer,
		Coordinator: a.coordinator,
		Stores:      a.stores,
		Perf:        a.perf,
		Probe:       a.probe,
		Metrics:     a.metrics,
		Gatherer:    a.registry,
	})
	return err
}

// fetcher prefers the backend and falls back to generated fixtures in dev.
func (a *App) fetcher() offline.Fetcher {
	if a.cfg.BackendURL == "" && a.cfg.IsDev() {
		log.Warn().Msg("[app] BACKEND_URL is empty, serving demo content")
		return &mock.Fetcher{Items: a.cfg.DemoContentItems}
	}
	return repository.NewBackend(&a.cfg.Backend, a.cfg.DisplayID, a.cfg.CarouselMaxItems, nil)
}

func (a *App) content(ctx context.Context) ([]model.ContentItem, error) {
	done := a.perf.Time(perf.APIRequest, perf.Network)
	defer done()
	return offline.LoadAs[[]model.ContentItem](ctx, a.coordinator, offline.Content)
}

// onResource fans resource payloads out to their consumers.
func (a *App) onResource(r offline.Resource, data []byte) {
	switch r {
	case offline.Content:
		items, err := offline.Decode[[]model.ContentItem](data)
		if err != nil {
			log.Err(err).Msg("[app] bad content payload")
			return
		}
		a.carousel.Apply(items)
	case offline.PrayerTimes:
		s, err := offline.Decode[prayer.Schedule](data)
		if err != nil {
			log.Err(err).Msg("[app] bad prayer schedule payload")
			return
		}
		a.prayer.SetSchedule(&s)
	case offline.Config:
		dc, err := offline.Decode[model.DisplayConfig](data)
		if err != nil {
			log.Err(err).Msg("[app] bad display config payload")
			return
		}
		// zero or negative turns auto advance off, an absent key leaves it alone
		if secs, err := jsonparser.GetInt(data, "carousel_interval"); err == nil {
			a.carousel.SetInterval(time.Duration(secs) * time.Second)
		}
		if dc.MaxContentItems > 0 {
			a.carousel.SetMaxItems(dc.MaxContentItems)
		}
	}
}

func (a *App) onSlide(item *model.ContentItem) {
	if item == nil {
		log.Debug().Msg("[app] nothing to show")
		return
	}
	log.Debug().Msgf("[app] showing %s (%s)", item.ID, item.Type)
}

// Start brings every component up and blocks until the context is done.
func (a *App) Start() {
	defer a.Stop()

	a.startComponents()
	a.server.Start()
}

func (a *App) startComponents() {
	log.Info().Msg("[app] starting display app")
	started := time.Now()

	a.probe.Watch(a)
	if a.cfg.ProbeURL != "" {
		_ = a.prober.Probe(a.ctx)
	}
	a.prober.Start(a.ctx)
	a.perf.Start(a.ctx)
	a.coordinator.Start()
	a.prayer.Start()
	a.carousel.Start()

	a.perf.Record(perf.InitialLoad, float64(time.Since(started))/float64(time.Millisecond), "ms", perf.Loading)
	log.Info().Msg("[app] display app has been started")
}

// Stop tears every component down. Idempotent.
func (a *App) Stop() {
	a.stopOnce.Do(func() {
		log.Info().Msg("[app] stopping display app")
		a.cancel()
		a.dispose()
		log.Info().Msg("[app] display app has been stopped")
	})
}

func (a *App) dispose() {
	if a.server != nil {
		a.server.Stop()
	}
	if a.carousel != nil {
		a.carousel.Stop()
	}
	if a.prayer != nil {
		a.prayer.Stop()
	}
	if a.coordinator != nil {
		a.coordinator.Stop()
	}
	if a.prober != nil {
		a.prober.Stop()
	}
	if a.perf != nil {
		a.perf.Stop()
	}
	for _, store := range a.stores {
		store.Stop()
	}
	if a.durable != nil {
		if err := a.durable.Close(); err != nil {
			log.Err(err).Msg("[app] failed to close durable storage")
		}
	}
}

// IsAlive is polled by the liveness probe.
func (a *App) IsAlive(_ context.Context) bool {
	if a.ctx.Err() != nil {
		return false
	}
	if !a.server.IsAlive() {
		log.Info().Msg("[app] http server has gone away")
		return false
	}
	return true
}
