// Package offline decides, per resource, whether to fetch, serve from cache or retry later,
// and owns the display-wide fallback mode.
package offline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/clock"
	"github.com/Borislavv/masjid-tv-display/pkg/config"
	"github.com/Borislavv/masjid-tv-display/pkg/network"
	"github.com/Borislavv/masjid-tv-display/pkg/prometheus/metrics"
	"github.com/Borislavv/masjid-tv-display/pkg/storage/cache"
	"github.com/Borislavv/masjid-tv-display/pkg/task"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Snapshot is the observable coordinator state for the render layer.
type Snapshot struct {
	Network        network.Status                `json:"network"`
	Resources      map[Resource]ResourceSnapshot `json:"resources"`
	Fallback       bool                          `json:"fallback"`
	SyncInProgress bool                          `json:"syncInProgress"`
	LastSync       time.Time                     `json:"lastSync"`
	LastSweep      string                        `json:"lastSweep,omitempty"`
}

type Option func(c *Coordinator)

func WithClock(cl clock.Clock) Option {
	return func(c *Coordinator) { c.clock = cl }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithPreload limits what Start loads up front. Resources left out are loaded by their
// owner on demand, e.g. content by the carousel.
func WithPreload(resources ...Resource) Option {
	return func(c *Coordinator) { c.preload = resources }
}

// Coordinator is safe for concurrent use.
type Coordinator struct {
	ctx     context.Context
	cancel  context.CancelFunc
	cfg     *config.Offline
	fetcher Fetcher
	monitor *network.Monitor
	stores  map[Resource]*cache.Store
	clock   clock.Clock
	metrics *metrics.Metrics

	syncing atomic.Bool

	mu        sync.Mutex
	res       map[Resource]*resourceState
	fallback  bool
	lastSync  time.Time
	lastSweep string
	stopped   bool
	listeners []func(r Resource, data []byte)
	preload   []Resource

	retry       *task.Task
	refresh     *task.Task
	unsubscribe func()
	done        chan struct{}
}

// New wires a coordinator. stores must hold a store for every entry of Resources.
func New(
	ctx context.Context,
	cfg *config.Offline,
	fetcher Fetcher,
	monitor *network.Monitor,
	stores map[Resource]*cache.Store,
	opts ...Option,
) (*Coordinator, error) {
	cfg.Normalize()
	for _, r := range Resources {
		if stores[r] == nil {
			return nil, fmt.Errorf("offline: no cache store for resource %q", r)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &Coordinator{
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg,
		fetcher: fetcher,
		monitor: monitor,
		stores:  stores,
		clock:   clock.System(),
		res:     make(map[Resource]*resourceState, len(Resources)),
		retry:   task.New("offline:retry"),
		refresh: task.New("offline:refresh"),
		done:    make(chan struct{}),
		preload: Resources,
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, r := range Resources {
		c.res[r] = &resourceState{state: StateCached}
	}
	return c, nil
}

// OnUpdate registers fn to be called whenever a resource yields data, fresh or cached.
func (c *Coordinator) OnUpdate(fn func(r Resource, data []byte)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Start loads the preloaded resources (all by default), follows network transitions
// and refreshes non-carousel resources periodically.
func (c *Coordinator) Start() {
	online := c.monitor.Status().IsOnline
	ch, unsubscribe := c.monitor.Subscribe()
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
	go c.watch(ch, online)

	c.loadAll(c.ctx, c.preload)

	c.refresh.Every(c.ctx, c.cfg.RefreshInterval, func(ctx context.Context) {
		c.loadAll(ctx, []Resource{PrayerTimes, Config})
	})

	log.Info().Msgf("[offline] started (display: %s, online: %v)", c.cfg.DisplayID, c.monitor.Status().IsOnline)
}

// Stop cancels timers and in-flight fetches. Late fetch results are discarded. Idempotent.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	unsubscribe := c.unsubscribe
	c.mu.Unlock()

	c.retry.Stop()
	c.refresh.Stop()
	c.cancel()
	if unsubscribe != nil {
		unsubscribe()
		<-c.done
	}
	log.Info().Msg("[offline] stopped")
}

func (c *Coordinator) watch(ch <-chan network.Status, wasOnline bool) {
	defer close(c.done)
	for st := range ch {
		if st.IsOnline && !wasOnline && c.needsSync() {
			log.Info().Msgf("[offline] back online, retry sweep in %s", c.cfg.RetryDelay)
			c.retry.After(c.ctx, c.cfg.RetryDelay, func(ctx context.Context) {
				if err := c.sweep(ctx, false); err != nil {
					log.Debug().Err(err).Msg("[offline] scheduled sweep skipped")
				}
			})
		}
		wasOnline = st.IsOnline
	}
}

// needsSync reports whether any resource failed or is not fresh.
func (c *Coordinator) needsSync() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rs := range c.res {
		if rs.attempts > 0 || rs.state != StateFresh {
			return true
		}
	}
	return false
}

func (c *Coordinator) loadAll(ctx context.Context, resources []Resource) {
	var g errgroup.Group
	for _, r := range resources {
		g.Go(func() error {
			if _, err := c.Load(ctx, r); err != nil {
				log.Warn().Err(err).Msgf("[offline] load %s", r)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Load returns the freshest available payload of r. It fetches when online and r is not capped,
// otherwise it serves the cache. ErrUnavailable is returned when there is nothing to serve.
func (c *Coordinator) Load(ctx context.Context, r Resource) ([]byte, error) {
	rs, ok := c.res[r]
	if !ok {
		return nil, fmt.Errorf("offline: unknown resource %q", r)
	}

	online := c.monitor.Status().IsOnline

	c.mu.Lock()
	if c.stopped || !online || rs.attempts >= c.cfg.MaxRetries {
		c.mu.Unlock()
		return c.serveCached(r, nil)
	}
	gen := c.issueLocked(rs)
	c.mu.Unlock()

	return c.fetch(ctx, r, gen)
}

// issueLocked starts a new fetch generation for rs.
func (c *Coordinator) issueLocked(rs *resourceState) uint64 {
	rs.issued++
	rs.lastAttempt = c.clock.Now()
	return rs.issued
}

func (c *Coordinator) fetch(ctx context.Context, r Resource, gen uint64) ([]byte, error) {
	data, err := c.fetcher.Fetch(ctx, r)

	c.mu.Lock()
	rs := c.res[r]
	if c.stopped || gen <= rs.applied {
		c.mu.Unlock()
		log.Debug().Msgf("[offline] discarding stale %s result (generation %d)", r, gen)
		if cached, hit := c.stores[r].Get(string(r)); hit {
			return cached, nil
		}
		if err == nil {
			return data, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, r, err)
	}
	rs.applied = gen

	if err != nil {
		rs.attempts++
		rs.lastError = err.Error()
		c.metrics.Fetch(string(r), "error")
		c.metrics.RetryAttempts(string(r), rs.attempts)
		log.Warn().Err(err).Msgf("[offline] fetch %s failed (attempt %d/%d)", r, rs.attempts, c.cfg.MaxRetries)
		c.maybeEnterFallbackLocked()
		c.mu.Unlock()
		return c.serveCached(r, err)
	}

	now := c.clock.Now()
	rs.state = StateFresh
	rs.lastSync = now
	rs.lastError = ""
	c.lastSync = now
	c.stores[r].Set(string(r), data, cache.WithTTL(c.cfg.MaxCacheAge), cache.WithTags(string(r)))
	c.resetRetryCapLocked()
	listeners := c.listeners
	c.mu.Unlock()

	c.metrics.Fetch(string(r), "ok")
	c.notify(listeners, r, data)
	return data, nil
}

// serveCached answers from the cache and records the resulting state.
func (c *Coordinator) serveCached(r Resource, cause error) ([]byte, error) {
	data, ok := c.stores[r].Get(string(r))

	c.mu.Lock()
	rs := c.res[r]
	if ok {
		rs.state = StateCached
	} else {
		rs.state = StateFallback
	}
	listeners := c.listeners
	c.mu.Unlock()

	if !ok {
		if cause != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, r, cause)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, r)
	}
	c.notify(listeners, r, data)
	return data, nil
}

func (c *Coordinator) notify(listeners []func(Resource, []byte), r Resource, data []byte) {
	for _, fn := range listeners {
		fn(r, data)
	}
}

func (c *Coordinator) maybeEnterFallbackLocked() {
	if c.fallback || !c.cfg.EnableFallback {
		return
	}
	for _, rs := range c.res {
		if rs.attempts < c.cfg.MaxRetries {
			return
		}
	}
	c.fallback = true
	c.metrics.Fallback(true)
	log.Warn().Msg("[offline] every resource exhausted its retries, entering fallback mode")
}

// resetRetryCapLocked runs after any successful fetch: it leaves fallback mode and clears all retry counters.
func (c *Coordinator) resetRetryCapLocked() {
	if c.fallback {
		c.fallback = false
		c.metrics.Fallback(false)
		log.Info().Msg("[offline] leaving fallback mode")
	}
	for r, rs := range c.res {
		if rs.attempts != 0 {
			rs.attempts = 0
			c.metrics.RetryAttempts(string(r), 0)
		}
	}
}

// RetrySync fetches every resource once. Capped resources are included only when RetryDelay
// has passed since their last attempt. It is a no-op while offline or while another sync runs.
func (c *Coordinator) RetrySync(ctx context.Context) error {
	return c.sweep(ctx, true)
}

func (c *Coordinator) sweep(ctx context.Context, explicit bool) error {
	if !c.monitor.Status().IsOnline {
		return ErrOffline
	}
	if !c.syncing.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	defer c.syncing.Store(false)

	id := ulid.Make().String()
	now := c.clock.Now()

	type job struct {
		r   Resource
		gen uint64
	}
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.lastSweep = id
	jobs := make([]job, 0, len(Resources))
	for _, r := range Resources {
		rs := c.res[r]
		if rs.attempts >= c.cfg.MaxRetries {
			if !explicit || now.Sub(rs.lastAttempt) < c.cfg.RetryDelay {
				continue
			}
		}
		rs.state = StateRetrying
		jobs = append(jobs, job{r: r, gen: c.issueLocked(rs)})
	}
	c.mu.Unlock()

	log.Info().Msgf("[offline] sweep %s: retrying %d resources", id, len(jobs))

	var (
		g      errgroup.Group
		failed atomic.Int32
	)
	for _, j := range jobs {
		g.Go(func() error {
			if _, err := c.fetch(ctx, j.r, j.gen); err != nil {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Info().Msgf("[offline] sweep %s done (ok: %d, failed: %d)", id, len(jobs)-int(failed.Load()), failed.Load())
	return nil
}

// GetCachedData returns the cached payload of r without fetching.
func (c *Coordinator) GetCachedData(r Resource) ([]byte, bool) {
	store, ok := c.stores[r]
	if !ok {
		return nil, false
	}
	return store.Get(string(r))
}

// SetCachedData stores data for r. ttl <= 0 means MaxCacheAge.
func (c *Coordinator) SetCachedData(r Resource, data []byte, ttl time.Duration) {
	store, ok := c.stores[r]
	if !ok {
		return
	}
	if ttl <= 0 {
		ttl = c.cfg.MaxCacheAge
	}
	store.Set(string(r), data, cache.WithTTL(ttl), cache.WithTags(string(r)))
}

// IsDataStale is true when r has no cached entry or it is older than half of MaxCacheAge.
func (c *Coordinator) IsDataStale(r Resource) bool {
	store, ok := c.stores[r]
	if !ok {
		return true
	}
	age, ok := store.Age(string(r))
	return !ok || age > c.cfg.MaxCacheAge/2
}

// ClearCache drops cached payloads of the given resources, all of them when none is given.
func (c *Coordinator) ClearCache(resources ...Resource) {
	if len(resources) == 0 {
		resources = Resources
	}
	for _, r := range resources {
		if store, ok := c.stores[r]; ok {
			store.Clear()
		}
	}
}

func (c *Coordinator) IsFallback() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fallback
}

func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{
		Network:        c.monitor.Status(),
		Resources:      make(map[Resource]ResourceSnapshot, len(c.res)),
		Fallback:       c.fallback,
		SyncInProgress: c.syncing.Load(),
		LastSync:       c.lastSync,
		LastSweep:      c.lastSweep,
	}
	for r, rs := range c.res {
		snap.Resources[r] = ResourceSnapshot{
			State:     rs.state,
			Attempts:  rs.attempts,
			LastSync:  rs.lastSync,
			LastError: rs.lastError,
		}
	}
	c.mu.Unlock()

	for r, rsnap := range snap.Resources {
		rsnap.Stale = c.IsDataStale(r)
		snap.Resources[r] = rsnap
	}
	return snap
}
