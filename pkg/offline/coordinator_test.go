package offline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/clock"
	"github.com/Borislavv/masjid-tv-display/pkg/config"
	"github.com/Borislavv/masjid-tv-display/pkg/network"
	"github.com/Borislavv/masjid-tv-display/pkg/storage/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackendDown = errors.New("backend down")

type fakeFetcher struct {
	mu    sync.Mutex
	calls map[Resource]int
	fn    func(ctx context.Context, r Resource, call int) ([]byte, error)
}

func newFakeFetcher(fn func(ctx context.Context, r Resource, call int) ([]byte, error)) *fakeFetcher {
	return &fakeFetcher{calls: make(map[Resource]int), fn: fn}
}

func (f *fakeFetcher) Fetch(ctx context.Context, r Resource) ([]byte, error) {
	f.mu.Lock()
	f.calls[r]++
	call := f.calls[r]
	f.mu.Unlock()
	return f.fn(ctx, r, call)
}

func (f *fakeFetcher) count(r Resource) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[r]
}

func payloadOf(r Resource) []byte {
	return []byte(`{"resource":"` + string(r) + `"}`)
}

func succeed(_ context.Context, r Resource, _ int) ([]byte, error) { return payloadOf(r), nil }
func fail(context.Context, Resource, int) ([]byte, error)          { return nil, errBackendDown }

type fixture struct {
	c       *Coordinator
	monitor *network.Monitor
	clock   *clock.Fake
	stores  map[Resource]*cache.Store
}

func newFixture(t *testing.T, cfg *config.Offline, online bool, fetcher Fetcher, opts ...Option) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	fake := clock.NewFake(time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC))
	stores := make(map[Resource]*cache.Store, len(Resources))
	for _, r := range Resources {
		s := cache.New(ctx, string(r), &config.Cache{}, cache.WithClock(fake))
		t.Cleanup(s.Stop)
		stores[r] = s
	}
	monitor := network.NewMonitor(online, network.WithClock(fake))

	c, err := New(ctx, cfg, fetcher, monitor, stores, append([]Option{WithClock(fake)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(c.Stop)

	return &fixture{c: c, monitor: monitor, clock: fake, stores: stores}
}

func TestNewRequiresEveryStore(t *testing.T) {
	_, err := New(context.Background(), &config.Offline{}, newFakeFetcher(succeed), network.NewMonitor(true), nil)
	assert.Error(t, err)
}

func TestLoadFetchesAndCaches(t *testing.T) {
	f := newFakeFetcher(succeed)
	fx := newFixture(t, &config.Offline{}, true, f)

	data, err := fx.c.Load(context.Background(), Content)
	require.NoError(t, err)
	assert.Equal(t, payloadOf(Content), data)

	cached, ok := fx.c.GetCachedData(Content)
	require.True(t, ok)
	assert.Equal(t, payloadOf(Content), cached)

	snap := fx.c.Snapshot()
	assert.Equal(t, StateFresh, snap.Resources[Content].State)
	assert.Zero(t, snap.Resources[Content].Attempts)
	assert.Equal(t, fx.clock.Now(), snap.LastSync)
	assert.False(t, snap.Resources[Content].Stale)
}

func TestOfflineServesCacheWithoutFetch(t *testing.T) {
	f := newFakeFetcher(succeed)
	fx := newFixture(t, &config.Offline{}, false, f)
	fx.c.SetCachedData(Content, []byte(`[{"id":"c1"}]`), 0)

	data, err := fx.c.Load(context.Background(), Content)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"c1"}]`, string(data))
	assert.Zero(t, f.count(Content))
	assert.Equal(t, StateCached, fx.c.Snapshot().Resources[Content].State)
}

func TestFailureServesCacheAndCountsAttempt(t *testing.T) {
	f := newFakeFetcher(fail)
	fx := newFixture(t, &config.Offline{}, true, f)
	fx.c.SetCachedData(PrayerTimes, payloadOf(PrayerTimes), time.Hour)

	data, err := fx.c.Load(context.Background(), PrayerTimes)
	require.NoError(t, err)
	assert.Equal(t, payloadOf(PrayerTimes), data)

	rs := fx.c.Snapshot().Resources[PrayerTimes]
	assert.Equal(t, StateCached, rs.State)
	assert.Equal(t, 1, rs.Attempts)
	assert.Equal(t, errBackendDown.Error(), rs.LastError)
}

func TestNothingToServeIsUnavailable(t *testing.T) {
	fx := newFixture(t, &config.Offline{}, true, newFakeFetcher(fail))

	_, err := fx.c.Load(context.Background(), Content)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, StateFallback, fx.c.Snapshot().Resources[Content].State)

	_, err = fx.c.Load(context.Background(), Resource("weather"))
	assert.Error(t, err)
}

func TestRetryCap(t *testing.T) {
	f := newFakeFetcher(fail)
	cfg := &config.Offline{MaxRetries: 3, RetryDelay: 30 * time.Second}
	fx := newFixture(t, cfg, true, f)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = fx.c.Load(ctx, Content)
	}
	assert.Equal(t, 3, f.count(Content))

	// the automatic sweep skips capped resources
	require.NoError(t, fx.c.sweep(ctx, false))
	assert.Equal(t, 3, f.count(Content))
	assert.Equal(t, 1, f.count(Config))

	// an explicit retry before the backoff delay still skips it
	require.NoError(t, fx.c.RetrySync(ctx))
	assert.Equal(t, 3, f.count(Content))

	fx.clock.Advance(cfg.RetryDelay)
	require.NoError(t, fx.c.RetrySync(ctx))
	assert.Equal(t, 4, f.count(Content))
}

func TestFallbackModeEnterAndExit(t *testing.T) {
	var healthy atomic.Bool
	f := newFakeFetcher(func(ctx context.Context, r Resource, call int) ([]byte, error) {
		if healthy.Load() {
			return succeed(ctx, r, call)
		}
		return fail(ctx, r, call)
	})
	cfg := &config.Offline{MaxRetries: 2, RetryDelay: time.Second, EnableFallback: true}
	fx := newFixture(t, cfg, true, f)
	ctx := context.Background()

	for _, r := range Resources {
		_, _ = fx.c.Load(ctx, r)
		assert.False(t, fx.c.IsFallback())
		_, _ = fx.c.Load(ctx, r)
	}
	require.True(t, fx.c.IsFallback())

	healthy.Store(true)
	fx.clock.Advance(cfg.RetryDelay)
	require.NoError(t, fx.c.RetrySync(ctx))

	snap := fx.c.Snapshot()
	assert.False(t, snap.Fallback)
	for _, r := range Resources {
		assert.Zero(t, snap.Resources[r].Attempts, r)
		assert.Equal(t, StateFresh, snap.Resources[r].State, r)
	}
}

func TestFallbackDisabled(t *testing.T) {
	fx := newFixture(t, &config.Offline{MaxRetries: 1}, true, newFakeFetcher(fail))
	for _, r := range Resources {
		_, _ = fx.c.Load(context.Background(), r)
	}
	assert.False(t, fx.c.IsFallback())
}

func TestSuccessElsewhereClearsRetryCap(t *testing.T) {
	f := newFakeFetcher(func(ctx context.Context, r Resource, call int) ([]byte, error) {
		if r == Content {
			return fail(ctx, r, call)
		}
		return succeed(ctx, r, call)
	})
	fx := newFixture(t, &config.Offline{MaxRetries: 1}, true, f)
	ctx := context.Background()

	_, _ = fx.c.Load(ctx, Content)
	_, _ = fx.c.Load(ctx, Content)
	assert.Equal(t, 1, f.count(Content))

	_, err := fx.c.Load(ctx, Config)
	require.NoError(t, err)

	_, _ = fx.c.Load(ctx, Content)
	assert.Equal(t, 2, f.count(Content))
}

func TestSingleInFlightSync(t *testing.T) {
	release := make(chan struct{})
	f := newFakeFetcher(func(ctx context.Context, r Resource, call int) ([]byte, error) {
		<-release
		return succeed(ctx, r, call)
	})
	fx := newFixture(t, &config.Offline{}, true, f)
	ctx := context.Background()

	errs := make(chan error, 1)
	go func() { errs <- fx.c.RetrySync(ctx) }()

	require.Eventually(t, func() bool { return fx.c.Snapshot().SyncInProgress }, time.Second, time.Millisecond)
	assert.ErrorIs(t, fx.c.RetrySync(ctx), ErrSyncInProgress)
	assert.ErrorIs(t, fx.c.RetrySync(ctx), ErrSyncInProgress)

	close(release)
	require.NoError(t, <-errs)

	for _, r := range Resources {
		assert.Equal(t, 1, f.count(r), r)
	}
	assert.False(t, fx.c.Snapshot().SyncInProgress)
	assert.NotEmpty(t, fx.c.Snapshot().LastSweep)
}

func TestRetrySyncOffline(t *testing.T) {
	f := newFakeFetcher(succeed)
	fx := newFixture(t, &config.Offline{}, false, f)

	assert.ErrorIs(t, fx.c.RetrySync(context.Background()), ErrOffline)
	assert.Zero(t, f.count(Content))
}

func TestStaleResultIsDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	f := newFakeFetcher(func(_ context.Context, _ Resource, call int) ([]byte, error) {
		if call == 1 {
			close(entered)
			<-release
			return []byte(`"old"`), nil
		}
		return []byte(`"new"`), nil
	})
	fx := newFixture(t, &config.Offline{}, true, f)
	ctx := context.Background()

	slow := make(chan []byte, 1)
	go func() {
		data, _ := fx.c.Load(ctx, Content)
		slow <- data
	}()
	<-entered

	data, err := fx.c.Load(ctx, Content)
	require.NoError(t, err)
	assert.Equal(t, `"new"`, string(data))

	close(release)
	assert.Equal(t, `"new"`, string(<-slow))

	cached, _ := fx.c.GetCachedData(Content)
	assert.Equal(t, `"new"`, string(cached))
}

func TestResultAfterStopIsDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	f := newFakeFetcher(func(_ context.Context, _ Resource, _ int) ([]byte, error) {
		close(entered)
		<-release
		return []byte(`"late"`), nil
	})
	fx := newFixture(t, &config.Offline{}, true, f)

	done := make(chan struct{})
	go func() {
		_, _ = fx.c.Load(context.Background(), Content)
		close(done)
	}()
	<-entered
	fx.c.Stop()
	close(release)
	<-done

	_, ok := fx.stores[Content].Get(string(Content))
	assert.False(t, ok)
	assert.NotEqual(t, StateFresh, fx.c.Snapshot().Resources[Content].State)
}

func TestIsDataStale(t *testing.T) {
	fx := newFixture(t, &config.Offline{MaxCacheAge: 24 * time.Hour}, true, newFakeFetcher(succeed))

	assert.True(t, fx.c.IsDataStale(Config))

	_, err := fx.c.Load(context.Background(), Config)
	require.NoError(t, err)
	assert.False(t, fx.c.IsDataStale(Config))

	fx.clock.Advance(12*time.Hour + time.Second)
	assert.True(t, fx.c.IsDataStale(Config))

	fx.c.ClearCache(Config)
	_, ok := fx.c.GetCachedData(Config)
	assert.False(t, ok)
}

func TestOnUpdateFiresForFreshAndCachedData(t *testing.T) {
	fx := newFixture(t, &config.Offline{}, false, newFakeFetcher(succeed))
	fx.c.SetCachedData(PrayerTimes, payloadOf(PrayerTimes), 0)

	var got []Resource
	fx.c.OnUpdate(func(r Resource, data []byte) {
		got = append(got, r)
		assert.Equal(t, payloadOf(r), data)
	})

	_, err := fx.c.Load(context.Background(), PrayerTimes)
	require.NoError(t, err)

	fx.monitor.SetOnline(true)
	_, err = fx.c.Load(context.Background(), Config)
	require.NoError(t, err)

	assert.Equal(t, []Resource{PrayerTimes, Config}, got)
}

func TestReconnectSchedulesRetrySweep(t *testing.T) {
	f := newFakeFetcher(succeed)
	fx := newFixture(t, &config.Offline{RetryDelay: 20 * time.Millisecond, RefreshInterval: time.Hour}, false, f)

	fx.c.Start()
	assert.Zero(t, f.count(Content))

	fx.monitor.SetOnline(true)
	assert.Eventually(t, func() bool {
		for _, r := range Resources {
			if f.count(r) != 1 {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLoadAsDecodes(t *testing.T) {
	fx := newFixture(t, &config.Offline{}, true, newFakeFetcher(succeed))

	v, err := LoadAs[map[string]string](context.Background(), fx.c, Config)
	require.NoError(t, err)
	assert.Equal(t, "config", v["resource"])

	_, err = Decode[int]([]byte(`"x"`))
	assert.Error(t, err)
}

func TestStartLoadsOnlyPreloaded(t *testing.T) {
	f := newFakeFetcher(succeed)
	fx := newFixture(t, &config.Offline{RefreshInterval: time.Hour}, true, f, WithPreload(PrayerTimes, Config))

	fx.c.Start()
	assert.Zero(t, f.count(Content))
	assert.Equal(t, 1, f.count(PrayerTimes))
	assert.Equal(t, 1, f.count(Config))

	_, err := fx.c.Load(context.Background(), Content)
	require.NoError(t, err)
	assert.Equal(t, 1, f.count(Content))
}
