package carousel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/clock"
	"github.com/Borislavv/masjid-tv-display/pkg/config"
	"github.com/Borislavv/masjid-tv-display/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 6, 14, 0, 0, 0, time.UTC)

func item(id string) model.ContentItem {
	return model.ContentItem{ID: id, Status: model.StatusActive, StartDate: "2026-03-01", EndDate: "2026-03-31"}
}

func items(ids ...string) []model.ContentItem {
	out := make([]model.ContentItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, item(id))
	}
	return out
}

type listSource struct {
	mu    sync.Mutex
	items []model.ContentItem
	err   error
	calls atomic.Int32
}

func (l *listSource) Content(context.Context) ([]model.ContentItem, error) {
	l.calls.Add(1)
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.ContentItem(nil), l.items...), l.err
}

func (l *listSource) set(items []model.ContentItem, err error) {
	l.mu.Lock()
	l.items, l.err = items, err
	l.mu.Unlock()
}

func newScheduler(t *testing.T, cfg *config.Carousel, src Source) *Scheduler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s := New(ctx, cfg, src, WithClock(clock.NewFake(now)), WithLocation(time.UTC))
	t.Cleanup(func() {
		s.Stop()
		cancel()
	})
	return s
}

// manual returns a config with auto advance off so navigation tests are deterministic.
func manual() *config.Carousel {
	return &config.Carousel{CarouselInterval: -1, CarouselRefresh: time.Hour}
}

func TestWraparound(t *testing.T) {
	for n := 1; n <= 5; n++ {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = string(rune('a' + i))
		}
		s := newScheduler(t, manual(), &listSource{items: items(ids...)})
		s.Start()

		for start := 0; start < n; start++ {
			_, err := s.GoTo(start)
			require.NoError(t, err)
			for i := 0; i < n; i++ {
				s.Next()
			}
			assert.Equal(t, start, s.Snapshot().Index, "n=%d start=%d", n, start)
		}
	}
}

func TestPreviousWrapsToLast(t *testing.T) {
	s := newScheduler(t, manual(), &listSource{items: items("a", "b", "c")})
	s.Start()

	assert.Equal(t, "c", s.Previous().ID)
	assert.Equal(t, 2, s.Snapshot().Index)
	assert.Equal(t, "a", s.Next().ID)
}

func TestClampOnShrink(t *testing.T) {
	src := &listSource{items: items("a", "b", "c", "d")}
	s := newScheduler(t, manual(), src)
	s.Start()

	_, err := s.GoTo(3)
	require.NoError(t, err)

	var changed []*model.ContentItem
	s.OnChange(func(it *model.ContentItem) { changed = append(changed, it) })

	src.set(items("a", "b"), nil)
	s.Refresh(context.Background())

	snap := s.Snapshot()
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, "a", snap.CurrentItem.ID)
	require.Len(t, changed, 1)
	assert.Equal(t, "a", changed[0].ID)
}

func TestOfflineMountShowsFirstCachedItem(t *testing.T) {
	// the source stands in for the coordinator serving its cache while offline
	src := &listSource{items: items("cached-1", "cached-2")}
	s := newScheduler(t, manual(), src)
	s.Start()

	snap := s.Snapshot()
	require.NotNil(t, snap.CurrentItem)
	assert.Equal(t, "cached-1", snap.CurrentItem.ID)
	assert.Equal(t, StatePlaying, snap.State)
	assert.False(t, snap.IsLoading)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestFilterAndCap(t *testing.T) {
	list := items("a", "b", "c", "d")
	list[1].Status = model.StatusPending
	list[2].EndDate = "2026-03-05"
	list = append(list, model.ContentItem{ID: "today-ends", Status: model.StatusActive, StartDate: "2026-03-06", EndDate: "2026-03-06"})
	list = append(list, model.ContentItem{ID: "bad", Status: model.StatusActive, StartDate: "yesterday"})
	list = append(list, model.ContentItem{ID: "open", Status: model.StatusActive})

	s := newScheduler(t, manual(), &listSource{items: list})
	s.Start()

	var ids []string
	for _, it := range s.Items() {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"a", "d", "today-ends", "open"}, ids)

	s.SetMaxItems(2)
	assert.Equal(t, 2, s.Snapshot().Count)
}

func TestEmptyAndErrorStates(t *testing.T) {
	src := &listSource{}
	s := newScheduler(t, manual(), src)

	var gotErr error
	s.OnError(func(err error) { gotErr = err })

	s.Start()
	snap := s.Snapshot()
	assert.Equal(t, StateEmpty, snap.State)
	assert.Nil(t, snap.CurrentItem)
	assert.Nil(t, s.Next())

	src.set(nil, errors.New("content unavailable"))
	s.Refresh(context.Background())
	snap = s.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, "content unavailable", snap.Error)
	assert.EqualError(t, gotErr, "content unavailable")

	src.set(items("a"), nil)
	s.Refresh(context.Background())
	assert.Equal(t, StatePlaying, s.Snapshot().State)
	assert.Empty(t, s.Snapshot().Error)
}

func TestGoToOutOfRange(t *testing.T) {
	s := newScheduler(t, manual(), &listSource{items: items("a")})
	s.Start()

	_, err := s.GoTo(1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = s.GoTo(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestPauseResume(t *testing.T) {
	s := newScheduler(t, manual(), &listSource{items: items("a", "b")})
	s.Start()

	s.Pause()
	assert.Equal(t, StatePaused, s.Snapshot().State)
	s.Next()
	assert.Equal(t, 1, s.Snapshot().Index)

	s.Resume()
	assert.Equal(t, StatePlaying, s.Snapshot().State)
}

func TestAutoAdvanceTimer(t *testing.T) {
	cfg := &config.Carousel{CarouselInterval: 10 * time.Second, CarouselRefresh: time.Hour}
	s := newScheduler(t, cfg, &listSource{items: items("a", "b", "c")})
	s.Start()

	assert.True(t, s.advance.Active())
	assert.Equal(t, 10*time.Second, s.Snapshot().Interval)

	s.SetInterval(time.Second)
	assert.Equal(t, 3*time.Second, s.Snapshot().Interval)
	assert.True(t, s.advance.Active())

	s.Pause()
	assert.False(t, s.advance.Active())
	s.Resume()
	assert.True(t, s.advance.Active())

	s.SetInterval(0)
	assert.False(t, s.advance.Active())

	s.SetInterval(5 * time.Second)
	s.SetMaxItems(1)
	assert.False(t, s.advance.Active(), "a single item never auto advances")

	s.Stop()
	assert.False(t, s.advance.Active())
	assert.False(t, s.refresher.Active())
}

func TestAutoAdvanceMovesForward(t *testing.T) {
	s := newScheduler(t, manual(), &listSource{items: items("a", "b", "c")})
	s.Start()

	// bypass the 3s floor to keep the test fast
	s.mu.Lock()
	s.interval = 10 * time.Millisecond
	s.rescheduleLocked()
	s.mu.Unlock()

	assert.Eventually(t, func() bool { return s.Snapshot().Index == 2 }, 2*time.Second, time.Millisecond)
}

func TestSwipeAndKeys(t *testing.T) {
	s := newScheduler(t, manual(), &listSource{items: items("a", "b", "c")})
	s.Start()

	_, ok := s.HandleSwipe(40, 0)
	assert.False(t, ok, "below threshold")
	_, ok = s.HandleSwipe(80, 120)
	assert.False(t, ok, "mostly vertical")

	it, ok := s.HandleSwipe(-80, 10)
	require.True(t, ok)
	assert.Equal(t, "b", it.ID)

	it, ok = s.HandleSwipe(80, 10)
	require.True(t, ok)
	assert.Equal(t, "a", it.ID)

	it, _ = s.HandleKey(KeyArrowLeft)
	assert.Equal(t, "c", it.ID)
	it, _ = s.HandleKey(KeySpace)
	assert.Equal(t, "a", it.ID)
	it, _ = s.HandleKey(KeyArrowRight)
	assert.Equal(t, "b", it.ID)

	_, ok = s.HandleKey("Enter")
	assert.False(t, ok)
}

func TestApplyNotifiesOnlyOnChange(t *testing.T) {
	s := newScheduler(t, manual(), &listSource{items: items("a", "b")})
	s.Start()

	var calls int
	s.OnChange(func(*model.ContentItem) { calls++ })

	s.Apply(items("a", "b"))
	assert.Zero(t, calls)

	s.Apply(items("a", "b", "c"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, s.Snapshot().Count)

	s.Refresh(context.Background())
	assert.Equal(t, 2, calls, "refresh always notifies")
}

func TestFailedRefreshKeepsPlayingWithItems(t *testing.T) {
	src := &listSource{items: items("a", "b", "c")}
	s := newScheduler(t, &config.Carousel{CarouselInterval: 5 * time.Second, CarouselRefresh: time.Hour}, src)
	s.Start()
	require.True(t, s.advance.Active())

	var gotErr error
	s.OnError(func(err error) { gotErr = err })

	src.set(nil, errors.New("backend down"))
	s.Refresh(context.Background())

	snap := s.Snapshot()
	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, 3, snap.Count)
	require.NotNil(t, snap.CurrentItem)
	assert.Equal(t, "a", snap.CurrentItem.ID)
	assert.Equal(t, "backend down", snap.Error)
	assert.EqualError(t, gotErr, "backend down")
	assert.True(t, s.advance.Active())

	s.Pause()
	s.Refresh(context.Background())
	assert.Equal(t, StatePaused, s.Snapshot().State)
}

// pushingSource mimics a source whose load also pushes the same list through Apply.
type pushingSource struct {
	s     *Scheduler
	items []model.ContentItem
}

func (p *pushingSource) Content(context.Context) ([]model.ContentItem, error) {
	p.s.Apply(p.items)
	return p.items, nil
}

func TestRefreshNotifiesOnceWhenSourcePushes(t *testing.T) {
	src := &pushingSource{items: items("a", "b")}
	s := newScheduler(t, manual(), src)
	src.s = s

	var calls int
	s.OnChange(func(*model.ContentItem) { calls++ })

	s.Refresh(context.Background())
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, s.Snapshot().Count)

	s.Apply(items("a", "b", "c"))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 3, s.Snapshot().Count)
}
