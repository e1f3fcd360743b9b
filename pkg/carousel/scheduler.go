// Package carousel rotates the display through its currently playable content.
package carousel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/clock"
	"github.com/Borislavv/masjid-tv-display/pkg/config"
	"github.com/Borislavv/masjid-tv-display/pkg/model"
	"github.com/Borislavv/masjid-tv-display/pkg/prometheus/metrics"
	"github.com/Borislavv/masjid-tv-display/pkg/task"
	"github.com/rs/zerolog/log"
)

type State string

const (
	StateLoading State = "LOADING"
	StatePlaying State = "PLAYING"
	StatePaused  State = "PAUSED"
	StateEmpty   State = "EMPTY"
	StateError   State = "ERROR"
)

var ErrOutOfRange = errors.New("carousel index out of range")

// Source provides the raw content list, typically backed by the offline coordinator.
type Source interface {
	Content(ctx context.Context) ([]model.ContentItem, error)
}

type SourceFunc func(ctx context.Context) ([]model.ContentItem, error)

func (f SourceFunc) Content(ctx context.Context) ([]model.ContentItem, error) { return f(ctx) }

// Snapshot is what the render layer needs to draw the carousel.
type Snapshot struct {
	CurrentItem *model.ContentItem `json:"currentItem"`
	IsLoading   bool               `json:"isLoading"`
	Error       string             `json:"error,omitempty"`
	State       State              `json:"state"`
	Index       int                `json:"index"`
	Count       int                `json:"count"`
	Interval    time.Duration      `json:"interval"`
}

type Option func(s *Scheduler)

func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

type schedule struct {
	interval time.Duration
	count    int
	active   bool
}

// Scheduler is safe for concurrent use. Callbacks run outside its lock.
type Scheduler struct {
	ctx     context.Context
	source  Source
	refresh time.Duration
	clock   clock.Clock
	loc     *time.Location
	metrics *metrics.Metrics

	mu         sync.Mutex
	items      []model.ContentItem
	index      int
	state      State
	paused     bool
	stopped    bool
	err        error
	refreshing int
	interval   time.Duration
	maxItems   int
	scheduled  schedule
	onChange   []func(item *model.ContentItem)
	onError    []func(err error)

	advance   *task.Task
	refresher *task.Task
}

func New(ctx context.Context, cfg *config.Carousel, source Source, opts ...Option) *Scheduler {
	cfg.Normalize()
	s := &Scheduler{
		ctx:       ctx,
		source:    source,
		refresh:   cfg.CarouselRefresh,
		clock:     clock.System(),
		loc:       time.Local,
		state:     StateLoading,
		interval:  cfg.CarouselInterval,
		maxItems:  cfg.CarouselMaxItems,
		advance:   task.New("carousel:advance"),
		refresher: task.New("carousel:refresh"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn for every change of the item on screen. nil means nothing to show.
func (s *Scheduler) OnChange(fn func(item *model.ContentItem)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

func (s *Scheduler) OnError(fn func(err error)) {
	s.mu.Lock()
	s.onError = append(s.onError, fn)
	s.mu.Unlock()
}

// Start loads content now and then every refresh interval.
func (s *Scheduler) Start() {
	s.Refresh(s.ctx)
	s.refresher.Every(s.ctx, s.refresh, func(ctx context.Context) { s.Refresh(ctx) })
}

// Stop tears down both timers. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.scheduled = schedule{}
	s.mu.Unlock()

	s.advance.Stop()
	s.refresher.Stop()
}

// Refresh reloads the content list. A failure keeps the previous items playing and
// moves to ERROR only when there is nothing left to show.
func (s *Scheduler) Refresh(ctx context.Context) {
	s.mu.Lock()
	s.state = StateLoading
	s.refreshing++
	s.mu.Unlock()

	items, err := s.source.Content(ctx)

	s.mu.Lock()
	s.refreshing--
	s.mu.Unlock()

	if err != nil {
		s.mu.Lock()
		s.err = err
		s.settleStateLocked()
		listeners := s.onError
		s.mu.Unlock()

		log.Warn().Err(err).Msg("[carousel] refresh failed")
		for _, fn := range listeners {
			fn(err)
		}
		return
	}
	s.apply(items, true)
}

// Apply replaces the rotation with items pushed from outside, e.g. a background sync.
// Listeners are notified only when the rotation or the item on screen changed.
// Pushes arriving while Refresh loads are dropped, Refresh applies its own result.
func (s *Scheduler) Apply(items []model.ContentItem) {
	s.mu.Lock()
	busy := s.refreshing > 0
	s.mu.Unlock()
	if busy {
		log.Debug().Msg("[carousel] refresh in flight, skipping pushed content")
		return
	}
	s.apply(items, false)
}

func (s *Scheduler) apply(items []model.ContentItem, always bool) {
	s.mu.Lock()
	playable := Playable(items, s.clock.Now(), s.loc)
	if s.maxItems > 0 && len(playable) > s.maxItems {
		playable = playable[:s.maxItems]
	}
	changed := !sameRotation(s.items, playable)
	s.items = playable
	s.err = nil
	if s.index >= len(s.items) {
		s.index = 0
		changed = true
	}
	s.settleStateLocked()
	s.rescheduleLocked()
	current := s.currentLocked()
	var listeners []func(item *model.ContentItem)
	if always || changed {
		listeners = s.onChange
	}
	s.report()
	s.mu.Unlock()

	log.Debug().Msgf("[carousel] applied: %d playable of %d items", len(playable), len(items))
	for _, fn := range listeners {
		fn(current)
	}
}

func sameRotation(a, b []model.ContentItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

func (s *Scheduler) Next() *model.ContentItem { return s.step(1) }

func (s *Scheduler) Previous() *model.ContentItem { return s.step(-1) }

// GoTo jumps to index i without touching the auto-advance timer.
func (s *Scheduler) GoTo(i int) (*model.ContentItem, error) {
	s.mu.Lock()
	if i < 0 || i >= len(s.items) {
		n := len(s.items)
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, n)
	}
	s.index = i
	current := s.currentLocked()
	listeners := s.onChange
	s.report()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(current)
	}
	return current, nil
}

func (s *Scheduler) step(delta int) *model.ContentItem {
	s.mu.Lock()
	n := len(s.items)
	if n == 0 {
		s.mu.Unlock()
		return nil
	}
	s.index = ((s.index+delta)%n + n) % n
	current := s.currentLocked()
	listeners := s.onChange
	s.report()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(current)
	}
	return current
}

func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return
	}
	s.paused = true
	s.settleStateLocked()
	s.rescheduleLocked()
}

func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return
	}
	s.paused = false
	s.settleStateLocked()
	s.rescheduleLocked()
}

// SetInterval changes the auto-advance period, clamped to 3s..300s. d <= 0 disables auto advance.
func (s *Scheduler) SetInterval(d time.Duration) {
	d = config.ClampCarouselInterval(d)

	s.mu.Lock()
	defer s.mu.Unlock()
	if d == s.interval {
		return
	}
	s.interval = d
	s.rescheduleLocked()
	log.Info().Msgf("[carousel] interval set to %s", d)
}

// SetMaxItems caps the rotation. n <= 0 removes the cap from the next refresh on.
func (s *Scheduler) SetMaxItems(n int) {
	s.mu.Lock()
	s.maxItems = n
	if n <= 0 || len(s.items) <= n {
		s.mu.Unlock()
		return
	}
	s.items = s.items[:n]
	if s.index >= n {
		s.index = 0
	}
	s.rescheduleLocked()
	current := s.currentLocked()
	listeners := s.onChange
	s.report()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(current)
	}
}

func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		CurrentItem: s.currentLocked(),
		IsLoading:   s.state == StateLoading,
		State:       s.state,
		Index:       s.index,
		Count:       len(s.items),
		Interval:    s.interval,
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	return snap
}

// Items returns a copy of the rotation.
func (s *Scheduler) Items() []model.ContentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ContentItem(nil), s.items...)
}

func (s *Scheduler) currentLocked() *model.ContentItem {
	if len(s.items) == 0 {
		return nil
	}
	item := s.items[s.index]
	return &item
}

func (s *Scheduler) settleStateLocked() {
	switch {
	case s.err != nil && len(s.items) == 0:
		s.state = StateError
	case len(s.items) == 0:
		s.state = StateEmpty
	case s.paused:
		s.state = StatePaused
	default:
		s.state = StatePlaying
	}
}

// rescheduleLocked keeps exactly one advance timer matching the current interval and item count.
func (s *Scheduler) rescheduleLocked() {
	want := schedule{
		interval: s.interval,
		count:    len(s.items),
		active:   !s.stopped && !s.paused && s.interval > 0 && len(s.items) > 1,
	}
	if !want.active {
		if s.scheduled.active {
			s.advance.Stop()
		}
		s.scheduled = want
		return
	}
	if s.scheduled == want {
		return
	}
	s.scheduled = want
	s.advance.Every(s.ctx, want.interval, func(context.Context) { s.step(1) })
}

func (s *Scheduler) report() {
	s.metrics.Carousel(s.index, len(s.items))
}
