package prayer

import (
	"context"
	"sync"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/clock"
	"github.com/Borislavv/masjid-tv-display/pkg/config"
	"github.com/Borislavv/masjid-tv-display/pkg/task"
	"github.com/rs/zerolog/log"
)

const TickInterval = time.Second

type Option func(e *Engine)

func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// Engine recomputes the prayer State every second.
type Engine struct {
	ctx   context.Context
	clock clock.Clock
	loc   *time.Location
	tick  *task.Task

	mu       sync.RWMutex
	schedule *Schedule
	state    State
	onTick   []func(State)
}

func New(ctx context.Context, cfg *config.Prayer, opts ...Option) (*Engine, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		ctx:   ctx,
		clock: clock.System(),
		loc:   loc,
		tick:  task.New("prayer:tick"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Location() *time.Location { return e.loc }

// OnTick registers fn for every recomputation.
func (e *Engine) OnTick(fn func(State)) {
	e.mu.Lock()
	e.onTick = append(e.onTick, fn)
	e.mu.Unlock()
}

// SetSchedule swaps the schedule and recomputes right away.
func (e *Engine) SetSchedule(s *Schedule) {
	e.mu.Lock()
	e.schedule = s
	e.mu.Unlock()
	e.Tick()
}

func (e *Engine) Start() {
	e.tick.EveryNow(e.ctx, TickInterval, func(context.Context) { e.Tick() })
}

func (e *Engine) Stop() {
	e.tick.Stop()
}

func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Tick runs one recomputation against the clock.
func (e *Engine) Tick() State {
	now := e.clock.Now().In(e.loc)

	e.mu.Lock()
	prev := e.state
	var st State
	if e.schedule != nil {
		var err error
		if st, err = Compute(now, e.schedule); err != nil {
			log.Warn().Err(err).Msg("[prayer] bad schedule")
		}
	}
	e.state = st
	listeners := e.onTick
	e.mu.Unlock()

	if st.Available && st.Current != prev.Current {
		log.Info().Msgf("[prayer] current prayer: %q, next: %q in %02d:%02d:%02d",
			st.Current, st.Next, st.Countdown.Hours, st.Countdown.Minutes, st.Countdown.Seconds)
	} else if !st.Available && prev.Available {
		log.Info().Msg("[prayer] schedule is not for today, countdown hidden")
	}
	for _, fn := range listeners {
		fn(st)
	}
	return st
}
