// Package task provides a scheduled-task handle: one owned timer per logical job
// which is replaced on reschedule and cancelled on Stop.
package task

import (
	"context"
	"sync"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/utils"
	"github.com/rs/zerolog/log"
)

// Func is the job body. ctx is cancelled as soon as the task is stopped or rescheduled,
// so long-running bodies must check it before applying results.
type Func func(ctx context.Context)

// Task owns at most one live timer.
type Task struct {
	name   string
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func New(name string) *Task {
	return &Task{name: name}
}

// Name returns the task name used in logs.
func (t *Task) Name() string {
	return t.name
}

// Every runs fn each interval until stopped. A previous schedule is cancelled first.
func (t *Task) Every(ctx context.Context, interval time.Duration, fn Func) {
	t.every(ctx, interval, false, fn)
}

// EveryNow is Every with an extra run right away.
func (t *Task) EveryNow(ctx context.Context, interval time.Duration, fn Func) {
	t.every(ctx, interval, true, fn)
}

func (t *Task) every(ctx context.Context, interval time.Duration, now bool, fn Func) {
	if interval <= 0 {
		t.Stop()
		return
	}
	t.schedule(ctx, func(ctx context.Context, _ uint64) {
		ticker := utils.NewTicker(ctx, interval)
		if now {
			fn(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ticker:
				if !ok {
					return
				}
				fn(ctx)
			}
		}
	})
}

// After runs fn once after delay unless stopped or rescheduled before it fires.
func (t *Task) After(ctx context.Context, delay time.Duration, fn Func) {
	t.schedule(ctx, func(ctx context.Context, gen uint64) {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			fn(ctx)
		}
		t.release(gen)
	})
}

// Stop cancels the live timer if any. Stopping a stopped task is a no-op.
func (t *Task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
		log.Debug().Msgf("[task] %s stopped", t.name)
	}
}

// Active reports whether a timer is currently owned.
func (t *Task) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

func (t *Task) schedule(parent context.Context, run func(ctx context.Context, gen uint64)) {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	t.gen++
	gen := t.gen
	t.cancel = cancel
	t.mu.Unlock()

	go run(ctx, gen)
}

// release drops the handle of a finished one-shot run unless it was replaced meanwhile.
func (t *Task) release(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen == gen && t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}
