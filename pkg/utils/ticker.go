package utils

import (
	"context"
	"time"
)

// NewTicker returns a channel which receives the current time every interval
// until ctx is done, then the channel is closed. Slow receivers skip ticks.
func NewTicker(ctx context.Context, interval time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	go func() {
		t := time.NewTicker(interval)
		defer func() {
			t.Stop()
			close(ch)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-t.C:
				select {
				case ch <- tick:
				default:
				}
			}
		}
	}()
	return ch
}
