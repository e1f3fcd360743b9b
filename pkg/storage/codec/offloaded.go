package codec

import (
	"context"
	"errors"
	"runtime"
	"time"
)

const DefaultTimeout = 5 * time.Second

var ErrTimeout = errors.New("codec operation timed out")

type job struct {
	fn   func([]byte) ([]byte, error)
	src  []byte
	done chan result
}

type result struct {
	out []byte
	err error
}

// Offloaded runs another codec on a bounded worker pool. A caller waits at most Timeout
// for its job; a late result is dropped.
type Offloaded struct {
	inner   Codec
	timeout time.Duration
	jobs    chan job
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewOffloaded starts workers goroutines (GOMAXPROCS when <= 0) bound to ctx.
func NewOffloaded(ctx context.Context, inner Codec, workers int, timeout time.Duration) *Offloaded {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithCancel(ctx)
	o := &Offloaded{
		inner:   inner,
		timeout: timeout,
		jobs:    make(chan job, workers*4),
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := 0; i < workers; i++ {
		go o.work()
	}
	return o
}

func (o *Offloaded) work() {
	for {
		select {
		case <-o.ctx.Done():
			return
		case j := <-o.jobs:
			out, err := j.fn(j.src)
			j.done <- result{out: out, err: err}
		}
	}
}

func (o *Offloaded) Name() string { return o.inner.Name() }

func (o *Offloaded) Compress(src []byte) ([]byte, error) {
	return o.submit(o.inner.Compress, src)
}

func (o *Offloaded) Decompress(src []byte) ([]byte, error) {
	return o.submit(o.inner.Decompress, src)
}

// Close stops the workers. Pending calls fail with ErrTimeout.
func (o *Offloaded) Close() {
	o.cancel()
}

func (o *Offloaded) submit(fn func([]byte) ([]byte, error), src []byte) ([]byte, error) {
	if o.ctx.Err() != nil {
		return nil, ErrTimeout
	}

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	j := job{fn: fn, src: src, done: make(chan result, 1)}
	select {
	case o.jobs <- j:
	case <-timer.C:
		return nil, ErrTimeout
	case <-o.ctx.Done():
		return nil, ErrTimeout
	}

	select {
	case r := <-j.done:
		return r.out, r.err
	case <-timer.C:
		return nil, ErrTimeout
	case <-o.ctx.Done():
		return nil, ErrTimeout
	}
}
