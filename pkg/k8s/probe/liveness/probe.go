package liveness

import (
	"context"
	"sync"
	"time"
)

const DefaultTimeout = 5 * time.Second

// Service is anything able to report its own health.
type Service interface {
	IsAlive(ctx context.Context) bool
}

type Prober interface {
	Watch(services ...Service)
	IsAlive() bool
}

// Probe asks every watched service, each bounded by timeout.
type Probe struct {
	timeout  time.Duration
	mu       sync.RWMutex
	services []Service
}

func NewProbe(timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Probe{timeout: timeout}
}

func (p *Probe) Watch(services ...Service) {
	p.mu.Lock()
	p.services = append(p.services, services...)
	p.mu.Unlock()
}

// IsAlive is false until something is watched.
func (p *Probe) IsAlive() bool {
	p.mu.RLock()
	services := p.services
	p.mu.RUnlock()
	if len(services) == 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	for _, svc := range services {
		alive := make(chan bool, 1)
		go func() { alive <- svc.IsAlive(ctx) }()
		select {
		case ok := <-alive:
			if !ok {
				return false
			}
		case <-ctx.Done():
			return false
		}
	}
	return true
}
