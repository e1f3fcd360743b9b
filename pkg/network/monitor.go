// Package network tracks connectivity of the display. It only observes, it never retries.
package network

import (
	"sync"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/clock"
	"github.com/Borislavv/masjid-tv-display/pkg/prometheus/metrics"
	"github.com/rs/zerolog/log"
)

const (
	TypeSlow2G = "slow-2g"
	Type2G     = "2g"
	Type3G     = "3g"
	Type4G     = "4g"
)

// Status is the connectivity snapshot handed to subscribers.
type Status struct {
	IsOnline         bool          `json:"isOnline"`
	IsSlowConnection bool          `json:"isSlowConnection"`
	LastOnline       time.Time     `json:"lastOnline"` // zero when never online
	ConnectionType   string        `json:"connectionType,omitempty"`
	Downlink         float64       `json:"downlink,omitempty"` // Mbps
	RTT              time.Duration `json:"rtt,omitempty"`
}

// Connection is a quality signal from the platform or the prober.
type Connection struct {
	EffectiveType string
	Downlink      float64
	RTT           time.Duration
}

func isSlow(effectiveType string) bool {
	return effectiveType == TypeSlow2G || effectiveType == Type2G
}

type Option func(m *Monitor)

func WithClock(c clock.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Monitor) { m.metrics = mt }
}

// Monitor holds the current Status and fans changes out to subscribers.
type Monitor struct {
	clock   clock.Clock
	metrics *metrics.Metrics

	mu     sync.Mutex
	status Status
	subs   map[uint64]chan Status
	nextID uint64
}

func NewMonitor(online bool, opts ...Option) *Monitor {
	m := &Monitor{
		clock: clock.System(),
		subs:  make(map[uint64]chan Status),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.status.IsOnline = online
	if online {
		m.status.LastOnline = m.clock.Now()
	}
	m.metrics.Network(online, 0)
	return m
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// SetOnline records a connectivity event. Going online stamps LastOnline.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status.IsOnline == online {
		return
	}
	m.status.IsOnline = online
	if online {
		m.status.LastOnline = m.clock.Now()
		log.Info().Msg("[network] online")
	} else {
		log.Warn().Msg("[network] offline")
	}
	m.publishLocked()
}

// SetConnection records a quality signal.
func (m *Monitor) SetConnection(c Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.status
	next.ConnectionType = c.EffectiveType
	next.IsSlowConnection = isSlow(c.EffectiveType)
	next.Downlink = c.Downlink
	next.RTT = c.RTT
	if next == m.status {
		return
	}
	if next.IsSlowConnection != m.status.IsSlowConnection {
		log.Info().Msgf("[network] connection type %q (slow: %v)", c.EffectiveType, next.IsSlowConnection)
	}
	m.status = next
	m.publishLocked()
}

// Subscribe returns a channel carrying the newest Status after each change.
// Slow readers only ever see the latest value. cancel closes the channel.
func (m *Monitor) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 1)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}
}

func (m *Monitor) publishLocked() {
	m.metrics.Network(m.status.IsOnline, m.status.RTT)
	for _, ch := range m.subs {
		select {
		case ch <- m.status:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- m.status
		}
	}
}
