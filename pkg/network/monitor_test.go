package network

import (
	"testing"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOnlineStampsLastOnline(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	m := NewMonitor(false, WithClock(fake))
	assert.True(t, m.Status().LastOnline.IsZero())

	fake.Advance(time.Minute)
	m.SetOnline(true)
	st := m.Status()
	assert.True(t, st.IsOnline)
	assert.Equal(t, fake.Now(), st.LastOnline)

	fake.Advance(time.Minute)
	m.SetOnline(false)
	assert.False(t, m.Status().IsOnline)
	assert.Equal(t, fake.Now().Add(-time.Minute), m.Status().LastOnline)
}

func TestSlowConnection(t *testing.T) {
	m := NewMonitor(true)
	for typ, slow := range map[string]bool{TypeSlow2G: true, Type2G: true, Type3G: false, Type4G: false, "": false} {
		m.SetConnection(Connection{EffectiveType: typ})
		assert.Equal(t, slow, m.Status().IsSlowConnection, typ)
	}
}

func TestSubscribeLatestWins(t *testing.T) {
	m := NewMonitor(true)
	ch, cancel := m.Subscribe()
	defer cancel()

	m.SetOnline(false)
	m.SetOnline(true)
	m.SetOnline(false)

	select {
	case st := <-ch:
		assert.False(t, st.IsOnline)
	case <-time.After(time.Second):
		t.Fatal("no status delivered")
	}
	select {
	case st := <-ch:
		t.Fatalf("unexpected extra status %+v", st)
	default:
	}
}

func TestSubscribeSkipsNoopChanges(t *testing.T) {
	m := NewMonitor(true)
	ch, cancel := m.Subscribe()
	defer cancel()

	m.SetOnline(true)
	select {
	case <-ch:
		t.Fatal("no-op transition must not be published")
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	m := NewMonitor(true)
	ch, cancel := m.Subscribe()
	cancel()
	cancel()

	_, open := <-ch
	require.False(t, open)
	assert.NotPanics(t, func() { m.SetOnline(false) })
}

func TestEffectiveType(t *testing.T) {
	assert.Equal(t, Type4G, EffectiveType(50*time.Millisecond))
	assert.Equal(t, Type3G, EffectiveType(300*time.Millisecond))
	assert.Equal(t, Type2G, EffectiveType(1500*time.Millisecond))
	assert.Equal(t, TypeSlow2G, EffectiveType(3*time.Second))
}
