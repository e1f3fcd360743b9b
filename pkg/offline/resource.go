package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Resource names a remotely sourced dataset. It doubles as the cache namespace.
type Resource string

const (
	Content     Resource = "content"
	PrayerTimes Resource = "prayerTimes"
	Config      Resource = "config"
)

// Resources lists every tracked resource in a stable order.
var Resources = []Resource{Content, PrayerTimes, Config}

// State is the per-resource data provenance.
type State string

const (
	StateFresh    State = "FRESH"
	StateCached   State = "CACHED"
	StateRetrying State = "RETRYING"
	StateFallback State = "FALLBACK"
)

var (
	// ErrUnavailable means there is neither fresh nor cached data for a resource.
	ErrUnavailable    = errors.New("content unavailable")
	ErrOffline        = errors.New("display is offline")
	ErrSyncInProgress = errors.New("sync already in progress")
)

// Fetcher retrieves the raw payload of a resource.
type Fetcher interface {
	Fetch(ctx context.Context, r Resource) ([]byte, error)
}

type FetcherFunc func(ctx context.Context, r Resource) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, r Resource) ([]byte, error) { return f(ctx, r) }

// ResourceSnapshot is the observable state of one resource.
type ResourceSnapshot struct {
	State     State     `json:"state"`
	Attempts  int       `json:"attempts"`
	LastSync  time.Time `json:"lastSync"`
	LastError string    `json:"lastError,omitempty"`
	Stale     bool      `json:"stale"`
}

type resourceState struct {
	state       State
	attempts    int
	lastAttempt time.Time
	lastSync    time.Time
	lastError   string
	issued      uint64 // generation of the newest started fetch
	applied     uint64 // generation of the newest applied fetch result
}

// Decode unmarshals a resource payload.
func Decode[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}

// LoadAs loads r through c and decodes it into a T.
func LoadAs[T any](ctx context.Context, c *Coordinator, r Resource) (T, error) {
	data, err := c.Load(ctx, r)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](data)
}
