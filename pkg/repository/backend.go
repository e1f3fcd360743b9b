// Package repository reads display resources from the backend REST API.
package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/config"
	"github.com/Borislavv/masjid-tv-display/pkg/offline"
	"github.com/buger/jsonparser"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

var (
	ErrBackend         = errors.New("backend error")
	ErrMalformed       = errors.New("malformed backend response")
	ErrNoData          = errors.New("backend returned no data")
	ErrUnknownResource = errors.New("unknown resource")
	ErrNotConfigured   = errors.New("backend url is not configured")
)

// Backend implements offline.Fetcher over the display API. Responses are enveloped
// as {"data": ...} or {"error": {"message": ...}}.
type Backend struct {
	cfg          *config.Backend
	displayID    string
	contentLimit int
	client       *fasthttp.Client
	limiter      *rate.Limiter
}

var _ offline.Fetcher = (*Backend)(nil)

// NewBackend builds a Backend for one display. contentLimit <= 0 omits the limit parameter.
func NewBackend(cfg *config.Backend, displayID string, contentLimit int, client *fasthttp.Client) *Backend {
	cfg.Normalize()
	if client == nil {
		client = &fasthttp.Client{
			Name:                "masjid-tv-display",
			ReadTimeout:         cfg.BackendTimeout,
			WriteTimeout:        cfg.BackendTimeout,
			MaxIdleConnDuration: time.Minute,
		}
	}
	return &Backend{
		cfg:          cfg,
		displayID:    displayID,
		contentLimit: contentLimit,
		client:       client,
		limiter:      rate.NewLimiter(rate.Limit(cfg.BackendRPS), int(cfg.BackendRPS)+1),
	}
}

// Fetch returns the raw "data" value of the resource endpoint.
func (b *Backend) Fetch(ctx context.Context, r offline.Resource) ([]byte, error) {
	uri, err := b.uri(r)
	if err != nil {
		return nil, err
	}
	if err = b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", r, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if b.cfg.BackendToken != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+b.cfg.BackendToken)
	}

	timeout := b.cfg.BackendTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if err = b.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", r, err)
	}

	data, err := unwrap(resp.StatusCode(), resp.Body())
	if err != nil {
		log.Debug().Err(err).Msgf("[repository] %s failed", r)
		return nil, fmt.Errorf("fetch %s: %w", r, err)
	}
	return data, nil
}

func (b *Backend) uri(r offline.Resource) (string, error) {
	if b.cfg.BackendURL == "" {
		return "", ErrNotConfigured
	}
	base := strings.TrimRight(b.cfg.BackendURL, "/") + "/api/displays/" + url.PathEscape(b.displayID)

	switch r {
	case offline.Content:
		q := url.Values{}
		q.Set("status", "active")
		if b.contentLimit > 0 {
			q.Set("limit", strconv.Itoa(b.contentLimit))
		}
		return base + "/content?" + q.Encode(), nil
	case offline.PrayerTimes:
		return base + "/prayer-times", nil
	case offline.Config:
		return base + "/config", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, r)
	}
}

// unwrap extracts the data value, copying it out of the pooled response body.
func unwrap(status int, body []byte) ([]byte, error) {
	if msg, err := jsonparser.GetString(body, "error", "message"); err == nil && msg != "" {
		return nil, fmt.Errorf("%w: %d %s", ErrBackend, status, msg)
	}
	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: status %d", ErrBackend, status)
	}

	data, typ, _, err := jsonparser.Get(body, "data")
	switch {
	case errors.Is(err, jsonparser.KeyPathNotFoundError) || typ == jsonparser.Null:
		return nil, ErrNoData
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	case typ == jsonparser.String:
		return nil, fmt.Errorf("%w: data is a string", ErrMalformed)
	}
	return append([]byte(nil), data...), nil
}
