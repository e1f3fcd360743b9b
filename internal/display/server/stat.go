package server

import (
	"context"
	"strconv"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/utils"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

const zeroLiteral = "0"

// stat is a windowed request counter for the debug logger.
type stat struct {
	label    string
	divider  int // window size in seconds
	tickerCh <-chan time.Time
	count    int
	total    time.Duration
}

// RequestStats logs request rate and mean duration per window when debug is on.
type RequestStats struct {
	durCh chan time.Duration
}

func NewRequestStats(ctx context.Context) *RequestStats {
	m := &RequestStats{durCh: make(chan time.Duration, 64)}
	m.run(ctx)
	return m
}

func (m *RequestStats) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		from := time.Now()

		next(ctx)

		select {
		case m.durCh <- time.Since(from):
		default:
		}
	}
}

func (m *RequestStats) run(ctx context.Context) {
	go func() {
		stats := []*stat{
			{label: "5s", divider: 5, tickerCh: utils.NewTicker(ctx, 5*time.Second)},
			{label: "1m", divider: 60, tickerCh: utils.NewTicker(ctx, time.Minute)},
			{label: "5m", divider: 300, tickerCh: utils.NewTicker(ctx, 5*time.Minute)},
		}

		for {
			select {
			case <-ctx.Done():
				return
			case dur := <-m.durCh:
				for _, s := range stats {
					s.count++
					s.total += dur
				}
			case <-stats[0].tickerCh:
				logAndReset(stats[0])
			case <-stats[1].tickerCh:
				logAndReset(stats[1])
			case <-stats[2].tickerCh:
				logAndReset(stats[2])
			}
		}
	}()
}

func logAndReset(s *stat) {
	avg := zeroLiteral
	if s.count > 0 {
		avg = (s.total / time.Duration(s.count)).String()
	}
	rps := strconv.FormatFloat(float64(s.count)/float64(s.divider), 'f', 2, 64)
	log.Info().Msgf("[display-api][%s] served %d requests (rps: %s, avgDuration: %s)", s.label, s.count, rps, avg)
	s.count = 0
	s.total = 0
}
