// Package prayer derives the current and next prayer and the countdown between them
// from a daily schedule.
package prayer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Name string

const (
	Fajr    Name = "fajr"
	Sunrise Name = "sunrise"
	Dhuhr   Name = "dhuhr"
	Asr     Name = "asr"
	Maghrib Name = "maghrib"
	Isha    Name = "isha"
)

// Order is the sequence of a prayer day.
var Order = []Name{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

const dateLayout = "2006-01-02"

var ErrInvalidTime = errors.New("invalid prayer time")

// Schedule is one day of prayer times as delivered by the backend.
type Schedule struct {
	PrayerDate        string       `json:"prayer_date"`
	FajrTime          string       `json:"fajr_time"`
	SunriseTime       string       `json:"sunrise_time"`
	DhuhrTime         string       `json:"dhuhr_time"`
	AsrTime           string       `json:"asr_time"`
	MaghribTime       string       `json:"maghrib_time"`
	IshaTime          string       `json:"isha_time"`
	ManualAdjustments map[Name]int `json:"manual_adjustments,omitempty"`
}

func (s *Schedule) raw(n Name) string {
	switch n {
	case Fajr:
		return s.FajrTime
	case Sunrise:
		return s.SunriseTime
	case Dhuhr:
		return s.DhuhrTime
	case Asr:
		return s.AsrTime
	case Maghrib:
		return s.MaghribTime
	case Isha:
		return s.IshaTime
	}
	return ""
}

// clockTime is a time of day in minutes, always within a single day.
type clockTime struct {
	hour, minute int
}

func (c clockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.hour, c.minute)
}

func (c clockTime) on(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.hour, c.minute, 0, 0, day.Location())
}

// parseClock accepts HH:MM and HH:MM:SS, seconds are ignored.
func parseClock(value string) (clockTime, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return clockTime{}, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return clockTime{}, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return clockTime{}, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	return clockTime{hour: h, minute: m}, nil
}

// adjust shifts c by a signed number of minutes, wrapping minutes into 0..59 and hours into 0..23.
func (c clockTime) adjust(minutes int) clockTime {
	total := c.hour*60 + c.minute + minutes
	h := total / 60
	m := total % 60
	if m < 0 {
		m += 60
		h--
	}
	return clockTime{hour: ((h % 24) + 24) % 24, minute: m}
}

// adjusted resolves every prayer with its manual adjustment applied.
func (s *Schedule) adjusted() ([]clockTime, error) {
	out := make([]clockTime, len(Order))
	for i, n := range Order {
		t, err := parseClock(s.raw(n))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n, err)
		}
		out[i] = t.adjust(s.ManualAdjustments[n])
	}
	return out, nil
}

// AdjustedTimes returns the HH:MM of every prayer after manual adjustments, in Order.
func AdjustedTimes(s *Schedule) ([]string, error) {
	times, err := s.adjusted()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(times))
	for i, t := range times {
		out[i] = t.String()
	}
	return out, nil
}
