package prayer

import (
	"errors"
	"fmt"
	"math"
	"time"
)

type Countdown struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

func countdown(d time.Duration) Countdown {
	secs := int(math.Floor(d.Seconds()))
	if secs < 0 {
		secs = 0
	}
	return Countdown{Hours: secs / 3600, Minutes: secs % 3600 / 60, Seconds: secs % 60}
}

type Time struct {
	Name      Name      `json:"name"`
	Time      string    `json:"time"`
	At        time.Time `json:"at"`
	IsCurrent bool      `json:"isCurrent"`
	IsNext    bool      `json:"isNext"`
}

// State is the outcome of one tick. Current is empty before Fajr.
type State struct {
	Available bool      `json:"available"`
	Date      string    `json:"date,omitempty"`
	Current   Name      `json:"currentPrayer,omitempty"`
	Next      Name      `json:"nextPrayer,omitempty"`
	NextAt    time.Time `json:"nextAt,omitempty"`
	Countdown Countdown `json:"countdown"`
	Times     []Time    `json:"times,omitempty"`
}

var ErrNoSchedule = errors.New("no prayer schedule")

// Compute evaluates s at now. now's location defines "today"; a schedule for any other
// day yields an unavailable state without error.
func Compute(now time.Time, s *Schedule) (State, error) {
	if s == nil {
		return State{}, ErrNoSchedule
	}
	today := now.Format(dateLayout)
	if s.PrayerDate != today {
		return State{Date: s.PrayerDate}, nil
	}

	times, err := s.adjusted()
	if err != nil {
		return State{}, fmt.Errorf("compute prayer state: %w", err)
	}

	at := make([]time.Time, len(times))
	for i, t := range times {
		at[i] = t.on(now)
	}

	current, next := -1, 0
	nextAt := at[0]
	for i := range at {
		if now.Before(at[i]) {
			continue
		}
		if i == len(at)-1 || now.Before(at[i+1]) {
			current = i
			if i == len(at)-1 {
				next = 0
				nextAt = at[0].AddDate(0, 0, 1)
			} else {
				next = i + 1
				nextAt = at[i+1]
			}
			break
		}
	}

	st := State{
		Available: true,
		Date:      today,
		Next:      Order[next],
		NextAt:    nextAt,
		Countdown: countdown(nextAt.Sub(now)),
		Times:     make([]Time, len(times)),
	}
	if current >= 0 {
		st.Current = Order[current]
	}
	for i, t := range times {
		st.Times[i] = Time{
			Name:      Order[i],
			Time:      t.String(),
			At:        at[i],
			IsCurrent: i == current,
			IsNext:    i == next,
		}
	}
	return st, nil
}
