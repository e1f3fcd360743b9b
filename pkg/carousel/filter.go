package carousel

import (
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/model"
	"github.com/rs/zerolog/log"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

const dateLayout = "2006-01-02"

// parseBound parses a start/end date. A date-only end bound covers the whole day.
func parseBound(value string, end bool, loc *time.Location) (time.Time, bool, error) {
	if value == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true, nil
		}
	}
	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, false, err
	}
	if end {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, true, nil
}

// Playable keeps active items whose [start, end] window contains now, in source order.
// Empty bounds are open. Items with unparseable dates are dropped.
func Playable(items []model.ContentItem, now time.Time, loc *time.Location) []model.ContentItem {
	out := make([]model.ContentItem, 0, len(items))
	for _, item := range items {
		if item.Status != model.StatusActive {
			continue
		}
		start, hasStart, err := parseBound(item.StartDate, false, loc)
		if err != nil {
			log.Warn().Err(err).Msgf("[carousel] item %s: bad start_date %q", item.ID, item.StartDate)
			continue
		}
		end, hasEnd, err := parseBound(item.EndDate, true, loc)
		if err != nil {
			log.Warn().Err(err).Msgf("[carousel] item %s: bad end_date %q", item.ID, item.EndDate)
			continue
		}
		if hasStart && now.Before(start) {
			continue
		}
		if hasEnd && now.After(end) {
			continue
		}
		out = append(out, item)
	}
	return out
}
