package config

import (
	"fmt"
	"time"
)

type Prayer struct {
	// PrayerLocation is an IANA zone name, empty means the host local zone.
	PrayerLocation string `mapstructure:"PRAYER_LOCATION"`
}

func (c *Prayer) Normalize() {}

// Location resolves PrayerLocation.
func (c *Prayer) Location() (*time.Location, error) {
	if c.PrayerLocation == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.PrayerLocation)
	if err != nil {
		return nil, fmt.Errorf("prayer location %q: %w", c.PrayerLocation, err)
	}
	return loc, nil
}
