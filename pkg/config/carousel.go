package config

import "time"

const (
	DefaultCarouselInterval = 10 * time.Second
	MinCarouselInterval     = 3 * time.Second
	MaxCarouselInterval     = 300 * time.Second
	DefaultCarouselRefresh  = 5 * time.Minute
	DefaultCarouselMaxItems = 20
)

type Carousel struct {
	// CarouselInterval <= 0 disables auto advance, other values are clamped to 3s..300s.
	CarouselInterval time.Duration `mapstructure:"CAROUSEL_INTERVAL"`
	CarouselRefresh  time.Duration `mapstructure:"CAROUSEL_REFRESH_INTERVAL"`
	CarouselMaxItems int           `mapstructure:"CAROUSEL_MAX_ITEMS"`
}

func (c *Carousel) Normalize() {
	if c.CarouselInterval == 0 {
		c.CarouselInterval = DefaultCarouselInterval
	}
	c.CarouselInterval = ClampCarouselInterval(c.CarouselInterval)
	if c.CarouselRefresh <= 0 {
		c.CarouselRefresh = DefaultCarouselRefresh
	}
	if c.CarouselMaxItems <= 0 {
		c.CarouselMaxItems = DefaultCarouselMaxItems
	}
}

// ClampCarouselInterval keeps positive intervals within bounds and leaves non-positive ones (disabled) alone.
func ClampCarouselInterval(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return d
	case d < MinCarouselInterval:
		return MinCarouselInterval
	case d > MaxCarouselInterval:
		return MaxCarouselInterval
	default:
		return d
	}
}
