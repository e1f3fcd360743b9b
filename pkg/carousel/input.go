package carousel

import (
	"math"

	"github.com/Borislavv/masjid-tv-display/pkg/model"
)

// SwipeThreshold is the minimal horizontal travel in pixels for a swipe.
const SwipeThreshold = 50

const (
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeySpace      = " "
	KeySpaceName  = "Space"
)

// HandleSwipe navigates on a mostly horizontal swipe: right goes back, left goes forward.
// It reports whether the gesture was recognised.
func (s *Scheduler) HandleSwipe(dx, dy float64) (*model.ContentItem, bool) {
	if math.Abs(dx) <= math.Abs(dy) || math.Abs(dx) <= SwipeThreshold {
		return nil, false
	}
	if dx > 0 {
		return s.Previous(), true
	}
	return s.Next(), true
}

// HandleKey maps remote/keyboard keys. Space advances like ArrowRight.
func (s *Scheduler) HandleKey(key string) (*model.ContentItem, bool) {
	switch key {
	case KeyArrowLeft:
		return s.Previous(), true
	case KeyArrowRight, KeySpace, KeySpaceName:
		return s.Next(), true
	default:
		return nil, false
	}
}
