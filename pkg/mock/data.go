// Package mock generates display fixtures for tests, benchmarks and the demo backend.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/Borislavv/masjid-tv-display/pkg/model"
	"github.com/Borislavv/masjid-tv-display/pkg/offline"
	"github.com/Borislavv/masjid-tv-display/pkg/prayer"
)

const (
	minStrLen = 8
	maxStrLen = 256
)

var contentTypes = []string{
	model.ContentTypeImage,
	model.ContentTypeYoutubeVideo,
	model.ContentTypeText,
	model.ContentTypeEventPoster,
}

// GenerateContentItems returns num active items whose window is [day-1, day+7].
func GenerateContentItems(num int, day time.Time) []model.ContentItem {
	list := make([]model.ContentItem, 0, num)
	for i := 0; i < num; i++ {
		list = append(list, model.ContentItem{
			ID:           "content-" + strconv.Itoa(i+1),
			Title:        "Announcement " + strconv.Itoa(i+1),
			Description:  GenerateRandomString(),
			Type:         contentTypes[i%len(contentTypes)],
			URL:          fmt.Sprintf("https://cdn.example.org/content/%d", i+1),
			Status:       model.StatusActive,
			StartDate:    day.AddDate(0, 0, -1).Format(time.DateOnly),
			EndDate:      day.AddDate(0, 0, 7).Format(time.DateOnly),
			Duration:     10,
			DisplayOrder: i,
		})
	}
	return list
}

// ContentPayload is GenerateContentItems as the JSON array the backend serves.
func ContentPayload(num int, day time.Time) []byte {
	b, err := json.Marshal(GenerateContentItems(num, day))
	if err != nil {
		panic(err)
	}
	return b
}

// PrayerSchedule returns a plausible schedule for day.
func PrayerSchedule(day time.Time) *prayer.Schedule {
	return &prayer.Schedule{
		PrayerDate:  day.Format(time.DateOnly),
		FajrTime:    "05:45",
		SunriseTime: "07:05",
		DhuhrTime:   "13:15",
		AsrTime:     "16:30",
		MaghribTime: "19:20",
		IshaTime:    "20:35",
	}
}

func DisplayConfig() *model.DisplayConfig {
	return &model.DisplayConfig{
		ID:                     "display-demo",
		CarouselInterval:       10,
		MaxContentItems:        20,
		ContentTransitionType:  "fade",
		ShowSponsorshipAmounts: false,
		PrayerTimePosition:     "top",
	}
}

// Fetcher serves generated fixtures for every resource.
type Fetcher struct {
	Items int
	Now   func() time.Time
}

func (f *Fetcher) Fetch(ctx context.Context, r offline.Resource) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now()
	if f.Now != nil {
		now = f.Now()
	}
	switch r {
	case offline.Content:
		return ContentPayload(f.Items, now), nil
	case offline.PrayerTimes:
		return json.Marshal(PrayerSchedule(now))
	case offline.Config:
		return json.Marshal(DisplayConfig())
	}
	return nil, fmt.Errorf("mock: unknown resource %q", r)
}

func GenerateRandomString() string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "

	length := rand.Intn(maxStrLen-minStrLen+1) + minStrLen

	var sb strings.Builder
	sb.Grow(length)

	for i := 0; i < length; i++ {
		sb.WriteByte(letters[rand.Intn(len(letters))])
	}

	return sb.String()
}
