package model

import (
	"encoding/json"
)

const (
	ContentTypeImage        = "image"
	ContentTypeYoutubeVideo = "youtube_video"
	ContentTypeText         = "text_announcement"
	ContentTypeEventPoster  = "event_poster"

	StatusActive  = "active"
	StatusPending = "pending"
	StatusExpired = "expired"
)

// ContentItem is one carousel slide as served by the display API.
// Payload keeps the full source record so the render layer sees fields this engine ignores.
type ContentItem struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Description       string  `json:"description,omitempty"`
	Type              string  `json:"type"`
	URL               string  `json:"url"`
	ThumbnailURL      string  `json:"thumbnail_url,omitempty"`
	Status            string  `json:"status"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	Duration          int     `json:"duration"` // seconds
	DisplayOrder      int     `json:"display_order"`
	SponsorName       string  `json:"sponsor_name,omitempty"`
	SponsorshipAmount float64 `json:"sponsorship_amount,omitempty"`

	Payload json.RawMessage `json:"payload,omitempty"`
}

type contentItemAlias ContentItem

func (c *ContentItem) UnmarshalJSON(data []byte) error {
	var a contentItemAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = ContentItem(a)
	if len(c.Payload) == 0 {
		c.Payload = append(json.RawMessage(nil), data...)
	}
	return nil
}

// DisplayConfig is the per-display configuration record.
type DisplayConfig struct {
	ID                     string `json:"id,omitempty"`
	CarouselInterval       int    `json:"carousel_interval"` // seconds
	MaxContentItems        int    `json:"max_content_items"`
	ContentTransitionType  string `json:"content_transition_type,omitempty"`
	ShowSponsorshipAmounts bool   `json:"show_sponsorship_amounts"`
	PrayerTimePosition     string `json:"prayer_time_position,omitempty"`

	Settings json.RawMessage `json:"settings,omitempty"`
}
