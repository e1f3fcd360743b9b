package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentItemKeepsPayload(t *testing.T) {
	raw := `{"id":"c1","title":"Kuliah Maghrib","type":"text_announcement","status":"active",
		"start_date":"2026-03-01","end_date":"2026-03-31","duration":15,"masjid_id":"m1"}`

	var item ContentItem
	require.NoError(t, json.Unmarshal([]byte(raw), &item))

	assert.Equal(t, "c1", item.ID)
	assert.Equal(t, 15, item.Duration)
	assert.JSONEq(t, raw, string(item.Payload))
}

func TestContentItemRoundTripDoesNotNestPayload(t *testing.T) {
	var item ContentItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c1","masjid_id":"m1"}`), &item))

	data, err := json.Marshal(item)
	require.NoError(t, err)

	var again ContentItem
	require.NoError(t, json.Unmarshal(data, &again))
	assert.JSONEq(t, string(item.Payload), string(again.Payload))
}
