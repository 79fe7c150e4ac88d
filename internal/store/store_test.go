package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/analytics-workspace/internal/models"
)

func TestScanOrderIsByteWise(t *testing.T) {
	require.Contains(t, scanEventsSQL, `event_id COLLATE "C"`)

	events := []models.Event{
		{EventID: "b", Timestamp: time.Unix(10, 0)},
		{EventID: "B", Timestamp: time.Unix(10, 0)},
		{EventID: "a", Timestamp: time.Unix(10, 0)},
		{EventID: "z", Timestamp: time.Unix(5, 0)},
	}
	sortEvents(events)
	var ids []string
	for _, e := range events {
		ids = append(ids, e.EventID)
	}
	require.Equal(t, []string{"z", "B", "a", "b"}, ids)
}
