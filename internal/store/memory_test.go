package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/analytics-workspace/internal/models"
)

func TestMemoryStoreIdempotentInsert(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	ts := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	e := models.Event{TenantID: "t1", EventID: "e1", EventName: "login", Timestamp: ts}
	n, err := st.InsertEvents(ctx, []models.Event{e, e})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = st.InsertEvents(ctx, []models.Event{e})
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, 1, st.Len("t1"))

	// same id under another tenant is a different event
	other := e
	other.TenantID = "t2"
	n, err = st.InsertEvents(ctx, []models.Event{other})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestMemoryStoreScan(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	_, err := st.InsertEvents(ctx, []models.Event{
		{TenantID: "t1", EventID: "b", EventName: "x", Timestamp: day.Add(time.Hour)},
		{TenantID: "t1", EventID: "a", EventName: "x", Timestamp: day.Add(time.Hour)},
		{TenantID: "t1", EventID: "c", EventName: "x", Timestamp: day},
		{TenantID: "t1", EventID: "B", EventName: "x", Timestamp: day.Add(time.Hour)},
		{TenantID: "t1", EventID: "late", EventName: "x", Timestamp: day.Add(24 * time.Hour)},
		{TenantID: "t2", EventID: "other", EventName: "x", Timestamp: day},
	})
	require.NoError(t, err)

	got, err := st.Scan(ctx, "t1", day, day.Add(24*time.Hour-time.Millisecond))
	require.NoError(t, err)

	var ids []string
	for _, e := range got {
		ids = append(ids, e.EventID)
	}
	require.Equal(t, []string{"c", "B", "a", "b"}, ids)
}
