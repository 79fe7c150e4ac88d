package query

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/analytics-workspace/internal/catalog"
	"github.com/PratikDhanave/analytics-workspace/internal/segment"
)

var feb1 = DateRange{From: "2026-02-01", To: "2026-02-01"}

func TestNewDefaults(t *testing.T) {
	q, err := New("t1", TableRequest{
		DateRange:     feb1,
		DimensionKeys: []string{"channel"},
		MetricKeys:    []string{"revenue", "events"},
	})
	require.NoError(t, err)
	require.Equal(t, DefaultLimit, q.Limit)
	require.Equal(t, Sort{Key: "revenue", Direction: Desc}, q.Sort)
	require.Nil(t, q.Segment)

	idx, isDim := q.SortIndex()
	require.Equal(t, 0, idx)
	require.False(t, isDim)
}

func TestNewTranslatesLegacyKeys(t *testing.T) {
	q, err := New("t1", TableRequest{
		DateRange:     feb1,
		DimensionKeys: []string{"dimension:channel"},
		MetricKeys:    []string{"metric:event_count"},
		Sort:          &Sort{Key: "dimension:channel", Direction: Asc},
	})
	require.NoError(t, err)
	require.Equal(t, []catalog.DimensionKey{catalog.Channel}, q.Dimensions)
	require.Equal(t, []catalog.MetricKey{catalog.Events}, q.Metrics)
	require.Equal(t, Sort{Key: "channel", Direction: Asc}, q.Sort)

	// params carry current keys only
	require.Equal(t, []string{"channel"}, q.Params().DimensionKeys)
	require.Equal(t, []string{"events"}, q.Params().MetricKeys)
}

func TestNewUnknownSortKey(t *testing.T) {
	_, err := New("t1", TableRequest{
		DateRange:  feb1,
		MetricKeys: []string{"events"},
		Sort:       &Sort{Key: "brand"},
	})
	require.ErrorIs(t, err, ErrUnknownSortKey)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "sort.key", verr.Field)
}

func TestNewValidation(t *testing.T) {
	base := func() TableRequest {
		return TableRequest{DateRange: feb1, MetricKeys: []string{"events"}}
	}
	for name, mutate := range map[string]func(*TableRequest){
		"no metrics":         func(r *TableRequest) { r.MetricKeys = nil },
		"unknown metric":     func(r *TableRequest) { r.MetricKeys = []string{"sessions"} },
		"unknown dimension":  func(r *TableRequest) { r.DimensionKeys = []string{"country"} },
		"duplicate metric":   func(r *TableRequest) { r.MetricKeys = []string{"events", "metric:event_count"} },
		"limit too large":    func(r *TableRequest) { r.Limit = MaxLimit + 1 },
		"negative limit":     func(r *TableRequest) { r.Limit = -1 },
		"bad direction":      func(r *TableRequest) { r.Sort = &Sort{Key: "events", Direction: "up"} },
		"unknown preset":     func(r *TableRequest) { r.DateRange = DateRange{Preset: "last_year"} },
		"missing to":         func(r *TableRequest) { r.DateRange = DateRange{From: "2026-02-01"} },
		"malformed date":     func(r *TableRequest) { r.DateRange = DateRange{From: "Feb 1", To: "2026-02-02"} },
		"inverted range":     func(r *TableRequest) { r.DateRange = DateRange{From: "2026-02-02", To: "2026-02-01"} },
		"bad segment":        func(r *TableRequest) { r.Segment = &segment.Node{Op: "AND"} },
		"segment type error": func(r *TableRequest) { r.Segment = &segment.Node{Field: "revenue", Operator: "contains", Value: "1"} },
	} {
		t.Run(name, func(t *testing.T) {
			req := base()
			mutate(&req)
			_, err := New("t1", req)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
		})
	}
}

func TestSegmentErrorKeepsCause(t *testing.T) {
	_, err := New("t1", TableRequest{
		DateRange:  feb1,
		MetricKeys: []string{"events"},
		Segment:    &segment.Node{Field: "channel", Operator: "in", Value: []any{}},
	})
	require.ErrorIs(t, err, segment.ErrEmptyIn)
}

func TestResolveDateOnly(t *testing.T) {
	from, to, err := feb1.Resolve(time.Now())
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), from)
	require.Equal(t, time.Date(2026, 2, 1, 23, 59, 59, int(999*time.Millisecond), time.UTC), to)

	inside := time.Date(2026, 2, 1, 23, 59, 59, 0, time.UTC)
	outside := time.Date(2026, 2, 2, 0, 0, 0, int(time.Millisecond), time.UTC)
	require.False(t, inside.After(to))
	require.True(t, outside.After(to))
}

func TestResolvePresets(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 4, 5, 0, time.UTC)
	endOfToday := time.Date(2026, 3, 10, 23, 59, 59, int(999*time.Millisecond), time.UTC)

	for preset, want := range map[string][2]time.Time{
		PresetToday:      {time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), endOfToday},
		PresetYesterday:  {time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 9, 23, 59, 59, int(999*time.Millisecond), time.UTC)},
		PresetLast7Days:  {time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), endOfToday},
		PresetLast30Days: {time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC), endOfToday},
		PresetLast90Days: {time.Date(2025, 12, 11, 0, 0, 0, 0, time.UTC), endOfToday},
	} {
		from, to, err := DateRange{Preset: preset}.Resolve(now)
		require.NoError(t, err, preset)
		require.Equal(t, want[0], from, preset)
		require.Equal(t, want[1], to, preset)
	}
}

func TestNewSeries(t *testing.T) {
	q, err := NewSeries("t1", SeriesRequest{
		MetricKey:    "metric:revenue_sum",
		DimensionKey: "channel",
		Granularity:  GranularityHour,
		DateRange:    feb1,
	})
	require.NoError(t, err)
	require.Equal(t, catalog.Revenue, q.Metric)
	require.Equal(t, catalog.Channel, q.Dimension)
	require.Equal(t, catalog.Hour, q.Granularity)
	require.Equal(t, "revenue", q.Params().MetricKey)

	_, err = NewSeries("t1", SeriesRequest{MetricKey: "events", Granularity: "week", DateRange: feb1})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "granularity", verr.Field)
}

func TestNewFreeform(t *testing.T) {
	q, offset, err := NewFreeform("t1", FreeformRequest{
		Rows:    []string{"dimension:channel"},
		Columns: []string{"metric:event_count", "metric:revenue_sum"},
		Segments: []segment.Node{
			{Op: "OR", Rules: []segment.Node{
				{Field: "properties.channel", Operator: "eq", Value: "Email"},
				{Field: "properties.channel", Operator: "contains", Value: "search"},
			}},
		},
		DateRange: FreeformDateRange{Type: "custom", From: "2026-02-01", To: "2026-02-07"},
		Limit:     10,
		Offset:    5,
		Sort:      []FreeformSort{{Column: "dimension", Direction: Asc}},
	})
	require.NoError(t, err)
	require.Equal(t, 5, offset)
	require.Equal(t, 15, q.Limit)
	require.Equal(t, Sort{Key: "channel", Direction: Asc}, q.Sort)
	require.NotNil(t, q.Segment)
	require.Equal(t, []catalog.MetricKey{catalog.Events, catalog.Revenue}, q.Metrics)
}

func TestNewFreeformDefaults(t *testing.T) {
	q, offset, err := NewFreeform("t1", FreeformRequest{
		Columns:   []string{"events"},
		DateRange: FreeformDateRange{Type: "preset", Value: PresetLast7Days},
	})
	require.NoError(t, err)
	require.Zero(t, offset)
	require.Equal(t, 50, q.Limit)
	require.Equal(t, []catalog.DimensionKey{catalog.EventName}, q.Dimensions)
}

func TestNewFreeformRejects(t *testing.T) {
	for name, req := range map[string]FreeformRequest{
		"no columns":     {DateRange: FreeformDateRange{Type: "preset", Value: PresetLast7Days}},
		"preset":         {Columns: []string{"events"}, DateRange: FreeformDateRange{Type: "preset", Value: PresetToday}},
		"custom time":    {Columns: []string{"events"}, DateRange: FreeformDateRange{Type: "custom", From: "2026-02-01T00:00:00Z", To: "2026-02-02"}},
		"gt operator":    {Columns: []string{"events"}, DateRange: FreeformDateRange{Type: "preset", Value: PresetLast7Days}, Segments: []segment.Node{{Op: "AND", Rules: []segment.Node{{Field: "revenue", Operator: "gt", Value: 1}}}}},
		"bare rule":      {Columns: []string{"events"}, DateRange: FreeformDateRange{Type: "preset", Value: PresetLast7Days}, Segments: []segment.Node{{Field: "channel", Operator: "eq", Value: "x"}}},
		"limit too high": {Columns: []string{"events"}, DateRange: FreeformDateRange{Type: "preset", Value: PresetLast7Days}, Limit: 501},
		"page too deep":  {Columns: []string{"events"}, DateRange: FreeformDateRange{Type: "preset", Value: PresetLast7Days}, Limit: 500, Offset: 600},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := NewFreeform("t1", req)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
		})
	}
}
