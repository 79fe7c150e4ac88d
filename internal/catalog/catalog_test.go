package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/analytics-workspace/internal/models"
)

func event(props models.Properties) *models.Event {
	return &models.Event{
		TenantID:   "t1",
		EventID:    "e1",
		EventName:  "purchase",
		Timestamp:  time.Date(2026, 2, 1, 13, 45, 10, 0, time.UTC),
		Properties: props,
	}
}

func TestDeriveDimension(t *testing.T) {
	e := event(models.Properties{"channel": "paid", "brand": nil, "product": json.Number("42")})

	require.Equal(t, "paid", DeriveDimension(e, Channel))
	require.Equal(t, None, DeriveDimension(e, Brand))
	require.Equal(t, "42", DeriveDimension(e, Product))
	require.Equal(t, None, DeriveDimension(e, Campaign))
	require.Equal(t, "purchase", DeriveDimension(e, EventName))
	require.Equal(t, "2026-02-01", DeriveDimension(e, Day))
	require.Equal(t, "2026-02-01T13:00:00Z", DeriveDimension(e, Hour))
	require.Equal(t, None, DeriveDimension(e, DimensionKey("nope")))
}

func TestDeriveDimensionUsesUTC(t *testing.T) {
	e := event(nil)
	e.Timestamp = time.Date(2026, 2, 1, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))
	require.Equal(t, "2026-02-02", DeriveDimension(e, Day))
	require.Equal(t, "2026-02-02T04:00:00Z", DeriveDimension(e, Hour))
}

func TestCoerce(t *testing.T) {
	for _, tc := range []struct {
		in   any
		want string
	}{
		{in: 120.5, want: "120.5"},
		{in: json.Number("19.99"), want: "19.99"},
		{in: "12", want: "12"},
		{in: "-3.25", want: "-3.25"},
		{in: "abc", want: "0"},
		{in: " 5", want: "0"},
		{in: "1e3", want: "0"},
		{in: "5.", want: "0"},
		{in: true, want: "0"},
		{in: nil, want: "0"},
	} {
		require.Equal(t, tc.want, Coerce(tc.in).String(), "input %#v", tc.in)
	}
}

func TestMetricContribution(t *testing.T) {
	e := event(models.Properties{"revenue": "abc", "netDemand": 10.0})
	e.UserID = "u1"

	require.True(t, MetricContribution(e, Revenue).Amount.IsZero())
	require.True(t, MetricContribution(e, NetDemand).Amount.Equal(decimal.NewFromInt(10)))
	require.Equal(t, "u1", MetricContribution(e, Users).UserID)
	require.True(t, MetricContribution(e, Events).Amount.Equal(decimal.NewFromInt(1)))
}

func TestStringify(t *testing.T) {
	s, ok := Stringify(10.0)
	require.True(t, ok)
	require.Equal(t, "10", s)

	s, ok = Stringify(false)
	require.True(t, ok)
	require.Equal(t, "false", s)

	_, ok = Stringify(nil)
	require.False(t, ok)

	_, ok = Stringify(map[string]any{})
	require.False(t, ok)
}

func TestLegacyAliases(t *testing.T) {
	d, ok := LegacyAliases.TranslateDimension("dimension:channel")
	require.True(t, ok)
	require.Equal(t, Channel, d)

	d, ok = LegacyAliases.TranslateDimension("brand")
	require.True(t, ok)
	require.Equal(t, Brand, d)

	_, ok = LegacyAliases.TranslateDimension("dimension:country")
	require.False(t, ok)

	m, ok := LegacyAliases.TranslateMetric("metric:revenue_sum")
	require.True(t, ok)
	require.Equal(t, Revenue, m)

	f, ok := LegacyAliases.TranslateField("properties.revenue")
	require.True(t, ok)
	require.Equal(t, Number, f.Type)

	f, ok = LegacyAliases.TranslateField("properties.country")
	require.True(t, ok)
	require.Equal(t, Text, f.Type)
	require.Equal(t, "country", f.Property)

	_, ok = LegacyAliases.TranslateField("country")
	require.False(t, ok)
}

func TestParseDate(t *testing.T) {
	from, err := ParseDate("2026-02-01", false)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), from)

	to, err := ParseDate("2026-02-01", true)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 2, 1, 23, 59, 59, int(999*time.Millisecond), time.UTC), to)

	ts, err := ParseDate("2026-02-01T10:00:00+02:00", true)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC), ts)

	ts, err = ParseDate("2026-02-01T10:30", false)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC), ts)

	_, err = ParseDate("01/02/2026", false)
	require.Error(t, err)
	_, err = ParseDate("2026-13-01", false)
	require.Error(t, err)
}

func TestFieldTypeOf(t *testing.T) {
	typ, ok := FieldTypeOf("revenue")
	require.True(t, ok)
	require.Equal(t, Number, typ)

	typ, ok = FieldTypeOf("day")
	require.True(t, ok)
	require.Equal(t, Date, typ)

	typ, ok = FieldTypeOf("hour")
	require.True(t, ok)
	require.Equal(t, Date, typ)

	_, ok = FieldTypeOf("unknown")
	require.False(t, ok)
}
