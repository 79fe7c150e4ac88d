package catalog

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/PratikDhanave/analytics-workspace/internal/models"
)

// NumericPattern is the guard a stored text value must pass before it is
// read as a number. The compiled strategy embeds the same pattern in SQL.
const NumericPattern = `^-?[0-9]+(\.[0-9]+)?$`

var numericRE = regexp.MustCompile(NumericPattern)

// DeriveDimension reads the value of a dimension from an event.
// It never fails: an unknown key or absent source yields None.
func DeriveDimension(e *models.Event, k DimensionKey) string {
	f, ok := dimensions[k]
	if !ok {
		return None
	}
	switch f.Source {
	case SourceEventName:
		return e.EventName
	case SourceDay:
		return FormatDay(e.Timestamp)
	case SourceHour:
		return FormatHour(e.Timestamp)
	case SourceUserID:
		if e.UserID == "" {
			return None
		}
		return e.UserID
	default:
		s, ok := Stringify(e.Properties[f.Property])
		if !ok {
			return None
		}
		return s
	}
}

// TextValue reads a field as text, yielding "" when absent.
func TextValue(e *models.Event, f Field) string {
	switch f.Source {
	case SourceEventName:
		return e.EventName
	case SourceUserID:
		return e.UserID
	case SourceDay:
		return FormatDay(e.Timestamp)
	case SourceHour:
		return FormatHour(e.Timestamp)
	default:
		s, _ := Stringify(e.Properties[f.Property])
		return s
	}
}

// NumberValue reads a field as a number; anything non-numeric reads as zero.
func NumberValue(e *models.Event, f Field) decimal.Decimal {
	if f.Source != SourceProperty {
		return Coerce(TextValue(e, f))
	}
	return Coerce(e.Properties[f.Property])
}

// Contribution is one event's input to a metric accumulator.
type Contribution struct {
	UserID string
	Amount decimal.Decimal
}

// MetricContribution returns what e adds to metric k before aggregation.
// Count metrics ignore the amount; distinct-user metrics use UserID.
func MetricContribution(e *models.Event, k MetricKey) Contribution {
	m, ok := metrics[k]
	if !ok {
		return Contribution{}
	}
	switch m.Aggregation {
	case CountDistinctUsers:
		return Contribution{UserID: e.UserID}
	case Sum:
		return Contribution{Amount: Coerce(e.Properties[m.Property])}
	default:
		return Contribution{Amount: decimal.NewFromInt(1)}
	}
}

// Stringify renders a property value the way the relational store renders
// a JSON scalar as text. ok is false for absent or null values.
func Stringify(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

// Coerce converts a property value to a number. JSON numbers are used as
// is; strings must match NumericPattern; everything else is zero.
func Coerce(v any) decimal.Decimal {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(x)
	case float32:
		return Coerce(float64(x))
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		if !numericRE.MatchString(x) {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(x)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// IsNumeric reports whether s passes the numeric guard.
func IsNumeric(s string) bool {
	return numericRE.MatchString(s)
}
