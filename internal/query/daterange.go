package query

import (
	"time"

	"github.com/PratikDhanave/analytics-workspace/internal/catalog"
)

// Date range presets, resolved against the clock when a query runs.
const (
	PresetToday      = "today"
	PresetYesterday  = "yesterday"
	PresetLast7Days  = "last_7_days"
	PresetLast30Days = "last_30_days"
	PresetLast90Days = "last_90_days"
)

// presetDays is the number of whole UTC days ending today (offset 0) or
// yesterday (offset 1) covered by each preset.
var presetDays = map[string]struct{ days, offset int }{
	PresetToday:      {1, 0},
	PresetYesterday:  {1, 1},
	PresetLast7Days:  {7, 0},
	PresetLast30Days: {30, 0},
	PresetLast90Days: {90, 0},
}

// DateRange is either a named preset or an explicit from/to pair.
type DateRange struct {
	Preset string `json:"preset,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

func (d DateRange) validate() error {
	if d.Preset != "" {
		if _, ok := presetDays[d.Preset]; !ok {
			return invalid("dateRange.preset", "unknown preset %q", d.Preset)
		}
		return nil
	}
	if d.From == "" || d.To == "" {
		return invalid("dateRange", "either preset or both from and to are required")
	}
	from, err := catalog.ParseDate(d.From, false)
	if err != nil {
		return invalid("dateRange.from", "%v", err)
	}
	to, err := catalog.ParseDate(d.To, true)
	if err != nil {
		return invalid("dateRange.to", "%v", err)
	}
	if to.Before(from) {
		return invalid("dateRange", "from must not be after to")
	}
	return nil
}

// Resolve returns the inclusive UTC [from, to] instants of the range.
// Bare dates widen to whole days: from at 00:00:00.000, to at 23:59:59.999.
func (d DateRange) Resolve(now time.Time) (time.Time, time.Time, error) {
	if d.Preset != "" {
		p, ok := presetDays[d.Preset]
		if !ok {
			return time.Time{}, time.Time{}, invalid("dateRange.preset", "unknown preset %q", d.Preset)
		}
		last := catalog.StartOfDay(now).AddDate(0, 0, -p.offset)
		first := last.AddDate(0, 0, -(p.days - 1))
		return first, catalog.EndOfDay(last), nil
	}
	from, err := catalog.ParseDate(d.From, false)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("dateRange.from", "%v", err)
	}
	to, err := catalog.ParseDate(d.To, true)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("dateRange.to", "%v", err)
	}
	return from, to, nil
}
