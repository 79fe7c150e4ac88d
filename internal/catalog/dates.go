package catalog

import (
	"fmt"
	"regexp"
	"time"
)

var (
	dateOnlyRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateTimeRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T`)
)

// dateTimeLayouts are tried in order for values that carry a time part.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// IsDateOnly reports whether s is a bare YYYY-MM-DD date.
func IsDateOnly(s string) bool {
	return dateOnlyRE.MatchString(s)
}

// ParseDate parses a date-only or date-time string as a UTC instant.
// A date-only value is the start of that UTC day, or its last millisecond
// (23:59:59.999) when end is true. Date-times without a zone are UTC.
func ParseDate(s string, end bool) (time.Time, error) {
	if dateOnlyRE.MatchString(s) {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q", s)
		}
		if end {
			return EndOfDay(d), nil
		}
		return d, nil
	}
	if !dateTimeRE.MatchString(s) {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last millisecond of t's UTC day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Millisecond)
}
