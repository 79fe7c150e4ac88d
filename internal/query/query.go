// Package query holds validated query types. Everything here runs before
// the engine: a *Query or *SeriesQuery that exists is already legal.
package query

import (
	"github.com/PratikDhanave/analytics-workspace/internal/catalog"
	"github.com/PratikDhanave/analytics-workspace/internal/segment"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort orders table rows by a requested dimension or metric key.
type Sort struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// TableRequest is the wire shape of a grouped aggregation query.
type TableRequest struct {
	OrgID         string        `json:"orgId,omitempty"`
	DateRange     DateRange     `json:"dateRange"`
	DimensionKeys []string      `json:"dimensionKeys"`
	MetricKeys    []string      `json:"metricKeys"`
	Segment       *segment.Node `json:"segment,omitempty"`
	Sort          *Sort         `json:"sort,omitempty"`
	Limit         int           `json:"limit,omitempty"`
}

// Query is a validated, tenant-scoped table query.
type Query struct {
	TenantID   string
	DateRange  DateRange
	Dimensions []catalog.DimensionKey
	Metrics    []catalog.MetricKey
	Segment    segment.Expr // nil matches every event
	Sort       Sort
	Limit      int

	params TableRequest
}

// Params returns the normalized request the query was built from; equal
// queries have equal params.
func (q *Query) Params() TableRequest {
	return q.params
}

// SortIndex locates the sort key: a dimension index when isDimension is
// true, otherwise a metric index.
func (q *Query) SortIndex() (idx int, isDimension bool) {
	return sortIndex(q.Sort.Key, q.Dimensions, q.Metrics)
}

func sortIndex(key string, dims []catalog.DimensionKey, metrics []catalog.MetricKey) (int, bool) {
	for i, m := range metrics {
		if string(m) == key {
			return i, false
		}
	}
	for i, d := range dims {
		if string(d) == key {
			return i, true
		}
	}
	return -1, false
}

// New validates req for tenantID.
func New(tenantID string, req TableRequest) (*Query, error) {
	if tenantID == "" {
		return nil, invalid("tenantId", "required")
	}
	if err := req.DateRange.validate(); err != nil {
		return nil, err
	}

	q := &Query{TenantID: tenantID, DateRange: req.DateRange}

	seen := map[string]bool{}
	for _, k := range req.DimensionKeys {
		d, ok := catalog.LegacyAliases.TranslateDimension(k)
		if !ok {
			return nil, invalid("dimensionKeys", "unknown dimension %q", k)
		}
		if seen[string(d)] {
			return nil, invalid("dimensionKeys", "duplicate dimension %q", d)
		}
		seen[string(d)] = true
		q.Dimensions = append(q.Dimensions, d)
	}

	if len(req.MetricKeys) == 0 {
		return nil, invalid("metricKeys", "at least one metric is required")
	}
	for _, k := range req.MetricKeys {
		m, ok := catalog.LegacyAliases.TranslateMetric(k)
		if !ok {
			return nil, invalid("metricKeys", "unknown metric %q", k)
		}
		if seen[string(m)] {
			return nil, invalid("metricKeys", "duplicate metric %q", m)
		}
		seen[string(m)] = true
		q.Metrics = append(q.Metrics, m)
	}

	switch {
	case req.Limit == 0:
		q.Limit = DefaultLimit
	case req.Limit < 1 || req.Limit > MaxLimit:
		return nil, invalid("limit", "must be between 1 and %d", MaxLimit)
	default:
		q.Limit = req.Limit
	}

	q.Sort = Sort{Key: string(q.Metrics[0]), Direction: Desc}
	if req.Sort != nil {
		key := req.Sort.Key
		if d, ok := catalog.LegacyAliases.TranslateDimension(key); ok {
			key = string(d)
		} else if m, ok := catalog.LegacyAliases.TranslateMetric(key); ok {
			key = string(m)
		}
		if idx, _ := sortIndex(key, q.Dimensions, q.Metrics); idx < 0 {
			return nil, &ValidationError{Field: "sort.key", Message: "unknown sort key " + req.Sort.Key, Err: ErrUnknownSortKey}
		}
		dir := req.Sort.Direction
		if dir == "" {
			dir = Desc
		}
		if dir != Asc && dir != Desc {
			return nil, invalid("sort.direction", "must be asc or desc")
		}
		q.Sort = Sort{Key: key, Direction: dir}
	}

	if req.Segment != nil {
		expr, err := segment.Compile(*req.Segment)
		if err != nil {
			return nil, wrapInvalid("segment", err)
		}
		q.Segment = expr
	}

	q.params = TableRequest{
		DateRange:     q.DateRange,
		DimensionKeys: dimensionStrings(q.Dimensions),
		MetricKeys:    metricStrings(q.Metrics),
		Segment:       req.Segment,
		Sort:          &Sort{Key: q.Sort.Key, Direction: q.Sort.Direction},
		Limit:         q.Limit,
	}
	return q, nil
}

// Granularity values for series queries.
const (
	GranularityDay  = "day"
	GranularityHour = "hour"
)

// SeriesRequest is the wire shape of a time-bucketed series query.
type SeriesRequest struct {
	OrgID        string        `json:"orgId,omitempty"`
	MetricKey    string        `json:"metricKey"`
	DimensionKey string        `json:"dimensionKey,omitempty"`
	Granularity  string        `json:"granularity"`
	DateRange    DateRange     `json:"dateRange"`
	Segment      *segment.Node `json:"segment,omitempty"`
}

// SeriesQuery is a validated series query.
type SeriesQuery struct {
	TenantID    string
	Metric      catalog.MetricKey
	Dimension   catalog.DimensionKey // empty for a single series
	Granularity catalog.DimensionKey // catalog.Day or catalog.Hour
	DateRange   DateRange
	Segment     segment.Expr

	params SeriesRequest
}

// Params returns the normalized request the query was built from.
func (q *SeriesQuery) Params() SeriesRequest {
	return q.params
}

// NewSeries validates req for tenantID.
func NewSeries(tenantID string, req SeriesRequest) (*SeriesQuery, error) {
	if tenantID == "" {
		return nil, invalid("tenantId", "required")
	}
	if err := req.DateRange.validate(); err != nil {
		return nil, err
	}
	m, ok := catalog.LegacyAliases.TranslateMetric(req.MetricKey)
	if !ok {
		return nil, invalid("metricKey", "unknown metric %q", req.MetricKey)
	}
	q := &SeriesQuery{TenantID: tenantID, Metric: m, DateRange: req.DateRange}

	if req.DimensionKey != "" {
		d, ok := catalog.LegacyAliases.TranslateDimension(req.DimensionKey)
		if !ok {
			return nil, invalid("dimensionKey", "unknown dimension %q", req.DimensionKey)
		}
		q.Dimension = d
	}

	switch req.Granularity {
	case GranularityDay:
		q.Granularity = catalog.Day
	case GranularityHour:
		q.Granularity = catalog.Hour
	default:
		return nil, invalid("granularity", "must be day or hour")
	}

	if req.Segment != nil {
		expr, err := segment.Compile(*req.Segment)
		if err != nil {
			return nil, wrapInvalid("segment", err)
		}
		q.Segment = expr
	}

	q.params = SeriesRequest{
		MetricKey:    string(q.Metric),
		DimensionKey: string(q.Dimension),
		Granularity:  req.Granularity,
		DateRange:    q.DateRange,
		Segment:      req.Segment,
	}
	return q, nil
}

func dimensionStrings(ks []catalog.DimensionKey) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = string(k)
	}
	return out
}

func metricStrings(ks []catalog.MetricKey) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = string(k)
	}
	return out
}
