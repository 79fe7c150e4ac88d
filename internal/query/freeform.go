package query

import (
	"github.com/PratikDhanave/analytics-workspace/internal/catalog"
	"github.com/PratikDhanave/analytics-workspace/internal/segment"
)

const (
	freeformDefaultLimit = 50
	freeformMaxLimit     = 500
)

// FreeformRequest is the query shape of the legacy drag-and-drop builder.
// Keys may use the legacy "dimension:"/"metric:" names and segments are
// flat groups of eq/neq/contains rules, all ANDed together.
type FreeformRequest struct {
	OrgID     string            `json:"orgId,omitempty"`
	Rows      []string          `json:"rows"`
	Columns   []string          `json:"columns"`
	Segments  []segment.Node    `json:"segments"`
	DateRange FreeformDateRange `json:"dateRange"`
	Limit     int               `json:"limit,omitempty"`
	Offset    int               `json:"offset,omitempty"`
	Sort      []FreeformSort    `json:"sort"`
}

// FreeformDateRange is {type: preset, value} or {type: custom, from, to}.
type FreeformDateRange struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

// FreeformSort orders by an output column.
type FreeformSort struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// freeformOps are the operators the legacy builder could emit.
var freeformOps = map[segment.Op]bool{segment.Eq: true, segment.Neq: true, segment.Contains: true}

// NewFreeform translates a legacy request into a validated Query. The
// returned offset is applied by the caller to the engine's rows; the query
// limit already covers offset+limit rows.
func NewFreeform(tenantID string, req FreeformRequest) (*Query, int, error) {
	if len(req.Columns) == 0 {
		return nil, 0, invalid("columns", "at least one column is required")
	}
	limit := req.Limit
	if limit == 0 {
		limit = freeformDefaultLimit
	}
	if limit < 1 || limit > freeformMaxLimit {
		return nil, 0, invalid("limit", "must be between 1 and %d", freeformMaxLimit)
	}
	if req.Offset < 0 {
		return nil, 0, invalid("offset", "must not be negative")
	}
	if req.Offset+limit > MaxLimit {
		return nil, 0, invalid("offset", "offset+limit must not exceed %d", MaxLimit)
	}

	table := TableRequest{
		DimensionKeys: req.Rows,
		MetricKeys:    req.Columns,
		Limit:         req.Offset + limit,
	}
	if len(table.DimensionKeys) == 0 {
		table.DimensionKeys = []string{string(catalog.EventName)}
	}

	switch req.DateRange.Type {
	case "preset":
		if req.DateRange.Value != PresetLast7Days && req.DateRange.Value != PresetLast30Days {
			return nil, 0, invalid("dateRange.value", "unknown preset %q", req.DateRange.Value)
		}
		table.DateRange = DateRange{Preset: req.DateRange.Value}
	case "custom":
		if !catalog.IsDateOnly(req.DateRange.From) || !catalog.IsDateOnly(req.DateRange.To) {
			return nil, 0, invalid("dateRange", "custom from and to must be YYYY-MM-DD")
		}
		table.DateRange = DateRange{From: req.DateRange.From, To: req.DateRange.To}
	default:
		return nil, 0, invalid("dateRange.type", "must be preset or custom")
	}

	if len(req.Segments) > 0 {
		for _, g := range req.Segments {
			if g.IsRule() {
				return nil, 0, invalid("segments", "each segment must be a group")
			}
			for _, r := range g.Rules {
				if !r.IsRule() || !freeformOps[segment.Op(firstNonEmpty(r.Operator, r.Op))] {
					return nil, 0, invalid("segments", "rules must be eq, neq or contains comparisons")
				}
			}
		}
		table.Segment = &segment.Node{Op: string(segment.And), Rules: req.Segments}
	}

	if len(req.Sort) > 0 {
		s := req.Sort[0]
		key := s.Column
		if key == "dimension" {
			key = table.DimensionKeys[0]
		}
		table.Sort = &Sort{Key: key, Direction: s.Direction}
	}

	q, err := New(tenantID, table)
	if err != nil {
		return nil, 0, err
	}
	return q, req.Offset, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
