package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/PratikDhanave/analytics-workspace/internal/catalog"
	"github.com/PratikDhanave/analytics-workspace/internal/models"
	"github.com/PratikDhanave/analytics-workspace/internal/query"
	"github.com/PratikDhanave/analytics-workspace/internal/segment"
)

// Scanner hands the engine every event of a tenant in [from, to], ordered by
// timestamp then event id. The engine filters, groups and aggregates.
type Scanner interface {
	Scan(ctx context.Context, tenantID string, from, to time.Time) ([]models.Event, error)
}

// Aggregator evaluates a plan inside the backing store and returns grouped
// rows plus totals over the same filtered population.
type Aggregator interface {
	Aggregate(ctx context.Context, p *Plan) (*Partial, error)
	AggregateSeries(ctx context.Context, p *SeriesPlan) ([]SeriesRow, error)
}

// Plan is a query with its date range resolved.
type Plan struct {
	TenantID   string
	From, To   time.Time
	Dimensions []catalog.DimensionKey
	Metrics    []catalog.MetricKey
	Segment    segment.Expr
	Sort       query.Sort
	Limit      int
}

// Group is one dimension tuple with its metric values, parallel to
// Plan.Dimensions and Plan.Metrics.
type Group struct {
	Dimensions []string
	Metrics    []decimal.Decimal
}

// Partial is what a strategy returns before the engine sorts and truncates.
// Totals cover every filtered event, never just the returned groups.
type Partial struct {
	Groups []Group
	Totals []decimal.Decimal
}

// SeriesPlan is a series query with its date range resolved.
type SeriesPlan struct {
	TenantID    string
	From, To    time.Time
	Metric      catalog.MetricKey
	Dimension   catalog.DimensionKey
	Granularity catalog.DimensionKey
	Segment     segment.Expr
}

// SeriesRow is one (bucket, dimension) value. Dimension is empty when the
// plan has no dimension.
type SeriesRow struct {
	Bucket    string
	Dimension string
	Value     decimal.Decimal
}
