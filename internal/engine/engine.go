// Package engine runs grouped aggregations over a tenant's events.
//
// One Engine owns resolution of the date range, sorting, truncation and the
// shape of the result. Where filtered groups come from is decided once, at
// construction: NewScan aggregates events materialized by a Scanner in
// process, NewCompiled pushes the plan down to an Aggregator.
package engine

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/PratikDhanave/analytics-workspace/internal/query"
)

// Strategy names.
const (
	StrategyScan     = "scan"
	StrategyCompiled = "compiled"
)

type strategy interface {
	name() string
	table(ctx context.Context, p *Plan) (*Partial, error)
	series(ctx context.Context, p *SeriesPlan) ([]SeriesRow, error)
}

type scanStrategy struct{ src Scanner }

func (scanStrategy) name() string { return StrategyScan }

func (s scanStrategy) table(ctx context.Context, p *Plan) (*Partial, error) {
	events, err := s.src.Scan(ctx, p.TenantID, p.From, p.To)
	if err != nil {
		return nil, err
	}
	return aggregate(events, p), nil
}

func (s scanStrategy) series(ctx context.Context, p *SeriesPlan) ([]SeriesRow, error) {
	events, err := s.src.Scan(ctx, p.TenantID, p.From, p.To)
	if err != nil {
		return nil, err
	}
	return aggregateSeries(events, p), nil
}

type compiledStrategy struct{ src Aggregator }

func (compiledStrategy) name() string { return StrategyCompiled }

func (c compiledStrategy) table(ctx context.Context, p *Plan) (*Partial, error) {
	return c.src.Aggregate(ctx, p)
}

func (c compiledStrategy) series(ctx context.Context, p *SeriesPlan) ([]SeriesRow, error) {
	return c.src.AggregateSeries(ctx, p)
}

// Engine executes validated queries. It holds no mutable state; every call
// allocates its own buckets.
type Engine struct {
	strategy strategy
	now      func() time.Time
	log      logrus.FieldLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to resolve date presets.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// NewScan returns an engine that aggregates scanned events in process.
func NewScan(s Scanner, opts ...Option) *Engine {
	return newEngine(scanStrategy{src: s}, opts)
}

// NewCompiled returns an engine that pushes aggregation into the store.
func NewCompiled(a Aggregator, opts ...Option) *Engine {
	return newEngine(compiledStrategy{src: a}, opts)
}

func newEngine(s strategy, opts []Option) *Engine {
	e := &Engine{strategy: s, now: time.Now, log: logrus.StandardLogger()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Strategy reports which execution strategy the engine was built with.
func (e *Engine) Strategy() string {
	return e.strategy.name()
}

// Result is the table output: one row per dimension tuple, keyed by the
// requested keys, plus totals over the whole filtered population.
type Result struct {
	Columns []string           `json:"columns"`
	Rows    []map[string]any   `json:"rows"`
	Totals  map[string]float64 `json:"totals"`
}

// Run executes a table query.
func (e *Engine) Run(ctx context.Context, q *query.Query) (*Result, error) {
	from, to, err := q.DateRange.Resolve(e.now())
	if err != nil {
		return nil, err
	}
	p := &Plan{
		TenantID:   q.TenantID,
		From:       from,
		To:         to,
		Dimensions: q.Dimensions,
		Metrics:    q.Metrics,
		Segment:    q.Segment,
		Sort:       q.Sort,
		Limit:      q.Limit,
	}

	started := time.Now()
	partial, err := e.strategy.table(ctx, p)
	if err != nil {
		return nil, err
	}

	groups := partial.Groups
	sortGroups(groups, q)
	if len(groups) > q.Limit {
		groups = groups[:q.Limit]
	}

	res := &Result{
		Columns: make([]string, 0, len(q.Dimensions)+len(q.Metrics)),
		Rows:    make([]map[string]any, 0, len(groups)),
		Totals:  make(map[string]float64, len(q.Metrics)),
	}
	for _, d := range q.Dimensions {
		res.Columns = append(res.Columns, string(d))
	}
	for _, m := range q.Metrics {
		res.Columns = append(res.Columns, string(m))
	}
	for _, g := range groups {
		row := make(map[string]any, len(res.Columns))
		for i, d := range q.Dimensions {
			row[string(d)] = g.Dimensions[i]
		}
		for i, m := range q.Metrics {
			row[string(m)] = g.Metrics[i].InexactFloat64()
		}
		res.Rows = append(res.Rows, row)
	}
	for i, m := range q.Metrics {
		var v decimal.Decimal
		if i < len(partial.Totals) {
			v = partial.Totals[i]
		}
		res.Totals[string(m)] = v.InexactFloat64()
	}

	e.log.WithFields(logrus.Fields{
		"strategy": e.strategy.name(),
		"tenant":   q.TenantID,
		"groups":   len(partial.Groups),
		"rows":     len(res.Rows),
		"took":     time.Since(started),
	}).Debug("table query executed")
	return res, nil
}

// sortGroups orders groups by the query's sort key. Metrics compare
// numerically and dimensions byte-wise; equal keys keep their input order.
func sortGroups(groups []Group, q *query.Query) {
	idx, isDimension := q.SortIndex()
	if idx < 0 {
		return
	}
	desc := q.Sort.Direction != query.Asc
	sort.SliceStable(groups, func(i, j int) bool {
		var c int
		if isDimension {
			c = strings.Compare(groups[i].Dimensions[idx], groups[j].Dimensions[idx])
		} else {
			c = groups[i].Metrics[idx].Cmp(groups[j].Metrics[idx])
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// SeriesPoint is one bucket of a series result.
type SeriesPoint struct {
	Bucket    string  `json:"bucket"`
	Dimension *string `json:"dimension,omitempty"`
	Value     float64 `json:"value"`
}

// SeriesResult is the time-bucketed output, ascending by bucket.
type SeriesResult struct {
	Series []SeriesPoint `json:"series"`
}

// Series executes a series query.
func (e *Engine) Series(ctx context.Context, q *query.SeriesQuery) (*SeriesResult, error) {
	from, to, err := q.DateRange.Resolve(e.now())
	if err != nil {
		return nil, err
	}
	p := &SeriesPlan{
		TenantID:    q.TenantID,
		From:        from,
		To:          to,
		Metric:      q.Metric,
		Dimension:   q.Dimension,
		Granularity: q.Granularity,
		Segment:     q.Segment,
	}

	started := time.Now()
	rows, err := e.strategy.series(ctx, p)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Bucket != rows[j].Bucket {
			return rows[i].Bucket < rows[j].Bucket
		}
		return rows[i].Dimension < rows[j].Dimension
	})

	res := &SeriesResult{Series: make([]SeriesPoint, 0, len(rows))}
	for _, r := range rows {
		pt := SeriesPoint{Bucket: r.Bucket, Value: r.Value.InexactFloat64()}
		if q.Dimension != "" {
			dim := r.Dimension
			pt.Dimension = &dim
		}
		res.Series = append(res.Series, pt)
	}

	e.log.WithFields(logrus.Fields{
		"strategy": e.strategy.name(),
		"tenant":   q.TenantID,
		"points":   len(res.Series),
		"took":     time.Since(started),
	}).Debug("series query executed")
	return res, nil
}
