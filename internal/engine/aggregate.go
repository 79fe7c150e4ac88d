package engine

import (
	"github.com/shopspring/decimal"

	"github.com/PratikDhanave/analytics-workspace/internal/catalog"
	"github.com/PratikDhanave/analytics-workspace/internal/models"
)

// accumulator folds events into one metric value.
type accumulator struct {
	metric catalog.Metric
	count  int64
	users  map[string]struct{}
	sum    decimal.Decimal
}

func newAccumulators(keys []catalog.MetricKey) []*accumulator {
	accs := make([]*accumulator, len(keys))
	for i, k := range keys {
		m, _ := catalog.MetricDef(k)
		accs[i] = &accumulator{metric: m}
		if m.Aggregation == catalog.CountDistinctUsers {
			accs[i].users = map[string]struct{}{}
		}
	}
	return accs
}

func (a *accumulator) add(e *models.Event) {
	c := catalog.MetricContribution(e, a.metric.Key)
	switch a.metric.Aggregation {
	case catalog.CountDistinctUsers:
		if c.UserID != "" {
			a.users[c.UserID] = struct{}{}
		}
	case catalog.Sum:
		a.sum = a.sum.Add(c.Amount)
	default:
		a.count++
	}
}

func (a *accumulator) value() decimal.Decimal {
	switch a.metric.Aggregation {
	case catalog.CountDistinctUsers:
		return decimal.NewFromInt(int64(len(a.users)))
	case catalog.Sum:
		return a.sum
	default:
		return decimal.NewFromInt(a.count)
	}
}

func values(accs []*accumulator) []decimal.Decimal {
	out := make([]decimal.Decimal, len(accs))
	for i, a := range accs {
		out[i] = a.value()
	}
	return out
}

// bucket accumulates one dimension tuple.
type bucket struct {
	dims []string
	accs []*accumulator
}

// bucketIndex maps an ordered tuple of derived values to its bucket through
// one map level per dimension, so no value can collide with another tuple.
type bucketIndex struct {
	children map[string]*bucketIndex
	bucket   *bucket
}

func (n *bucketIndex) lookup(tuple []string) **bucket {
	for _, v := range tuple {
		if n.children == nil {
			n.children = map[string]*bucketIndex{}
		}
		next, ok := n.children[v]
		if !ok {
			next = &bucketIndex{}
			n.children[v] = next
		}
		n = next
	}
	return &n.bucket
}

// grouper buckets events in discovery order.
type grouper struct {
	metrics []catalog.MetricKey
	index   bucketIndex
	order   []*bucket
}

func (g *grouper) add(tuple []string, e *models.Event) {
	slot := g.index.lookup(tuple)
	if *slot == nil {
		*slot = &bucket{dims: tuple, accs: newAccumulators(g.metrics)}
		g.order = append(g.order, *slot)
	}
	for _, a := range (*slot).accs {
		a.add(e)
	}
}

// aggregate is the in-process evaluation of a plan over scanned events.
func aggregate(events []models.Event, p *Plan) *Partial {
	g := &grouper{metrics: p.Metrics}
	totals := newAccumulators(p.Metrics)

	for i := range events {
		e := &events[i]
		if p.Segment != nil && !p.Segment.Matches(e) {
			continue
		}
		tuple := make([]string, len(p.Dimensions))
		for j, d := range p.Dimensions {
			tuple[j] = catalog.DeriveDimension(e, d)
		}
		g.add(tuple, e)
		for _, a := range totals {
			a.add(e)
		}
	}

	out := &Partial{Groups: make([]Group, 0, len(g.order)), Totals: values(totals)}
	for _, b := range g.order {
		out.Groups = append(out.Groups, Group{Dimensions: b.dims, Metrics: values(b.accs)})
	}
	return out
}

// aggregateSeries buckets scanned events by time bucket and dimension.
func aggregateSeries(events []models.Event, p *SeriesPlan) []SeriesRow {
	g := &grouper{metrics: []catalog.MetricKey{p.Metric}}
	for i := range events {
		e := &events[i]
		if p.Segment != nil && !p.Segment.Matches(e) {
			continue
		}
		tuple := []string{catalog.DeriveDimension(e, p.Granularity)}
		if p.Dimension != "" {
			tuple = append(tuple, catalog.DeriveDimension(e, p.Dimension))
		}
		g.add(tuple, e)
	}

	rows := make([]SeriesRow, 0, len(g.order))
	for _, b := range g.order {
		r := SeriesRow{Bucket: b.dims[0], Value: b.accs[0].value()}
		if len(b.dims) > 1 {
			r.Dimension = b.dims[1]
		}
		rows = append(rows, r)
	}
	return rows
}
