// Package sqlgen lowers engine plans into parameterized Postgres statements
// over the events table. Every expression is derived from the catalog, so
// the compiled strategy reads the same properties as the in-process one.
package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PratikDhanave/analytics-workspace/internal/catalog"
	"github.com/PratikDhanave/analytics-workspace/internal/engine"
	"github.com/PratikDhanave/analytics-workspace/internal/query"
)

// Statement is SQL text with its positional arguments.
type Statement struct {
	SQL  string
	Args []any
}

// TablePlan holds the two statements of a table query. Both carry the same
// WHERE text and the same leading arguments.
type TablePlan struct {
	Rows   Statement
	Totals Statement
}

type builder struct {
	args []any
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// Table compiles a table plan.
func Table(p *engine.Plan) (*TablePlan, error) {
	b := &builder{}
	where, err := b.where(p.TenantID, p.From, p.To, p.Segment)
	if err != nil {
		return nil, err
	}
	whereArgs := len(b.args)

	var selects, groupBy, dimExprs []string
	for i, d := range p.Dimensions {
		expr, err := dimensionExpr(d)
		if err != nil {
			return nil, err
		}
		dimExprs = append(dimExprs, expr)
		selects = append(selects, fmt.Sprintf(`%s AS "d%d"`, expr, i))
		groupBy = append(groupBy, strconv.Itoa(i+1))
	}
	var metricSelects, metricExprs []string
	for i, m := range p.Metrics {
		expr, err := metricExpr(m)
		if err != nil {
			return nil, err
		}
		metricExprs = append(metricExprs, expr)
		metricSelects = append(metricSelects, fmt.Sprintf(`(%s)::text AS "m%d"`, expr, i))
	}
	selects = append(selects, metricSelects...)

	order, err := orderBy(p, dimExprs, metricExprs)
	if err != nil {
		return nil, err
	}

	var rows strings.Builder
	rows.WriteString("SELECT ")
	rows.WriteString(strings.Join(selects, ", "))
	rows.WriteString("\nFROM events\nWHERE ")
	rows.WriteString(where)
	if len(groupBy) > 0 {
		rows.WriteString("\nGROUP BY ")
		rows.WriteString(strings.Join(groupBy, ", "))
	} else {
		// a dimensionless aggregate over no events still yields no rows
		rows.WriteString("\nHAVING COUNT(*) > 0")
	}
	rows.WriteString("\nORDER BY ")
	rows.WriteString(order)
	rows.WriteString("\nLIMIT ")
	rows.WriteString(b.arg(p.Limit))

	totals := "SELECT " + strings.Join(metricSelects, ", ") + "\nFROM events\nWHERE " + where

	return &TablePlan{
		Rows:   Statement{SQL: rows.String(), Args: b.args},
		Totals: Statement{SQL: totals, Args: b.args[:whereArgs:whereArgs]},
	}, nil
}

// Series compiles a series plan. Columns are bucket, dimension, value.
func Series(p *engine.SeriesPlan) (Statement, error) {
	b := &builder{}
	where, err := b.where(p.TenantID, p.From, p.To, p.Segment)
	if err != nil {
		return Statement{}, err
	}
	bucket, err := dimensionExpr(p.Granularity)
	if err != nil {
		return Statement{}, err
	}
	dim := "''::text"
	if p.Dimension != "" {
		if dim, err = dimensionExpr(p.Dimension); err != nil {
			return Statement{}, err
		}
	}
	metric, err := metricExpr(p.Metric)
	if err != nil {
		return Statement{}, err
	}

	sql := fmt.Sprintf(`SELECT %s AS "bucket", %s AS "dimension", (%s)::text AS "value"
FROM events
WHERE %s
GROUP BY 1, 2
ORDER BY 1 ASC, 2 ASC`, bucket, dim, metric, where)
	return Statement{SQL: sql, Args: b.args}, nil
}

func orderBy(p *engine.Plan, dimExprs, metricExprs []string) (string, error) {
	dir := "DESC"
	if p.Sort.Direction == query.Asc {
		dir = "ASC"
	}
	var first string
	for i, m := range p.Metrics {
		if string(m) == p.Sort.Key {
			first = metricExprs[i] + " " + dir
		}
	}
	for i, d := range p.Dimensions {
		if first == "" && string(d) == p.Sort.Key {
			first = dimExprs[i] + ` COLLATE "C" ` + dir
		}
	}
	if first == "" {
		return "", fmt.Errorf("invalid sort key: %s", p.Sort.Key)
	}
	// ties fall back to discovery order: earliest event first
	parts := []string{first, "MIN(ts) ASC"}
	for _, e := range dimExprs {
		parts = append(parts, e+` COLLATE "C" ASC`)
	}
	return strings.Join(parts, ", "), nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func propertyText(prop string) string {
	return "(properties->>" + quote(prop) + ")"
}

func safeNumber(prop string) string {
	v := propertyText(prop)
	return fmt.Sprintf("CASE WHEN %s ~ %s THEN %s::numeric ELSE 0 END", v, quote(catalog.NumericPattern), v)
}

func dimensionExpr(k catalog.DimensionKey) (string, error) {
	f, ok := catalog.DimensionField(k)
	if !ok {
		return "", fmt.Errorf("unsupported dimension: %s", k)
	}
	switch f.Source {
	case catalog.SourceEventName:
		return "COALESCE(event_name, " + quote(catalog.None) + ")", nil
	case catalog.SourceDay:
		return `to_char(date_trunc('day', ts AT TIME ZONE 'UTC'), 'YYYY-MM-DD')`, nil
	case catalog.SourceHour:
		return `to_char(date_trunc('hour', ts AT TIME ZONE 'UTC'), 'YYYY-MM-DD"T"HH24:00:00"Z"')`, nil
	case catalog.SourceProperty:
		return "COALESCE(" + propertyText(f.Property) + ", " + quote(catalog.None) + ")", nil
	}
	return "", fmt.Errorf("unsupported dimension: %s", k)
}

func metricExpr(k catalog.MetricKey) (string, error) {
	m, ok := catalog.MetricDef(k)
	if !ok {
		return "", fmt.Errorf("unsupported metric: %s", k)
	}
	switch m.Aggregation {
	case catalog.Count:
		return "COUNT(*)", nil
	case catalog.CountDistinctUsers:
		return "COUNT(DISTINCT user_id)", nil
	default:
		return "COALESCE(SUM(" + safeNumber(m.Property) + "), 0)", nil
	}
}
