package sqlgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/PratikDhanave/analytics-workspace/internal/catalog"
	"github.com/PratikDhanave/analytics-workspace/internal/segment"
)

func (b *builder) where(tenantID string, from, to time.Time, seg segment.Expr) (string, error) {
	preds := []string{
		"tenant_id = " + b.arg(tenantID),
		"ts >= " + b.arg(from),
		"ts <= " + b.arg(to),
	}
	if seg != nil {
		s, err := b.expr(seg)
		if err != nil {
			return "", err
		}
		preds = append(preds, s)
	}
	return strings.Join(preds, " AND "), nil
}

func (b *builder) expr(e segment.Expr) (string, error) {
	switch x := e.(type) {
	case *segment.Group:
		joiner := " OR "
		if x.Logic == segment.And {
			joiner = " AND "
		}
		parts := make([]string, 0, len(x.Children))
		for _, c := range x.Children {
			s, err := b.expr(c)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return "(" + strings.Join(parts, joiner) + ")", nil
	case *segment.Rule:
		return b.rule(x)
	}
	return "", fmt.Errorf("unsupported segment node %T", e)
}

var comparators = map[segment.Op]string{
	segment.Eq:  "=",
	segment.Neq: "<>",
	segment.Gt:  ">",
	segment.Gte: ">=",
	segment.Lt:  "<",
	segment.Lte: "<=",
}

func (b *builder) rule(r *segment.Rule) (string, error) {
	switch r.Field.Type {
	case catalog.Number:
		field := safeNumber(r.Field.Property)
		if r.Op == segment.In {
			return field + " IN (" + b.list(len(r.Nums), func(i int) string { return b.arg(r.Nums[i].String()) + "::numeric" }) + ")", nil
		}
		cmp, ok := comparators[r.Op]
		if !ok {
			return "", fmt.Errorf("operator %q is not valid for numeric field %q", r.Op, r.Field.Name)
		}
		return fmt.Sprintf("%s %s %s::numeric", field, cmp, b.arg(r.Num.String())), nil

	case catalog.Date:
		field := "(ts AT TIME ZONE 'UTC')::date"
		if r.Op == segment.In {
			return field + " IN (" + b.list(len(r.Days), func(i int) string { return b.arg(r.Days[i]) + "::date" }) + ")", nil
		}
		cmp, ok := comparators[r.Op]
		if !ok {
			return "", fmt.Errorf("operator %q is not valid for date field %q", r.Op, r.Field.Name)
		}
		return fmt.Sprintf("%s %s %s::date", field, cmp, b.arg(r.Day)), nil
	}

	field, err := textField(r.Field)
	if err != nil {
		return "", err
	}
	switch r.Op {
	case segment.Eq:
		return field + " = " + b.arg(r.Text), nil
	case segment.Neq:
		return field + " <> " + b.arg(r.Text), nil
	case segment.Contains:
		return field + " ILIKE " + b.arg("%"+escapeLike(r.Text)+"%") + ` ESCAPE '\'`, nil
	case segment.In:
		return field + " IN (" + b.list(len(r.Texts), func(i int) string { return b.arg(r.Texts[i]) }) + ")", nil
	}
	return "", fmt.Errorf("operator %q is not valid for text field %q", r.Op, r.Field.Name)
}

func (b *builder) list(n int, item func(i int) string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = item(i)
	}
	return strings.Join(parts, ", ")
}

func textField(f catalog.Field) (string, error) {
	switch f.Source {
	case catalog.SourceEventName:
		return "COALESCE(event_name, '')", nil
	case catalog.SourceUserID:
		return "COALESCE(user_id, '')", nil
	case catalog.SourceProperty:
		return "COALESCE(" + propertyText(f.Property) + ", '')", nil
	}
	return "", fmt.Errorf("unsupported text field %q", f.Name)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
