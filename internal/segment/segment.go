// Package segment compiles boolean filter trees over catalog fields and
// evaluates them against events.
//
// A tree is validated when it is compiled: unknown fields, operators that do
// not apply to a field's type, empty groups and empty "in" lists are
// rejected there. A compiled tree never fails while matching.
package segment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/PratikDhanave/analytics-workspace/internal/catalog"
	"github.com/PratikDhanave/analytics-workspace/internal/models"
)

// MaxDepth is the deepest group nesting the query builder produces.
const MaxDepth = 2

var (
	ErrEmptyGroup   = errors.New("group must contain at least one rule")
	ErrEmptyIn      = errors.New("'in' requires a non-empty array value")
	ErrUnknownField = errors.New("unknown field")
	ErrOperator     = errors.New("operator not valid for field type")
	ErrValue        = errors.New("invalid value")
	ErrTooDeep      = errors.New("segment nesting too deep")
	ErrLogic        = errors.New("group op must be AND or OR")
)

// Op is a rule comparison operator.
type Op string

const (
	Eq       Op = "eq"
	Neq      Op = "neq"
	Contains Op = "contains"
	Gt       Op = "gt"
	Gte      Op = "gte"
	Lt       Op = "lt"
	Lte      Op = "lte"
	In       Op = "in"
)

// Logic joins the children of a group.
type Logic string

const (
	And Logic = "AND"
	Or  Logic = "OR"
)

var allowed = map[catalog.FieldType]map[Op]bool{
	catalog.Text:   {Eq: true, Neq: true, Contains: true, In: true},
	catalog.Number: {Eq: true, Neq: true, Gt: true, Gte: true, Lt: true, Lte: true, In: true},
	catalog.Date:   {Eq: true, Neq: true, Gt: true, Gte: true, Lt: true, Lte: true, In: true},
}

// Node is the wire form of a rule or a group. A node with a Field is a rule.
type Node struct {
	Op       string `json:"op,omitempty"`
	Operator string `json:"operator,omitempty"`
	Rules    []Node `json:"rules,omitempty"`
	Field    string `json:"field,omitempty"`
	Value    any    `json:"value,omitempty"`
}

// IsRule reports whether n is a leaf comparison.
func (n Node) IsRule() bool {
	return n.Field != ""
}

func (n Node) ruleOp() Op {
	if n.Operator != "" {
		return Op(n.Operator)
	}
	return Op(n.Op)
}

// Expr is a compiled node.
type Expr interface {
	Matches(e *models.Event) bool
}

// Group is a compiled AND/OR node. Children are *Group or *Rule.
type Group struct {
	Logic    Logic
	Children []Expr
}

// Rule is a compiled comparison with operands already typed for its field.
type Rule struct {
	Field catalog.Field
	Op    Op

	Text  string   // text fields
	Texts []string // text fields, In

	Num  decimal.Decimal   // number fields
	Nums []decimal.Decimal // number fields, In

	Day  string   // date fields, YYYY-MM-DD
	Days []string // date fields, In
}

// Compile validates n and returns its compiled form.
func Compile(n Node) (Expr, error) {
	return compile(n, 0)
}

func compile(n Node, depth int) (Expr, error) {
	if n.IsRule() {
		return compileRule(n)
	}
	if depth >= MaxDepth {
		return nil, ErrTooDeep
	}
	logic := Logic(strings.ToUpper(n.Op))
	if logic != And && logic != Or {
		return nil, fmt.Errorf("%w: %q", ErrLogic, n.Op)
	}
	if len(n.Rules) == 0 {
		return nil, ErrEmptyGroup
	}
	g := &Group{Logic: logic, Children: make([]Expr, 0, len(n.Rules))}
	for _, child := range n.Rules {
		c, err := compile(child, depth+1)
		if err != nil {
			return nil, err
		}
		g.Children = append(g.Children, c)
	}
	return g, nil
}

func compileRule(n Node) (*Rule, error) {
	f, ok := catalog.LegacyAliases.TranslateField(n.Field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, n.Field)
	}
	op := n.ruleOp()
	if !allowed[f.Type][op] {
		return nil, fmt.Errorf("%w: %q on %s field %q", ErrOperator, op, f.Type, n.Field)
	}
	r := &Rule{Field: f, Op: op}

	if op == In {
		values, ok := n.Value.([]any)
		if !ok || len(values) == 0 {
			return nil, fmt.Errorf("field %q: %w", n.Field, ErrEmptyIn)
		}
		for _, v := range values {
			if err := r.addOperand(v, true); err != nil {
				return nil, fmt.Errorf("field %q: %w", n.Field, err)
			}
		}
		return r, nil
	}
	if err := r.addOperand(n.Value, false); err != nil {
		return nil, fmt.Errorf("field %q: %w", n.Field, err)
	}
	return r, nil
}

func (r *Rule) addOperand(v any, list bool) error {
	switch r.Field.Type {
	case catalog.Number:
		d, err := numberOperand(v)
		if err != nil {
			return err
		}
		if list {
			r.Nums = append(r.Nums, d)
		} else {
			r.Num = d
		}
	case catalog.Date:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: date value must be a string", ErrValue)
		}
		// upper bounds round a bare date to the end of its day
		end := r.Op == Lt || r.Op == Lte
		t, err := catalog.ParseDate(s, end)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValue, err)
		}
		day := catalog.FormatDay(t)
		if list {
			r.Days = append(r.Days, day)
		} else {
			r.Day = day
		}
	default:
		s, ok := catalog.Stringify(v)
		if !ok {
			return fmt.Errorf("%w: expected a scalar", ErrValue)
		}
		if list {
			r.Texts = append(r.Texts, s)
		} else {
			r.Text = s
		}
	}
	return nil
}

func numberOperand(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: numeric value expected, got %q", ErrValue, x)
		}
		return d, nil
	case bool, nil, []any, map[string]any:
		return decimal.Zero, fmt.Errorf("%w: numeric value expected", ErrValue)
	default:
		s, ok := catalog.Stringify(x)
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: numeric value expected", ErrValue)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: numeric value expected", ErrValue)
		}
		return d, nil
	}
}

// Matches reports whether every (AND) or any (OR) child matches.
func (g *Group) Matches(e *models.Event) bool {
	if g.Logic == And {
		for _, c := range g.Children {
			if !c.Matches(e) {
				return false
			}
		}
		return true
	}
	for _, c := range g.Children {
		if c.Matches(e) {
			return true
		}
	}
	return false
}

// Matches evaluates the rule against e.
func (r *Rule) Matches(e *models.Event) bool {
	switch r.Field.Type {
	case catalog.Number:
		return r.matchNumber(catalog.NumberValue(e, r.Field))
	case catalog.Date:
		return r.matchDay(catalog.FormatDay(e.Timestamp))
	default:
		return r.matchText(catalog.TextValue(e, r.Field))
	}
}

func (r *Rule) matchText(v string) bool {
	switch r.Op {
	case Eq:
		return v == r.Text
	case Neq:
		return v != r.Text
	case Contains:
		return strings.Contains(strings.ToLower(v), strings.ToLower(r.Text))
	case In:
		for _, t := range r.Texts {
			if v == t {
				return true
			}
		}
	}
	return false
}

func (r *Rule) matchNumber(v decimal.Decimal) bool {
	if r.Op == In {
		for _, n := range r.Nums {
			if v.Equal(n) {
				return true
			}
		}
		return false
	}
	return compare(v.Cmp(r.Num), r.Op)
}

func (r *Rule) matchDay(v string) bool {
	if r.Op == In {
		for _, d := range r.Days {
			if v == d {
				return true
			}
		}
		return false
	}
	return compare(strings.Compare(v, r.Day), r.Op)
}

func compare(c int, op Op) bool {
	switch op {
	case Eq:
		return c == 0
	case Neq:
		return c != 0
	case Gt:
		return c > 0
	case Gte:
		return c >= 0
	case Lt:
		return c < 0
	case Lte:
		return c <= 0
	}
	return false
}
