package query

import (
	"fmt"
	"reflect"
	"strings"
)

// Operator is a comparison operator of a Comparison node.
type Operator string

const (
	OpEq        Operator = "="
	OpNe        Operator = "<>"
	OpGt        Operator = ">"
	OpGoe       Operator = ">="
	OpLt        Operator = "<"
	OpLoe       Operator = "<="
	OpLike      Operator = "LIKE"
	OpBetween   Operator = "BETWEEN"
	OpIn        Operator = "IN"
	OpNotIn     Operator = "NOT IN"
	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
)

// arity is the number of right-hand operands; -1 means any number.
func (o Operator) arity() int {
	switch o {
	case OpIsNull, OpIsNotNull:
		return 0
	case OpBetween:
		return 2
	case OpIn, OpNotIn:
		return -1
	}
	return 1
}

// Predicate is a boolean condition tree. The concrete node types are Empty,
// *Comparison, *Junction, *Negation and *Template.
type Predicate interface {
	fmt.Stringer
	renderPredicate(r *renderer) error
	validate() error
}

type empty struct{}

// Empty is the identity element of And and Or. A query filtered by Empty
// matches every row.
var Empty Predicate = empty{}

func (empty) String() string                  { return "<empty>" }
func (empty) renderPredicate(*renderer) error { return nil }
func (empty) validate() error                 { return nil }

// IsEmpty reports whether p is nil or Empty. A typed nil node counts as nil.
func IsEmpty(p Predicate) bool {
	if p == nil {
		return true
	}
	if _, ok := p.(empty); ok {
		return true
	}
	rv := reflect.ValueOf(p)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

// Comparison is a leaf: left operator right...
type Comparison struct {
	left  Expression
	op    Operator
	right []Expression
}

// Compare builds a comparison of left against values. Values that are not
// expressions are bound as literals.
func Compare(left Expression, op Operator, values ...any) *Comparison {
	right := make([]Expression, 0, len(values))
	for _, v := range values {
		right = append(right, operand(v))
	}
	return &Comparison{left: left, op: op, right: right}
}

func (c *Comparison) Left() Expression { return c.left }
func (c *Comparison) Op() Operator     { return c.op }

func (c *Comparison) Right() []Expression {
	out := make([]Expression, len(c.right))
	copy(out, c.right)
	return out
}

func (c *Comparison) String() string {
	switch c.op.arity() {
	case 0:
		return c.left.String() + " " + string(c.op)
	case 2:
		if len(c.right) == 2 {
			return fmt.Sprintf("%s BETWEEN %s AND %s", c.left, c.right[0], c.right[1])
		}
	}
	parts := make([]string, 0, len(c.right))
	for _, r := range c.right {
		parts = append(parts, r.String())
	}
	if c.op == OpIn || c.op == OpNotIn {
		return c.left.String() + " " + string(c.op) + " (" + strings.Join(parts, ", ") + ")"
	}
	return c.left.String() + " " + string(c.op) + " " + strings.Join(parts, ", ")
}

func (c *Comparison) validate() error {
	if c.left == nil {
		return invalid("", "comparison without left operand")
	}
	n := c.op.arity()
	switch {
	case n == -1:
	case n != len(c.right):
		return invalid(c.String(), "%s expects %d operand(s), got %d", c.op, n, len(c.right))
	}
	col, typed := c.left.(Path)
	for _, r := range c.right {
		switch v := r.(type) {
		case Literal:
			if v.Value == nil {
				return invalid(c.String(), "null operand for %s, use IsNull/IsNotNull", c.op)
			}
			if c.op == OpLike {
				if _, ok := v.Value.(string); !ok {
					return invalid(c.String(), "LIKE pattern must be a string")
				}
				continue
			}
			if typed && !col.column.Type.accepts(v.Value) {
				return invalid(c.String(), "%T is not comparable with %s column %s", v.Value, col.column.Type, col.column.Name)
			}
		case *Subquery:
			if err := v.st.err; err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Comparison) renderPredicate(r *renderer) error {
	if err := c.validate(); err != nil {
		return err
	}
	if (c.op == OpIn || c.op == OpNotIn) && len(c.right) == 0 {
		if c.op == OpIn {
			r.write("1 = 0")
		} else {
			r.write("1 = 1")
		}
		return nil
	}
	if err := c.left.render(r); err != nil {
		return err
	}
	r.write(" " + string(c.op))
	switch {
	case c.op.arity() == 0:
		return nil
	case c.op == OpBetween:
		r.write(" ")
		if err := c.right[0].render(r); err != nil {
			return err
		}
		r.write(" AND ")
		return c.right[1].render(r)
	case c.op == OpIn || c.op == OpNotIn:
		if sub, ok := c.right[0].(*Subquery); ok && len(c.right) == 1 {
			r.write(" ")
			return sub.render(r)
		}
		r.write(" (")
		for i, v := range c.right {
			if i > 0 {
				r.write(", ")
			}
			if err := v.render(r); err != nil {
				return err
			}
		}
		r.write(")")
		return nil
	}
	r.write(" ")
	return c.right[0].render(r)
}

// Logic is the connective of a Junction.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Junction joins two predicates with AND or OR.
type Junction struct {
	logic       Logic
	left, right Predicate
}

func (j *Junction) Logic() Logic     { return j.logic }
func (j *Junction) Left() Predicate  { return j.left }
func (j *Junction) Right() Predicate { return j.right }

func (j *Junction) String() string {
	return "(" + j.left.String() + " " + string(j.logic) + " " + j.right.String() + ")"
}

func (j *Junction) validate() error {
	if err := j.left.validate(); err != nil {
		return err
	}
	return j.right.validate()
}

func (j *Junction) renderPredicate(r *renderer) error {
	r.write("(")
	if err := j.left.renderPredicate(r); err != nil {
		return err
	}
	r.write(" " + string(j.logic) + " ")
	if err := j.right.renderPredicate(r); err != nil {
		return err
	}
	r.write(")")
	return nil
}

// And combines l and r. Empty operands are dropped.
func And(l, r Predicate) Predicate { return junction(LogicAnd, l, r) }

// Or combines l and r. Empty operands are dropped.
func Or(l, r Predicate) Predicate { return junction(LogicOr, l, r) }

func junction(logic Logic, l, r Predicate) Predicate {
	switch {
	case IsEmpty(l) && IsEmpty(r):
		return Empty
	case IsEmpty(l):
		return r
	case IsEmpty(r):
		return l
	}
	return &Junction{logic: logic, left: l, right: r}
}

// AllOf folds preds with AND.
func AllOf(preds ...Predicate) Predicate {
	out := Empty
	for _, p := range preds {
		out = And(out, p)
	}
	return out
}

// AnyOf folds preds with OR.
func AnyOf(preds ...Predicate) Predicate {
	out := Empty
	for _, p := range preds {
		out = Or(out, p)
	}
	return out
}

// Negation is NOT inner.
type Negation struct {
	inner Predicate
}

// Not negates p. Not(Empty) is Empty.
func Not(p Predicate) Predicate {
	if IsEmpty(p) {
		return Empty
	}
	return &Negation{inner: p}
}

func (n *Negation) Inner() Predicate { return n.inner }
func (n *Negation) String() string   { return "NOT " + n.inner.String() }
func (n *Negation) validate() error  { return n.inner.validate() }

func (n *Negation) renderPredicate(r *renderer) error {
	r.write("NOT (")
	if err := n.inner.renderPredicate(r); err != nil {
		return err
	}
	r.write(")")
	return nil
}

// Validate reports the first construction error found in p.
func Validate(p Predicate) error {
	if IsEmpty(p) {
		return nil
	}
	return p.validate()
}
