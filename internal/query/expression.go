package query

import (
	"fmt"
	"reflect"
	"strings"
)

// Expression is a value that can be rendered into a statement: a column path,
// a bound literal, a function call, a raw template or a nested query.
type Expression interface {
	fmt.Stringer
	render(r *renderer) error
}

// Path references a mapped column of an entity.
type Path struct {
	entity *Entity
	column Column
}

func (p Path) Name() string               { return p.column.Name }
func (p Path) Column() Column             { return p.column }
func (p Path) Entity() *Entity            { return p.entity }
func (p Path) qualified() string          { return p.entity.alias + "." + p.column.Name }
func (p Path) String() string             { return p.qualified() }
func (p Path) As(alias string) Expression { return As(p, alias) }

func (p Path) render(r *renderer) error {
	if p.entity == nil {
		return invalid("", "path without entity")
	}
	if r.qualify {
		r.quote(p.qualified())
	} else {
		r.quote(p.column.Name)
	}
	return nil
}

func (p Path) Eq(v any) *Comparison   { return Compare(p, OpEq, v) }
func (p Path) Ne(v any) *Comparison   { return Compare(p, OpNe, v) }
func (p Path) Gt(v any) *Comparison   { return Compare(p, OpGt, v) }
func (p Path) Goe(v any) *Comparison  { return Compare(p, OpGoe, v) }
func (p Path) Lt(v any) *Comparison   { return Compare(p, OpLt, v) }
func (p Path) Loe(v any) *Comparison  { return Compare(p, OpLoe, v) }
func (p Path) Like(v any) *Comparison { return Compare(p, OpLike, v) }
func (p Path) IsNull() *Comparison    { return Compare(p, OpIsNull) }
func (p Path) IsNotNull() *Comparison { return Compare(p, OpIsNotNull) }
func (p Path) Between(from, to any) *Comparison {
	return Compare(p, OpBetween, from, to)
}

// Contains matches values containing s anywhere.
func (p Path) Contains(s string) *Comparison { return Compare(p, OpLike, "%"+s+"%") }

// StartsWith matches values beginning with s.
func (p Path) StartsWith(s string) *Comparison { return Compare(p, OpLike, s+"%") }

// In matches any of values. A slice argument is flattened.
func (p Path) In(values ...any) *Comparison    { return Compare(p, OpIn, flatten(values)...) }
func (p Path) NotIn(values ...any) *Comparison { return Compare(p, OpNotIn, flatten(values)...) }

// InQuery matches values produced by a subquery.
func (p Path) InQuery(sub *Subquery) *Comparison { return Compare(p, OpIn, sub) }

// EqQuery compares against a single-valued subquery.
func (p Path) EqQuery(sub *Subquery) *Comparison { return Compare(p, OpEq, sub) }

// EqPath compares two columns, typically a join condition.
func (p Path) EqPath(other Path) *Comparison { return Compare(p, OpEq, other) }

func (p Path) Asc() OrderSpecifier  { return OrderSpecifier{expr: p} }
func (p Path) Desc() OrderSpecifier { return OrderSpecifier{expr: p, desc: true} }

func (p Path) Avg() Func   { return Func{name: "AVG", args: []Expression{p}} }
func (p Path) Sum() Func   { return Func{name: "SUM", args: []Expression{p}} }
func (p Path) Min() Func   { return Func{name: "MIN", args: []Expression{p}} }
func (p Path) Max() Func   { return Func{name: "MAX", args: []Expression{p}} }
func (p Path) Count() Func { return Func{name: "COUNT", args: []Expression{p}} }

// Concat joins p with the given operands.
func (p Path) Concat(others ...any) Func { return Concat(append([]any{p}, others...)...) }

// Literal is a bound parameter value.
type Literal struct {
	Value any
}

func (l Literal) String() string {
	if s, ok := l.Value.(string); ok {
		return "'" + s + "'"
	}
	if l.Value == nil {
		return "NULL"
	}
	return fmt.Sprint(l.Value)
}

func (l Literal) render(r *renderer) error {
	if l.Value == nil {
		return invalid("", "null literal cannot be bound")
	}
	r.bind(l.Value)
	return nil
}

// Func is an aggregate or scalar function call.
type Func struct {
	name string
	args []Expression
}

// Concat builds a string concatenation rendered per dialect.
func Concat(parts ...any) Func {
	args := make([]Expression, 0, len(parts))
	for _, p := range parts {
		args = append(args, operand(p))
	}
	return Func{name: "CONCAT", args: args}
}

// CountAll is COUNT(*).
func CountAll() Func { return Func{name: "COUNT"} }

func (f Func) As(alias string) Expression { return As(f, alias) }
func (f Func) Eq(v any) *Comparison       { return Compare(f, OpEq, v) }
func (f Func) Gt(v any) *Comparison       { return Compare(f, OpGt, v) }
func (f Func) Asc() OrderSpecifier        { return OrderSpecifier{expr: f} }
func (f Func) Desc() OrderSpecifier       { return OrderSpecifier{expr: f, desc: true} }

func (f Func) String() string {
	if len(f.args) == 0 {
		return f.name + "(*)"
	}
	parts := make([]string, 0, len(f.args))
	for _, a := range f.args {
		parts = append(parts, a.String())
	}
	return f.name + "(" + strings.Join(parts, ", ") + ")"
}

func (f Func) render(r *renderer) error {
	if len(f.args) == 0 {
		r.write(f.name + "(*)")
		return nil
	}
	if f.name == "CONCAT" && r.dialect != "mysql" {
		r.write("(")
		for i, a := range f.args {
			if i > 0 {
				r.write(" || ")
			}
			if err := a.render(r); err != nil {
				return err
			}
		}
		r.write(")")
		return nil
	}
	r.write(f.name + "(")
	for i, a := range f.args {
		if i > 0 {
			r.write(", ")
		}
		if err := a.render(r); err != nil {
			return err
		}
	}
	r.write(")")
	return nil
}

// Aliased names an expression in a projection list.
type Aliased struct {
	expr  Expression
	alias string
}

func As(e Expression, alias string) Expression {
	if a, ok := e.(Aliased); ok {
		e = a.expr
	}
	return Aliased{expr: e, alias: alias}
}

func (a Aliased) String() string           { return a.expr.String() + " AS " + a.alias }
func (a Aliased) render(r *renderer) error { return a.expr.render(r) }

// OrderSpecifier is one ORDER BY item.
type OrderSpecifier struct {
	expr Expression
	desc bool
}

func Asc(e Expression) OrderSpecifier  { return OrderSpecifier{expr: e} }
func Desc(e Expression) OrderSpecifier { return OrderSpecifier{expr: e, desc: true} }

func (o OrderSpecifier) Descending() bool { return o.desc }

func (o OrderSpecifier) String() string {
	if o.desc {
		return o.expr.String() + " DESC"
	}
	return o.expr.String() + " ASC"
}

// operand turns a caller-supplied value into an expression. Pointers are
// dereferenced so optional fields can be passed as-is; nil pointers become a
// null literal.
func operand(v any) Expression {
	if e, ok := v.(Expression); ok {
		return e
	}
	if v == nil {
		return Literal{}
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return Literal{}
		}
		rv = rv.Elem()
	}
	return Literal{Value: rv.Interface()}
}

func flatten(values []any) []any {
	if len(values) != 1 {
		return values
	}
	rv := reflect.ValueOf(values[0])
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return values
	}
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, rv.Index(i).Interface())
	}
	return out
}
