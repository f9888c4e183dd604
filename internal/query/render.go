package query

import (
	"math"
	"strings"

	"gorm.io/gorm/clause"
)

// Dialect is the part of a gorm.Dialector the renderer needs. Values are
// always bound as '?' and rebound by gorm for the target driver.
type Dialect interface {
	Name() string
	QuoteTo(clause.Writer, string)
}

type join struct {
	kind   string
	entity *Entity
	on     Predicate
}

// selectState holds the clauses shared by Query and Subquery.
type selectState struct {
	distinct bool
	selects  []Expression
	from     *Entity
	joins    []join
	where    Predicate
	orders   []OrderSpecifier
	limit    int64
	offset   int64
	err      error
}

func (s *selectState) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *selectState) addWhere(preds []Predicate) {
	for _, p := range preds {
		if IsEmpty(p) {
			continue
		}
		if err := p.validate(); err != nil {
			s.fail(err)
			continue
		}
		s.where = And(s.where, p)
	}
}

// checkOutputs rejects two projections that would come back under the same
// column name, e.g. c.ID and o.ID without an alias.
func (s *selectState) checkOutputs() {
	seen := make(map[string]bool, len(s.selects))
	for _, e := range s.selects {
		var name string
		switch v := e.(type) {
		case Aliased:
			name = v.alias
		case Path:
			name = v.column.Name
		default:
			continue
		}
		k := strings.ToLower(name)
		if seen[k] {
			s.fail(invalid(e.String(), "duplicate output column %q, alias one of them with As", name))
			return
		}
		seen[k] = true
	}
}

type renderer struct {
	d       Dialect
	dialect string
	sb      strings.Builder
	args    []any
	qualify bool
}

func newRenderer(d Dialect) *renderer {
	return &renderer{d: d, dialect: d.Name(), qualify: true}
}

func (r *renderer) write(s string)  { r.sb.WriteString(s) }
func (r *renderer) quote(id string) { r.d.QuoteTo(&r.sb, id) }

func (r *renderer) bind(v any) {
	r.args = append(r.args, v)
	r.sb.WriteByte('?')
}

func (r *renderer) sql() string { return r.sb.String() }

func (r *renderer) table(e *Entity) {
	r.quote(e.table)
	if e.alias != "" && r.qualify {
		r.write(" ")
		r.quote(e.alias)
	}
}

func (r *renderer) selectStmt(s *selectState) error {
	if s.err != nil {
		return s.err
	}
	if s.from == nil {
		return ErrNoSource
	}
	r.write("SELECT ")
	if s.distinct {
		r.write("DISTINCT ")
	}
	if err := r.projections(s); err != nil {
		return err
	}
	if err := r.fromWhere(s); err != nil {
		return err
	}
	if err := r.orderBy(s.orders); err != nil {
		return err
	}
	r.limitOffset(s.limit, s.offset)
	return nil
}

// countStmt counts the rows s would return, ignoring order, limit and offset.
func (r *renderer) countStmt(s *selectState) error {
	if s.err != nil {
		return s.err
	}
	if s.from == nil {
		return ErrNoSource
	}
	if s.distinct {
		r.write("SELECT COUNT(*) FROM (SELECT DISTINCT ")
		if err := r.projections(s); err != nil {
			return err
		}
		if err := r.fromWhere(s); err != nil {
			return err
		}
		r.write(") ")
		r.quote("cnt")
		return nil
	}
	r.write("SELECT COUNT(*)")
	return r.fromWhere(s)
}

func (r *renderer) projections(s *selectState) error {
	if len(s.selects) == 0 {
		r.quote(s.from.alias)
		r.write(".*")
		return nil
	}
	for i, e := range s.selects {
		if i > 0 {
			r.write(", ")
		}
		if err := e.render(r); err != nil {
			return err
		}
		switch v := e.(type) {
		case Aliased:
			r.write(" AS ")
			r.quote(v.alias)
		case Path:
			r.write(" AS ")
			r.quote(v.column.Name)
		}
	}
	return nil
}

func (r *renderer) fromWhere(s *selectState) error {
	r.write(" FROM ")
	r.table(s.from)
	for _, j := range s.joins {
		if IsEmpty(j.on) {
			return invalid(j.entity.table, "%s join without ON condition", strings.ToLower(j.kind))
		}
		r.write(" " + j.kind + " JOIN ")
		r.table(j.entity)
		r.write(" ON ")
		if err := j.on.renderPredicate(r); err != nil {
			return err
		}
	}
	return r.whereClause(s.where)
}

func (r *renderer) whereClause(p Predicate) error {
	if IsEmpty(p) {
		return nil
	}
	r.write(" WHERE ")
	return p.renderPredicate(r)
}

func (r *renderer) orderBy(orders []OrderSpecifier) error {
	if len(orders) == 0 {
		return nil
	}
	r.write(" ORDER BY ")
	for i, o := range orders {
		if i > 0 {
			r.write(", ")
		}
		if err := o.expr.render(r); err != nil {
			return err
		}
		if o.desc {
			r.write(" DESC")
		} else {
			r.write(" ASC")
		}
	}
	return nil
}

func (r *renderer) limitOffset(limit, offset int64) {
	switch {
	case limit > 0:
		r.write(" LIMIT ")
		r.bind(limit)
		if offset > 0 {
			r.write(" OFFSET ")
			r.bind(offset)
		}
	case offset > 0:
		// mysql and sqlite have no OFFSET without LIMIT
		if r.dialect != "postgres" {
			r.write(" LIMIT ")
			r.bind(int64(math.MaxInt64))
		}
		r.write(" OFFSET ")
		r.bind(offset)
	}
}

type assignment struct {
	path  Path
	value Expression
}

func (r *renderer) updateStmt(e *Entity, sets []assignment, where Predicate) error {
	r.qualify = false
	r.write("UPDATE ")
	r.table(e)
	r.write(" SET ")
	for i, a := range sets {
		if i > 0 {
			r.write(", ")
		}
		r.quote(a.path.column.Name)
		r.write(" = ")
		if lit, ok := a.value.(Literal); ok && lit.Value == nil {
			r.write("NULL")
			continue
		}
		if err := a.value.render(r); err != nil {
			return err
		}
	}
	return r.whereClause(where)
}

func (r *renderer) deleteStmt(e *Entity, where Predicate) error {
	r.qualify = false
	r.write("DELETE FROM ")
	r.table(e)
	return r.whereClause(where)
}
