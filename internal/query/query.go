package query

import (
	"context"
	"database/sql"
	"reflect"

	"gorm.io/gorm"
)

// Query is a SELECT whose rows are scanned into T. T may be a struct (columns
// are matched to fields by gorm's naming) or a scalar for single-column
// projections.
type Query[T any] struct {
	f *Factory
	s selectState
}

// Select starts a query projecting exprs.
func Select[T any](f *Factory, exprs ...Expression) *Query[T] {
	q := &Query[T]{f: f, s: selectState{selects: exprs, where: Empty}}
	q.s.checkOutputs()
	return q
}

// SelectDistinct is Select with duplicate rows removed.
func SelectDistinct[T any](f *Factory, exprs ...Expression) *Query[T] {
	q := Select[T](f, exprs...)
	q.s.distinct = true
	return q
}

// SelectFrom projects every mapped column of src.
func SelectFrom[T any](f *Factory, src Source) *Query[T] {
	e := src.source()
	return Select[T](f, e.All()...).From(src)
}

func (q *Query[T]) From(src Source) *Query[T] {
	q.s.from = src.source()
	return q
}

func (q *Query[T]) LeftJoin(src Source) *Query[T] {
	q.s.joins = append(q.s.joins, join{kind: "LEFT", entity: src.source(), on: Empty})
	return q
}

func (q *Query[T]) InnerJoin(src Source) *Query[T] {
	q.s.joins = append(q.s.joins, join{kind: "INNER", entity: src.source(), on: Empty})
	return q
}

// On sets the condition of the last join.
func (q *Query[T]) On(preds ...Predicate) *Query[T] {
	if len(q.s.joins) == 0 {
		q.s.fail(invalid("", "ON without a join"))
		return q
	}
	j := &q.s.joins[len(q.s.joins)-1]
	for _, p := range preds {
		if err := Validate(p); err != nil {
			q.s.fail(err)
			continue
		}
		j.on = And(j.on, p)
	}
	return q
}

// Where ANDs preds onto the filter. Invalid predicates make every terminal
// operation fail with the construction error.
func (q *Query[T]) Where(preds ...Predicate) *Query[T] {
	q.s.addWhere(preds)
	return q
}

func (q *Query[T]) OrderBy(orders ...OrderSpecifier) *Query[T] {
	q.s.orders = append(q.s.orders, orders...)
	return q
}

// Limit caps the number of rows; 0 means no limit.
func (q *Query[T]) Limit(n int64) *Query[T] {
	if n < 0 {
		q.s.fail(invalid("", "negative limit %d", n))
		return q
	}
	q.s.limit = n
	return q
}

func (q *Query[T]) Offset(n int64) *Query[T] {
	if n < 0 {
		q.s.fail(invalid("", "negative offset %d", n))
		return q
	}
	q.s.offset = n
	return q
}

// Err returns the first construction error recorded on the query.
func (q *Query[T]) Err() error { return q.s.err }

// SQL renders the row statement and its bound arguments without running it.
func (q *Query[T]) SQL() (string, []any, error) {
	r := newRenderer(q.f.db.Dialector)
	if err := r.selectStmt(&q.s); err != nil {
		return "", nil, err
	}
	return r.sql(), r.args, nil
}

// Fetch returns all matching rows.
func (q *Query[T]) Fetch(ctx context.Context) ([]T, error) {
	return q.fetch(ctx, "fetch", q.s)
}

// FetchFirst returns the first row by the query ordering, or nil when none
// match. More than one match is not an error.
func (q *Query[T]) FetchFirst(ctx context.Context) (*T, error) {
	s := q.s
	s.limit = 1
	rows, err := q.fetch(ctx, "fetch_first", s)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// FetchOne returns the only matching row, nil when none match, and
// ErrNonUniqueResult when more than one does.
func (q *Query[T]) FetchOne(ctx context.Context) (*T, error) {
	s := q.s
	if s.limit == 0 || s.limit > 2 {
		s.limit = 2
	}
	rows, err := q.fetch(ctx, "fetch_one", s)
	switch {
	case err != nil:
		return nil, err
	case len(rows) == 0:
		return nil, nil
	case len(rows) > 1:
		return nil, ErrNonUniqueResult
	}
	return &rows[0], nil
}

// FetchCount counts matching rows, ignoring order, limit and offset.
func (q *Query[T]) FetchCount(ctx context.Context) (int64, error) {
	r := newRenderer(q.f.db.Dialector)
	if err := r.countStmt(&q.s); err != nil {
		return 0, err
	}
	return q.f.count(ctx, r)
}

// FetchResults runs a count query and a row query and returns both as a page.
// Ordering and paging only affect the row query.
func (q *Query[T]) FetchResults(ctx context.Context) (Page[T], error) {
	total, err := q.FetchCount(ctx)
	if err != nil {
		return Page[T]{}, err
	}
	if total == 0 || q.s.offset >= total {
		return NewPage[T](nil, total, q.s.limit, q.s.offset), nil
	}
	rows, err := q.fetch(ctx, "fetch_results", q.s)
	if err != nil {
		return Page[T]{}, err
	}
	return NewPage(rows, total, q.s.limit, q.s.offset), nil
}

func (q *Query[T]) fetch(ctx context.Context, op string, s selectState) ([]T, error) {
	r := newRenderer(q.f.db.Dialector)
	if err := r.selectStmt(&s); err != nil {
		return nil, err
	}
	viaSchema := scansAsStruct[T]()
	out := make([]T, 0)
	err := q.f.queryRows(ctx, op, r, func(db *gorm.DB, rows *sql.Rows) error {
		var v T
		var err error
		if viaSchema {
			err = db.ScanRows(rows, &v)
		} else {
			err = rows.Scan(&v)
		}
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

// scansAsStruct reports whether T is filled column-by-field through gorm
// rather than scanned directly.
func scansAsStruct[T any]() bool {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == timeType {
		return false
	}
	return !reflect.PointerTo(t).Implements(scannerType)
}

// Subquery is a nested SELECT usable as an operand, e.g. with Path.InQuery.
type Subquery struct {
	st *selectState
}

// Sub starts a subquery projecting exprs.
func Sub(exprs ...Expression) *Subquery {
	s := &Subquery{st: &selectState{selects: exprs, where: Empty}}
	s.st.checkOutputs()
	return s
}

func (s *Subquery) From(src Source) *Subquery {
	s.st.from = src.source()
	return s
}

func (s *Subquery) Where(preds ...Predicate) *Subquery {
	s.st.addWhere(preds)
	return s
}

func (s *Subquery) OrderBy(orders ...OrderSpecifier) *Subquery {
	s.st.orders = append(s.st.orders, orders...)
	return s
}

func (s *Subquery) Limit(n int64) *Subquery {
	if n < 0 {
		s.st.fail(invalid("", "negative limit %d", n))
		return s
	}
	s.st.limit = n
	return s
}

func (s *Subquery) String() string {
	out := "(SELECT ..."
	if s.st.from != nil {
		out += " FROM " + s.st.from.table
	}
	if !IsEmpty(s.st.where) {
		out += " WHERE " + s.st.where.String()
	}
	return out + ")"
}

func (s *Subquery) render(r *renderer) error {
	saved := r.qualify
	r.qualify = true
	defer func() { r.qualify = saved }()
	r.write("(")
	if err := r.selectStmt(s.st); err != nil {
		return err
	}
	r.write(")")
	return nil
}
