package query

import "context"

// UpdateClause is an UPDATE over one entity. It must run inside a transaction.
type UpdateClause struct {
	f      *Factory
	entity *Entity
	sets   []assignment
	where  Predicate
	err    error
}

func (f *Factory) Update(src Source) *UpdateClause {
	return &UpdateClause{f: f, entity: src.source(), where: Empty}
}

// Set assigns v to p. nil is only accepted for nullable columns.
func (u *UpdateClause) Set(p Path, v any) *UpdateClause {
	val := operand(v)
	if lit, ok := val.(Literal); ok {
		switch {
		case lit.Value == nil && !p.column.Nullable:
			u.fail(invalid(p.String(), "column is not nullable"))
			return u
		case lit.Value != nil && !p.column.Type.accepts(lit.Value):
			u.fail(invalid(p.String(), "%T is not assignable to %s column", lit.Value, p.column.Type))
			return u
		}
	}
	if p.entity != u.entity {
		u.fail(invalid(p.String(), "column does not belong to %s", u.entity.table))
		return u
	}
	u.sets = append(u.sets, assignment{path: p, value: val})
	return u
}

func (u *UpdateClause) Where(preds ...Predicate) *UpdateClause {
	for _, p := range preds {
		if err := Validate(p); err != nil {
			u.fail(err)
			continue
		}
		u.where = And(u.where, p)
	}
	return u
}

func (u *UpdateClause) fail(err error) {
	if u.err == nil {
		u.err = err
	}
}

// Execute runs the update and returns the number of affected rows.
func (u *UpdateClause) Execute(ctx context.Context) (int64, error) {
	if u.err != nil {
		return 0, u.err
	}
	if len(u.sets) == 0 {
		return 0, invalid(u.entity.table, "update without assignments")
	}
	r := newRenderer(u.f.db.Dialector)
	if err := r.updateStmt(u.entity, u.sets, u.where); err != nil {
		return 0, err
	}
	return u.f.exec(ctx, "update", r)
}

// DeleteClause is a DELETE over one entity. It must run inside a transaction.
type DeleteClause struct {
	f      *Factory
	entity *Entity
	where  Predicate
	err    error
}

func (f *Factory) Delete(src Source) *DeleteClause {
	return &DeleteClause{f: f, entity: src.source(), where: Empty}
}

func (d *DeleteClause) Where(preds ...Predicate) *DeleteClause {
	for _, p := range preds {
		if err := Validate(p); err != nil {
			if d.err == nil {
				d.err = err
			}
			continue
		}
		d.where = And(d.where, p)
	}
	return d
}

// Execute runs the delete and returns the number of removed rows. An empty
// filter deletes every row.
func (d *DeleteClause) Execute(ctx context.Context) (int64, error) {
	if d.err != nil {
		return 0, d.err
	}
	r := newRenderer(d.f.db.Dialector)
	if err := r.deleteStmt(d.entity, d.where); err != nil {
		return 0, err
	}
	return d.f.exec(ctx, "delete", r)
}
