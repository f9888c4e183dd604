package query

import "encoding/json"

// Page is one page of results plus the unpaged total. It is built once per
// FetchResults call and not modified afterwards.
type Page[T any] struct {
	rows   []T
	total  int64
	limit  int64
	offset int64
}

func NewPage[T any](rows []T, total, limit, offset int64) Page[T] {
	cp := make([]T, len(rows))
	copy(cp, rows)
	return Page[T]{rows: cp, total: total, limit: limit, offset: offset}
}

// Results returns a copy of the page rows.
func (p Page[T]) Results() []T {
	out := make([]T, len(p.rows))
	copy(out, p.rows)
	return out
}

func (p Page[T]) Len() int      { return len(p.rows) }
func (p Page[T]) Total() int64  { return p.total }
func (p Page[T]) Limit() int64  { return p.limit }
func (p Page[T]) Offset() int64 { return p.offset }
func (p Page[T]) IsEmpty() bool { return len(p.rows) == 0 }

func (p Page[T]) MarshalJSON() ([]byte, error) {
	rows := p.rows
	if rows == nil {
		rows = []T{}
	}
	return json.Marshal(struct {
		Items  []T   `json:"items"`
		Total  int64 `json:"total"`
		Limit  int64 `json:"limit"`
		Offset int64 `json:"offset"`
	}{rows, p.total, p.limit, p.offset})
}
