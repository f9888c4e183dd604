package query

import (
	"reflect"
	"time"
)

// ColumnType is the semantic type of a mapped column.
type ColumnType int

const (
	TypeInt ColumnType = iota + 1
	TypeString
	TypeFloat
	TypeBool
	TypeTime
)

func (t ColumnType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeTime:
		return "time"
	}
	return "unknown"
}

var timeType = reflect.TypeOf(time.Time{})

// accepts reports whether a non-nil literal can be compared with a column of type t.
func (t ColumnType) accepts(v any) bool {
	rv := reflect.ValueOf(v)
	switch t {
	case TypeInt:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return true
		}
	case TypeFloat:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return true
		}
	case TypeString:
		return rv.Kind() == reflect.String
	case TypeBool:
		return rv.Kind() == reflect.Bool
	case TypeTime:
		return rv.Type() == timeType || rv.Kind() == reflect.String
	}
	return false
}

// Column describes one mapped column of an entity.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Entity is the explicit table mapping used to render statements: table name,
// alias and the typed columns that may be referenced.
type Entity struct {
	table   string
	alias   string
	columns []Column
}

// Source is anything that can appear in FROM or JOIN. Structs embedding *Entity
// satisfy it.
type Source interface {
	source() *Entity
}

func NewEntity(table, alias string) *Entity {
	if alias == "" {
		alias = table
	}
	return &Entity{table: table, alias: alias}
}

func (e *Entity) source() *Entity { return e }

func (e *Entity) Table() string { return e.table }
func (e *Entity) Alias() string { return e.alias }

func (e *Entity) Columns() []Column {
	out := make([]Column, len(e.columns))
	copy(out, e.columns)
	return out
}

// Column registers a mapped column and returns its path. It is meant to be
// called while declaring the entity, not afterwards.
func (e *Entity) Column(name string, t ColumnType, nullable bool) Path {
	col := Column{Name: name, Type: t, Nullable: nullable}
	e.columns = append(e.columns, col)
	return Path{entity: e, column: col}
}

// Path looks up a registered column by name.
func (e *Entity) Path(name string) (Path, bool) {
	for _, c := range e.columns {
		if c.Name == name {
			return Path{entity: e, column: c}, true
		}
	}
	return Path{}, false
}

// All returns one path per mapped column, in declaration order.
func (e *Entity) All() []Expression {
	out := make([]Expression, 0, len(e.columns))
	for _, c := range e.columns {
		out = append(out, Path{entity: e, column: c})
	}
	return out
}
