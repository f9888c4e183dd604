package query_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gin-gorm-querydsl/internal/domain"
	"gin-gorm-querydsl/internal/query"
)

func TestEmptyIsIdentity(t *testing.T) {
	c := domain.NewQCustomer("c")
	p := c.Age.Gt(18)

	assert.Same(t, p, query.And(query.Empty, p))
	assert.Same(t, p, query.And(p, query.Empty))
	assert.Same(t, p, query.Or(query.Empty, p))
	assert.Same(t, p, query.Or(p, nil))
	assert.True(t, query.IsEmpty(query.And(query.Empty, query.Empty)))
	assert.True(t, query.IsEmpty(query.Not(query.Empty)))
	assert.True(t, query.IsEmpty(query.AllOf()))
	assert.True(t, query.IsEmpty(nil))
}

func TestPredicateString(t *testing.T) {
	c := domain.NewQCustomer("c")

	cases := []struct {
		name string
		p    query.Predicate
		want string
	}{
		{"eq", c.LastName.Eq("王海涛"), "c.last_name = '王海涛'"},
		{"like", c.LastName.Contains("岚"), "c.last_name LIKE '%岚%'"},
		{"between", c.Age.Between(20, 40), "c.age BETWEEN 20 AND 40"},
		{"in", c.ID.In(1, 2, 3), "c.id IN (1, 2, 3)"},
		{"in slice", c.ID.In([]int{1, 2}), "c.id IN (1, 2)"},
		{"is null", c.Email.IsNull(), "c.email IS NULL"},
		{"and-or", query.Or(query.And(c.Age.Gt(18), c.Gender.Eq(1)), c.ID.Eq(1)),
			"((c.age > 18 AND c.gender = 1) OR c.id = 1)"},
		{"not", query.Not(c.Gender.Eq(0)), "NOT c.gender = 0"},
		{"path", c.ID.EqPath(domain.NewQOrder("o").CustomerID), "c.id = o.customer_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.p.String())
		})
	}
}

func TestComparisonAccessors(t *testing.T) {
	c := domain.NewQCustomer("c")
	cmp := c.Age.Between(1, 2)
	assert.Equal(t, query.OpBetween, cmp.Op())
	assert.Equal(t, c.Age, cmp.Left())

	right := cmp.Right()
	require.Len(t, right, 2)
	right[0] = nil
	assert.NotNil(t, cmp.Right()[0], "Right returns a copy")
}

func TestValidateRejectsMalformed(t *testing.T) {
	c := domain.NewQCustomer("c")
	var nilAge *int

	cases := map[string]query.Predicate{
		"nil eq":         c.Age.Eq(nil),
		"nil pointer":    c.Age.Eq(nilAge),
		"between arity":  query.Compare(c.Age, query.OpBetween, 1),
		"eq arity":       query.Compare(c.Age, query.OpEq),
		"like non-str":   c.LastName.Like(3),
		"type mismatch":  c.Age.Gt("old"),
		"nested in and":  query.And(c.ID.Eq(1), c.Age.Eq(nil)),
		"nested in not":  query.Not(c.Gender.Eq(nil)),
		"bad subquery":   c.ID.InQuery(query.Sub(c.ID).From(c).Limit(-1)),
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, query.Validate(p), query.ErrInvalidPredicate)
		})
	}

	assert.NoError(t, query.Validate(c.Birth.Gt(time.Now())))
	assert.NoError(t, query.Validate(c.Birth.Gt("2000-01-01")))
	assert.NoError(t, query.Validate(c.Age.Eq(int64(3))))
	assert.NoError(t, query.Validate(query.Empty))
}

func TestBuilderEmptyBuildsEmpty(t *testing.T) {
	b := query.NewBuilder()
	assert.False(t, b.HasValue())
	p, err := b.Build()
	require.NoError(t, err)
	assert.True(t, query.IsEmpty(p))
}

// and/or 作为第一次调用时结果相同
func TestBuilderFirstAndOrEquivalent(t *testing.T) {
	c := domain.NewQCustomer("c")
	cond := c.LastName.Contains("岚")

	viaAnd, err := query.NewBuilder().And(cond).Build()
	require.NoError(t, err)
	viaOr, err := query.NewBuilder().Or(cond).Build()
	require.NoError(t, err)

	assert.Equal(t, viaAnd.String(), viaOr.String())
	assert.Same(t, cond, viaAnd)
	assert.Same(t, cond, viaOr)
}

func TestBuilderCombines(t *testing.T) {
	c := domain.NewQCustomer("c")
	p, err := query.NewBuilder().
		And(c.LastName.Contains("岚")).
		And(c.Age.Between(20, 40)).
		Or(c.Gender.Eq(1)).
		AndNot(c.ID.Eq(9)).
		Build()
	require.NoError(t, err)
	assert.Equal(t,
		"(((c.last_name LIKE '%岚%' AND c.age BETWEEN 20 AND 40) OR c.gender = 1) AND NOT c.id = 9)",
		p.String())
}

func TestBuilderConditional(t *testing.T) {
	c := domain.NewQCustomer("c")
	var age *int
	called := false

	p, err := query.NewBuilder().
		AndIf(true, func() query.Predicate { return c.LastName.Contains("岚") }).
		AndIf(age != nil, func() query.Predicate { called = true; return c.Age.Gt(*age) }).
		OrIf(true, func() query.Predicate { return c.Gender.Eq(1) }).
		Build()
	require.NoError(t, err)
	assert.False(t, called, "skipped conditions are not evaluated")
	assert.Equal(t, "(c.last_name LIKE '%岚%' OR c.gender = 1)", p.String())
}

func TestBuilderRecordsFirstError(t *testing.T) {
	c := domain.NewQCustomer("c")
	b := query.NewBuilder().
		And(c.ID.Eq(1)).
		And(c.Age.Eq(nil)).
		And(c.Gender.Eq(2))
	require.Error(t, b.Err())

	p, err := b.Build()
	assert.ErrorIs(t, err, query.ErrInvalidPredicate)
	assert.True(t, query.IsEmpty(p))
	assert.Equal(t, "(c.id = 1 AND c.gender = 2)", b.Value().String())
}

func TestTemplateArity(t *testing.T) {
	c := domain.NewQCustomer("c")

	_, err := query.NewTemplate("DATE_FORMAT({0}, {1})", c.Birth)
	assert.ErrorIs(t, err, query.ErrTemplateArity)
	assert.ErrorIs(t, err, query.ErrInvalidPredicate)

	_, err = query.NewTemplate("UPPER({0})", c.LastName, c.Email)
	assert.ErrorIs(t, err, query.ErrTemplateArity)

	_, err = query.NewTemplate("UPPER({0)", c.LastName)
	assert.ErrorIs(t, err, query.ErrTemplateArity)

	_, err = query.NewTemplate("UPPER({x})", c.LastName)
	assert.ErrorIs(t, err, query.ErrTemplateArity)

	tmpl, err := query.NewTemplate("{0} || {0}", c.LastName)
	require.NoError(t, err)
	assert.Equal(t, "{0} || {0}", tmpl.String())

	assert.Panics(t, func() { query.MustTemplate("{1}", c.ID) })
}

func TestTemplateRejectsNullArguments(t *testing.T) {
	c := domain.NewQCustomer("c")

	_, err := query.NewTemplate("COALESCE({0}, {1})", c.Age, nil)
	assert.ErrorIs(t, err, query.ErrInvalidPredicate)
	assert.NotErrorIs(t, err, query.ErrTemplateArity)

	var age *int
	_, err = query.NewTemplate("{0} > {1}", c.Age, age)
	assert.ErrorIs(t, err, query.ErrInvalidPredicate)

	n := 18
	_, err = query.NewTemplate("{0} > {1}", c.Age, &n)
	assert.NoError(t, err)
}

func TestTypedNilPredicateIsEmpty(t *testing.T) {
	c := domain.NewQCustomer("c")
	var cmp *query.Comparison
	var tmpl *query.Template

	assert.True(t, query.IsEmpty(cmp))
	assert.True(t, query.IsEmpty(tmpl))
	assert.NoError(t, query.Validate(cmp))

	p := c.Age.Gt(18)
	assert.Same(t, p, query.And(p, cmp))

	b := query.NewBuilder()
	assert.NotPanics(t, func() { b.And(cmp).Or(tmpl).AndNot(cmp) })
	assert.False(t, b.HasValue())
	built, err := b.Build()
	require.NoError(t, err)
	assert.True(t, query.IsEmpty(built))
}
