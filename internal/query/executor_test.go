package query_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gin-gorm-querydsl/internal/domain"
	"gin-gorm-querydsl/internal/query"
	"gin-gorm-querydsl/internal/testutil"
)

var (
	c = domain.NewQCustomer("c")
	o = domain.NewQOrder("o")
)

func seedTwo(t *testing.T, f *query.Factory) {
	t.Helper()
	customers := []domain.Customer{
		{LastName: "姬岚洋", Email: "jly@qq.com", Age: testutil.IntPtr(23), Gender: testutil.IntPtr(1)},
		{LastName: "王海涛", Email: "wht@qq.com", Age: testutil.IntPtr(23), Gender: testutil.IntPtr(0)},
	}
	require.NoError(t, f.DB().Create(&customers).Error)
}

// seedAll: 三个客户，第三个没有订单
func seedAll(t *testing.T, f *query.Factory) {
	t.Helper()
	seedTwo(t, f)
	require.NoError(t, f.DB().Create(&domain.Customer{
		LastName: "赵无单", Email: "zwd@qq.com", Age: testutil.IntPtr(35), Gender: testutil.IntPtr(1),
	}).Error)
	orders := []domain.Order{
		{Name: "xs-键盘", CustomerID: 1},
		{Name: "显示器", CustomerID: 1},
		{Name: "xs-鼠标", CustomerID: 2},
	}
	require.NoError(t, f.DB().Create(&orders).Error)
}

func TestNamesOlderThanOrderedByIDDesc(t *testing.T) {
	f := testutil.NewFactory(t)
	seedTwo(t, f)

	names, err := query.Select[string](f, c.LastName).From(c).
		Where(c.Age.Gt(18)).OrderBy(c.ID.Desc()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"王海涛", "姬岚洋"}, names)
}

func TestConditionalFilter(t *testing.T) {
	f := testutil.NewFactory(t)
	seedAll(t, f)
	ctx := context.Background()

	p, err := domain.CustomerFilter{LastName: testutil.StrPtr("岚"), Gender: testutil.IntPtr(1)}.Predicate(c)
	require.NoError(t, err)
	assert.Equal(t, "(c.last_name LIKE '%岚%' OR c.gender = 1)", p.String())

	names, err := query.Select[string](f, c.LastName).From(c).Where(p).OrderBy(c.ID.Asc()).Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"姬岚洋", "赵无单"}, names)

	// 只给 lastName
	p, err = domain.CustomerFilter{LastName: testutil.StrPtr("海")}.Predicate(c)
	require.NoError(t, err)
	n, err := query.Select[int](f, c.ID).From(c).Where(p).FetchCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestFetchOneAndFirst(t *testing.T) {
	f := testutil.NewFactory(t)
	seedTwo(t, f)
	ctx := context.Background()

	q := query.Select[domain.CustomerDTO](f, c.ID, c.LastName, c.Email, c.Age, c.Gender).
		From(c).Where(c.Age.Eq(23)).OrderBy(c.ID.Desc())

	_, err := q.FetchOne(ctx)
	assert.ErrorIs(t, err, query.ErrNonUniqueResult)

	first, err := q.FetchFirst(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "王海涛", first.LastName)
	assert.Equal(t, 0, *first.Gender)

	one, err := query.Select[string](f, c.Email).From(c).Where(c.LastName.Eq("姬岚洋")).FetchOne(ctx)
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, "jly@qq.com", *one)

	none, err := query.Select[string](f, c.Email).From(c).Where(c.LastName.Eq("nobody")).FetchOne(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	none, err = query.Select[string](f, c.Email).From(c).Where(c.Age.Gt(99)).FetchFirst(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRollbackLeavesStoredValue(t *testing.T) {
	f := testutil.NewFactory(t)
	seedTwo(t, f)
	ctx := context.Background()

	tx, err := f.Begin(ctx)
	require.NoError(t, err)
	assert.True(t, tx.InTransaction())

	n, err := tx.Update(c).Set(c.Email, "changed@qq.com").Where(c.ID.Eq(1)).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	inside, err := query.Select[string](tx.Factory, c.Email).From(c).Where(c.ID.Eq(1)).FetchOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, "changed@qq.com", *inside)

	require.NoError(t, tx.Rollback())
	require.NoError(t, tx.Rollback(), "second call is a no-op")

	after, err := query.Select[string](f, c.Email).From(c).Where(c.ID.Eq(1)).FetchOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jly@qq.com", *after)
}

func TestTransactionCommitAndRollback(t *testing.T) {
	f := testutil.NewFactory(t)
	seedAll(t, f)
	ctx := context.Background()
	assert.False(t, f.InTransaction())

	err := f.Transaction(ctx, func(tx *query.Factory) error {
		assert.True(t, tx.InTransaction())
		n, err := tx.Delete(o).Where(o.Name.StartsWith("xs-")).Execute(ctx)
		assert.Equal(t, int64(2), n)
		return err
	})
	require.NoError(t, err)

	left, err := query.Select[string](f, o.Name).From(o).Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"显示器"}, left)

	boom := errors.New("boom")
	err = f.Transaction(ctx, func(tx *query.Factory) error {
		if _, err := tx.Update(c).Set(c.Email, nil).Execute(ctx); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	nulls, err := query.Select[int](f, c.ID).From(c).Where(c.Email.IsNull()).FetchCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, nulls)
}

func TestWritesRequireTransaction(t *testing.T) {
	f := testutil.NewFactory(t)
	seedAll(t, f)
	ctx := context.Background()

	_, err := f.Delete(o).Execute(ctx)
	assert.ErrorIs(t, err, query.ErrNoTransaction)

	_, err = f.Update(c).Set(c.Email, "x@y.z").Where(c.ID.Eq(1)).Execute(ctx)
	assert.ErrorIs(t, err, query.ErrNoTransaction)

	n, err := query.Select[int](f, o.ID).From(o).FetchCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestUpdateRejectsBadAssignments(t *testing.T) {
	f := testutil.NewFactory(t)
	ctx := context.Background()

	testutil.InTx(t, f, func(tx *query.Factory) error {
		_, err := tx.Update(c).Set(c.LastName, nil).Execute(ctx)
		assert.ErrorIs(t, err, query.ErrInvalidPredicate)

		_, err = tx.Update(c).Set(c.Age, "old").Execute(ctx)
		assert.ErrorIs(t, err, query.ErrInvalidPredicate)

		_, err = tx.Update(c).Set(o.Name, "x").Execute(ctx)
		assert.ErrorIs(t, err, query.ErrInvalidPredicate)

		_, err = tx.Update(c).Where(c.ID.Eq(1)).Execute(ctx)
		assert.ErrorIs(t, err, query.ErrInvalidPredicate)
		return nil
	})
}

func TestEmptyPredicateMatchesAll(t *testing.T) {
	f := testutil.NewFactory(t)
	seedAll(t, f)
	ctx := context.Background()

	p, err := query.NewBuilder().Build()
	require.NoError(t, err)

	total, err := query.Select[int](f, c.ID).From(c).FetchCount(ctx)
	require.NoError(t, err)
	filtered, err := query.Select[int](f, c.ID).From(c).Where(p).FetchCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, total, filtered)
}

func TestPagedFetchMatchesCount(t *testing.T) {
	f := testutil.NewFactory(t)
	seedAll(t, f)
	ctx := context.Background()

	preds := []query.Predicate{query.Empty, c.Gender.Eq(1), c.Age.Gt(30), c.Age.Gt(99)}
	windows := []struct{ limit, offset int64 }{
		{0, 0}, {1, 0}, {2, 1}, {2, 2}, {5, 0}, {1, 3}, {0, 2}, {10, 10},
	}
	for _, p := range preds {
		count, err := query.Select[int](f, c.ID).From(c).Where(p).FetchCount(ctx)
		require.NoError(t, err)
		for _, w := range windows {
			page, err := query.Select[domain.CustomerDTO](f).From(c).Where(p).
				OrderBy(c.ID.Desc()).Limit(w.limit).Offset(w.offset).FetchResults(ctx)
			require.NoError(t, err)
			assert.Equal(t, count, page.Total(), "%s limit=%d offset=%d", p, w.limit, w.offset)
			assert.Equal(t, w.limit, page.Limit())
			assert.Equal(t, w.offset, page.Offset())

			want := max(0, count-w.offset)
			if w.limit > 0 {
				want = min(w.limit, want)
			}
			assert.Equal(t, int(want), page.Len(), "%s limit=%d offset=%d", p, w.limit, w.offset)
		}
	}
}

func TestPageFollowsOrdering(t *testing.T) {
	f := testutil.NewFactory(t)
	seedAll(t, f)

	page, err := query.Select[string](f, c.LastName).From(c).
		OrderBy(c.ID.Desc()).Limit(2).Offset(1).FetchResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"王海涛", "姬岚洋"}, page.Results())
	assert.Equal(t, int64(3), page.Total())
}

func TestLeftJoinKeepsUnmatchedRows(t *testing.T) {
	f := testutil.NewFactory(t)
	seedAll(t, f)

	rows, err := query.Select[domain.CustomerOrderDTO](f,
		c.ID.As("customer_id"), c.LastName, c.Email, o.ID.As("order_id"), o.Name.As("order_name")).
		From(c).LeftJoin(o).On(o.CustomerID.EqPath(c.ID)).
		OrderBy(c.ID.Asc(), o.ID.Asc()).
		Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "姬岚洋", rows[0].LastName)
	assert.Equal(t, "xs-键盘", *rows[0].OrderName)
	assert.Equal(t, "显示器", *rows[1].OrderName)
	assert.Equal(t, "xs-鼠标", *rows[2].OrderName)

	var unmatched int
	for _, r := range rows {
		if r.CustomerID == 3 {
			unmatched++
			assert.Nil(t, r.OrderID)
			assert.Nil(t, r.OrderName)
		}
	}
	assert.Equal(t, 1, unmatched)

	inner, err := query.Select[int](f, c.ID).From(c).InnerJoin(o).On(o.CustomerID.EqPath(c.ID)).
		FetchCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), inner)
}

func TestSubqueryOperand(t *testing.T) {
	f := testutil.NewFactory(t)
	seedAll(t, f)
	ctx := context.Background()

	names, err := query.Select[string](f, o.Name).From(o).
		Where(o.CustomerID.InQuery(query.Sub(c.ID).From(c).Where(c.LastName.Eq("姬岚洋")))).
		OrderBy(o.ID.Asc()).Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"xs-键盘", "显示器"}, names)

	oldest, err := query.Select[string](f, c.LastName).From(c).
		Where(c.Age.EqQuery(query.Sub(c.Age.Max()).From(c))).FetchOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, "赵无单", *oldest)
}

func TestDistinctAndAggregates(t *testing.T) {
	f := testutil.NewFactory(t)
	seedAll(t, f)
	ctx := context.Background()

	ages, err := query.SelectDistinct[int](f, c.Age).From(c).OrderBy(c.Age.Asc()).Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{23, 35}, ages)

	n, err := query.SelectDistinct[int](f, c.Age).From(c).FetchCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	avg, err := query.Select[float64](f, c.Age.Avg()).From(c).FetchOne(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 27.0, *avg, 0.001)

	joined, err := query.Select[string](f, query.Concat(c.LastName, ":", c.Email)).From(c).
		Where(c.ID.Eq(2)).FetchOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, "王海涛:wht@qq.com", *joined)
}

func TestTemplateOperands(t *testing.T) {
	f := testutil.NewFactory(t)
	seedAll(t, f)
	ctx := context.Background()

	upper, err := query.Select[string](f, query.MustTemplate("UPPER({0})", c.Email).As("email")).
		From(c).Where(c.ID.Eq(1)).FetchOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, "JLY@QQ.COM", *upper)

	n, err := query.Select[int](f, c.ID).From(c).
		Where(c.LastName.Eq(query.MustTemplate("TRIM({0})", "  王海涛 "))).FetchCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	odd, err := query.Select[int](f, c.ID).From(c).
		Where(query.MustTemplate("{0} % 2 = {1}", c.ID, 1)).OrderBy(c.ID.Asc()).Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, odd)
}

func TestInvalidQueryNeverReachesStore(t *testing.T) {
	f := testutil.NewFactory(t)
	ctx := context.Background()

	q := query.Select[int](f, c.ID).From(c).Where(c.Age.Between(1, nil))
	_, err := q.Fetch(ctx)
	assert.ErrorIs(t, err, query.ErrInvalidPredicate)
	_, err = q.FetchCount(ctx)
	assert.ErrorIs(t, err, query.ErrInvalidPredicate)
	_, err = q.FetchResults(ctx)
	assert.ErrorIs(t, err, query.ErrInvalidPredicate)
}

func TestStorageErrorsAreWrapped(t *testing.T) {
	f := testutil.NewFactory(t)
	ctx := context.Background()
	ghost := query.NewEntity("ghost", "g")
	id := ghost.Column("id", query.TypeInt, false)

	_, err := query.Select[int](f, id).From(ghost).Fetch(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, query.ErrStorage)
	var se *query.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "fetch", se.Op)
}

func TestFactoryObservesStatements(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := prometheus.NewRegistry()
	f := query.NewFactory(testutil.NewDB(t), query.WithLogger(zap.New(core)), query.WithMetrics(query.NewMetrics(reg)))
	seedTwo(t, f)
	ctx := context.Background()

	_, err := query.Select[string](f, c.LastName).From(c).Fetch(ctx)
	require.NoError(t, err)
	_, err = f.Delete(o).Execute(ctx)
	require.ErrorIs(t, err, query.ErrNoTransaction)

	entries := logs.FilterMessage("query").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "fetch", entries[0].ContextMap()["op"])
	assert.Equal(t, 1, logs.FilterMessage("query failed").Len())

	n, err := promtest.GatherAndCount(reg, "query_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = promtest.GatherAndCount(reg, "query_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
