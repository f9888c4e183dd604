package repo

import (
	"context"

	"gin-gorm-querydsl/internal/domain"
	"gin-gorm-querydsl/internal/query"
)

type OrderRepo struct {
	*Repository[domain.Order]
	c *domain.QCustomer
	o *domain.QOrder
}

func NewOrderRepo(f *query.Factory) *OrderRepo {
	o := domain.Orders
	return &OrderRepo{
		Repository: New[domain.Order](f, o, o.ID),
		c:          domain.Customers,
		o:          o,
	}
}

func (r *OrderRepo) WithTx(tx *query.Factory) *OrderRepo {
	cp := *r
	cp.Repository = r.Repository.WithTx(tx)
	return &cp
}

// NamesByCustomerLastName 子查询：customer_id IN (SELECT id FROM customer WHERE last_name = ?)
func (r *OrderRepo) NamesByCustomerLastName(ctx context.Context, lastName string) ([]string, error) {
	c, o := r.c, r.o
	sub := query.Sub(c.ID).From(c).Where(c.LastName.Eq(lastName))
	return query.Select[string](r.f, o.Name).
		From(o).
		Where(o.CustomerID.InQuery(sub), o.Name.IsNotNull()).
		OrderBy(o.ID.Asc()).
		Fetch(ctx)
}

// DeleteByNameLike pattern 原样作为 LIKE 模式；必须在事务内调用
func (r *OrderRepo) DeleteByNameLike(ctx context.Context, pattern string) (int64, error) {
	o := r.o
	return r.f.Delete(o).Where(o.Name.Like(pattern)).Execute(ctx)
}
