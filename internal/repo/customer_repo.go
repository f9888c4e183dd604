package repo

import (
	"context"
	"database/sql"

	"gin-gorm-querydsl/internal/domain"
	"gin-gorm-querydsl/internal/query"
)

type CustomerRepo struct {
	*Repository[domain.Customer]
	c *domain.QCustomer
	o *domain.QOrder
}

func NewCustomerRepo(f *query.Factory) *CustomerRepo {
	c := domain.Customers
	return &CustomerRepo{
		Repository: New[domain.Customer](f, c, c.ID),
		c:          c,
		o:          domain.Orders,
	}
}

// WithTx 返回绑定到事务的副本
func (r *CustomerRepo) WithTx(tx *query.Factory) *CustomerRepo {
	cp := *r
	cp.Repository = r.Repository.WithTx(tx)
	return &cp
}

// NamesOlderThan 年龄大于 age 的姓名，按 id 倒序
func (r *CustomerRepo) NamesOlderThan(ctx context.Context, age int) ([]string, error) {
	c := r.c
	return query.Select[string](r.f, c.LastName).
		From(c).
		Where(c.Age.Gt(age)).
		OrderBy(c.ID.Desc()).
		Fetch(ctx)
}

func (r *CustomerRepo) FindByLastName(ctx context.Context, lastName string) (*domain.NameEmail, error) {
	c := r.c
	return query.Select[domain.NameEmail](r.f, c.LastName, c.Email).
		From(c).
		Where(c.LastName.Eq(lastName)).
		FetchOne(ctx)
}

// FindBirthFormat 生日按 yyyy-MM-dd 格式化，用数据库自带的日期函数
func (r *CustomerRepo) FindBirthFormat(ctx context.Context, lastName string) (*string, error) {
	c := r.c
	tmpl, err := query.NewTemplate(dateFormatSQL(r.f.Dialect()), c.Birth)
	if err != nil {
		return nil, err
	}
	return query.Select[string](r.f, tmpl.As("birth")).
		From(c).
		Where(c.LastName.Eq(lastName)).
		FetchFirst(ctx)
}

func dateFormatSQL(dialect string) string {
	switch dialect {
	case "mysql":
		return "DATE_FORMAT({0}, '%Y-%m-%d')"
	case "postgres":
		return "to_char({0}, 'YYYY-MM-DD')"
	default:
		return "strftime('%Y-%m-%d', {0})"
	}
}

// Search 过滤 + 分页，按 id 升序
func (r *CustomerRepo) Search(ctx context.Context, f domain.CustomerFilter, offset, limit int64) (query.Page[domain.CustomerDTO], error) {
	c := r.c
	p, err := f.Predicate(c)
	if err != nil {
		return query.Page[domain.CustomerDTO]{}, err
	}
	return query.Select[domain.CustomerDTO](r.f, c.ID, c.LastName, c.Email, c.Age, c.Gender).
		From(c).
		Where(p).
		OrderBy(c.ID.Asc()).
		Offset(offset).
		Limit(limit).
		FetchResults(ctx)
}

// WithOrders 客户 left join 订单；lastNameLike 为空时不过滤
func (r *CustomerRepo) WithOrders(ctx context.Context, lastNameLike string) ([]domain.CustomerOrderDTO, error) {
	c, o := r.c, r.o
	where := query.Empty
	if lastNameLike != "" {
		where = c.LastName.Contains(lastNameLike)
	}
	return query.Select[domain.CustomerOrderDTO](r.f,
		c.ID.As("customer_id"), c.LastName, c.Email,
		o.ID.As("order_id"), o.Name.As("order_name"),
	).
		From(c).
		LeftJoin(o).On(o.CustomerID.EqPath(c.ID)).
		Where(where).
		OrderBy(c.ID.Asc(), o.ID.Asc()).
		Fetch(ctx)
}

// AverageAge 没有带年龄的客户时返回 nil
func (r *CustomerRepo) AverageAge(ctx context.Context, p query.Predicate) (*float64, error) {
	c := r.c
	avg, err := query.Select[sql.NullFloat64](r.f, c.Age.Avg().As("avg_age")).
		From(c).
		Where(p).
		FetchFirst(ctx)
	if err != nil || avg == nil || !avg.Valid {
		return nil, err
	}
	return &avg.Float64, nil
}

// NameEmails 形如 "姓名:邮箱"
func (r *CustomerRepo) NameEmails(ctx context.Context) ([]string, error) {
	c := r.c
	return query.Select[string](r.f, query.Concat(c.LastName, ":", c.Email).As("name_email")).
		From(c).
		Where(c.Email.IsNotNull()).
		OrderBy(c.ID.Asc()).
		Fetch(ctx)
}

func (r *CustomerRepo) DistinctNameEmails(ctx context.Context) ([]domain.NameEmail, error) {
	c := r.c
	return query.SelectDistinct[domain.NameEmail](r.f, c.LastName, c.Email).
		From(c).
		OrderBy(c.LastName.Asc()).
		Fetch(ctx)
}

// UpdateEmail 必须在事务内调用；返回是否命中
func (r *CustomerRepo) UpdateEmail(ctx context.Context, id int, email string) (bool, error) {
	c := r.c
	n, err := r.f.Update(c).
		Set(c.Email, email).
		Where(c.ID.Eq(id)).
		Execute(ctx)
	return n > 0, err
}
