package domain

import "gin-gorm-querydsl/internal/query"

// QCustomer 是 customer 表的列映射
type QCustomer struct {
	*query.Entity
	ID       query.Path
	LastName query.Path
	Email    query.Path
	Age      query.Path
	Gender   query.Path
	Birth    query.Path
}

func NewQCustomer(alias string) *QCustomer {
	e := query.NewEntity("customer", alias)
	return &QCustomer{
		Entity:   e,
		ID:       e.Column("id", query.TypeInt, false),
		LastName: e.Column("last_name", query.TypeString, false),
		Email:    e.Column("email", query.TypeString, true),
		Age:      e.Column("age", query.TypeInt, true),
		Gender:   e.Column("gender", query.TypeInt, true),
		Birth:    e.Column("birth", query.TypeTime, false),
	}
}

// QOrder 是 order 表的列映射
type QOrder struct {
	*query.Entity
	ID         query.Path
	Name       query.Path
	CustomerID query.Path
}

func NewQOrder(alias string) *QOrder {
	e := query.NewEntity("order", alias)
	return &QOrder{
		Entity:     e,
		ID:         e.Column("id", query.TypeInt, false),
		Name:       e.Column("name", query.TypeString, true),
		CustomerID: e.Column("customer_id", query.TypeInt, false),
	}
}

// 默认别名
var (
	Customers = NewQCustomer("c")
	Orders    = NewQOrder("o")
)
