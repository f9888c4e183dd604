package domain

import (
	"strings"

	"gin-gorm-querydsl/internal/query"
)

// CustomerFilter 可选条件；为 nil 的字段不参与查询
type CustomerFilter struct {
	LastName *string `form:"lastName" json:"lastName"`
	Age      *int    `form:"age" json:"age"`
	Gender   *int    `form:"gender" json:"gender"`
}

// Predicate 按出现的字段拼条件：
// lastName → AND last_name LIKE %v%，age → AND age > v，gender → OR gender = v
func (f CustomerFilter) Predicate(c *QCustomer) (query.Predicate, error) {
	b := query.NewBuilder()
	b.AndIf(f.LastName != nil && strings.TrimSpace(*f.LastName) != "", func() query.Predicate {
		return c.LastName.Contains(strings.TrimSpace(*f.LastName))
	})
	b.AndIf(f.Age != nil, func() query.Predicate { return c.Age.Gt(*f.Age) })
	b.OrIf(f.Gender != nil, func() query.Predicate { return c.Gender.Eq(*f.Gender) })
	return b.Build()
}
