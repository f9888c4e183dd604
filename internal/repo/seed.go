package repo

import (
	"context"

	"gorm.io/gorm"

	"gin-gorm-querydsl/internal/domain"
	"gin-gorm-querydsl/internal/query"
)

// AutoMigrate 建表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(domain.Models()...)
}

func intPtr(v int) *int { return &v }

// SeedDemo 客户表为空时写入演示数据，返回写入的客户数
func SeedDemo(ctx context.Context, f *query.Factory) (int, error) {
	n, err := NewCustomerRepo(f).Count(ctx, query.Empty)
	if err != nil || n > 0 {
		return 0, err
	}
	customers := []domain.Customer{
		{LastName: "姬岚洋", Email: "jly@qq.com", Age: intPtr(23), Gender: intPtr(1)},
		{LastName: "王海涛", Email: "wht@qq.com", Age: intPtr(23), Gender: intPtr(0)},
	}
	err = f.Transaction(ctx, func(tx *query.Factory) error {
		if err := NewCustomerRepo(tx).SaveAll(ctx, customers); err != nil {
			return err
		}
		orders := []domain.Order{
			{Name: "xs-键盘", CustomerID: customers[0].ID},
			{Name: "显示器", CustomerID: customers[0].ID},
			{Name: "xs-鼠标", CustomerID: customers[1].ID},
		}
		return NewOrderRepo(tx).SaveAll(ctx, orders)
	})
	if err != nil {
		return 0, err
	}
	return len(customers), nil
}
