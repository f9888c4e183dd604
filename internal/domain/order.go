package domain

// Order 的 customer_id 不建外键
type Order struct {
	ID         int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string `gorm:"size:128" json:"name"`
	CustomerID int    `gorm:"column:customer_id;index" json:"customerId"`
}

func (Order) TableName() string { return "order" }

// Models 参与自动迁移的模型
func Models() []any { return []any{&Customer{}, &Order{}} }
