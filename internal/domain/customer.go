package domain

import (
	"time"

	"gorm.io/gorm"
)

type Customer struct {
	ID       int       `gorm:"primaryKey;autoIncrement" json:"id"`
	LastName string    `gorm:"column:last_name;uniqueIndex;size:64;not null" json:"lastName"`
	Email    string    `gorm:"size:191" json:"email"`
	Age      *int      `json:"age"`
	Gender   *int      `gorm:"size:8" json:"gender"` // 0 / 1
	Birth    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"birth"`
}

func (Customer) TableName() string { return "customer" }

// BeforeCreate 未设置生日时取当前时间
func (c *Customer) BeforeCreate(*gorm.DB) error {
	if c.Birth.IsZero() {
		c.Birth = time.Now()
	}
	return nil
}

// CustomerDTO 只读投影，不含生日
type CustomerDTO struct {
	ID       int    `json:"id"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
	Age      *int   `json:"age"`
	Gender   *int   `json:"gender"`
}

// CustomerOrderDTO 客户 left join 订单的一行；没有订单时 OrderName 为 nil
type CustomerOrderDTO struct {
	CustomerID int     `json:"customerId"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	OrderID    *int    `json:"orderId"`
	OrderName  *string `json:"orderName"`
}

type NameEmail struct {
	LastName string `json:"lastName"`
	Email    string `json:"email"`
}
