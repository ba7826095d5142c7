package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "Pending"
	OrderStatusConfirmed      OrderStatus = "Order Confirmed"
	OrderStatusOutForDelivery OrderStatus = "Out for Delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusOutForDelivery, OrderStatusDelivered:
		return true
	default:
		return false
	}
}

type Order struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"not null;index" json:"user_id"`
	User       *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Email      string          `gorm:"type:varchar(254);not null" json:"email"`
	Address    string          `gorm:"type:varchar(500);not null" json:"address"`
	Mobile     string          `gorm:"type:varchar(50);not null" json:"mobile"`
	TotalPrice decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"total_price"`
	Status     OrderStatus     `gorm:"type:varchar(50);not null;default:Pending;index" json:"status"`
	OrderDate  time.Time       `gorm:"not null" json:"order_date"`
	OrderItems []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
	BaseModel
}

// OrderItem 不對 listing 建外鍵, listing 刪除後訂單歷史仍保留
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	ListingID   uint            `gorm:"not null;index" json:"listing_id"`
	ListingName string          `gorm:"type:varchar(300)" json:"listing_name"`
	Price       decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"price"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	BaseModel
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
