package models

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// Order represents one customer purchase at a restaurant
type Order struct {
	gorm.Model
	Status        string          `gorm:"not null;default:'receive'" json:"status"`
	PaymentStatus string          `gorm:"not null;default:'pending'" json:"paymentStatus"`
	IsDelay       bool            `gorm:"default:false" json:"isDelay"`
	TotalPrice    decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"totalPrice"`
	RefCode       string          `gorm:"index" json:"refCode"`
	OrderAt       time.Time       `gorm:"not null" json:"orderAt"`
	DeliverAt     time.Time       `gorm:"not null" json:"deliverAt"`
	Details       string          `json:"details"`
	UserID        uint            `gorm:"index" json:"userId"`
	RestaurantID  uint            `gorm:"not null;index" json:"restaurantId"`

	Items []OrderMenu `gorm:"foreignkey:OrderID" json:"items"`
}

// OrderMenu represents a quantity of one menu item within an order
type OrderMenu struct {
	gorm.Model
	OrderID   uint            `gorm:"not null;index" json:"orderId"`
	MenuID    uint            `gorm:"not null" json:"menuId"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"unitPrice"`
}

// OrderStatus represents the cooker-driven lifecycle states of an order
type OrderStatus string

const (
	OrderStatusReceive OrderStatus = "receive"
	OrderStatusCooking OrderStatus = "cooking"
	OrderStatusReady   OrderStatus = "ready"
	OrderStatusDone    OrderStatus = "done"
)

// PaymentStatus represents the payment axis of an order
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRejected PaymentStatus = "rejected"
	PaymentExpired  PaymentStatus = "expired"
	PaymentFailed   PaymentStatus = "failed"
)

// Done reports whether the order reached its terminal state
func (o *Order) Done() bool {
	return o.Status == string(OrderStatusDone)
}
