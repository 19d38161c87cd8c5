package models

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// Payout is the settlement record for one paid order. The weekly window
// is computed once at creation and never recomputed afterwards.
type Payout struct {
	gorm.Model
	OrderID           uint            `gorm:"not null;unique_index" json:"orderId"`
	RestaurantID      uint            `gorm:"not null;index" json:"restaurantId"`
	RestaurantEarning decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"restaurantEarning"`
	PlatformFee       decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"platformFee"`
	StartDate         time.Time       `gorm:"not null" json:"startDate"`
	EndDate           time.Time       `gorm:"not null" json:"endDate"`
	PaidAt            *time.Time      `json:"paidAt,omitempty"`
}
