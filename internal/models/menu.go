package models

import (
	"fmt"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// Menu represents a dish a restaurant sells
type Menu struct {
	gorm.Model
	RestaurantID uint            `gorm:"not null;index" json:"restaurantId"`
	Name         string          `gorm:"not null" json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"price"`
	Category     string          `json:"category"`
	Available    bool            `gorm:"default:true" json:"available"`
	ImageURL     string          `json:"imageUrl"`
}

// ValidateMenu validates a menu before it is persisted
func ValidateMenu(m *Menu) error {
	if m.Name == "" {
		return fmt.Errorf("menu name is required")
	}
	if m.Price.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("menu price must be greater than 0")
	}
	if m.RestaurantID == 0 {
		return fmt.Errorf("menu must belong to a restaurant")
	}
	return nil
}
