package models

import (
	"github.com/jinzhu/gorm"
)

// Restaurant is a seller entity operated by a cooker. Open/close times are
// local wall-clock "HH:MM"; close may be numerically smaller than open for
// restaurants that run past midnight.
type Restaurant struct {
	gorm.Model
	Name            string      `gorm:"unique_index;not null" json:"name"`
	Description     string      `json:"description"`
	Categories      StringSlice `gorm:"type:text" json:"categories"`
	OpenDays        StringSlice `gorm:"type:text" json:"openDays"`
	OpenTime        string      `gorm:"not null" json:"openTime"`
	CloseTime       string      `gorm:"not null" json:"closeTime"`
	AvgCookMinutes  int         `json:"avgCookMinutes"`
	ManuallyClosed  bool        `gorm:"default:false" json:"manuallyClosed"`
	OwnerID         uint        `gorm:"index" json:"ownerId"`
	ContactPhone    string      `json:"contactPhone"`
	PromptPayNumber string      `json:"promptPayNumber"`

	Menus  []Menu  `gorm:"foreignkey:RestaurantID" json:"menus,omitempty"`
	Orders []Order `gorm:"foreignkey:RestaurantID" json:"-"`
}

// RestaurantCategory represents the enumerated restaurant tags
type RestaurantCategory string

const (
	CategoryRice     RestaurantCategory = "rice"
	CategoryNoodle   RestaurantCategory = "noodle"
	CategoryGrill    RestaurantCategory = "grill"
	CategoryDessert  RestaurantCategory = "dessert"
	CategoryBeverage RestaurantCategory = "beverage"
	CategoryHalal    RestaurantCategory = "halal"
)

// ValidCategory reports whether the tag is one of the known categories
func ValidCategory(c string) bool {
	switch RestaurantCategory(c) {
	case CategoryRice, CategoryNoodle, CategoryGrill, CategoryDessert, CategoryBeverage, CategoryHalal:
		return true
	}
	return false
}

// Weekday codes used in the OpenDays set, sun..sat
var WeekdayCodes = []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// ValidWeekdayCode reports whether the code is one of sun..sat
func ValidWeekdayCode(code string) bool {
	for _, c := range WeekdayCodes {
		if c == code {
			return true
		}
	}
	return false
}
