// Package menucheck holds the menu-ownership validation shared by the order
// and restaurant services. Keeping it standalone breaks what would otherwise
// be a dependency cycle between the two.
package menucheck

import (
	"github.com/jinzhu/gorm"

	"foodcourt/internal/apperr"
	"foodcourt/internal/models"
)

// MenusBelongTo verifies that the restaurant exists and that every menu id
// resolves to a menu owned by it. The first missing entity is reported by
// name and identifier; a restaurant miss wins over a menu miss.
func MenusBelongTo(db *gorm.DB, restaurantID uint, menuIDs []uint) error {
	var restaurant models.Restaurant
	if err := db.First(&restaurant, restaurantID).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return apperr.NotFound("restaurant", restaurantID)
		}
		return err
	}

	for _, menuID := range menuIDs {
		var menu models.Menu
		err := db.Where("id = ? AND restaurant_id = ?", menuID, restaurantID).First(&menu).Error
		if err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return apperr.NotFound("menu", menuID)
			}
			return err
		}
	}
	return nil
}
