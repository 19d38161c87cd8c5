package restaurant

import (
	"time"

	"github.com/jinzhu/gorm"

	"foodcourt/internal/apperr"
	"foodcourt/internal/database"
	"foodcourt/internal/models"
	"foodcourt/internal/schedule"
)

// CreateInput is the cooker-registration payload for a new restaurant
type CreateInput struct {
	Name            string   `json:"name" binding:"required"`
	Description     string   `json:"description"`
	Categories      []string `json:"categories"`
	OpenDays        []string `json:"openDays" binding:"required"`
	OpenTime        string   `json:"openTime" binding:"required"`
	CloseTime       string   `json:"closeTime" binding:"required"`
	AvgCookMinutes  int      `json:"avgCookMinutes"`
	ContactPhone    string   `json:"contactPhone"`
	PromptPayNumber string   `json:"promptPayNumber"`

	OwnerID uint `json:"-"`
}

// UpdateInput carries profile edits; nil fields are left unchanged
type UpdateInput struct {
	Description     *string   `json:"description"`
	Categories      *[]string `json:"categories"`
	OpenDays        *[]string `json:"openDays"`
	OpenTime        *string   `json:"openTime"`
	CloseTime       *string   `json:"closeTime"`
	AvgCookMinutes  *int      `json:"avgCookMinutes"`
	ManuallyClosed  *bool     `json:"manuallyClosed"`
	ContactPhone    *string   `json:"contactPhone"`
	PromptPayNumber *string   `json:"promptPayNumber"`
}

// View is a restaurant decorated with its live open status. IsOpen is
// recomputed from the wall clock on every read, never persisted.
type View struct {
	models.Restaurant
	IsOpen bool `json:"isOpen"`
}

// Service manages seller entities and their operating schedule
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService builds the restaurant service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Create registers a new restaurant. Names are unique across the platform.
func (s *Service) Create(input CreateInput) (*models.Restaurant, error) {
	if err := validateSchedule(input.OpenDays, input.OpenTime, input.CloseTime); err != nil {
		return nil, err
	}
	for _, c := range input.Categories {
		if !models.ValidCategory(c) {
			return nil, apperr.Validation("unknown restaurant category %q", c)
		}
	}

	var existing models.Restaurant
	err := s.db.Where("name = ?", input.Name).First(&existing).Error
	if err == nil {
		return nil, apperr.Conflict("restaurant name %q is already taken", input.Name)
	}
	if !gorm.IsRecordNotFoundError(err) {
		return nil, err
	}

	restaurant := &models.Restaurant{
		Name:            input.Name,
		Description:     input.Description,
		Categories:      models.StringSlice(input.Categories),
		OpenDays:        models.StringSlice(input.OpenDays),
		OpenTime:        input.OpenTime,
		CloseTime:       input.CloseTime,
		AvgCookMinutes:  input.AvgCookMinutes,
		OwnerID:         input.OwnerID,
		ContactPhone:    input.ContactPhone,
		PromptPayNumber: input.PromptPayNumber,
	}
	if err := s.db.Create(restaurant).Error; err != nil {
		return nil, err
	}
	return restaurant, nil
}

// FindOne fetches a restaurant with its menus and live open status
func (s *Service) FindOne(id uint) (*View, error) {
	var restaurant models.Restaurant
	if err := s.db.Preload("Menus").First(&restaurant, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, apperr.NotFound("restaurant", id)
		}
		return nil, err
	}
	return &View{Restaurant: restaurant, IsOpen: schedule.IsActuallyOpen(&restaurant, s.now())}, nil
}

// List returns every restaurant decorated with live open status
func (s *Service) List() ([]View, error) {
	var restaurants []models.Restaurant
	if err := s.db.Find(&restaurants).Error; err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]View, 0, len(restaurants))
	for i := range restaurants {
		views = append(views, View{
			Restaurant: restaurants[i],
			IsOpen:     schedule.IsActuallyOpen(&restaurants[i], now),
		})
	}
	return views, nil
}

// Update applies profile edits and the manual-close toggle
func (s *Service) Update(id uint, input UpdateInput) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.db.First(&restaurant, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, apperr.NotFound("restaurant", id)
		}
		return nil, err
	}

	if input.Description != nil {
		restaurant.Description = *input.Description
	}
	if input.Categories != nil {
		for _, c := range *input.Categories {
			if !models.ValidCategory(c) {
				return nil, apperr.Validation("unknown restaurant category %q", c)
			}
		}
		restaurant.Categories = models.StringSlice(*input.Categories)
	}
	if input.OpenDays != nil {
		for _, d := range *input.OpenDays {
			if !models.ValidWeekdayCode(d) {
				return nil, apperr.Validation("unknown weekday code %q", d)
			}
		}
		restaurant.OpenDays = models.StringSlice(*input.OpenDays)
	}
	if input.OpenTime != nil {
		restaurant.OpenTime = *input.OpenTime
	}
	if input.CloseTime != nil {
		restaurant.CloseTime = *input.CloseTime
	}
	if input.AvgCookMinutes != nil {
		restaurant.AvgCookMinutes = *input.AvgCookMinutes
	}
	if input.ManuallyClosed != nil {
		restaurant.ManuallyClosed = *input.ManuallyClosed
	}
	if input.ContactPhone != nil {
		restaurant.ContactPhone = *input.ContactPhone
	}
	if input.PromptPayNumber != nil {
		restaurant.PromptPayNumber = *input.PromptPayNumber
	}

	if err := s.db.Save(&restaurant).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// Remove deletes a restaurant and everything under it. Refused unless every
// order has reached done. Deletion runs in one transaction in referential
// order: line items, orders, menus, then the restaurant row.
func (s *Service) Remove(id uint) error {
	var restaurant models.Restaurant
	if err := s.db.First(&restaurant, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return apperr.NotFound("restaurant", id)
		}
		return err
	}

	var undone int64
	err := s.db.Model(&models.Order{}).
		Where("restaurant_id = ? AND status <> ?", id, string(models.OrderStatusDone)).
		Count(&undone).Error
	if err != nil {
		return err
	}
	if undone > 0 {
		return apperr.Conflict("restaurant %d still has %d unfinished orders", id, undone)
	}

	return database.InTransaction(s.db, func(tx *gorm.DB) error {
		var orderIDs []uint
		rows, err := tx.Model(&models.Order{}).Where("restaurant_id = ?", id).Select("id").Rows()
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var oid uint
			if err := rows.Scan(&oid); err != nil {
				return err
			}
			orderIDs = append(orderIDs, oid)
		}

		if len(orderIDs) > 0 {
			if err := tx.Where("order_id IN (?)", orderIDs).Delete(&models.OrderMenu{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("restaurant_id = ?", id).Delete(&models.Order{}).Error; err != nil {
			return err
		}
		if err := tx.Where("restaurant_id = ?", id).Delete(&models.Menu{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Restaurant{}, "id = ?", id).Error
	})
}

func validateSchedule(openDays []string, openTime, closeTime string) error {
	if len(openDays) == 0 {
		return apperr.Validation("restaurant must be open at least one day a week")
	}
	for _, d := range openDays {
		if !models.ValidWeekdayCode(d) {
			return apperr.Validation("unknown weekday code %q", d)
		}
	}
	// Clock strings are validated up front so reads never hit malformed data.
	if _, err := schedule.IsTimeBetween("00:00", openTime, closeTime); err != nil {
		return apperr.Validation("invalid operating hours: %v", err)
	}
	return nil
}
