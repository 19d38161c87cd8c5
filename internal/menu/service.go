package menu

import (
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"

	"foodcourt/internal/apperr"
	"foodcourt/internal/models"
)

// CreateInput is the payload for adding a dish to a restaurant
type CreateInput struct {
	RestaurantID uint            `json:"restaurantId" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price" binding:"required"`
	Category     string          `json:"category"`
	ImageURL     string          `json:"imageUrl"`
}

// UpdateInput carries menu edits; nil fields are left unchanged
type UpdateInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Available   *bool            `json:"available"`
	ImageURL    *string          `json:"imageUrl"`
}

// Service manages the dishes restaurants sell
type Service struct {
	db *gorm.DB
}

// NewService builds the menu service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Create validates and persists a new menu under its restaurant
func (s *Service) Create(input CreateInput) (*models.Menu, error) {
	var restaurant models.Restaurant
	if err := s.db.First(&restaurant, input.RestaurantID).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, apperr.NotFound("restaurant", input.RestaurantID)
		}
		return nil, err
	}

	m := &models.Menu{
		RestaurantID: input.RestaurantID,
		Name:         input.Name,
		Description:  input.Description,
		Price:        input.Price,
		Category:     input.Category,
		Available:    true,
		ImageURL:     input.ImageURL,
	}
	if err := models.ValidateMenu(m); err != nil {
		return nil, apperr.Validation("%v", err)
	}
	if err := s.db.Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// FindOne fetches one menu by id
func (s *Service) FindOne(id uint) (*models.Menu, error) {
	var m models.Menu
	if err := s.db.First(&m, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, apperr.NotFound("menu", id)
		}
		return nil, err
	}
	return &m, nil
}

// ListByRestaurant returns a restaurant's menus
func (s *Service) ListByRestaurant(restaurantID uint) ([]models.Menu, error) {
	var menus []models.Menu
	err := s.db.Where("restaurant_id = ?", restaurantID).Find(&menus).Error
	return menus, err
}

// Update applies edits to an existing menu
func (s *Service) Update(id uint, input UpdateInput) (*models.Menu, error) {
	m, err := s.FindOne(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		m.Name = *input.Name
	}
	if input.Description != nil {
		m.Description = *input.Description
	}
	if input.Price != nil {
		m.Price = *input.Price
	}
	if input.Category != nil {
		m.Category = *input.Category
	}
	if input.Available != nil {
		m.Available = *input.Available
	}
	if input.ImageURL != nil {
		m.ImageURL = *input.ImageURL
	}

	if err := models.ValidateMenu(m); err != nil {
		return nil, apperr.Validation("%v", err)
	}
	if err := s.db.Save(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// Remove deletes one menu
func (s *Service) Remove(id uint) error {
	if _, err := s.FindOne(id); err != nil {
		return err
	}
	return s.db.Delete(&models.Menu{}, "id = ?", id).Error
}
