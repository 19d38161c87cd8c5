package payout

import (
	"time"

	"github.com/jinzhu/gorm"

	"foodcourt/internal/apperr"
	"foodcourt/internal/models"
)

// Service creates and queries settlement records. Update and removal of a
// settled payout are intentionally unsupported.
type Service struct {
	db   *gorm.DB
	calc *Calculator

	now func() time.Time
}

// NewService builds the payout service
func NewService(db *gorm.DB, calc *Calculator) *Service {
	return &Service{db: db, calc: calc, now: time.Now}
}

// WithTx returns a copy of the service whose writes go through tx
func (s *Service) WithTx(tx *gorm.DB) *Service {
	c := *s
	c.db = tx
	return &c
}

// Settle computes and persists the payout for a paid order. Settling runs
// synchronously on payment confirmation; the weekly window is fixed at
// creation and never recomputed. An order settles at most once.
func (s *Service) Settle(orderID uint) (*models.Payout, error) {
	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, apperr.NotFound("order", orderID)
		}
		return nil, err
	}
	if order.PaymentStatus != string(models.PaymentPaid) {
		return nil, apperr.Validation("order %d is not paid and cannot be settled", orderID)
	}

	var existing models.Payout
	err := s.db.Where("order_id = ?", orderID).First(&existing).Error
	if err == nil {
		return nil, apperr.Conflict("order %d is already settled", orderID)
	}
	if !gorm.IsRecordNotFoundError(err) {
		return nil, err
	}

	breakdown, err := s.calc.Split(order.TotalPrice)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}

	week := WeekOf(s.now())
	payout := &models.Payout{
		OrderID:           order.ID,
		RestaurantID:      order.RestaurantID,
		RestaurantEarning: breakdown.RestaurantEarning,
		PlatformFee:       breakdown.PlatformFee,
		StartDate:         week.Start,
		EndDate:           week.End,
	}
	if err := s.db.Create(payout).Error; err != nil {
		return nil, err
	}
	return payout, nil
}

// FindOne fetches one payout by id
func (s *Service) FindOne(id uint) (*models.Payout, error) {
	var payout models.Payout
	if err := s.db.First(&payout, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, apperr.NotFound("payout", id)
		}
		return nil, err
	}
	return &payout, nil
}

// ListByWeek returns a restaurant's payouts for the settlement week
// containing day. Any day of the week selects the same window.
func (s *Service) ListByWeek(restaurantID uint, day time.Time) ([]models.Payout, WeekWindow, error) {
	week := WeekOf(day)

	var payouts []models.Payout
	err := s.db.Where("restaurant_id = ? AND start_date = ?", restaurantID, week.Start).
		Order("created_at ASC").
		Find(&payouts).Error
	if err != nil {
		return nil, week, err
	}
	return payouts, week, nil
}
