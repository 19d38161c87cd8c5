package order

import (
	"log"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"

	"foodcourt/internal/apperr"
	"foodcourt/internal/database"
	"foodcourt/internal/menucheck"
	"foodcourt/internal/models"
)

// allowedTransitions is the forward-only cooker progression. Missing entries
// are illegal jumps.
var allowedTransitions = map[models.OrderStatus]map[models.OrderStatus]bool{
	models.OrderStatusReceive: {models.OrderStatusCooking: true},
	models.OrderStatusCooking: {models.OrderStatusReady: true},
	models.OrderStatusReady:   {models.OrderStatusDone: true},
	models.OrderStatusDone:    {},
}

// paymentTransitions maps the payment axis: pending resolves exactly once
var paymentTransitions = map[models.PaymentStatus]map[models.PaymentStatus]bool{
	models.PaymentPending: {
		models.PaymentPaid:     true,
		models.PaymentRejected: true,
		models.PaymentExpired:  true,
		models.PaymentFailed:   true,
	},
	models.PaymentPaid:     {},
	models.PaymentRejected: {},
	models.PaymentExpired:  {},
	models.PaymentFailed:   {},
}

// CreateItem is one requested line item on a new order
type CreateItem struct {
	MenuID   uint `json:"menuId" binding:"required"`
	Quantity int  `json:"quantity" binding:"required"`
}

// CreateInput is the checkout payload after HTTP deserialization
type CreateInput struct {
	RestaurantID uint         `json:"restaurantId" binding:"required"`
	DeliverAt    string       `json:"deliverAt" binding:"required"`
	Details      string       `json:"details"`
	Items        []CreateItem `json:"items" binding:"required"`

	UserID uint `json:"-"`
}

// UpdateInput carries the mutable order fields. Nil pointers leave the
// current value untouched. The owning restaurant is immutable and is not
// accepted here.
type UpdateInput struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"paymentStatus"`
	DeliverAt     *string `json:"deliverAt"`
	IsDelay       *bool   `json:"isDelay"`
}

// Broadcaster pushes order lifecycle transitions to live subscribers
type Broadcaster interface {
	BroadcastOrderUpdate(orderID uint, restaurantID uint, status string)
}

// Service governs the order lifecycle: creation-time validation, forward
// status progression, payment coupling and deletion.
type Service struct {
	db       *gorm.DB
	leadTime time.Duration
	feed     Broadcaster

	now func() time.Time
}

// NewService builds the order service. feed may be nil when no live
// subscribers exist (tests, batch tools).
func NewService(db *gorm.DB, leadTime time.Duration, feed Broadcaster) *Service {
	return &Service{
		db:       db,
		leadTime: leadTime,
		feed:     feed,
		now:      time.Now,
	}
}

// WithTx returns a copy of the service whose writes go through tx, so the
// caller can compose order updates into a wider transaction.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	c := *s
	c.db = tx
	return &c
}

// Create validates and persists a new order with its line items in one
// transaction. OrderAt is stamped with the server clock; the client cannot
// influence it.
func (s *Service) Create(input CreateInput) (*models.Order, error) {
	orderAt := s.now()

	deliverAt, err := time.Parse(time.RFC3339, input.DeliverAt)
	if err != nil {
		return nil, apperr.Validation("รูปแบบเวลาจัดส่งไม่ถูกต้อง")
	}
	if !deliverAt.After(orderAt) {
		return nil, apperr.Validation("เวลาจัดส่งต้องอยู่หลังเวลาสั่งซื้อ")
	}
	if !deliverAt.After(orderAt.Add(s.leadTime)) {
		return nil, apperr.Validation("เวลาจัดส่งต้องห่างจากเวลาสั่งซื้ออย่างน้อย %d นาที", int(s.leadTime.Minutes()))
	}

	if len(input.Items) == 0 {
		return nil, apperr.Validation("คำสั่งซื้อต้องมีรายการอาหารอย่างน้อย 1 รายการ")
	}
	menuIDs := make([]uint, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, apperr.Validation("จำนวนรายการอาหารต้องมากกว่าหรือเท่ากับ 1")
		}
		menuIDs = append(menuIDs, item.MenuID)
	}

	// Restaurant and menu ownership must check out before anything is written.
	if err := menucheck.MenusBelongTo(s.db, input.RestaurantID, menuIDs); err != nil {
		return nil, err
	}

	order := &models.Order{
		Status:        string(models.OrderStatusReceive),
		PaymentStatus: string(models.PaymentPending),
		OrderAt:       orderAt,
		DeliverAt:     deliverAt,
		Details:       input.Details,
		UserID:        input.UserID,
		RestaurantID:  input.RestaurantID,
		TotalPrice:    decimal.Zero,
	}

	err = database.InTransaction(s.db, func(tx *gorm.DB) error {
		total := decimal.Zero
		items := make([]models.OrderMenu, 0, len(input.Items))
		for _, item := range input.Items {
			var menu models.Menu
			if err := tx.First(&menu, item.MenuID).Error; err != nil {
				return err
			}
			total = total.Add(menu.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			items = append(items, models.OrderMenu{
				MenuID:    item.MenuID,
				Quantity:  item.Quantity,
				UnitPrice: menu.Price,
			})
		}
		order.TotalPrice = total

		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// FindOne fetches an order with its line items and defensively re-checks
// that every item still resolves against the order's restaurant. A mismatch
// is a validation failure, never silently ignored.
func (s *Service) FindOne(orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").First(&order, orderID).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, apperr.NotFound("order", orderID)
		}
		return nil, err
	}

	menuIDs := make([]uint, 0, len(order.Items))
	for _, item := range order.Items {
		menuIDs = append(menuIDs, item.MenuID)
	}
	if err := menucheck.MenusBelongTo(s.db, order.RestaurantID, menuIDs); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Validation("คำสั่งซื้อ %d มีรายการอาหารที่ไม่อยู่ในร้านค้า: %v", orderID, err)
		}
		return nil, err
	}

	return &order, nil
}

// ListByRestaurant returns a restaurant's orders, newest first
func (s *Service) ListByRestaurant(restaurantID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Items").
		Where("restaurant_id = ?", restaurantID).
		Order("order_at DESC").
		Find(&orders).Error
	return orders, err
}

// ListByUser returns a customer's orders, newest first
func (s *Service) ListByUser(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("order_at DESC").
		Find(&orders).Error
	return orders, err
}

// Update applies status, payment status, delivery time and delay changes to
// an existing order. A missing order fails before any write. Transitions on
// either axis are validated against the state machines above.
func (s *Service) Update(orderID uint, input UpdateInput) (*models.Order, error) {
	order, err := s.FindOne(orderID)
	if err != nil {
		return nil, err
	}

	statusChanged := false
	if input.Status != nil && *input.Status != order.Status {
		if err := checkTransition(order.Status, *input.Status); err != nil {
			return nil, err
		}
		order.Status = *input.Status
		statusChanged = true
	}

	if input.PaymentStatus != nil && *input.PaymentStatus != order.PaymentStatus {
		if err := checkPaymentTransition(order.PaymentStatus, *input.PaymentStatus); err != nil {
			return nil, err
		}
		order.PaymentStatus = *input.PaymentStatus
	}

	if input.DeliverAt != nil {
		deliverAt, err := time.Parse(time.RFC3339, *input.DeliverAt)
		if err != nil {
			return nil, apperr.Validation("รูปแบบเวลาจัดส่งไม่ถูกต้อง")
		}
		if !deliverAt.After(order.OrderAt) {
			return nil, apperr.Validation("เวลาจัดส่งต้องอยู่หลังเวลาสั่งซื้อ")
		}
		order.DeliverAt = deliverAt
	}

	if input.IsDelay != nil {
		if *input.IsDelay && order.Done() {
			return nil, apperr.Conflict("order %d is already done and cannot be delayed", orderID)
		}
		order.IsDelay = *input.IsDelay
	}

	if err := s.db.Save(order).Error; err != nil {
		return nil, err
	}

	if statusChanged && s.feed != nil {
		s.feed.BroadcastOrderUpdate(order.ID, order.RestaurantID, order.Status)
	}

	return order, nil
}

// MarkPayment resolves the payment axis of an order, typically from the
// payment-gateway webhook. Returns the updated order.
func (s *Service) MarkPayment(orderID uint, status models.PaymentStatus) (*models.Order, error) {
	v := string(status)
	return s.Update(orderID, UpdateInput{PaymentStatus: &v})
}

// Remove existence-checks then deletes the order and its line items
func (s *Service) Remove(orderID uint) error {
	if _, err := s.FindOne(orderID); err != nil {
		return err
	}

	return database.InTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderMenu{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, "id = ?", orderID).Error
	})
}

// SetRefCode stores the customer-supplied payment reference on an order
func (s *Service) SetRefCode(orderID uint, refCode string) error {
	order, err := s.FindOne(orderID)
	if err != nil {
		return err
	}
	order.RefCode = refCode
	return s.db.Save(order).Error
}

func checkTransition(from, to string) error {
	next, ok := allowedTransitions[models.OrderStatus(from)]
	if !ok {
		return apperr.Validation("unknown order status %q", from)
	}
	if !next[models.OrderStatus(to)] {
		log.Printf("order: rejected status transition %s -> %s", from, to)
		return apperr.Conflict("invalid order status transition %s -> %s", from, to)
	}
	return nil
}

func checkPaymentTransition(from, to string) error {
	next, ok := paymentTransitions[models.PaymentStatus(from)]
	if !ok {
		return apperr.Validation("unknown payment status %q", from)
	}
	if !next[models.PaymentStatus(to)] {
		return apperr.Conflict("invalid payment status transition %s -> %s", from, to)
	}
	return nil
}
