// Package payment maps opaque payment-gateway webhook events onto order
// payment updates. A confirmed charge triggers settlement synchronously.
package payment

import (
	"log"

	"github.com/jinzhu/gorm"

	"foodcourt/internal/apperr"
	"foodcourt/internal/database"
	"foodcourt/internal/models"
	"foodcourt/internal/monitoring"
	"foodcourt/internal/order"
	"foodcourt/internal/payout"
)

// chargeStatusMap translates gateway charge statuses to the order's payment
// axis. Unknown statuses are rejected rather than guessed at.
var chargeStatusMap = map[string]models.PaymentStatus{
	"successful": models.PaymentPaid,
	"failed":     models.PaymentFailed,
	"expired":    models.PaymentExpired,
	"reversed":   models.PaymentRejected,
}

// Service handles inbound gateway events and slip confirmations
type Service struct {
	db      *gorm.DB
	orders  *order.Service
	payouts *payout.Service
}

// NewService builds the payment service
func NewService(db *gorm.DB, orders *order.Service, payouts *payout.Service) *Service {
	return &Service{db: db, orders: orders, payouts: payouts}
}

// ConfirmSlip records a verified slip on the order: the reference code, the
// paid status and the payout land in one transaction, so a failure in any
// step leaves the order untouched.
func (s *Service) ConfirmSlip(orderID uint, refCode string) (*models.Payout, error) {
	var settled *models.Payout
	err := database.InTransaction(s.db, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		if err := orders.SetRefCode(orderID, refCode); err != nil {
			return err
		}
		if _, err := orders.MarkPayment(orderID, models.PaymentPaid); err != nil {
			return err
		}
		p, err := s.payouts.WithTx(tx).Settle(orderID)
		if err != nil {
			return err
		}
		settled = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	monitoring.PayoutsSettled.Inc()
	return settled, nil
}

// HandleWebhook processes one gateway event. The payload arrives as an
// opaque object; only the event key, charge status and order metadata are
// read. Events other than charge completions are acknowledged and ignored.
func (s *Service) HandleWebhook(event map[string]interface{}) error {
	key, _ := event["key"].(string)
	if key != "charge.complete" {
		log.Printf("payment: ignoring webhook event %q", key)
		return nil
	}

	data, ok := event["data"].(map[string]interface{})
	if !ok {
		return apperr.Validation("webhook event has no data object")
	}
	chargeStatus, _ := data["status"].(string)
	status, ok := chargeStatusMap[chargeStatus]
	if !ok {
		return apperr.Validation("unknown charge status %q", chargeStatus)
	}

	orderID, ok := orderIDFromMetadata(data)
	if !ok {
		return apperr.Validation("webhook event carries no order id")
	}

	updated, err := s.orders.MarkPayment(orderID, status)
	if err != nil {
		return err
	}
	monitoring.PaymentEvents.WithLabelValues(string(status)).Inc()

	if status == models.PaymentPaid {
		if _, err := s.payouts.Settle(updated.ID); err != nil {
			// The payment already stuck; a conflict here means the order was
			// settled before and the webhook is a replay.
			if apperr.IsConflict(err) {
				log.Printf("payment: order %d already settled, webhook replay", updated.ID)
				return nil
			}
			return err
		}
		monitoring.PayoutsSettled.Inc()
	}
	return nil
}

// orderIDFromMetadata digs the order id out of the charge metadata. JSON
// numbers arrive as float64.
func orderIDFromMetadata(data map[string]interface{}) (uint, bool) {
	metadata, ok := data["metadata"].(map[string]interface{})
	if !ok {
		return 0, false
	}
	raw, ok := metadata["order_id"].(float64)
	if !ok || raw <= 0 {
		return 0, false
	}
	return uint(raw), true
}
