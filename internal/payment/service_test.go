package payment

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/apperr"
	"foodcourt/internal/database"
	"foodcourt/internal/models"
	"foodcourt/internal/order"
	"foodcourt/internal/payout"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	calc, err := payout.NewCalculator(0.029, 0.07, 0.10)
	require.NoError(t, err)
	orders := order.NewService(db, time.Minute, nil)
	payouts := payout.NewService(db, calc)
	return NewService(db, orders, payouts), db
}

func seedPendingOrder(t *testing.T, db *gorm.DB) *models.Order {
	t.Helper()
	r := &models.Restaurant{
		Name:      "Krua Webhook",
		OpenDays:  models.StringSlice{"mon"},
		OpenTime:  "09:00",
		CloseTime: "17:00",
	}
	require.NoError(t, db.Create(r).Error)
	o := &models.Order{
		Status:        string(models.OrderStatusReceive),
		PaymentStatus: string(models.PaymentPending),
		OrderAt:       time.Now(),
		DeliverAt:     time.Now().Add(time.Hour),
		UserID:        4,
		RestaurantID:  r.ID,
		TotalPrice:    decimal.NewFromInt(500),
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

func chargeEvent(orderID uint, status string) map[string]interface{} {
	return map[string]interface{}{
		"key": "charge.complete",
		"data": map[string]interface{}{
			"status": status,
			"metadata": map[string]interface{}{
				"order_id": float64(orderID),
			},
		},
	}
}

func TestWebhookConfirmsAndSettles(t *testing.T) {
	svc, db := newTestService(t)
	o := seedPendingOrder(t, db)

	require.NoError(t, svc.HandleWebhook(chargeEvent(o.ID, "successful")))

	var updated models.Order
	require.NoError(t, db.First(&updated, o.ID).Error)
	assert.Equal(t, string(models.PaymentPaid), updated.PaymentStatus)

	var p models.Payout
	require.NoError(t, db.Where("order_id = ?", o.ID).First(&p).Error)
	assert.Equal(t, "450", p.RestaurantEarning.String())
}

func TestWebhookReplayIsIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	o := seedPendingOrder(t, db)

	require.NoError(t, svc.HandleWebhook(chargeEvent(o.ID, "successful")))
	// The gateway redelivers; the second run neither fails nor double-settles.
	require.NoError(t, svc.HandleWebhook(chargeEvent(o.ID, "successful")))

	var count int64
	require.NoError(t, db.Model(&models.Payout{}).Where("order_id = ?", o.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestWebhookFailureStatuses(t *testing.T) {
	cases := []struct {
		charge string
		want   models.PaymentStatus
	}{
		{"failed", models.PaymentFailed},
		{"expired", models.PaymentExpired},
		{"reversed", models.PaymentRejected},
	}
	for _, tc := range cases {
		t.Run(tc.charge, func(t *testing.T) {
			svc, db := newTestService(t)
			o := seedPendingOrder(t, db)

			require.NoError(t, svc.HandleWebhook(chargeEvent(o.ID, tc.charge)))

			var updated models.Order
			require.NoError(t, db.First(&updated, o.ID).Error)
			assert.Equal(t, string(tc.want), updated.PaymentStatus)

			var count int64
			require.NoError(t, db.Model(&models.Payout{}).Count(&count).Error)
			assert.EqualValues(t, 0, count, "failed charges never settle")
		})
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	svc, db := newTestService(t)
	o := seedPendingOrder(t, db)

	err := svc.HandleWebhook(map[string]interface{}{"key": "charge.create"})
	assert.NoError(t, err)

	var untouched models.Order
	require.NoError(t, db.First(&untouched, o.ID).Error)
	assert.Equal(t, string(models.PaymentPending), untouched.PaymentStatus)
}

func TestWebhookRejectsMalformedEvents(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.HandleWebhook(map[string]interface{}{"key": "charge.complete"})
	assert.True(t, apperr.IsValidation(err), "no data: got %v", err)

	err = svc.HandleWebhook(map[string]interface{}{
		"key":  "charge.complete",
		"data": map[string]interface{}{"status": "exploded"},
	})
	assert.True(t, apperr.IsValidation(err), "unknown status: got %v", err)

	err = svc.HandleWebhook(map[string]interface{}{
		"key":  "charge.complete",
		"data": map[string]interface{}{"status": "successful"},
	})
	assert.True(t, apperr.IsValidation(err), "no metadata: got %v", err)
}

func TestWebhookUnknownOrder(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.HandleWebhook(chargeEvent(31337, "successful"))
	assert.True(t, apperr.IsNotFound(err), "got %v", err)
}

func TestConfirmSlip(t *testing.T) {
	svc, db := newTestService(t)
	o := seedPendingOrder(t, db)

	settled, err := svc.ConfirmSlip(o.ID, "TXN8F2K9Q")
	require.NoError(t, err)
	assert.Equal(t, "450", settled.RestaurantEarning.String())

	var updated models.Order
	require.NoError(t, db.First(&updated, o.ID).Error)
	assert.Equal(t, string(models.PaymentPaid), updated.PaymentStatus)
	assert.Equal(t, "TXN8F2K9Q", updated.RefCode)
}

func TestConfirmSlipRollsBackOnSettleFailure(t *testing.T) {
	svc, db := newTestService(t)
	o := seedPendingOrder(t, db)

	// A payout row already on the order makes the settlement step conflict
	// after the reference code and payment status have been written.
	require.NoError(t, db.Create(&models.Payout{
		OrderID:      o.ID,
		RestaurantID: o.RestaurantID,
	}).Error)

	_, err := svc.ConfirmSlip(o.ID, "TXN8F2K9Q")
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err), "got %v", err)

	var untouched models.Order
	require.NoError(t, db.First(&untouched, o.ID).Error)
	assert.Equal(t, string(models.PaymentPending), untouched.PaymentStatus, "payment status must be rolled back")
	assert.Empty(t, untouched.RefCode, "reference code must be rolled back")
}
