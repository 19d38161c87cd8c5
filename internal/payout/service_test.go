package payout

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
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	calc, err := NewCalculator(0.029, 0.07, 0.10)
	require.NoError(t, err)
	return NewService(db, calc), db
}

func seedPaidOrder(t *testing.T, db *gorm.DB, total int64, paymentStatus models.PaymentStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		Status:        string(models.OrderStatusDone),
		PaymentStatus: string(paymentStatus),
		OrderAt:       time.Now(),
		DeliverAt:     time.Now().Add(time.Hour),
		UserID:        5,
		RestaurantID:  1,
		TotalPrice:    decimal.NewFromInt(total),
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestSettle(t *testing.T) {
	svc, db := newTestService(t)
	order := seedPaidOrder(t, db, 1000, models.PaymentPaid)

	settledAt := time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return settledAt }

	payout, err := svc.Settle(order.ID)
	require.NoError(t, err)

	assert.Equal(t, order.ID, payout.OrderID)
	assert.Equal(t, order.RestaurantID, payout.RestaurantID)
	assert.Equal(t, "900", payout.RestaurantEarning.String())
	assert.Equal(t, "68.97", payout.PlatformFee.String())

	week := WeekOf(settledAt)
	assert.True(t, payout.StartDate.Equal(week.Start))
	assert.True(t, payout.EndDate.Equal(week.End))
	assert.Nil(t, payout.PaidAt)
}

func TestSettleOnlyOnce(t *testing.T) {
	svc, db := newTestService(t)
	order := seedPaidOrder(t, db, 500, models.PaymentPaid)

	_, err := svc.Settle(order.ID)
	require.NoError(t, err)

	_, err = svc.Settle(order.ID)
	assert.True(t, apperr.IsConflict(err), "got %v", err)

	var count int64
	require.NoError(t, db.Model(&models.Payout{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSettleRequiresPaidOrder(t *testing.T) {
	svc, db := newTestService(t)
	order := seedPaidOrder(t, db, 500, models.PaymentPending)

	_, err := svc.Settle(order.ID)
	assert.True(t, apperr.IsValidation(err), "got %v", err)
}

func TestSettleMissingOrder(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Settle(777)
	assert.True(t, apperr.IsNotFound(err), "got %v", err)
}

func TestListByWeek(t *testing.T) {
	svc, db := newTestService(t)

	// Two orders settled in the test week, one in the week before.
	inWeek := time.Date(2024, 1, 17, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return inWeek }
	first := seedPaidOrder(t, db, 300, models.PaymentPaid)
	second := seedPaidOrder(t, db, 450, models.PaymentPaid)
	_, err := svc.Settle(first.ID)
	require.NoError(t, err)
	_, err = svc.Settle(second.ID)
	require.NoError(t, err)

	svc.now = func() time.Time { return inWeek.AddDate(0, 0, -7) }
	previous := seedPaidOrder(t, db, 999, models.PaymentPaid)
	_, err = svc.Settle(previous.ID)
	require.NoError(t, err)

	// Any day of the window selects the same payouts.
	for _, day := range []time.Time{
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), // Monday
		inWeek, // Wednesday
		time.Date(2024, 1, 21, 10, 0, 0, 0, time.UTC), // Sunday evening in Bangkok
	} {
		payouts, week, err := svc.ListByWeek(1, day)
		require.NoError(t, err)
		assert.Equal(t, "15/01/24", week.FormattedStart)
		require.Len(t, payouts, 2)
		assert.Equal(t, first.ID, payouts[0].OrderID)
		assert.Equal(t, second.ID, payouts[1].OrderID)
	}
}

func TestFindOnePayout(t *testing.T) {
	svc, db := newTestService(t)
	order := seedPaidOrder(t, db, 250, models.PaymentPaid)

	created, err := svc.Settle(order.ID)
	require.NoError(t, err)

	found, err := svc.FindOne(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.OrderID, found.OrderID)

	_, err = svc.FindOne(98765)
	assert.True(t, apperr.IsNotFound(err))
}
