package slip

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/apperr"
	"foodcourt/internal/database"
	"foodcourt/internal/models"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) ExtractText(ctx context.Context, image []byte, lang string) (string, error) {
	args := m.Called(ctx, image, lang)
	return args.String(0), args.Error(1)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

// 14:30 on 15 January 2024 in Bangkok, BE year 2567
var orderAt = time.Date(2024, 1, 15, 14, 30, 0, 0, time.FixedZone("ICT", 7*3600))

func seedOrder(t *testing.T, db *gorm.DB, total string, refCode string) *models.Order {
	t.Helper()
	price, err := decimal.NewFromString(total)
	require.NoError(t, err)
	order := &models.Order{
		Status:        string(models.OrderStatusReceive),
		PaymentStatus: string(models.PaymentPending),
		OrderAt:       orderAt,
		DeliverAt:     orderAt.Add(time.Hour),
		UserID:        2,
		RestaurantID:  1,
		TotalPrice:    price,
		RefCode:       refCode,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

const goodSlip = "ธนาคารกสิกรไทย\nรหัสอ้างอิง TXN8F2K9Q\nจำนวนเงิน 175.50 บาท\n15 ม.ค. 67 14:35"

func TestVerifyAccepts(t *testing.T) {
	db := newTestDB(t)
	order := seedOrder(t, db, "175.50", "")

	engine := &mockEngine{}
	engine.On("ExtractText", mock.Anything, mock.Anything, "tha").Return(goodSlip, nil)

	v := NewVerifier(db, engine, "tha", 15*time.Minute, true)
	result := v.Verify(context.Background(), order.ID, []byte("img"))

	require.Equal(t, StatusVerified, result.Status, "reason: %s err: %v", result.Reason, result.Err)
	assert.Equal(t, "TXN8F2K9Q", result.Extracted.RefCode)
	assert.True(t, result.Extracted.Amount.Equal(decimal.RequireFromString("175.50")))
	assert.Equal(t, "14:35", result.Extracted.Timestamp.Format("15:04"))
	engine.AssertExpectations(t)
}

func TestVerifyRejectsAmountMismatch(t *testing.T) {
	db := newTestDB(t)
	order := seedOrder(t, db, "200", "")

	engine := &mockEngine{}
	engine.On("ExtractText", mock.Anything, mock.Anything, "tha").Return(goodSlip, nil)

	v := NewVerifier(db, engine, "tha", 15*time.Minute, true)
	result := v.Verify(context.Background(), order.ID, []byte("img"))

	assert.Equal(t, StatusRejected, result.Status)
	assert.Contains(t, result.Reason, "does not match order total")
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	db := newTestDB(t)
	order := seedOrder(t, db, "175.50", "")

	// Transfer made two hours before the order was placed.
	stale := "รหัสอ้างอิง TXN8F2K9Q\nจำนวนเงิน 175.50 บาท\n15 ม.ค. 67 12:30"
	engine := &mockEngine{}
	engine.On("ExtractText", mock.Anything, mock.Anything, "tha").Return(stale, nil)

	v := NewVerifier(db, engine, "tha", 15*time.Minute, true)
	result := v.Verify(context.Background(), order.ID, []byte("img"))

	assert.Equal(t, StatusRejected, result.Status)
	assert.Contains(t, result.Reason, "tolerance")
}

func TestVerifyRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		reason string
	}{
		{"no amount", "รหัสอ้างอิง TXN8F2K9Q\n15 ม.ค. 67 14:35", "no transfer amount"},
		{"no timestamp", "รหัสอ้างอิง TXN8F2K9Q\nจำนวนเงิน 175.50 บาท", "no transfer timestamp"},
		{"no reference", "โอนเงิน 175.50 บาท\n15 ม.ค. 67 14:35 น.", "no reference code"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := newTestDB(t)
			order := seedOrder(t, db, "175.50", "")

			engine := &mockEngine{}
			engine.On("ExtractText", mock.Anything, mock.Anything, "tha").Return(tc.text, nil)

			v := NewVerifier(db, engine, "tha", 15*time.Minute, true)
			result := v.Verify(context.Background(), order.ID, []byte("img"))

			assert.Equal(t, StatusRejected, result.Status)
			assert.Contains(t, result.Reason, tc.reason)
		})
	}
}

func TestVerifyDuplicateReference(t *testing.T) {
	db := newTestDB(t)
	// Another order placed the same day already carries this reference.
	seedOrder(t, db, "99", "TXN8F2K9Q")
	order := seedOrder(t, db, "175.50", "")

	engine := &mockEngine{}
	engine.On("ExtractText", mock.Anything, mock.Anything, "tha").Return(goodSlip, nil)

	v := NewVerifier(db, engine, "tha", 15*time.Minute, true)
	result := v.Verify(context.Background(), order.ID, []byte("img"))
	assert.Equal(t, StatusRejected, result.Status)
	assert.Contains(t, result.Reason, "already used")

	// With enforcement off the collision is logged and the slip passes.
	engine2 := &mockEngine{}
	engine2.On("ExtractText", mock.Anything, mock.Anything, "tha").Return(goodSlip, nil)
	lenient := NewVerifier(db, engine2, "tha", 15*time.Minute, false)
	result = lenient.Verify(context.Background(), order.ID, []byte("img"))
	assert.Equal(t, StatusVerified, result.Status, "reason: %s err: %v", result.Reason, result.Err)
}

func TestVerifyEngineFailure(t *testing.T) {
	db := newTestDB(t)
	order := seedOrder(t, db, "175.50", "")

	engine := &mockEngine{}
	engine.On("ExtractText", mock.Anything, mock.Anything, "tha").Return("", errors.New("model overloaded"))

	v := NewVerifier(db, engine, "tha", 15*time.Minute, true)
	result := v.Verify(context.Background(), order.ID, []byte("img"))

	assert.Equal(t, StatusErrored, result.Status)
	assert.True(t, apperr.IsExternal(result.Err), "got %v", result.Err)
}

func TestVerifyMissingOrder(t *testing.T) {
	db := newTestDB(t)
	engine := &mockEngine{}

	v := NewVerifier(db, engine, "tha", 15*time.Minute, true)
	result := v.Verify(context.Background(), 31337, []byte("img"))

	assert.Equal(t, StatusErrored, result.Status)
	assert.True(t, apperr.IsNotFound(result.Err), "got %v", result.Err)
	engine.AssertNotCalled(t, "ExtractText")
}

func TestVerifyReference(t *testing.T) {
	engine := &mockEngine{}
	engine.On("ExtractText", mock.Anything, mock.Anything, "tha").Return("ref txn8f2k9q confirmed", nil)

	v := NewVerifier(nil, engine, "tha", 15*time.Minute, true)

	ok, err := v.VerifyReference(context.Background(), []byte("img"), "8F2K")
	require.NoError(t, err)
	assert.True(t, ok, "match is case-insensitive")

	ok, err = v.VerifyReference(context.Background(), []byte("img"), "ZZZZ")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = v.VerifyReference(context.Background(), []byte("img"), "TOOLONG")
	assert.True(t, apperr.IsValidation(err), "got %v", err)
}

func TestExtractTimestampFourDigitYear(t *testing.T) {
	got, ok := extractTimestamp("TXN8F2K9Q 15 ม.ค. 2567 14:35", orderAt)
	require.True(t, ok)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.January, got.Month())
	assert.Equal(t, 15, got.Day())
	assert.Equal(t, "14:35", got.Format("15:04"))
}
