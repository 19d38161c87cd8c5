package menu

import (
	"path/filepath"
	"testing"

	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/apperr"
	"foodcourt/internal/database"
	"foodcourt/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func seedRestaurant(t *testing.T, db *gorm.DB) *models.Restaurant {
	t.Helper()
	r := &models.Restaurant{
		Name:      "Krua Menu",
		OpenDays:  models.StringSlice{"mon"},
		OpenTime:  "09:00",
		CloseTime: "17:00",
	}
	require.NoError(t, db.Create(r).Error)
	return r
}

func TestCreateMenu(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	r := seedRestaurant(t, db)

	created, err := svc.Create(CreateInput{
		RestaurantID: r.ID,
		Name:         "Pad Krapow",
		Price:        decimal.NewFromInt(60),
	})
	require.NoError(t, err)
	assert.True(t, created.Available, "new dishes start available")
	assert.Equal(t, r.ID, created.RestaurantID)
}

func TestCreateMenuValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	r := seedRestaurant(t, db)

	_, err := svc.Create(CreateInput{RestaurantID: 999, Name: "Ghost Dish", Price: decimal.NewFromInt(10)})
	assert.True(t, apperr.IsNotFound(err), "unknown restaurant: got %v", err)

	_, err = svc.Create(CreateInput{RestaurantID: r.ID, Name: "Free Lunch", Price: decimal.Zero})
	assert.True(t, apperr.IsValidation(err), "non-positive price: got %v", err)

	_, err = svc.Create(CreateInput{RestaurantID: r.ID, Name: "", Price: decimal.NewFromInt(10)})
	assert.True(t, apperr.IsValidation(err), "empty name: got %v", err)
}

func TestUpdateMenu(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	r := seedRestaurant(t, db)

	created, err := svc.Create(CreateInput{RestaurantID: r.ID, Name: "Pad Krapow", Price: decimal.NewFromInt(60)})
	require.NoError(t, err)

	price := decimal.NewFromInt(65)
	off := false
	updated, err := svc.Update(created.ID, UpdateInput{Price: &price, Available: &off})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))
	assert.False(t, updated.Available)
	assert.Equal(t, "Pad Krapow", updated.Name, "untouched fields survive")

	bad := decimal.NewFromInt(-5)
	_, err = svc.Update(created.ID, UpdateInput{Price: &bad})
	assert.True(t, apperr.IsValidation(err), "got %v", err)
}

func TestRemoveMenu(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	r := seedRestaurant(t, db)

	created, err := svc.Create(CreateInput{RestaurantID: r.ID, Name: "Pad Krapow", Price: decimal.NewFromInt(60)})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(created.ID))
	_, err = svc.FindOne(created.ID)
	assert.True(t, apperr.IsNotFound(err))

	assert.True(t, apperr.IsNotFound(svc.Remove(999)))
}
