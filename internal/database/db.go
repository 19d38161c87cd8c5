package database

import (
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"              // SQLite driver

	"foodcourt/internal/models"
)

var DB *gorm.DB

// InitDB initializes the database connection for the configured dialect
func InitDB(dialect, dsn string) error {
	var err error
	DB, err = gorm.Open(dialect, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	DB.DB().SetMaxIdleConns(10)
	DB.DB().SetMaxOpenConns(100)
	DB.DB().SetConnMaxLifetime(time.Hour)

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// CloseDB closes the database connection
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// Migrate creates and updates all required tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.RoleRequest{},
		&models.Restaurant{},
		&models.Menu{},
		&models.Order{},
		&models.OrderMenu{},
		&models.Payout{},
	).Error
}

// InTransaction runs fn inside a single transaction. The transaction is
// rolled back when fn returns an error or panics, committed otherwise, so
// multi-row mutations are never observed partially applied.
func InTransaction(db *gorm.DB, fn func(tx *gorm.DB) error) (err error) {
	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err = fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err = tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
