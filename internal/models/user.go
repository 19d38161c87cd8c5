package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// User is an account on the platform. The password column always holds
// a bcrypt hash and is never serialised.
type User struct {
	gorm.Model
	Username string `gorm:"unique_index;not null" json:"username"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"not null;default:'user'" json:"role"`
	Phone    string `json:"phone"`

	RestaurantID *uint `json:"restaurantId,omitempty"`
}

// UserRole represents the possible roles of a user
type UserRole string

const (
	RoleUser   UserRole = "user"
	RoleCooker UserRole = "cooker"
	RoleAdmin  UserRole = "admin"
)

// ValidRole reports whether the given string names a known role
func ValidRole(role string) bool {
	switch UserRole(role) {
	case RoleUser, RoleCooker, RoleAdmin:
		return true
	}
	return false
}

// RefreshToken is a persisted refresh token. Expired rows are swept
// by the periodic cleanup job.
type RefreshToken struct {
	gorm.Model
	UserID    uint      `gorm:"not null;index"`
	Token     string    `gorm:"unique_index;not null"`
	ExpiresAt time.Time `gorm:"not null"`
}

// Expired reports whether the token is past its expiry at the given instant
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// RoleRequest is a pending request by a user to change role.
// At most one pending request may exist per user.
type RoleRequest struct {
	gorm.Model
	UserID uint   `gorm:"not null;index" json:"userId"`
	Role   string `gorm:"not null" json:"role"`
	Status string `gorm:"not null;default:'pending'" json:"status"`
}

// RoleRequestStatus represents the possible states of a role request
type RoleRequestStatus string

const (
	RoleRequestPending  RoleRequestStatus = "pending"
	RoleRequestAccepted RoleRequestStatus = "accepted"
	RoleRequestRejected RoleRequestStatus = "rejected"
)
