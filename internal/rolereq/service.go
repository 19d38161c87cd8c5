// Package rolereq manages user requests to change role (user to cooker) and
// their admin resolution. Approval mutates the user's role and resolves the
// request in one transaction.
package rolereq

import (
	"github.com/jinzhu/gorm"

	"foodcourt/internal/apperr"
	"foodcourt/internal/database"
	"foodcourt/internal/models"
)

// Service manages role requests
type Service struct {
	db *gorm.DB
}

// NewService builds the role request service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Create files a new request. A user may hold at most one pending request.
func (s *Service) Create(userID uint, role string) (*models.RoleRequest, error) {
	if !models.ValidRole(role) {
		return nil, apperr.Validation("unknown role %q", role)
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, apperr.NotFound("user", userID)
		}
		return nil, err
	}
	if user.Role == role {
		return nil, apperr.Conflict("user %d already has role %q", userID, role)
	}

	var pending models.RoleRequest
	err := s.db.Where("user_id = ? AND status = ?", userID, string(models.RoleRequestPending)).
		First(&pending).Error
	if err == nil {
		return nil, apperr.Conflict("user %d already has a pending role request", userID)
	}
	if !gorm.IsRecordNotFoundError(err) {
		return nil, err
	}

	request := &models.RoleRequest{
		UserID: userID,
		Role:   role,
		Status: string(models.RoleRequestPending),
	}
	if err := s.db.Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

// ListPending returns every unresolved request, oldest first
func (s *Service) ListPending() ([]models.RoleRequest, error) {
	var requests []models.RoleRequest
	err := s.db.Where("status = ?", string(models.RoleRequestPending)).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

// Approve grants the requested role. The user's role change and the request
// resolution land in one transaction; a crash between the two writes can
// never be observed.
func (s *Service) Approve(requestID uint) (*models.RoleRequest, error) {
	request, err := s.findPending(requestID)
	if err != nil {
		return nil, err
	}

	err = database.InTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id = ?", request.UserID).
			Update("role", request.Role).Error; err != nil {
			return err
		}
		request.Status = string(models.RoleRequestAccepted)
		return tx.Save(request).Error
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Reject resolves a pending request without touching the user
func (s *Service) Reject(requestID uint) (*models.RoleRequest, error) {
	request, err := s.findPending(requestID)
	if err != nil {
		return nil, err
	}

	request.Status = string(models.RoleRequestRejected)
	if err := s.db.Save(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

func (s *Service) findPending(requestID uint) (*models.RoleRequest, error) {
	var request models.RoleRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, apperr.NotFound("role request", requestID)
		}
		return nil, err
	}
	if request.Status != string(models.RoleRequestPending) {
		return nil, apperr.Conflict("role request %d is already resolved", requestID)
	}
	return &request, nil
}
