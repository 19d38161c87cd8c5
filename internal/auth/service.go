package auth

import (
	"log"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"golang.org/x/crypto/bcrypt"

	"foodcourt/internal/apperr"
	"foodcourt/internal/models"
)

// Claims is the JWT payload issued on login
type Claims struct {
	UserID uint   `json:"uid"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// TokenPair is the login/refresh response
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service issues and verifies credentials
type Service struct {
	db         *gorm.DB
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

// NewService builds the auth service
func NewService(db *gorm.DB, secret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		db:         db,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Register creates a new user account with the default role
func (s *Service) Register(username, password, phone string) (*models.User, error) {
	if len(username) < 3 {
		return nil, apperr.Validation("username must be at least 3 characters")
	}
	if len(password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	var existing models.User
	err := s.db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, apperr.Conflict("username %q is already taken", username)
	}
	if !gorm.IsRecordNotFoundError(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Password: string(hash),
		Role:     string(models.RoleUser),
		Phone:    phone,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a token pair. The refresh token is
// persisted so it can be revoked and swept after expiry.
func (s *Service) Login(username, password string) (*TokenPair, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, apperr.Validation("invalid username or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.Validation("invalid username or password")
	}

	return s.issueTokens(&user)
}

// Refresh exchanges a stored refresh token for a fresh pair, rotating the
// old token out.
func (s *Service) Refresh(refreshToken string) (*TokenPair, error) {
	var stored models.RefreshToken
	if err := s.db.Where("token = ?", refreshToken).First(&stored).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, apperr.Validation("unknown refresh token")
		}
		return nil, err
	}
	if stored.Expired(s.now()) {
		return nil, apperr.Validation("refresh token has expired")
	}

	var user models.User
	if err := s.db.First(&user, stored.UserID).Error; err != nil {
		return nil, err
	}

	if err := s.db.Delete(&stored).Error; err != nil {
		return nil, err
	}
	return s.issueTokens(&user)
}

func (s *Service) issueTokens(user *models.User) (*TokenPair, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.accessTTL).Unix(),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	refresh := uuid.New().String()
	row := &models.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.db.Create(row).Error; err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseToken verifies an access token and returns its claims
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Validation("invalid token")
	}
	return claims, nil
}

// CleanupExpiredTokens deletes refresh tokens past their expiry. Returns the
// number of rows removed.
func (s *Service) CleanupExpiredTokens() (int64, error) {
	result := s.db.Where("expires_at < ?", s.now()).Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}

// StartCleanupLoop sweeps expired refresh tokens on a fixed interval until
// stop is closed. Peripheral housekeeping, not part of any request path.
func (s *Service) StartCleanupLoop(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := s.CleanupExpiredTokens()
			if err != nil {
				log.Printf("auth: token cleanup failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("auth: swept %d expired refresh tokens", n)
			}
		case <-stop:
			return
		}
	}
}
