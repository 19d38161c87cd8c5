package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"foodcourt/internal/auth"
	"foodcourt/internal/menu"
	"foodcourt/internal/models"
	"foodcourt/internal/monitoring"
	"foodcourt/internal/order"
	"foodcourt/internal/restaurant"
	"foodcourt/internal/slip"
)

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// Auth handlers

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone"`
}

// Register creates a new user account
func (s *Server) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.auth.Register(req.Username, req.Password, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and returns a token pair
func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Refresh rotates a refresh token
func (s *Server) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, err := s.auth.Refresh(req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// Restaurant handlers

// ListRestaurants returns all restaurants with live open status
func (s *Server) ListRestaurants(c *gin.Context) {
	views, err := s.restaurants.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetRestaurant returns one restaurant with menus and live open status
func (s *Server) GetRestaurant(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	view, err := s.restaurants.FindOne(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreateRestaurant registers a new restaurant owned by the caller
func (s *Server) CreateRestaurant(c *gin.Context) {
	var input restaurant.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.OwnerID = auth.ClaimsFrom(c).UserID

	created, err := s.restaurants.Create(input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateRestaurant applies profile edits; only the owner or an admin may edit
func (s *Server) UpdateRestaurant(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if !s.ownsRestaurant(c, id) {
		return
	}

	var input restaurant.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := s.restaurants.Update(id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// RemoveRestaurant cascades a restaurant deletion when all orders are done
func (s *Server) RemoveRestaurant(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if !s.ownsRestaurant(c, id) {
		return
	}

	if err := s.restaurants.Remove(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "restaurant removed"})
}

func (s *Server) ownsRestaurant(c *gin.Context, id uint) bool {
	claims := auth.ClaimsFrom(c)
	if claims.Role == string(models.RoleAdmin) {
		return true
	}
	view, err := s.restaurants.FindOne(id)
	if err != nil {
		respondError(c, err)
		return false
	}
	if view.OwnerID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the restaurant owner"})
		return false
	}
	return true
}

// Menu handlers

// ListMenus returns a restaurant's menus
func (s *Server) ListMenus(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	menus, err := s.menus.ListByRestaurant(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, menus)
}

// CreateMenu adds a dish to a restaurant
func (s *Server) CreateMenu(c *gin.Context) {
	var input menu.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !s.ownsRestaurant(c, input.RestaurantID) {
		return
	}

	created, err := s.menus.Create(input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateMenu applies menu edits
func (s *Server) UpdateMenu(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	existing, err := s.menus.FindOne(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !s.ownsRestaurant(c, existing.RestaurantID) {
		return
	}

	var input menu.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := s.menus.Update(id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// RemoveMenu deletes one dish
func (s *Server) RemoveMenu(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	existing, err := s.menus.FindOne(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !s.ownsRestaurant(c, existing.RestaurantID) {
		return
	}

	if err := s.menus.Remove(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "menu removed"})
}

// Order handlers

// CreateOrder validates and persists a checkout request
func (s *Server) CreateOrder(c *gin.Context) {
	var input order.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.UserID = auth.ClaimsFrom(c).UserID

	created, err := s.orders.Create(input)
	if err != nil {
		respondError(c, err)
		return
	}

	monitoring.OrdersCreated.Inc()
	s.monitor.IncrMetric("orders_created")
	c.JSON(http.StatusCreated, created)
}

// ListMyOrders returns the calling user's orders
func (s *Server) ListMyOrders(c *gin.Context) {
	orders, err := s.orders.ListByUser(auth.ClaimsFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// ListRestaurantOrders returns a restaurant's order queue
func (s *Server) ListRestaurantOrders(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if !s.ownsRestaurant(c, id) {
		return
	}
	orders, err := s.orders.ListByRestaurant(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder returns one order with line items
func (s *Server) GetOrder(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	found, err := s.orders.FindOne(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// UpdateOrder applies status, payment, delivery and delay changes
func (s *Server) UpdateOrder(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var input order.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := s.orders.Update(id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	if input.Status != nil {
		monitoring.OrderTransitions.WithLabelValues(*input.Status).Inc()
	}
	c.JSON(http.StatusOK, updated)
}

// RemoveOrder deletes one order and its line items
func (s *Server) RemoveOrder(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := s.orders.Remove(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order removed"})
}

// Payment and slip handlers

// PaymentWebhook ingests opaque gateway events
func (s *Server) PaymentWebhook(c *gin.Context) {
	var event map[string]interface{}
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.payments.HandleWebhook(event); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// VerifySlip runs OCR verification of an uploaded payment slip against the
// order. A verified slip marks the order paid and settles its payout.
func (s *Server) VerifySlip(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	image, ok := readUpload(c, "slip")
	if !ok {
		return
	}

	result := s.slips.Verify(c.Request.Context(), id, image)
	monitoring.SlipVerifications.WithLabelValues(string(result.Status)).Inc()
	s.monitor.IncrMetric("slip_" + string(result.Status))

	switch result.Status {
	case slip.StatusVerified:
		if _, err := s.payments.ConfirmSlip(id, result.Extracted.RefCode); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	case slip.StatusRejected:
		c.JSON(http.StatusBadRequest, result)
	default:
		respondError(c, result.Err)
	}
}

type verifyReferenceRequest struct {
	Expected string `form:"expected" binding:"required"`
}

// VerifySlipReference checks that a fixed 4-character reference fragment
// appears in the uploaded slip
func (s *Server) VerifySlipReference(c *gin.Context) {
	var req verifyReferenceRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	image, ok := readUpload(c, "slip")
	if !ok {
		return
	}

	matched, err := s.slips.VerifyReference(c.Request.Context(), image, req.Expected)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matched": matched})
}

func readUpload(c *gin.Context, field string) ([]byte, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + field + " file"})
		return nil, false
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return data, true
}

// Payout handlers

// ListPayouts returns a restaurant's payouts for the settlement week
// containing the date query parameter (defaults to today)
func (s *Server) ListPayouts(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if !s.ownsRestaurant(c, id) {
		return
	}

	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	payouts, week, err := s.payouts.ListByWeek(id, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"week": week, "payouts": payouts})
}

// Role request handlers

type roleRequestRequest struct {
	Role string `json:"role" binding:"required"`
}

// CreateRoleRequest files a role-change request for the caller
func (s *Server) CreateRoleRequest(c *gin.Context) {
	var req roleRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := s.roleReqs.Create(auth.ClaimsFrom(c).UserID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListRoleRequests returns pending role requests for admin review
func (s *Server) ListRoleRequests(c *gin.Context) {
	requests, err := s.roleReqs.ListPending()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// ApproveRoleRequest grants the requested role atomically
func (s *Server) ApproveRoleRequest(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resolved, err := s.roleReqs.Approve(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolved)
}

// RejectRoleRequest resolves a request without granting the role
func (s *Server) RejectRoleRequest(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resolved, err := s.roleReqs.Reject(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolved)
}
