package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodcourt/internal/apperr"
	"foodcourt/internal/auth"
	"foodcourt/internal/menu"
	"foodcourt/internal/monitoring"
	"foodcourt/internal/order"
	"foodcourt/internal/payment"
	"foodcourt/internal/payout"
	"foodcourt/internal/restaurant"
	"foodcourt/internal/rolereq"
	"foodcourt/internal/slip"
	"foodcourt/internal/ws"
)

// Server is the REST API for the ordering platform
type Server struct {
	Router *gin.Engine

	auth        *auth.Service
	restaurants *restaurant.Service
	menus       *menu.Service
	orders      *order.Service
	payouts     *payout.Service
	payments    *payment.Service
	slips       *slip.Verifier
	roleReqs    *rolereq.Service
	feed        *ws.Hub
	monitor     *monitoring.Monitor
}

// Deps carries the explicitly constructed services the server wires up
type Deps struct {
	Auth        *auth.Service
	Restaurants *restaurant.Service
	Menus       *menu.Service
	Orders      *order.Service
	Payouts     *payout.Service
	Payments    *payment.Service
	Slips       *slip.Verifier
	RoleReqs    *rolereq.Service
	Feed        *ws.Hub
}

// NewServer creates the API server and registers all routes
func NewServer(deps Deps) *Server {
	s := &Server{
		Router:      gin.Default(),
		auth:        deps.Auth,
		restaurants: deps.Restaurants,
		menus:       deps.Menus,
		orders:      deps.Orders,
		payouts:     deps.Payouts,
		payments:    deps.Payments,
		slips:       deps.Slips,
		roleReqs:    deps.RoleReqs,
		feed:        deps.Feed,
		monitor:     monitoring.NewMonitor(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "foodcourt API is running"})
	})
	s.Router.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.monitor.GetMetrics())
	})

	// Live order feed for the cooker dashboard
	s.Router.GET("/ws/orders", s.feed.HandleWS)

	v1 := s.Router.Group("/api/v1")

	// Public surface
	v1.POST("/auth/register", s.Register)
	v1.POST("/auth/login", s.Login)
	v1.POST("/auth/refresh", s.Refresh)
	v1.GET("/restaurants", s.ListRestaurants)
	v1.GET("/restaurants/:id", s.GetRestaurant)
	v1.GET("/restaurants/:id/menus", s.ListMenus)
	v1.POST("/payments/webhook", s.PaymentWebhook)

	// Authenticated surface
	authed := v1.Group("")
	authed.Use(auth.Middleware(s.auth))
	{
		authed.POST("/orders", s.CreateOrder)
		authed.GET("/orders", s.ListMyOrders)
		authed.GET("/orders/:id", s.GetOrder)
		authed.PUT("/orders/:id", s.UpdateOrder)
		authed.DELETE("/orders/:id", s.RemoveOrder)
		authed.POST("/orders/:id/slip", s.VerifySlip)
		authed.POST("/slips/reference", s.VerifySlipReference)
		authed.POST("/role-requests", s.CreateRoleRequest)

		cooker := authed.Group("")
		cooker.Use(auth.RequireRole("cooker", "admin"))
		{
			cooker.POST("/restaurants", s.CreateRestaurant)
			cooker.PUT("/restaurants/:id", s.UpdateRestaurant)
			cooker.DELETE("/restaurants/:id", s.RemoveRestaurant)
			cooker.GET("/restaurants/:id/orders", s.ListRestaurantOrders)
			cooker.GET("/restaurants/:id/payouts", s.ListPayouts)
			cooker.POST("/menus", s.CreateMenu)
			cooker.PUT("/menus/:id", s.UpdateMenu)
			cooker.DELETE("/menus/:id", s.RemoveMenu)
		}

		admin := authed.Group("")
		admin.Use(auth.RequireRole("admin"))
		{
			admin.GET("/role-requests", s.ListRoleRequests)
			admin.POST("/role-requests/:id/approve", s.ApproveRoleRequest)
			admin.POST("/role-requests/:id/reject", s.RejectRoleRequest)
		}
	}
}

// respondError maps typed domain errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case apperr.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperr.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperr.IsExternal(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
