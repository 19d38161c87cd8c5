package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foodcourt/internal/api"
	"foodcourt/internal/auth"
	"foodcourt/internal/config"
	"foodcourt/internal/database"
	"foodcourt/internal/menu"
	"foodcourt/internal/ocr"
	"foodcourt/internal/order"
	"foodcourt/internal/payment"
	"foodcourt/internal/payout"
	"foodcourt/internal/restaurant"
	"foodcourt/internal/rolereq"
	"foodcourt/internal/slip"
	"foodcourt/internal/ws"
)

var (
	port        = flag.Int("port", 8080, "API server port")
	metricsPort = flag.Int("metrics-port", 9090, "Metrics server port")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	// Load configuration; missing commission rates abort startup here.
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	if err := database.InitDB(cfg.Database.Dialect, cfg.Database.DSN); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	db := database.GetDB()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Money calculator fails fast on bad rates.
	calculator, err := payout.NewCalculator(
		cfg.Rates.BaseTransaction,
		cfg.Rates.VAT,
		cfg.Rates.PlatformCommission,
	)
	if err != nil {
		log.Fatalf("Failed to initialize payout calculator: %v", err)
	}

	engine, err := initializeOCR(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize OCR engine: %v", err)
	}

	// Construct services with explicit dependency injection.
	feed := ws.NewHub()
	authService := auth.NewService(db, cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL.Std(), cfg.Auth.RefreshTokenTTL.Std())
	restaurantService := restaurant.NewService(db)
	menuService := menu.NewService(db)
	orderService := order.NewService(db, cfg.Orders.MinimumLeadTime.Std(), feed)
	payoutService := payout.NewService(db, calculator)
	paymentService := payment.NewService(db, orderService, payoutService)
	slipVerifier := slip.NewVerifier(db, engine, cfg.OCR.Language, cfg.Slip.TimeTolerance.Std(), cfg.Slip.EnforceDuplicateRef)
	roleReqService := rolereq.NewService(db)

	server := api.NewServer(api.Deps{
		Auth:        authService,
		Restaurants: restaurantService,
		Menus:       menuService,
		Orders:      orderService,
		Payouts:     payoutService,
		Payments:    paymentService,
		Slips:       slipVerifier,
		RoleReqs:    roleReqService,
		Feed:        feed,
	})

	// Background housekeeping: sweep expired refresh tokens hourly.
	stop := make(chan struct{})
	go authService.StartCleanupLoop(time.Hour, stop)

	if cfg.Metrics.Enabled {
		go startMetricsServer(*metricsPort, cfg.Metrics.Path)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: server.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")
		close(stop)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting API server on port %d", *port)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

func initializeOCR(cfg *config.Config) (ocr.Engine, error) {
	switch cfg.OCR.Provider {
	case "openai":
		model := cfg.OCR.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return ocr.NewOpenAIEngine(model)
	default:
		return nil, fmt.Errorf("unsupported OCR provider %q", cfg.OCR.Provider)
	}
}

func startMetricsServer(port int, path string) {
	metricsRouter := gin.Default()
	metricsRouter.GET(path, gin.WrapH(promhttp.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}
