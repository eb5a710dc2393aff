// Command server runs the fleet management API.
package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fleett/fleett-api/internal/config"
	"github.com/fleett/fleett-api/internal/database"
	"github.com/fleett/fleett-api/internal/handler"
	"github.com/fleett/fleett-api/internal/middleware"
	"github.com/fleett/fleett-api/internal/queue"
	"github.com/fleett/fleett-api/internal/repository"
	"github.com/fleett/fleett-api/internal/router"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.OpenWithRetry(logger, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, caching and rate limiting disabled")
	}
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	customers := repository.NewCustomerRepo(db)
	vehicles := repository.NewVehicleRepo(db)
	rentals := repository.NewRentalRepo(db)
	maintenance := repository.NewMaintenanceRepo(db)
	reports := repository.NewReportRepo(db)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	customerH := handler.NewCustomerHandler(customers)
	vehicleH := handler.NewVehicleHandler(vehicles, rentals, maintenance)
	rentalH := handler.NewRentalHandler(rentals, vehicles, customers, maintenance)
	maintenanceH := handler.NewMaintenanceHandler(maintenance, vehicles, rentals)
	reportH := handler.NewReportHandler(reports)
	dashboardH := handler.NewDashboardHandler(reports)
	healthH := handler.NewHealthHandler(db)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.NewTokenBucket(rateCfg, rdb))

	// Public read-heavy GETs additionally go through the Redis response
	// cache.
	publicCache := middleware.NewRedisCache(cacheCfg, rdb)

	router.RegisterHealth(e, healthH)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterCustomers(e, customerH, cfg.JWTSecret)
	router.RegisterVehicles(e, vehicleH, cfg.JWTSecret, publicCache)
	router.RegisterRentals(e, rentalH, cfg.JWTSecret)
	router.RegisterMaintenance(e, maintenanceH, cfg.JWTSecret)
	router.RegisterReports(e, reportH, cfg.JWTSecret, publicCache)
	router.RegisterDashboards(e, dashboardH, cfg.JWTSecret, publicCache)

	// Background consumer for booked-rental events. Runs for the life of
	// the process, reconnecting on broker failures.
	go func() {
		if err := queue.StartRentalConsumer(logger); err != nil {
			logger.Warn("rental consumer stopped", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// newLogger builds a production logger, or a development one when
// APP_ENV is dev.
func newLogger(env string) (*zap.Logger, error) {
	if env == "dev" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
