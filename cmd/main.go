package main

import (
	"tenant-service/internal/handler"
	"tenant-service/internal/middleware"
	"tenant-service/internal/schema"
	"tenant-service/internal/tenant"
	"tenant-service/pkg/config"
	"tenant-service/pkg/database"
	"tenant-service/pkg/jwtutil"
	"tenant-service/pkg/logger"
	"tenant-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting tenant service...", cfg.LogConfig()...)

	// Initialize database
	if err := database.Initialize(database.DBConfig{
		DSN:             cfg.DB.GetDSN(),
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		LogLevel:        cfg.DB.LogLevel,
	}); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Build the tenant resolution and isolation components
	db := database.GetDB()
	store := schema.NewStore(db, cfg.Tenant.SharedSchema, log)
	dir := tenant.NewDirectory(db)
	binder := tenant.NewBinder(db, store, cfg.Tenant.SharedSchema, log)
	lifecycle := tenant.NewLifecycle(dir, store, binder, schema.DefaultModules(), log)
	resolver := tenant.NewResolver(dir)

	handler.Initialize(dir, lifecycle, store)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters; the tenant middleware runs
	// inside Recover so a panicking handler still releases its binding
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())
	e.Use(middleware.TenantMiddleware(resolver, binder, &cfg.Tenant))

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Admin authentication
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)

	api := e.Group("/api")

	// Tenant-scoped settings - served from the schema bound to this request
	api.GET("/settings", handler.GetSettings)
	api.PATCH("/settings", handler.UpdateSettings)

	// Tenant administration - shared schema, admin JWT required
	tenants := api.Group("/tenants")
	tenants.Use(middleware.AuthMiddleware)
	tenants.POST("", handler.CreateTenant)
	tenants.GET("", handler.ListTenants)
	tenants.GET("/schemas", handler.ListTenantSchemas)
	tenants.GET("/:id", handler.GetTenant)
	tenants.POST("/:id/suspend", handler.SuspendTenant)
	tenants.POST("/:id/retry-provision", handler.RetryProvision)
	tenants.DELETE("/:id", handler.DeleteTenant, middleware.RequireSuper)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
