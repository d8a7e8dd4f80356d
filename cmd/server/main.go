package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rentpro/portal/internal/analytics"
	"github.com/rentpro/portal/internal/backend"
	"github.com/rentpro/portal/internal/config"
	"github.com/rentpro/portal/internal/database"
	"github.com/rentpro/portal/internal/middleware"
	"github.com/rentpro/portal/internal/ratelimit"
	"github.com/rentpro/portal/internal/rent"
	"github.com/rentpro/portal/internal/session"
	"github.com/rentpro/portal/internal/token"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting RentPro portal gateway",
		zap.String("env", cfg.Env),
		zap.String("backend", cfg.Backend.BaseURL),
	)

	// Redis is optional: without it sessions live in memory only
	sessionOpts := session.Options{
		IdleTTL:              cfg.Session.IdleTTL,
		ExpiryWarningMinutes: cfg.Session.ExpiryWarningMinutes,
		OnLogin:              middleware.RecordLoginAttempt,
	}
	var durable session.Store
	var redisClient *database.RedisClient
	if cfg.RememberMeEnabled() {
		redisClient, err = database.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis")

		durable = session.NewRedisStore(redisClient.Client)
		sessionOpts.Throttle = ratelimit.NewLimiter(
			redisClient.Client,
			cfg.RateLimit.Window,
			cfg.RateLimit.MaxAttempts,
			cfg.RateLimit.LockoutDuration,
		)
	} else {
		logger.Warn("REDIS_URL not set, remember-me sessions and login throttling are disabled")
	}

	// Backend client; every per-session client shares the response cache
	cache := backend.NewCacheTransport(http.DefaultTransport, cfg.Cache.TTL, middleware.RecordCacheResult)
	defer cache.Close()
	backendClient := backend.NewClient(cfg.Backend, cache, logger)

	ephemeral := session.NewMemoryStore()
	defer ephemeral.Close()

	// Initialize services
	sessionService := session.NewService(
		backendClient,
		durable,
		ephemeral,
		token.NewInspector(nil),
		sessionOpts,
		logger,
	)
	rentService := rent.NewService(nil, logger)
	analyticsService := analytics.NewService(logger)

	// Initialize handlers
	sessionHandler := session.NewHandler(sessionService, backendClient, cfg.Session.CookieName, cfg.IsProduction())
	if redisClient != nil {
		sessionHandler.AddHealthCheck("redis", redisClient.Health)
	}
	rentHandler := rent.NewHandler(rentService, backendClient)
	analyticsHandler := analytics.NewHandler(analyticsService, backendClient)

	// Set up Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	allowedOrigins := middleware.ParseAllowedOrigins(cfg.CORS.AllowedOrigins)
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())

	// Public routes
	router.GET("/health", sessionHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.Auth(sessionService, cfg.Session.CookieName)
	ownerOnly := middleware.RequireRole(token.RoleOwner)

	// Auth routes
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", sessionHandler.Login)
		authGroup.POST("/logout", sessionHandler.Logout)

		// Protected routes (require authentication)
		authGroup.GET("/session", requireAuth, sessionHandler.Session)
		authGroup.GET("/me", requireAuth, sessionHandler.Me)
	}

	// Rent tracking routes
	rentGroup := router.Group("/rent", requireAuth, ownerOnly)
	{
		rentGroup.GET("/records", rentHandler.Records)
		rentGroup.POST("/payments", rentHandler.RecordPayment)
	}

	// Analytics routes
	analyticsGroup := router.Group("/analytics", requireAuth, ownerOnly)
	{
		analyticsGroup.GET("/predictions", analyticsHandler.Predictions)
		analyticsGroup.GET("/predictions/high-risk", analyticsHandler.HighRisk)
		analyticsGroup.GET("/leases/:leaseId/predictions", analyticsHandler.ForLease)
		analyticsGroup.POST("/leases/:leaseId/predictions", analyticsHandler.Generate)
	}

	// Create HTTP server. The write timeout leaves room for a slow backend.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Backend.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
