package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rentwheels/vehicle-rental-backend/internal/config"
	"github.com/rentwheels/vehicle-rental-backend/internal/database"
	"github.com/rentwheels/vehicle-rental-backend/internal/handlers"
	"github.com/rentwheels/vehicle-rental-backend/internal/middleware"
	"github.com/rentwheels/vehicle-rental-backend/internal/models"
	"github.com/rentwheels/vehicle-rental-backend/internal/services"
	"github.com/rentwheels/vehicle-rental-backend/pkg/jwt"
	"github.com/rentwheels/vehicle-rental-backend/pkg/validator"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting RentWheels Vehicle Rental Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize services
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	stripeService := services.NewStripeService(&cfg.Stripe, logger)
	phoneValidator := validator.NewPhoneValidator()

	if !stripeService.IsConfigured() {
		logger.Warn("Stripe is not configured; card checkout will be unavailable")
	}

	// Initialize repositories
	userRepository := database.NewUserRepository(db)
	sessionRepository := database.NewSessionRepository(db)
	vehicleRepository := database.NewVehicleRepository(db)
	bookingRepository := database.NewBookingRepository(db)
	paymentRepository := database.NewPaymentRepository(db)
	profileRepository := database.NewProfileRepository(db)
	reviewRepository := database.NewReviewRepository(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(jwtService, userRepository, sessionRepository, cfg.Security.BcryptCost, logger)
	vehicleHandler := handlers.NewVehicleHandler(vehicleRepository, reviewRepository, logger)
	bookingHandler := handlers.NewBookingHandler(bookingRepository, vehicleRepository, paymentRepository, logger)
	paymentHandler := handlers.NewPaymentHandler(
		stripeService, bookingRepository, vehicleRepository,
		paymentRepository, profileRepository, phoneValidator, logger,
	)
	webhookHandler := handlers.NewWebhookHandler(stripeService, bookingRepository, paymentRepository, logger)
	profileHandler := handlers.NewProfileHandler(profileRepository, phoneValidator, logger)
	adminHandler := handlers.NewAdminHandler(bookingRepository, vehicleRepository, profileRepository, logger)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", authHandler.SignUp)
			auth.POST("/signin", authHandler.SignIn)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/signout", authHandler.SignOut)

			authProtected := auth.Group("")
			authProtected.Use(middleware.AuthMiddleware(jwtService))
			{
				authProtected.PUT("/password", authHandler.UpdatePassword)
			}
		}

		vehicles := v1.Group("/vehicles")
		{
			vehicles.GET("", vehicleHandler.List)
			vehicles.GET("/:id", vehicleHandler.Get)
			vehicles.GET("/:id/reviews", vehicleHandler.ListReviews)

			vehiclesProtected := vehicles.Group("")
			vehiclesProtected.Use(middleware.AuthMiddleware(jwtService))
			{
				vehiclesProtected.POST("/:id/reviews", vehicleHandler.CreateReview)
			}
		}

		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService))
		{
			bookings.POST("", bookingHandler.Create)
			bookings.GET("", bookingHandler.List)
			bookings.GET("/:id", bookingHandler.Get)
			bookings.POST("/:id/cancel", bookingHandler.Cancel)
			bookings.POST("/:id/confirm-cod", paymentHandler.ConfirmCOD)
		}

		payments := v1.Group("/payments")
		{
			// Gateway deliveries authenticate via signature, not JWT
			payments.POST("/webhook", webhookHandler.HandleStripeWebhook)

			paymentsProtected := payments.Group("")
			paymentsProtected.Use(middleware.AuthMiddleware(jwtService))
			{
				paymentsProtected.POST("/checkout-session", paymentHandler.CreateCheckoutSession)
			}
		}

		profile := v1.Group("/profile")
		profile.Use(middleware.AuthMiddleware(jwtService))
		{
			profile.GET("", profileHandler.Get)
			profile.PUT("", profileHandler.Update)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService))
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/dashboard", adminHandler.DashboardStats)
			admin.GET("/bookings", adminHandler.ListBookings)
			admin.GET("/bookings/active", adminHandler.ListActiveBookings)
			admin.PATCH("/bookings/:id/status", adminHandler.OverrideBookingStatus)
			admin.POST("/vehicles", adminHandler.CreateVehicle)
			admin.PATCH("/vehicles/:id/status", adminHandler.UpdateVehicleStatus)
			admin.DELETE("/vehicles/:id", adminHandler.DeleteVehicle)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, ok := middleware.GetUserContext(c); ok {
			fields["user_id"] = userCtx.UserID
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
		} else {
			status := c.Writer.Status()
			switch {
			case status >= 500:
				entry.Error("Request completed with server error")
			case status >= 400:
				entry.Warn("Request completed with client error")
			default:
				entry.Info("Request completed successfully")
			}
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "healthy"
		if err := db.Ping(); err != nil {
			dbStatus = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": dbStatus,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  dbStatus,
			"version":   version,
			"timestamp": time.Now().UTC(),
		})
	}
}
