package main

// @title LexHire API
// @version 1.0
// @description Legal-sector job board: listing catalog, saved jobs and applications, and email job alerts.

// @contact.name API Support
// @contact.email support@lexhire.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexhire/lexhire/config"
	"github.com/lexhire/lexhire/pkg/alerts"
	"github.com/lexhire/lexhire/pkg/api/handlers"
	custommw "github.com/lexhire/lexhire/pkg/api/middleware"
	"github.com/lexhire/lexhire/pkg/cache"
	"github.com/lexhire/lexhire/pkg/database"
	"github.com/lexhire/lexhire/pkg/email"
	"github.com/lexhire/lexhire/pkg/firms"
	"github.com/lexhire/lexhire/pkg/interactions"
	"github.com/lexhire/lexhire/pkg/jobs"
	"github.com/lexhire/lexhire/pkg/listings"
	"github.com/lexhire/lexhire/pkg/mailqueue"
	"github.com/lexhire/lexhire/pkg/metrics"
	custommiddleware "github.com/lexhire/lexhire/pkg/middleware"
	"github.com/lexhire/lexhire/pkg/taxonomy"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Initialize database
	db, err := database.NewClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Redis cache
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Rate limiters
	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	clickRateLimiter := custommiddleware.NewRateLimiter(300, 50) // digest clicks arrive in bursts

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", c.Request().Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	e.Use(prometheusMetrics.Middleware())
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig()))
	e.Use(middleware.Gzip())
	e.Use(middleware.Secure())
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.SecurityHeadersConfig{}))
	e.Use(globalRateLimiter.RateLimitMiddleware())

	// Health check endpoints (public)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "LexHire API",
			"version":     "0.1.0",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":   "unhealthy",
				"database": "down",
			})
		}

		if _, err := redisClient.Redis.Ping(c.Request().Context()).Result(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"cache":  "down",
			})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"status":   "healthy",
			"database": "up",
			"cache":    "up",
		})
	})

	// Prometheus metrics endpoint (public)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Initialize services
	taxonomyService := taxonomy.NewService(db.DB, redisClient)
	firmService := firms.NewService(db.DB)
	listingService := listings.NewService(db.DB)
	interactionService := interactions.NewService(db.DB)
	alertService := alerts.NewService(db.DB, cfg.FrontendURL)

	digestPublisher := mailqueue.NewPublisher(cfg.AMQPURL, cfg.DigestQueueName)
	dispatcher := alerts.NewDispatcher(db.DB, redisClient, listingService, digestPublisher, alerts.DispatcherConfig{
		BatchSize:    cfg.DigestBatchSize,
		MaxListings:  cfg.DigestMaxListings,
		LeaseTTL:     time.Duration(cfg.DigestLeaseMinutes) * time.Minute,
		PublicAPIURL: cfg.PublicAPIURL,
	})

	emailService := email.NewService(cfg.EmailFrom, cfg.EmailFromName, cfg.SendGridAPIKey)

	// Digest queue consumer: renders and sends enqueued digests
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	digestConsumer := mailqueue.NewConsumer(cfg.AMQPURL, cfg.DigestQueueName, emailService.SendDigestEmail)
	go func() {
		if err := digestConsumer.Start(consumerCtx); err != nil && err != context.Canceled {
			log.Printf("❌ Digest consumer stopped: %v", err)
		}
	}()

	// Initialize cron manager for digest dispatch and count refresh
	cronManager := jobs.NewCronManager(dispatcher, taxonomyService, log.Default())
	if err := cronManager.SetupJobs(); err != nil {
		log.Fatalf("❌ Failed to setup cron jobs: %v", err)
	}
	cronManager.Start()
	log.Printf("✅ Cron jobs started successfully")

	// Initialize handlers
	taxonomyHandler := handlers.NewTaxonomyHandler(taxonomyService)
	firmHandler := handlers.NewFirmHandler(firmService)
	listingHandler := handlers.NewListingHandler(listingService, prometheusMetrics)
	interactionHandler := handlers.NewInteractionHandler(interactionService, prometheusMetrics)
	alertHandler := handlers.NewAlertHandler(alertService, dispatcher, prometheusMetrics)

	v1 := e.Group("/api/v1")

	// Public routes (no authentication required)
	v1.GET("/jobs", listingHandler.SearchListings)
	v1.GET("/jobs/:slug", listingHandler.GetListing)
	v1.GET("/firms", firmHandler.ListFirms)
	v1.GET("/firms/:slug", firmHandler.GetFirm)
	v1.GET("/practice-areas", taxonomyHandler.GetPracticeAreaTree)
	v1.GET("/locations", taxonomyHandler.ListLocations)
	// Digest click tracking: public, the link lands in inboxes
	v1.GET("/job-alerts/click", alertHandler.TrackClick, clickRateLimiter.RateLimitMiddleware())

	// Protected routes (require JWT)
	protected := v1.Group("")
	protected.Use(custommw.JWTMiddleware(cfg.JWTSecret, db.DB))
	{
		// Saved jobs and applications
		protected.POST("/jobs/:id/save", interactionHandler.SaveJob)
		protected.DELETE("/jobs/:id/save", interactionHandler.UnsaveJob)
		protected.PUT("/jobs/:id/save/notes", interactionHandler.UpdateNotes)
		protected.POST("/jobs/:id/apply", interactionHandler.ApplyToJob)
		protected.DELETE("/jobs/:id/apply", interactionHandler.WithdrawApplicationRecord)
		protected.PUT("/jobs/:id/apply/status", interactionHandler.UpdateApplicationStatus)
		protected.GET("/me/interactions", interactionHandler.ListInteractions)

		// Job alert subscriptions
		protected.POST("/job-alerts", alertHandler.CreateSubscription)
		protected.GET("/job-alerts", alertHandler.ListSubscriptions)
		protected.DELETE("/job-alerts/:id", alertHandler.DeleteSubscription)

		// Admin routes (require admin flag)
		adminGroup := protected.Group("/admin")
		adminGroup.Use(custommiddleware.RequireAdmin())
		{
			adminGroup.POST("/jobs", listingHandler.CreateListing)
			adminGroup.PUT("/jobs/:id", listingHandler.UpdateListing)
			adminGroup.DELETE("/jobs/:id", listingHandler.DeleteListing)

			adminGroup.POST("/firms", firmHandler.CreateFirm)
			adminGroup.PUT("/firms/:id", firmHandler.UpdateFirm)

			adminGroup.POST("/practice-areas", taxonomyHandler.CreatePracticeArea)
			adminGroup.PUT("/practice-areas/:id/parent", taxonomyHandler.ReparentPracticeArea)
			adminGroup.DELETE("/practice-areas/:id", taxonomyHandler.DeletePracticeArea)
			adminGroup.POST("/locations", taxonomyHandler.CreateLocation)
			adminGroup.POST("/locations/recalculate", taxonomyHandler.RecalculateJobCounts)

			adminGroup.POST("/job-alerts/dispatch", alertHandler.DispatchDigests)
		}
	}

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 LexHire API starting on %s", address)
	log.Printf("🔐 JWT expiration: %d hours", cfg.JWTExpirationHours)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d)", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	log.Printf("⏰ Cron jobs: Daily 8AM (daily digests), Monday 8AM (weekly digests), Daily 3AM (job counts)")

	// Graceful shutdown
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	cronManager.Stop()
	log.Println("✅ Cron jobs stopped")

	stopConsumer()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
