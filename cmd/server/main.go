package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/menu"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdoutHandler := logging.Setup(cfg.AppEnv)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdoutHandler, pgLogHandler)))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetentionDays, cleanupDone)

	// Menu snapshot cache
	var (
		snapshots   menu.SnapshotStore
		redisClient *redis.Client
		cachePing   func(ctx context.Context) error
	)
	if cfg.RedisAddr != "" {
		client, err := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Error("redis connection failed", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		redisClient = client
		snapshots = cache.NewRedisSnapshotStore(client)
		cachePing = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	} else {
		slog.Warn("REDIS_ADDR not set, menu snapshots are kept in process memory")
		snapshots = cache.NewMemorySnapshotStore()
	}

	// Domain events
	var (
		publisher      events.Publisher = events.Noop{}
		kafkaPublisher *events.KafkaPublisher
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher = events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		publisher = kafkaPublisher
		slog.Info("publishing domain events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	// Billing
	var provider billing.Provider = billing.Unconfigured{}
	if cfg.BillingEnabled() {
		provider = billing.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret, billing.Plan{
			Amount:             cfg.StripePriceAmount,
			Currency:           cfg.StripeCurrency,
			ProductName:        cfg.StripeProductName,
			ProductDescription: cfg.StripeProductDescription,
		})
	} else {
		slog.Warn("Stripe keys not set, billing endpoints will fail and paid features stay locked")
	}

	registry := metrics.New()

	// Services
	authService := services.NewAuthService(database.DB, cfg)
	restaurantService := services.NewRestaurantService(database.DB)
	catalogService := services.NewCatalogService(database.DB)
	menuService := services.NewMenuService(database.DB, catalogService, restaurantService, cfg.PublicDemoFallback)
	subscriptionService := services.NewSubscriptionService(database.DB, provider, publisher, registry, cfg.SubscriptionTrustWindow)
	loader := menu.NewLoader(menuService, snapshots)
	qr := services.MenuQRGenerator{BaseURL: cfg.PublicMenuBaseURL, Size: 512}

	// Handlers
	h := routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		Health:       handlers.NewHealthHandler(cachePing),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService, restaurantService, cfg.AppBaseURL),
		Restaurant:   handlers.NewRestaurantHandler(restaurantService),
		Catalog:      handlers.NewCatalogHandler(catalogService, loader, publisher),
		Menu:         handlers.NewMenuHandler(menuService, restaurantService, loader, qr, registry),
	}
	if cfg.BillingEnabled() {
		h.Webhook = handlers.NewWebhookHandler(provider, subscriptionService, registry)
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, h, restaurantService, subscriptionService, registry)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			slog.Warn("kafka writer close error", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Warn("redis close error", "error", err)
		}
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}
