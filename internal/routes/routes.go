package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Health       *handlers.HealthHandler
	Webhook      *handlers.WebhookHandler // nil when billing is not configured
	Subscription *handlers.SubscriptionHandler
	Restaurant   *handlers.RestaurantHandler
	Catalog      *handlers.CatalogHandler
	Menu         *handlers.MenuHandler
}

func Setup(
	app *fiber.App,
	cfg *config.Config,
	h Handlers,
	owners middleware.OwnerChecker,
	gate middleware.SubscriptionGate,
	registry *metrics.Registry,
) {
	app.Get("/metrics", adaptor.HTTPHandler(registry.Handler()))

	api := app.Group("/api")

	// Webhooks are registered ahead of the limiter; Stripe retries in bursts.
	if h.Webhook != nil {
		api.Post("/webhooks/stripe", h.Webhook.HandleStripe)
	}

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Public menu (no auth)
	public := api.Group("/public/menu")
	public.Get("/", h.Menu.Public)
	public.Get("/:subdomain/cached", h.Menu.Cached)
	public.Get("/:subdomain", h.Menu.Public)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/logout", middleware.JWTProtected(cfg), h.Auth.Logout)

	// Protected routes (JWT required) - apply middleware to individual routes
	// so it never runs for the public menu
	jwt := middleware.JWTProtected(cfg)

	if h.Subscription != nil {
		subs := api.Group("/subscriptions", jwt)
		subs.Post("/check", h.Subscription.Check)
		subs.Post("/create", h.Subscription.Create)
		subs.Post("/manage", h.Subscription.Manage)
	}

	api.Post("/restaurants", jwt, h.Restaurant.Create)
	api.Get("/restaurants", jwt, h.Restaurant.List)

	owned := api.Group("/restaurants/:restaurant_id", jwt, middleware.RestaurantOwner(owners))
	owned.Get("/menu", h.Menu.Admin)
	owned.Get("/qrcode", middleware.SubscriptionRequired(gate), h.Menu.QRCode)

	owned.Get("/dishes", h.Catalog.ListDishes)
	owned.Post("/dishes", h.Catalog.CreateDish)
	owned.Put("/dishes/:dish_id", h.Catalog.UpdateDish)
	owned.Delete("/dishes/:dish_id", h.Catalog.DeleteDish)
	owned.Get("/dishes/:dish_id/allergens", h.Catalog.DishAllergens)
	owned.Put("/dishes/:dish_id/allergens", h.Catalog.UpdateDishAllergens)

	owned.Get("/categories", h.Catalog.ListCategories)
	owned.Post("/categories", h.Catalog.CreateCategory)
	owned.Get("/allergens", h.Catalog.ListAllergens)
	owned.Post("/allergens", h.Catalog.CreateAllergen)

	owned.Get("/settings", h.Catalog.GetSettings)
	owned.Put("/settings", h.Catalog.SaveSettings)
}
