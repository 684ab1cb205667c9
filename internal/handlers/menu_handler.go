package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/menu"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

const menuSourceHeader = "X-Menu-Source"

type MenuHandler struct {
	menuService       *services.MenuService
	restaurantService *services.RestaurantService
	loader            *menu.Loader
	qr                services.QRGenerator
	metrics           *metrics.Registry
}

func NewMenuHandler(menuService *services.MenuService, restaurantService *services.RestaurantService, loader *menu.Loader, qr services.QRGenerator, m *metrics.Registry) *MenuHandler {
	return &MenuHandler{
		menuService:       menuService,
		restaurantService: restaurantService,
		loader:            loader,
		qr:                qr,
		metrics:           m,
	}
}

// Public serves a restaurant's menu to anonymous diners. When the catalog
// cannot be read the last cached snapshot is served instead, marked with
// source "cache". ?category= and ?exclude=a,b filter the items.
func (h *MenuHandler) Public(c *fiber.Ctx) error {
	explicitID := uint(0)
	if raw := c.Query("restaurantId"); raw != "" {
		id, err := tenant.ParseRestaurantID(raw)
		if err != nil {
			return badRequest(c, "Invalid restaurantId")
		}
		explicitID = id
	}

	restaurantID, err := h.menuService.ResolveRestaurant(c.UserContext(), explicitID, c.Params("subdomain"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRestaurantNotFound):
			return respondError(c, err)
		case explicitID != 0:
			// The store is unreachable but the caller named the restaurant,
			// so the cached snapshot can still be tried.
			slog.Warn("restaurant lookup failed, trying cached menu", "restaurant_id", explicitID, "error", err)
			restaurantID = explicitID
		default:
			slog.Error("restaurant lookup failed", "subdomain", c.Params("subdomain"), "error", err)
			return menuUnavailable(c)
		}
	}

	snap, source, err := h.loader.Load(c.UserContext(), restaurantID)
	if err != nil {
		slog.Error("menu unavailable", "restaurant_id", restaurantID, "error", err)
		return menuUnavailable(c)
	}
	h.metrics.MenuServed(string(source))

	return h.respond(c, snap, source)
}

// Cached returns the last stored snapshot without reading the catalog, for a
// first paint while the fresh menu loads.
func (h *MenuHandler) Cached(c *fiber.Ctx) error {
	restaurantID, err := h.menuService.ResolveRestaurant(c.UserContext(), 0, c.Params("subdomain"))
	if err != nil {
		return respondError(c, err)
	}

	snap, err := h.loader.Cached(c.UserContext(), restaurantID)
	if err != nil {
		if errors.Is(err, menu.ErrSnapshotNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "No cached menu",
			})
		}
		return respondError(c, err)
	}
	h.metrics.MenuServed(string(menu.SourceCache))

	return h.respond(c, snap, menu.SourceCache)
}

// Admin returns a freshly aggregated menu to the owner. It never falls back
// to the cache.
func (h *MenuHandler) Admin(c *fiber.Ctx) error {
	restaurantID := tenant.GetRestaurantID(c)
	snap, err := h.loader.Refresh(c.UserContext(), restaurantID)
	if err != nil {
		return respondError(c, err)
	}
	h.metrics.MenuServed(string(menu.SourceNetwork))

	return h.respond(c, snap, menu.SourceNetwork)
}

// QRCode renders the public menu URL as a PNG. Paid feature.
func (h *MenuHandler) QRCode(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return requestError(c, errUnauthorized)
	}
	restaurant, err := h.restaurantService.EnsureOwner(c.UserContext(), userID, tenant.GetRestaurantID(c))
	if err != nil {
		return respondError(c, err)
	}

	png, err := h.qr.Generate(restaurant.Subdomain)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

func (h *MenuHandler) respond(c *fiber.Ctx, snap *menu.Snapshot, source menu.Source) error {
	resp := dto.MenuResponse{Snapshot: *snap, Source: source}

	var category *string
	if raw := c.Query("category"); raw != "" {
		category = &raw
	}
	excluded := splitList(c.Query("exclude"))
	if category != nil || len(excluded) > 0 {
		resp.MenuItems = menu.Filter(snap.MenuItems, category, excluded)
	}

	c.Set(menuSourceHeader, string(source))
	return c.JSON(resp)
}

func menuUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
		Error: true, Message: "Menu temporarily unavailable",
	})
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
