package handlers

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/menu"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves the owner's catalog under /restaurants/:restaurant_id.
// Every route runs behind RestaurantOwner, so the restaurant id in Locals is
// verified.
type CatalogHandler struct {
	catalogService *services.CatalogService
	loader         *menu.Loader
	publisher      events.Publisher
}

func NewCatalogHandler(catalogService *services.CatalogService, loader *menu.Loader, publisher events.Publisher) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		loader:         loader,
		publisher:      publisher,
	}
}

func (h *CatalogHandler) ListDishes(c *fiber.Ctx) error {
	dishes, err := h.catalogService.ListDishes(c.UserContext(), tenant.GetRestaurantID(c))
	if err != nil {
		return respondError(c, err)
	}

	resp := make([]dto.DishResponse, 0, len(dishes))
	for _, d := range dishes {
		resp = append(resp, toDishResponse(d))
	}
	return c.JSON(resp)
}

func (h *CatalogHandler) CreateDish(c *fiber.Ctx) error {
	restaurantID := tenant.GetRestaurantID(c)
	var req dto.MenuItemInput
	if err := c.BodyParser(&req); err != nil {
		return requestError(c, errInvalidBody)
	}

	dish, err := h.catalogService.CreateDish(c.UserContext(), restaurantID, &req)
	if err != nil {
		return respondError(c, err)
	}

	h.menuChanged(c.UserContext(), restaurantID, "dish.created")
	return c.Status(fiber.StatusCreated).JSON(dto.IDResponse{ID: dish.ID})
}

func (h *CatalogHandler) UpdateDish(c *fiber.Ctx) error {
	restaurantID := tenant.GetRestaurantID(c)
	dishID, err := parseDishID(c)
	if err != nil {
		return badRequest(c, "Invalid dish id")
	}

	var req dto.MenuItemInput
	if err := c.BodyParser(&req); err != nil {
		return requestError(c, errInvalidBody)
	}

	dish, err := h.catalogService.UpdateDish(c.UserContext(), restaurantID, dishID, &req)
	if err != nil {
		return respondError(c, err)
	}

	h.menuChanged(c.UserContext(), restaurantID, "dish.updated")
	return c.JSON(dto.IDResponse{ID: dish.ID})
}

func (h *CatalogHandler) DeleteDish(c *fiber.Ctx) error {
	restaurantID := tenant.GetRestaurantID(c)
	dishID, err := parseDishID(c)
	if err != nil {
		return badRequest(c, "Invalid dish id")
	}

	if err := h.catalogService.DeleteDish(c.UserContext(), restaurantID, dishID); err != nil {
		return respondError(c, err)
	}

	h.menuChanged(c.UserContext(), restaurantID, "dish.deleted")
	return c.JSON(fiber.Map{"message": "Dish deleted"})
}

func (h *CatalogHandler) DishAllergens(c *fiber.Ctx) error {
	dishID, err := parseDishID(c)
	if err != nil {
		return badRequest(c, "Invalid dish id")
	}

	names, err := h.catalogService.DishAllergenNames(c.UserContext(), tenant.GetRestaurantID(c), dishID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"allergens": names})
}

func (h *CatalogHandler) UpdateDishAllergens(c *fiber.Ctx) error {
	restaurantID := tenant.GetRestaurantID(c)
	dishID, err := parseDishID(c)
	if err != nil {
		return badRequest(c, "Invalid dish id")
	}

	var req dto.DishAllergensRequest
	if err := c.BodyParser(&req); err != nil {
		return requestError(c, errInvalidBody)
	}

	if err := h.catalogService.UpdateDishAllergens(c.UserContext(), restaurantID, dishID, req.AllergenIDs); err != nil {
		return respondError(c, err)
	}

	h.menuChanged(c.UserContext(), restaurantID, "dish.allergens_updated")
	return c.JSON(fiber.Map{"message": "Allergens updated"})
}

func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalogService.ListCategories(c.UserContext(), tenant.GetRestaurantID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}

func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	return h.resolveNamed(c, services.KindCategory, "category.created")
}

func (h *CatalogHandler) ListAllergens(c *fiber.Ctx) error {
	allergens, err := h.catalogService.ListAllergens(c.UserContext(), tenant.GetRestaurantID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(allergens)
}

func (h *CatalogHandler) CreateAllergen(c *fiber.Ctx) error {
	return h.resolveNamed(c, services.KindAllergen, "allergen.created")
}

func (h *CatalogHandler) GetSettings(c *fiber.Ctx) error {
	restaurantID := tenant.GetRestaurantID(c)
	settings, err := h.catalogService.GetSettings(c.UserContext(), restaurantID)
	if err != nil {
		return respondError(c, err)
	}
	if settings == nil {
		rid := restaurantID
		settings = &models.Settings{RestaurantID: &rid}
	}
	return c.JSON(settings)
}

func (h *CatalogHandler) SaveSettings(c *fiber.Ctx) error {
	restaurantID := tenant.GetRestaurantID(c)
	var req dto.RestaurantInfoInput
	if err := c.BodyParser(&req); err != nil {
		return requestError(c, errInvalidBody)
	}

	settings, err := h.catalogService.SaveSettings(c.UserContext(), restaurantID, &req)
	if err != nil {
		return respondError(c, err)
	}

	h.menuChanged(c.UserContext(), restaurantID, "settings.saved")
	return c.JSON(settings)
}

func (h *CatalogHandler) resolveNamed(c *fiber.Ctx, kind services.CatalogKind, change string) error {
	restaurantID := tenant.GetRestaurantID(c)
	var req dto.NamedRequest
	if err := c.BodyParser(&req); err != nil {
		return requestError(c, errInvalidBody)
	}

	id, err := h.catalogService.ResolveOrCreate(c.UserContext(), kind, restaurantID, req.Name)
	if err != nil {
		return respondError(c, err)
	}

	h.menuChanged(c.UserContext(), restaurantID, change)
	return c.Status(fiber.StatusCreated).JSON(dto.IDResponse{ID: id})
}

// menuChanged rebuilds the cached snapshot and announces the change. The
// mutation has already committed, so failures are only logged.
func (h *CatalogHandler) menuChanged(ctx context.Context, restaurantID uint, change string) {
	if _, err := h.loader.Refresh(ctx, restaurantID); err != nil {
		slog.Warn("menu snapshot refresh failed", "restaurant_id", restaurantID, "change", change, "error", err)
	}
	events.PublishQuietly(ctx, h.publisher, events.Event{
		Type:         events.TypeMenuUpdated,
		RestaurantID: restaurantID,
		Data:         map[string]any{"change": change},
	})
}

func parseDishID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("dish_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidDishID
	}
	return uint(id), nil
}

func toDishResponse(d models.Dish) dto.DishResponse {
	allergens := make([]string, 0, len(d.Allergens))
	for _, a := range d.Allergens {
		allergens = append(allergens, a.Name)
	}
	return dto.DishResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		CategoryID:  d.CategoryID,
		Image:       d.ImageURL,
		Allergens:   allergens,
	}
}
