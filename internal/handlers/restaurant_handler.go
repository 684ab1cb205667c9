package handlers

import (
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type RestaurantHandler struct {
	restaurantService *services.RestaurantService
}

func NewRestaurantHandler(restaurantService *services.RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{restaurantService: restaurantService}
}

func (h *RestaurantHandler) Create(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return requestError(c, errUnauthorized)
	}

	var req dto.CreateRestaurantRequest
	if err := c.BodyParser(&req); err != nil {
		return requestError(c, errInvalidBody)
	}

	restaurant, err := h.restaurantService.Create(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(restaurant)
}

func (h *RestaurantHandler) List(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return requestError(c, errUnauthorized)
	}

	restaurants, err := h.restaurantService.ListForUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(restaurants)
}
