package handlers

import (
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SubscriptionHandler struct {
	subscriptionService *services.SubscriptionService
	restaurantService   *services.RestaurantService
	appBaseURL          string
}

func NewSubscriptionHandler(subscriptionService *services.SubscriptionService, restaurantService *services.RestaurantService, appBaseURL string) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		restaurantService:   restaurantService,
		appBaseURL:          appBaseURL,
	}
}

// Check reports the live subscription status. Clients treat any non-2xx as
// inactive.
func (h *SubscriptionHandler) Check(c *fiber.Ctx) error {
	userID, restaurantID, err := parseSubscriptionRequest(c)
	if err != nil {
		return requestError(c, err)
	}
	if _, err := h.restaurantService.EnsureOwner(c.UserContext(), userID, restaurantID); err != nil {
		return respondError(c, err)
	}

	status, err := h.subscriptionService.CheckSubscription(c.UserContext(), restaurantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

func (h *SubscriptionHandler) Create(c *fiber.Ctx) error {
	userID, restaurantID, err := parseSubscriptionRequest(c)
	if err != nil {
		return requestError(c, err)
	}

	url, err := h.subscriptionService.CreateSubscription(c.UserContext(), userID, tenant.GetEmail(c), restaurantID, h.origin(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.RedirectResponse{URL: url})
}

func (h *SubscriptionHandler) Manage(c *fiber.Ctx) error {
	userID, restaurantID, err := parseSubscriptionRequest(c)
	if err != nil {
		return requestError(c, err)
	}

	url, err := h.subscriptionService.ManageSubscription(c.UserContext(), userID, restaurantID, h.origin(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.RedirectResponse{URL: url})
}

func parseSubscriptionRequest(c *fiber.Ctx) (uuid.UUID, uint, error) {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return uuid.Nil, 0, errUnauthorized
	}

	var req dto.SubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return uuid.Nil, 0, errInvalidBody
	}
	if req.RestaurantID == 0 {
		return uuid.Nil, 0, errMissingRestaurantID
	}
	return userID, req.RestaurantID, nil
}

func (h *SubscriptionHandler) origin(c *fiber.Ctx) string {
	if origin := c.Get(fiber.HeaderOrigin); origin != "" {
		return origin
	}
	return h.appBaseURL
}
