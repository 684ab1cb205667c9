package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

var (
	errUnauthorized        = errors.New("unauthorized")
	errInvalidBody         = errors.New("invalid request body")
	errMissingRestaurantID = errors.New("restaurantId is required")
	errInvalidDishID       = errors.New("invalid dish id")
)

// serviceErrors maps sentinel errors to the status and message sent to clients.
var serviceErrors = []struct {
	err     error
	status  int
	message string
}{
	{services.ErrRestaurantNotFound, fiber.StatusNotFound, "Restaurant not found"},
	{services.ErrNotOwner, fiber.StatusForbidden, "You do not own this restaurant"},
	{services.ErrSubdomainTaken, fiber.StatusConflict, "Subdomain already in use"},
	{services.ErrInvalidRestaurant, fiber.StatusBadRequest, ""},
	{services.ErrInvalidSubdomain, fiber.StatusBadRequest, ""},
	{services.ErrDishNotFound, fiber.StatusNotFound, "Dish not found"},
	{services.ErrForeignAllergen, fiber.StatusBadRequest, ""},
	{services.ErrNameRequired, fiber.StatusBadRequest, ""},
	{services.ErrSubscriptionNotFound, fiber.StatusNotFound, "No subscription found for this restaurant"},
	{services.ErrBillingUnavailable, fiber.StatusBadGateway, "Billing provider unavailable, please retry"},
}

// respondError writes the response for a service error. Unknown errors are
// logged and answered with a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	for _, se := range serviceErrors {
		if errors.Is(err, se.err) {
			message := se.message
			if message == "" {
				message = se.err.Error()
			}
			return c.Status(se.status).JSON(dto.ErrorResponse{
				Error: true, Message: message,
			})
		}
	}

	slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return internalError(c)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

// requestError answers a request that failed parsing before reaching a service.
func requestError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errUnauthorized) {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
	return badRequest(c, err.Error())
}
