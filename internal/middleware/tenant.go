package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type OwnerChecker interface {
	EnsureOwner(ctx context.Context, userID uuid.UUID, restaurantID uint) (*models.Restaurant, error)
}

// RestaurantOwner resolves :restaurant_id and lets the request through only
// when the authenticated user owns that restaurant. Downstream handlers read
// the verified id with tenant.GetRestaurantID.
func RestaurantOwner(owners OwnerChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := tenant.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		restaurantID, err := tenant.ParseRestaurantID(c.Params("restaurant_id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid restaurant id",
			})
		}

		if _, err := owners.EnsureOwner(c.UserContext(), userID, restaurantID); err != nil {
			switch {
			case errors.Is(err, services.ErrRestaurantNotFound):
				return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
					Error: true, Message: "Restaurant not found",
				})
			case errors.Is(err, services.ErrNotOwner):
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
					Error: true, Message: "You do not own this restaurant",
				})
			default:
				slog.Error("ownership check failed", "restaurant_id", restaurantID, "error", err)
				return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
					Error: true, Message: "Internal server error",
				})
			}
		}

		tenant.SetRestaurantID(c, restaurantID)
		return c.Next()
	}
}
