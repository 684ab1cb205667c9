package middleware

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type SubscriptionGate interface {
	IsActive(ctx context.Context, restaurantID uint) bool
}

// SubscriptionRequired guards paid features. It must run after
// RestaurantOwner.
func SubscriptionRequired(gate SubscriptionGate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID := tenant.GetRestaurantID(c)
		if restaurantID == 0 || !gate.IsActive(c.UserContext(), restaurantID) {
			return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{
				Error: true, Message: "An active subscription is required",
			})
		}
		return c.Next()
	}
}
