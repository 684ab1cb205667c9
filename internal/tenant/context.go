package tenant

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const restaurantLocal = "restaurant_id"

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	claims, err := getClaims(c)
	if err != nil {
		return uuid.Nil, err
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

// GetEmail extracts the email claim, empty when absent.
func GetEmail(c *fiber.Ctx) string {
	claims, err := getClaims(c)
	if err != nil {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}

// SetRestaurantID stores the verified restaurant id for downstream handlers.
func SetRestaurantID(c *fiber.Ctx, restaurantID uint) {
	c.Locals(restaurantLocal, restaurantID)
}

// GetRestaurantID returns the restaurant id verified by the owner middleware.
func GetRestaurantID(c *fiber.Ctx) uint {
	if id, ok := c.Locals(restaurantLocal).(uint); ok {
		return id
	}
	return 0
}

// ParseRestaurantID parses a positive restaurant id from a path or body value.
func ParseRestaurantID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid restaurant id")
	}
	return uint(id), nil
}

func getClaims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}
