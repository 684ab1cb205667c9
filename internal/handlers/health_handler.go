package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	cachePing func(ctx context.Context) error
}

// NewHealthHandler reports database health and, when cachePing is set, the
// snapshot cache.
func NewHealthHandler(cachePing func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{cachePing: cachePing}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := database.Ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	cacheStatus := "memory"
	if h.cachePing != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		cacheStatus = "ok"
		if err := h.cachePing(ctx); err != nil {
			cacheStatus = "unhealthy: " + err.Error()
		}
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Cache:     cacheStatus,
	})
}
