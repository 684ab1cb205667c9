package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/services"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	provider            billing.Provider
	subscriptionService *services.SubscriptionService
	metrics             *metrics.Registry
}

func NewWebhookHandler(provider billing.Provider, subscriptionService *services.SubscriptionService, m *metrics.Registry) *WebhookHandler {
	return &WebhookHandler{
		provider:            provider,
		subscriptionService: subscriptionService,
		metrics:             m,
	}
}

// HandleStripe verifies the Stripe-Signature header against the raw body and
// applies the event. A 5xx makes Stripe redeliver.
func (h *WebhookHandler) HandleStripe(c *fiber.Ctx) error {
	evt, err := h.provider.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		h.metrics.Webhook("unknown", "rejected")
		message := "Invalid webhook payload"
		if errors.Is(err, billing.ErrInvalidSignature) {
			message = "Invalid webhook signature"
		}
		slog.Warn("stripe webhook rejected", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: message,
		})
	}

	if !handledEvent(evt.Type) {
		h.metrics.Webhook(evt.Type, "ignored")
		return c.JSON(dto.WebhookAck{Received: true})
	}

	if err := h.subscriptionService.HandleWebhookEvent(c.UserContext(), evt); err != nil {
		if errors.Is(err, billing.ErrMalformedEvent) {
			h.metrics.Webhook(evt.Type, "rejected")
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid webhook payload",
			})
		}

		h.metrics.Webhook(evt.Type, "error")
		slog.Error("webhook processing failed", "event_id", evt.ID, "event_type", evt.Type, "error", err)
		hub := sentryfiber.GetHubFromContext(c)
		if hub == nil {
			hub = sentry.CurrentHub()
		}
		hub.CaptureException(err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	h.metrics.Webhook(evt.Type, "applied")
	slog.Info("webhook processed", "event_id", evt.ID, "event_type", evt.Type)
	return c.JSON(dto.WebhookAck{Received: true})
}

func handledEvent(eventType string) bool {
	switch eventType {
	case billing.EventCheckoutCompleted, billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted:
		return true
	}
	return false
}
