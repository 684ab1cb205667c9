package dto

import "time"

// SubscriptionRequest is the body of the check, create and manage endpoints.
type SubscriptionRequest struct {
	RestaurantID uint `json:"restaurantId"`
}

type SubscriptionStatus struct {
	Active           bool       `json:"active"`
	Status           string     `json:"status,omitempty"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
}

type RedirectResponse struct {
	URL string `json:"url"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}
