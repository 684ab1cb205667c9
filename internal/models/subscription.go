package models

import "time"

// Subscription statuses as reported by the billing provider, plus "pending"
// for a customer that has not completed checkout yet.
const (
	SubscriptionStatusPending  = "pending"
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription mirrors the billing provider's state for one restaurant. It is
// a cache, never the system of record.
type Subscription struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	RestaurantID         uint       `gorm:"not null;uniqueIndex" json:"restaurant_id"`
	StripeCustomerID     string     `gorm:"size:255" json:"stripe_customer_id"`
	StripeSubscriptionID string     `gorm:"size:255;index" json:"stripe_subscription_id"`
	Status               string     `gorm:"not null;default:'pending';size:50" json:"status"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	Restaurant           Restaurant `gorm:"foreignKey:RestaurantID" json:"-"`
}

// IsActiveStatus reports whether a provider status grants feature access.
func IsActiveStatus(status string) bool {
	return status == SubscriptionStatusActive || status == SubscriptionStatusTrialing
}
