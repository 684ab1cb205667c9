package billing

import (
	"context"
	"errors"
	"time"
)

// Webhook event types the reconciliation service reacts to.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

// Plan is the single monthly price offered to restaurants.
type Plan struct {
	Amount             int64
	Currency           string
	ProductName        string
	ProductDescription string
}

// RemoteSubscription is the provider's view of a subscription.
type RemoteSubscription struct {
	ID               string
	CustomerID       string
	Status           string
	CurrentPeriodEnd *time.Time
}

type Customer struct {
	ID       string
	Email    string
	Metadata map[string]string
}

type CheckoutRequest struct {
	CustomerID   string
	RestaurantID string
	SuccessURL   string
	CancelURL    string
}

type CheckoutSession struct {
	ID             string
	CustomerID     string
	SubscriptionID string
}

// Event is a verified webhook delivery. Exactly one of CheckoutSession and
// Subscription is set for the handled types; both are nil otherwise.
type Event struct {
	ID              string
	Type            string
	CheckoutSession *CheckoutSession
	Subscription    *RemoteSubscription
}

// Provider is the billing backend used by the subscription service.
type Provider interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*RemoteSubscription, error)
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)
	CreateCustomer(ctx context.Context, email string, metadata map[string]string) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

var ErrNotConfigured = errors.New("billing is not configured")

// Unconfigured is used when no Stripe credentials are set. Every call fails,
// so paid features stay locked.
type Unconfigured struct{}

func (Unconfigured) GetSubscription(context.Context, string) (*RemoteSubscription, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) GetCustomer(context.Context, string) (*Customer, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) CreateCustomer(context.Context, string, map[string]string) (string, error) {
	return "", ErrNotConfigured
}

func (Unconfigured) CreateCheckoutSession(context.Context, CheckoutRequest) (string, error) {
	return "", ErrNotConfigured
}

func (Unconfigured) CreatePortalSession(context.Context, string, string) (string, error) {
	return "", ErrNotConfigured
}

func (Unconfigured) ParseWebhook([]byte, string) (*Event, error) {
	return nil, ErrNotConfigured
}
