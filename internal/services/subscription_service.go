package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSubscriptionNotFound = errors.New("no billing customer for this restaurant")
	ErrBillingUnavailable   = errors.New("billing provider unavailable")
	ErrIncompleteCheckout   = errors.New("checkout session without customer or subscription")
	ErrMissingRestaurant    = errors.New("billing customer carries no restaurant id")
	ErrUnknownSubscription  = errors.New("subscription is not mirrored locally")
)

const dashboardPath = "/admin/dashboard"

// SubscriptionService keeps the local subscription mirror in line with the
// billing provider, which stays the source of truth.
type SubscriptionService struct {
	db          *gorm.DB
	provider    billing.Provider
	publisher   events.Publisher
	metrics     *metrics.Registry
	trustWindow time.Duration
	now         func() time.Time
}

func NewSubscriptionService(db *gorm.DB, provider billing.Provider, publisher events.Publisher, m *metrics.Registry, trustWindow time.Duration) *SubscriptionService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &SubscriptionService{
		db:          db,
		provider:    provider,
		publisher:   publisher,
		metrics:     m,
		trustWindow: trustWindow,
		now:         time.Now,
	}
}

// CheckSubscription asks the provider for the live status of the
// restaurant's subscription. A restaurant that never completed checkout is
// reported inactive without a provider call. An active live status is
// written back to the mirror.
func (s *SubscriptionService) CheckSubscription(ctx context.Context, restaurantID uint) (*dto.SubscriptionStatus, error) {
	db := s.db.WithContext(ctx)

	sub, err := findMirror(db, restaurantID)
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.StripeSubscriptionID == "" {
		s.metrics.SubscriptionCheck("none")
		return &dto.SubscriptionStatus{Active: false}, nil
	}

	remote, err := s.provider.GetSubscription(ctx, sub.StripeSubscriptionID)
	if err != nil {
		s.metrics.SubscriptionCheck("error")
		return nil, fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}

	active := models.IsActiveStatus(remote.Status)
	if active {
		s.metrics.SubscriptionCheck("active")
		err := db.Model(sub).Updates(map[string]interface{}{
			"status":             remote.Status,
			"current_period_end": remote.CurrentPeriodEnd,
		}).Error
		if err != nil {
			slog.Warn("subscription read-repair failed", "restaurant_id", restaurantID, "error", err)
		} else {
			s.publish(ctx, restaurantID, remote.Status, remote.CurrentPeriodEnd)
		}
	} else {
		s.metrics.SubscriptionCheck("inactive")
	}

	return &dto.SubscriptionStatus{
		Active:           active,
		Status:           remote.Status,
		CurrentPeriodEnd: remote.CurrentPeriodEnd,
	}, nil
}

// IsActive gates paid features. A recently confirmed active mirror is
// trusted; otherwise the provider is asked. Errors deny access.
func (s *SubscriptionService) IsActive(ctx context.Context, restaurantID uint) bool {
	sub, err := findMirror(s.db.WithContext(ctx), restaurantID)
	if err == nil && sub != nil && models.IsActiveStatus(sub.Status) && s.now().Sub(sub.UpdatedAt) < s.trustWindow {
		s.metrics.SubscriptionCheck("trusted")
		return true
	}

	status, err := s.CheckSubscription(ctx, restaurantID)
	if err != nil {
		slog.Warn("subscription check failed, denying access", "restaurant_id", restaurantID, "error", err)
		return false
	}
	return status.Active
}

// CreateSubscription opens a hosted checkout for the monthly plan and
// returns its URL. The billing customer is created on first use.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, userID uuid.UUID, email string, restaurantID uint, origin string) (string, error) {
	db := s.db.WithContext(ctx)
	if _, err := ensureOwner(db, userID, restaurantID); err != nil {
		return "", err
	}

	sub, err := findMirror(db, restaurantID)
	if err != nil {
		return "", err
	}

	customerID := ""
	if sub != nil {
		customerID = sub.StripeCustomerID
	}
	if customerID == "" {
		customerID, err = s.provider.CreateCustomer(ctx, email, map[string]string{
			"restaurantId": strconv.FormatUint(uint64(restaurantID), 10),
			"userId":       userID.String(),
		})
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
		}

		row := models.Subscription{
			RestaurantID:     restaurantID,
			StripeCustomerID: customerID,
			Status:           models.SubscriptionStatusPending,
		}
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "restaurant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"stripe_customer_id", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return "", fmt.Errorf("failed to store billing customer: %w", err)
		}
	}

	base := strings.TrimRight(origin, "/")
	url, err := s.provider.CreateCheckoutSession(ctx, billing.CheckoutRequest{
		CustomerID:   customerID,
		RestaurantID: strconv.FormatUint(uint64(restaurantID), 10),
		SuccessURL:   base + dashboardPath + "?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:    base + dashboardPath,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}
	return url, nil
}

// ManageSubscription returns a billing portal URL for an existing customer.
func (s *SubscriptionService) ManageSubscription(ctx context.Context, userID uuid.UUID, restaurantID uint, origin string) (string, error) {
	db := s.db.WithContext(ctx)
	if _, err := ensureOwner(db, userID, restaurantID); err != nil {
		return "", err
	}

	sub, err := findMirror(db, restaurantID)
	if err != nil {
		return "", err
	}
	if sub == nil || sub.StripeCustomerID == "" {
		return "", ErrSubscriptionNotFound
	}

	url, err := s.provider.CreatePortalSession(ctx, sub.StripeCustomerID, strings.TrimRight(origin, "/")+dashboardPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}
	return url, nil
}

// HandleWebhookEvent applies a verified provider event to the mirror.
// Unhandled event types are ignored.
func (s *SubscriptionService) HandleWebhookEvent(ctx context.Context, evt *billing.Event) error {
	switch evt.Type {
	case billing.EventCheckoutCompleted:
		return s.applyCheckout(ctx, evt.CheckoutSession)
	case billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted:
		return s.applySubscriptionChange(ctx, evt.Subscription)
	default:
		return nil
	}
}

func (s *SubscriptionService) applyCheckout(ctx context.Context, session *billing.CheckoutSession) error {
	if session == nil || session.CustomerID == "" || session.SubscriptionID == "" {
		return ErrIncompleteCheckout
	}

	customer, err := s.provider.GetCustomer(ctx, session.CustomerID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}
	restaurantID, err := tenant.ParseRestaurantID(customer.Metadata["restaurantId"])
	if err != nil {
		return fmt.Errorf("%w: customer %s", ErrMissingRestaurant, customer.ID)
	}

	remote, err := s.provider.GetSubscription(ctx, session.SubscriptionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}

	row := models.Subscription{
		RestaurantID:         restaurantID,
		StripeCustomerID:     session.CustomerID,
		StripeSubscriptionID: session.SubscriptionID,
		Status:               remote.Status,
		CurrentPeriodEnd:     remote.CurrentPeriodEnd,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "restaurant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stripe_customer_id", "stripe_subscription_id", "status", "current_period_end", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	slog.Info("subscription activated from checkout", "restaurant_id", restaurantID, "status", remote.Status)
	s.publish(ctx, restaurantID, remote.Status, remote.CurrentPeriodEnd)
	return nil
}

func (s *SubscriptionService) applySubscriptionChange(ctx context.Context, remote *billing.RemoteSubscription) error {
	if remote == nil || remote.ID == "" {
		return billing.ErrMalformedEvent
	}

	db := s.db.WithContext(ctx)
	var sub models.Subscription
	err := db.Where("stripe_subscription_id = ?", remote.ID).Take(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownSubscription, remote.ID)
	}
	if err != nil {
		return err
	}

	err = db.Model(&sub).Updates(map[string]interface{}{
		"status":             remote.Status,
		"current_period_end": remote.CurrentPeriodEnd,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	slog.Info("subscription status changed", "restaurant_id", sub.RestaurantID, "status", remote.Status)
	s.publish(ctx, sub.RestaurantID, remote.Status, remote.CurrentPeriodEnd)
	return nil
}

func (s *SubscriptionService) publish(ctx context.Context, restaurantID uint, status string, periodEnd *time.Time) {
	events.PublishQuietly(ctx, s.publisher, events.Event{
		Type:         events.TypeSubscriptionUpdated,
		RestaurantID: restaurantID,
		Data: map[string]any{
			"status":           status,
			"currentPeriodEnd": periodEnd,
		},
	})
}

// findMirror returns the restaurant's subscription row, or nil when none exists.
func findMirror(db *gorm.DB, restaurantID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.Where("restaurant_id = ?", restaurantID).Take(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &sub, nil
}
