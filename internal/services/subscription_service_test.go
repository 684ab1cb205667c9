package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.events = append(p.events, evt)
	return nil
}

type subscriptionFixture struct {
	db         *gorm.DB
	svc        *SubscriptionService
	provider   *mockProvider
	publisher  *recordingPublisher
	owner      models.User
	restaurant models.Restaurant
}

func setupSubscriptions(t *testing.T) *subscriptionFixture {
	t.Helper()
	db := dbtest.Open(t)
	owner := createUser(t, db, "owner@example.com")
	restaurant := createRestaurant(t, db, owner.ID, "mario")
	provider := &mockProvider{}
	publisher := &recordingPublisher{}
	return &subscriptionFixture{
		db:         db,
		svc:        NewSubscriptionService(db, provider, publisher, nil, time.Hour),
		provider:   provider,
		publisher:  publisher,
		owner:      owner,
		restaurant: restaurant,
	}
}

func (f *subscriptionFixture) mirror(t *testing.T, sub models.Subscription) models.Subscription {
	t.Helper()
	sub.RestaurantID = f.restaurant.ID
	require.NoError(t, f.db.Create(&sub).Error)
	return sub
}

func periodEnd() *time.Time {
	end := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	return &end
}

func TestCheckSubscription_NoMirrorSkipsProvider(t *testing.T) {
	f := setupSubscriptions(t)

	status, err := f.svc.CheckSubscription(context.Background(), f.restaurant.ID)
	require.NoError(t, err)
	assert.False(t, status.Active)
	f.provider.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
}

func TestCheckSubscription_PendingMirrorSkipsProvider(t *testing.T) {
	f := setupSubscriptions(t)
	f.mirror(t, models.Subscription{StripeCustomerID: "cus_1", Status: models.SubscriptionStatusPending})

	status, err := f.svc.CheckSubscription(context.Background(), f.restaurant.ID)
	require.NoError(t, err)
	assert.False(t, status.Active)
	f.provider.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
}

func TestCheckSubscription_ActiveIsWrittenBack(t *testing.T) {
	f := setupSubscriptions(t)
	f.mirror(t, models.Subscription{StripeCustomerID: "cus_1", StripeSubscriptionID: "sub_1", Status: models.SubscriptionStatusPending})
	f.provider.On("GetSubscription", mock.Anything, "sub_1").
		Return(&billing.RemoteSubscription{ID: "sub_1", Status: "active", CurrentPeriodEnd: periodEnd()}, nil)

	status, err := f.svc.CheckSubscription(context.Background(), f.restaurant.ID)
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, "active", status.Status)
	assert.Equal(t, periodEnd().Unix(), status.CurrentPeriodEnd.Unix())

	var stored models.Subscription
	require.NoError(t, f.db.Where("restaurant_id = ?", f.restaurant.ID).Take(&stored).Error)
	assert.Equal(t, "active", stored.Status)
	require.NotNil(t, stored.CurrentPeriodEnd)
	assert.Equal(t, periodEnd().Unix(), stored.CurrentPeriodEnd.Unix())
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.TypeSubscriptionUpdated, f.publisher.events[0].Type)
}

func TestCheckSubscription_InactiveLeavesMirror(t *testing.T) {
	f := setupSubscriptions(t)
	f.mirror(t, models.Subscription{StripeCustomerID: "cus_1", StripeSubscriptionID: "sub_1", Status: models.SubscriptionStatusActive})
	f.provider.On("GetSubscription", mock.Anything, "sub_1").
		Return(&billing.RemoteSubscription{ID: "sub_1", Status: "past_due"}, nil)

	status, err := f.svc.CheckSubscription(context.Background(), f.restaurant.ID)
	require.NoError(t, err)
	assert.False(t, status.Active)
	assert.Equal(t, "past_due", status.Status)

	var stored models.Subscription
	require.NoError(t, f.db.Where("restaurant_id = ?", f.restaurant.ID).Take(&stored).Error)
	assert.Equal(t, models.SubscriptionStatusActive, stored.Status)
}

func TestCheckSubscription_ProviderError(t *testing.T) {
	f := setupSubscriptions(t)
	f.mirror(t, models.Subscription{StripeCustomerID: "cus_1", StripeSubscriptionID: "sub_1"})
	f.provider.On("GetSubscription", mock.Anything, "sub_1").Return(nil, errors.New("timeout"))

	_, err := f.svc.CheckSubscription(context.Background(), f.restaurant.ID)
	assert.ErrorIs(t, err, ErrBillingUnavailable)
}

func TestIsActive_TrustsFreshMirror(t *testing.T) {
	f := setupSubscriptions(t)
	f.mirror(t, models.Subscription{StripeCustomerID: "cus_1", StripeSubscriptionID: "sub_1", Status: models.SubscriptionStatusActive})

	assert.True(t, f.svc.IsActive(context.Background(), f.restaurant.ID))
	f.provider.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
}

func TestIsActive_StaleMirrorIsRechecked(t *testing.T) {
	f := setupSubscriptions(t)
	f.mirror(t, models.Subscription{StripeCustomerID: "cus_1", StripeSubscriptionID: "sub_1", Status: models.SubscriptionStatusActive})
	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	f.provider.On("GetSubscription", mock.Anything, "sub_1").
		Return(&billing.RemoteSubscription{ID: "sub_1", Status: "canceled"}, nil).Once()

	assert.False(t, f.svc.IsActive(context.Background(), f.restaurant.ID))
	f.provider.AssertExpectations(t)
}

func TestIsActive_FailsClosed(t *testing.T) {
	f := setupSubscriptions(t)
	f.mirror(t, models.Subscription{StripeCustomerID: "cus_1", StripeSubscriptionID: "sub_1", Status: models.SubscriptionStatusPastDue})
	f.provider.On("GetSubscription", mock.Anything, "sub_1").Return(nil, errors.New("stripe down"))

	assert.False(t, f.svc.IsActive(context.Background(), f.restaurant.ID))
}

func TestCreateSubscription_CreatesCustomerOnce(t *testing.T) {
	f := setupSubscriptions(t)
	ctx := context.Background()

	f.provider.On("CreateCustomer", mock.Anything, "owner@example.com", mock.MatchedBy(func(md map[string]string) bool {
		return md["userId"] == f.owner.ID.String() && md["restaurantId"] != ""
	})).Return("cus_new", nil).Once()
	f.provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req billing.CheckoutRequest) bool {
		return req.CustomerID == "cus_new" &&
			req.SuccessURL == "https://app.example.com/admin/dashboard?session_id={CHECKOUT_SESSION_ID}" &&
			req.CancelURL == "https://app.example.com/admin/dashboard"
	})).Return("https://checkout.stripe.com/c/1", nil).Twice()

	url, err := f.svc.CreateSubscription(ctx, f.owner.ID, "owner@example.com", f.restaurant.ID, "https://app.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/1", url)

	var stored models.Subscription
	require.NoError(t, f.db.Where("restaurant_id = ?", f.restaurant.ID).Take(&stored).Error)
	assert.Equal(t, "cus_new", stored.StripeCustomerID)
	assert.Equal(t, models.SubscriptionStatusPending, stored.Status)

	_, err = f.svc.CreateSubscription(ctx, f.owner.ID, "owner@example.com", f.restaurant.ID, "https://app.example.com")
	require.NoError(t, err)
	f.provider.AssertExpectations(t)
}

func TestCreateSubscription_ChecksOwnership(t *testing.T) {
	f := setupSubscriptions(t)
	stranger := createUser(t, f.db, "stranger@example.com")
	ctx := context.Background()

	_, err := f.svc.CreateSubscription(ctx, stranger.ID, "stranger@example.com", f.restaurant.ID, "https://app.example.com")
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = f.svc.CreateSubscription(ctx, f.owner.ID, "owner@example.com", f.restaurant.ID+1, "https://app.example.com")
	assert.ErrorIs(t, err, ErrRestaurantNotFound)

	f.provider.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything)
}

func TestManageSubscription(t *testing.T) {
	f := setupSubscriptions(t)
	ctx := context.Background()

	_, err := f.svc.ManageSubscription(ctx, f.owner.ID, f.restaurant.ID, "https://app.example.com")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)

	_, err = f.svc.ManageSubscription(ctx, uuid.New(), f.restaurant.ID, "https://app.example.com")
	assert.ErrorIs(t, err, ErrNotOwner)

	f.mirror(t, models.Subscription{StripeCustomerID: "cus_1", StripeSubscriptionID: "sub_1", Status: models.SubscriptionStatusActive})
	f.provider.On("CreatePortalSession", mock.Anything, "cus_1", "https://app.example.com/admin/dashboard").
		Return("https://billing.stripe.com/p/1", nil)

	url, err := f.svc.ManageSubscription(ctx, f.owner.ID, f.restaurant.ID, "https://app.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.com/p/1", url)
}

func checkoutEvent(customerID, subscriptionID string) *billing.Event {
	return &billing.Event{
		ID:              "evt_1",
		Type:            billing.EventCheckoutCompleted,
		CheckoutSession: &billing.CheckoutSession{ID: "cs_1", CustomerID: customerID, SubscriptionID: subscriptionID},
	}
}

func TestWebhook_CheckoutCompletedUpsertsMirror(t *testing.T) {
	f := setupSubscriptions(t)
	ctx := context.Background()
	f.mirror(t, models.Subscription{StripeCustomerID: "cus_1", Status: models.SubscriptionStatusPending})

	f.provider.On("GetCustomer", mock.Anything, "cus_1").
		Return(&billing.Customer{ID: "cus_1", Metadata: map[string]string{"restaurantId": uintString(f.restaurant.ID)}}, nil)
	f.provider.On("GetSubscription", mock.Anything, "sub_1").
		Return(&billing.RemoteSubscription{ID: "sub_1", Status: "active", CurrentPeriodEnd: periodEnd()}, nil)

	require.NoError(t, f.svc.HandleWebhookEvent(ctx, checkoutEvent("cus_1", "sub_1")))
	// Redelivery must not duplicate the row.
	require.NoError(t, f.svc.HandleWebhookEvent(ctx, checkoutEvent("cus_1", "sub_1")))

	var rows []models.Subscription
	require.NoError(t, f.db.Where("restaurant_id = ?", f.restaurant.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "sub_1", rows[0].StripeSubscriptionID)
	assert.Equal(t, "active", rows[0].Status)
	assert.Len(t, f.publisher.events, 2)
}

func TestWebhook_CheckoutCompletedWithoutMirrorCreatesRow(t *testing.T) {
	f := setupSubscriptions(t)
	f.provider.On("GetCustomer", mock.Anything, "cus_9").
		Return(&billing.Customer{ID: "cus_9", Metadata: map[string]string{"restaurantId": uintString(f.restaurant.ID)}}, nil)
	f.provider.On("GetSubscription", mock.Anything, "sub_9").
		Return(&billing.RemoteSubscription{ID: "sub_9", Status: "trialing"}, nil)

	require.NoError(t, f.svc.HandleWebhookEvent(context.Background(), checkoutEvent("cus_9", "sub_9")))

	var stored models.Subscription
	require.NoError(t, f.db.Where("restaurant_id = ?", f.restaurant.ID).Take(&stored).Error)
	assert.Equal(t, "trialing", stored.Status)
	assert.Equal(t, "cus_9", stored.StripeCustomerID)
}

func TestWebhook_CheckoutCompletedRejectsIncompleteSession(t *testing.T) {
	f := setupSubscriptions(t)

	err := f.svc.HandleWebhookEvent(context.Background(), checkoutEvent("", "sub_1"))
	assert.ErrorIs(t, err, ErrIncompleteCheckout)

	err = f.svc.HandleWebhookEvent(context.Background(), checkoutEvent("cus_1", ""))
	assert.ErrorIs(t, err, ErrIncompleteCheckout)
}

func TestWebhook_CheckoutCompletedRequiresRestaurantMetadata(t *testing.T) {
	f := setupSubscriptions(t)
	f.provider.On("GetCustomer", mock.Anything, "cus_1").
		Return(&billing.Customer{ID: "cus_1", Metadata: map[string]string{}}, nil)

	err := f.svc.HandleWebhookEvent(context.Background(), checkoutEvent("cus_1", "sub_1"))
	assert.ErrorIs(t, err, ErrMissingRestaurant)
}

func TestWebhook_SubscriptionUpdatedAndDeleted(t *testing.T) {
	f := setupSubscriptions(t)
	ctx := context.Background()
	f.mirror(t, models.Subscription{StripeCustomerID: "cus_1", StripeSubscriptionID: "sub_1", Status: models.SubscriptionStatusActive})

	err := f.svc.HandleWebhookEvent(ctx, &billing.Event{
		Type:         billing.EventSubscriptionUpdated,
		Subscription: &billing.RemoteSubscription{ID: "sub_1", Status: "past_due", CurrentPeriodEnd: periodEnd()},
	})
	require.NoError(t, err)

	var stored models.Subscription
	require.NoError(t, f.db.Where("stripe_subscription_id = ?", "sub_1").Take(&stored).Error)
	assert.Equal(t, "past_due", stored.Status)

	err = f.svc.HandleWebhookEvent(ctx, &billing.Event{
		Type:         billing.EventSubscriptionDeleted,
		Subscription: &billing.RemoteSubscription{ID: "sub_1", Status: "canceled"},
	})
	require.NoError(t, err)
	require.NoError(t, f.db.Where("stripe_subscription_id = ?", "sub_1").Take(&stored).Error)
	assert.Equal(t, "canceled", stored.Status)
	assert.Nil(t, stored.CurrentPeriodEnd)
}

func TestWebhook_UnknownSubscriptionIsReported(t *testing.T) {
	f := setupSubscriptions(t)

	err := f.svc.HandleWebhookEvent(context.Background(), &billing.Event{
		Type:         billing.EventSubscriptionUpdated,
		Subscription: &billing.RemoteSubscription{ID: "sub_missing", Status: "active"},
	})
	assert.ErrorIs(t, err, ErrUnknownSubscription)
}

func TestWebhook_IgnoresOtherTypes(t *testing.T) {
	f := setupSubscriptions(t)
	assert.NoError(t, f.svc.HandleWebhookEvent(context.Background(), &billing.Event{Type: "invoice.paid"}))
	assert.Empty(t, f.publisher.events)
}
