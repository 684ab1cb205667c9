package services

import (
	"context"
	"strconv"
	"testing"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Email: email, Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createRestaurant(t *testing.T, db *gorm.DB, owner uuid.UUID, subdomain string) models.Restaurant {
	t.Helper()
	restaurant := models.Restaurant{Name: "Trattoria " + subdomain, Subdomain: subdomain, UserID: owner}
	require.NoError(t, db.Create(&restaurant).Error)
	return restaurant
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) GetSubscription(ctx context.Context, subscriptionID string) (*billing.RemoteSubscription, error) {
	args := m.Called(ctx, subscriptionID)
	sub, _ := args.Get(0).(*billing.RemoteSubscription)
	return sub, args.Error(1)
}

func (m *mockProvider) GetCustomer(ctx context.Context, customerID string) (*billing.Customer, error) {
	args := m.Called(ctx, customerID)
	cus, _ := args.Get(0).(*billing.Customer)
	return cus, args.Error(1)
}

func (m *mockProvider) CreateCustomer(ctx context.Context, email string, metadata map[string]string) (string, error) {
	args := m.Called(ctx, email, metadata)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	args := m.Called(ctx, customerID, returnURL)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) ParseWebhook(payload []byte, signature string) (*billing.Event, error) {
	args := m.Called(payload, signature)
	evt, _ := args.Get(0).(*billing.Event)
	return evt, args.Error(1)
}

func uintString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
