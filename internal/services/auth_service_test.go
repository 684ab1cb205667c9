package services

import (
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthService(t *testing.T) *AuthService {
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
	}
	return NewAuthService(dbtest.Open(t), cfg)
}

func TestAuth_RegisterIssuesTokens(t *testing.T) {
	svc := newAuthService(t)

	resp, err := svc.Register(&dto.RegisterRequest{Email: " Owner@Example.com ", Password: "password123"})
	require.NoError(t, err)

	assert.Equal(t, "owner@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.RefreshToken)

	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, resp.User.ID.String(), claims["sub"])
	assert.Equal(t, "owner@example.com", claims["email"])
}

func TestAuth_RegisterRejectsDuplicateAndWeak(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Email: "a@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Register(&dto.RegisterRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(&dto.RegisterRequest{Email: "A@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuth_Login(t *testing.T) {
	svc := newAuthService(t)
	_, err := svc.Register(&dto.RegisterRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Login(&dto.LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(&dto.LoginRequest{Email: "missing@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := svc.Login(&dto.LoginRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestAuth_RefreshRotatesToken(t *testing.T) {
	svc := newAuthService(t)
	first, err := svc.Register(&dto.RegisterRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	second, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuth_RefreshFailsWhenRevokeFails(t *testing.T) {
	svc := newAuthService(t)
	first, err := svc.Register(&dto.RegisterRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	errWrite := errors.New("write failed")
	require.NoError(t, svc.db.Callback().Update().Before("gorm:update").Register("test:fail_update", func(tx *gorm.DB) {
		tx.AddError(errWrite)
	}))

	resp, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, errWrite)
	assert.Nil(t, resp)

	var issued int64
	require.NoError(t, svc.db.Model(&models.RefreshToken{}).Count(&issued).Error)
	assert.Equal(t, int64(1), issued)
}

func TestAuth_LogoutRevokes(t *testing.T) {
	svc := newAuthService(t)
	resp, err := svc.Register(&dto.RegisterRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(&dto.LogoutRequest{RefreshToken: resp.RefreshToken}))

	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
