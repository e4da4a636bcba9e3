// internal/services/auth_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopmarket/marketplace-backend/internal/config"
	"github.com/loopmarket/marketplace-backend/internal/models"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()

	cfg := &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
	}

	return NewAuthService(newTestDB(t), cfg)
}

func TestRegister(t *testing.T) {
	svc := newAuthService(t)

	t.Run("creates an active account with tokens", func(t *testing.T) {
		resp, err := svc.Register(&RegisterRequest{
			Username: "newuser",
			Email:    "newuser@example.com",
			Password: "Str0ng!Pass",
		})
		require.NoError(t, err)

		assert.Equal(t, models.UserStatusActive, resp.User.Status)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.NotEqual(t, "Str0ng!Pass", resp.User.PasswordHash)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		_, err := svc.Register(&RegisterRequest{
			Username: "different",
			Email:    "newuser@example.com",
			Password: "Str0ng!Pass",
		})
		assert.ErrorContains(t, err, "email already registered")
	})

	t.Run("rejects duplicate username", func(t *testing.T) {
		_, err := svc.Register(&RegisterRequest{
			Username: "newuser",
			Email:    "other@example.com",
			Password: "Str0ng!Pass",
		})
		assert.ErrorContains(t, err, "username already taken")
	})

	t.Run("rejects weak password", func(t *testing.T) {
		_, err := svc.Register(&RegisterRequest{
			Username: "weakpw",
			Email:    "weakpw@example.com",
			Password: "password",
		})
		assert.Error(t, err)
	})
}

func TestLogin(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(&RegisterRequest{
		Username: "loginuser",
		Email:    "login@example.com",
		Password: "Str0ng!Pass",
	})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(&LoginRequest{
			Email:    "login@example.com",
			Password: "Str0ng!Pass",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotNil(t, resp.User.LastLoginAt)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(&LoginRequest{
			Email:    "login@example.com",
			Password: "Wrong!Pass1",
		})
		assert.ErrorContains(t, err, "invalid credentials")
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(&LoginRequest{
			Email:    "nobody@example.com",
			Password: "Str0ng!Pass",
		})
		assert.ErrorContains(t, err, "invalid credentials")
	})

	t.Run("suspended account", func(t *testing.T) {
		resp, err := svc.Register(&RegisterRequest{
			Username: "suspended",
			Email:    "suspended@example.com",
			Password: "Str0ng!Pass",
		})
		require.NoError(t, err)
		require.NoError(t, svc.db.Model(resp.User).Update("status", models.UserStatusSuspended).Error)

		_, err = svc.Login(&LoginRequest{
			Email:    "suspended@example.com",
			Password: "Str0ng!Pass",
		})
		assert.ErrorContains(t, err, "suspended")
	})
}

func TestRefreshToken(t *testing.T) {
	svc := newAuthService(t)

	resp, err := svc.Register(&RegisterRequest{
		Username: "refresher",
		Email:    "refresher@example.com",
		Password: "Str0ng!Pass",
	})
	require.NoError(t, err)

	t.Run("valid refresh token issues a new pair", func(t *testing.T) {
		refreshed, err := svc.RefreshToken(resp.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, refreshed.AccessToken)
		assert.Equal(t, resp.User.ID, refreshed.User.ID)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, err := svc.RefreshToken("not-a-token")
		assert.ErrorContains(t, err, "invalid refresh token")
	})
}
