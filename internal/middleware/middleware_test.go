package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tourneypay/internal/models"
	"tourneypay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type MockClaimer struct {
	mock.Mock
}

func (m *MockClaimer) ClaimKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimer) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(token string) (*models.ElevationClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ElevationClaims), args.Error(1)
}

func bearer(t *testing.T, userID uint, role string) string {
	t.Helper()
	token, err := utils.GenerateAccessToken(&models.UserClaims{UserID: userID, Role: role}, secret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(NewAuthMiddleware(secret).Handler)
	app.Get("/verify", HasPermission(models.PermissionPaymentVerify), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/admin", AdminAuthMiddleware, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	tests := []struct {
		name   string
		path   string
		auth   string
		status int
	}{
		{name: "missing header", path: "/verify", status: http.StatusUnauthorized},
		{name: "bad scheme", path: "/verify", auth: "Token abc", status: http.StatusUnauthorized},
		{name: "bad token", path: "/verify", auth: "Bearer abc", status: http.StatusUnauthorized},
		{name: "player lacks verify", path: "/verify", auth: bearer(t, 3, models.RolePlayer), status: http.StatusForbidden},
		{name: "organizer default permissions", path: "/verify", auth: bearer(t, 4, models.RoleOrganizer), status: http.StatusOK},
		{name: "organizer is not admin", path: "/admin", auth: bearer(t, 4, models.RoleOrganizer), status: http.StatusForbidden},
		{name: "admin", path: "/admin", auth: bearer(t, 1, models.RoleAdmin), status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func idempotencyApp(claimer KeyClaimer, status int) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uint(7))
		return c.Next()
	})
	app.Post("/pay", Idempotency(claimer, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(status)
	})
	return app
}

func TestIdempotency(t *testing.T) {
	key := "idempotency:7:POST:/pay:abc"

	t.Run("first request passes", func(t *testing.T) {
		claimer := new(MockClaimer)
		claimer.On("ClaimKey", mock.Anything, key, time.Minute).Return(true, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/pay", nil)
		req.Header.Set(IdempotencyHeader, "abc")
		resp, err := idempotencyApp(claimer, http.StatusCreated).Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		claimer.AssertExpectations(t)
	})

	t.Run("replay is rejected", func(t *testing.T) {
		claimer := new(MockClaimer)
		claimer.On("ClaimKey", mock.Anything, key, time.Minute).Return(false, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/pay", nil)
		req.Header.Set(IdempotencyHeader, "abc")
		resp, err := idempotencyApp(claimer, http.StatusCreated).Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		claimer.AssertExpectations(t)
	})

	t.Run("failed request releases the key", func(t *testing.T) {
		claimer := new(MockClaimer)
		claimer.On("ClaimKey", mock.Anything, key, time.Minute).Return(true, nil).Once()
		claimer.On("Delete", mock.Anything, []string{key}).Return(nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/pay", nil)
		req.Header.Set(IdempotencyHeader, "abc")
		resp, err := idempotencyApp(claimer, http.StatusConflict).Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		claimer.AssertExpectations(t)
	})

	t.Run("redis failure fails open", func(t *testing.T) {
		claimer := new(MockClaimer)
		claimer.On("ClaimKey", mock.Anything, key, time.Minute).Return(false, errors.New("dial tcp: refused")).Once()

		req := httptest.NewRequest(http.MethodPost, "/pay", nil)
		req.Header.Set(IdempotencyHeader, "abc")
		resp, err := idempotencyApp(claimer, http.StatusOK).Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		claimer.AssertExpectations(t)
	})

	t.Run("no header skips the claimer", func(t *testing.T) {
		claimer := new(MockClaimer)
		resp, err := idempotencyApp(claimer, http.StatusOK).Test(httptest.NewRequest(http.MethodPost, "/pay", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		claimer.AssertNotCalled(t, "ClaimKey", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestElevation(t *testing.T) {
	verifier := new(MockVerifier)
	verifier.On("Verify", "good").Return(&models.ElevationClaims{ActorID: 1, TargetUserID: 21}, nil)
	verifier.On("Verify", "foreign").Return(&models.ElevationClaims{ActorID: 2, TargetUserID: 21}, nil)
	verifier.On("Verify", "expired").Return(nil, errors.New("token is expired"))

	app := fiber.New()
	app.Use(NewAuthMiddleware(secret).Handler, Elevation(verifier))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		actor := Actor(c)
		return c.JSON(fiber.Map{"actor": actor.ID, "effective": actor.EffectiveUserID()})
	})

	tests := []struct {
		name   string
		auth   string
		token  string
		status int
	}{
		{name: "no elevation", auth: bearer(t, 3, models.RolePlayer), status: http.StatusOK},
		{name: "player cannot elevate", auth: bearer(t, 3, models.RolePlayer), token: "good", status: http.StatusForbidden},
		{name: "admin elevates", auth: bearer(t, 1, models.RoleAdmin), token: "good", status: http.StatusOK},
		{name: "token of another admin", auth: bearer(t, 1, models.RoleAdmin), token: "foreign", status: http.StatusForbidden},
		{name: "expired token", auth: bearer(t, 1, models.RoleAdmin), token: "expired", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			req.Header.Set("Authorization", tt.auth)
			if tt.token != "" {
				req.Header.Set(ElevationHeader, tt.token)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
