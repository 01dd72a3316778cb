package middleware

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"langlearn-api/internal/config"
	"langlearn-api/internal/core/domain"
	"langlearn-api/internal/pkg/jwt"
	"langlearn-api/internal/pkg/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokens(t *testing.T) *jwt.TokenService {
	t.Helper()
	tokens, err := jwt.NewTokenService("test-jwt-secret", "langlearn-api", time.Hour)
	require.NoError(t, err)
	return tokens
}

func bearer(t *testing.T, tokens *jwt.TokenService, roles ...string) string {
	t.Helper()
	token, _, err := tokens.Issue(jwt.Identity{UserID: "user-1", Email: "alice@x.com", Username: "alice", Roles: roles})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTokens(t)

	app := fiber.New()
	app.Get("/me", AuthMiddleware(tokens), func(c *fiber.Ctx) error {
		return c.SendString(UserID(c) + "|" + c.Locals(LocalUsername).(string))
	})
	app.Get("/admin", AuthMiddleware(tokens), AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	tests := []struct {
		name   string
		path   string
		auth   string
		status int
	}{
		{name: "no header", path: "/me", auth: "", status: fiber.StatusUnauthorized},
		{name: "not bearer", path: "/me", auth: "Basic abc", status: fiber.StatusUnauthorized},
		{name: "garbage token", path: "/me", auth: "Bearer nope", status: fiber.StatusUnauthorized},
		{name: "valid token", path: "/me", auth: bearer(t, tokens, "User"), status: fiber.StatusOK},
		{name: "user on admin route", path: "/admin", auth: bearer(t, tokens, "User"), status: fiber.StatusForbidden},
		{name: "admin on admin route", path: "/admin", auth: bearer(t, tokens, string(domain.RoleAdmin)), status: fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRoleMiddleware_WithoutAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/", AdminOnly(), func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRateLimiter_InMemoryFallback(t *testing.T) {
	app := fiber.New()
	cfg := config.RateLimitConfig{Max: 2, Window: time.Minute, Prefix: "test"}
	app.Post("/login", AuthRateLimiter(nil, cfg, "login"), func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestRequestLoggerAndNoStore(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: CustomErrorHandler})
	app.Use(RequestLogger(logging.Discard()))
	app.Get("/", NoStore(), func(c *fiber.Ctx) error {
		require.NotNil(t, logging.FromContext(c.UserContext()))
		return c.SendString("ok")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
	assert.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))

	req := httptest.NewRequest("GET", "/boom", nil)
	req.Header.Set(fiber.HeaderXRequestID, "rid-1")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "rid-1", resp.Header.Get(fiber.HeaderXRequestID))
}

func TestAPIRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Use(APIRateLimiter(config.RateLimitConfig{Max: 1, Window: 30 * time.Second}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "30", resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestCustomErrorHandler_Envelope(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: CustomErrorHandler})
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	app.Get("/broken", func(c *fiber.Ctx) error { return errors.New("db exploded") })

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/missing", fiber.StatusNotFound, `{"success":false,"error":"Not Found"}`},
		{"/broken", fiber.StatusInternalServerError, `{"success":false,"error":"Internal Server Error"}`},
	}

	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode, tt.path)
		assert.JSONEq(t, tt.body, string(body), tt.path)
	}
}
