package middleware

import (
	"errors"
	"strings"

	"langlearn-api/internal/core/domain"
	"langlearn-api/internal/pkg/jwt"
	"langlearn-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by AuthMiddleware
const (
	LocalUserID   = "userID"
	LocalEmail    = "email"
	LocalUsername = "username"
	LocalRoles    = "roles"
)

// AuthMiddleware creates authentication middleware
func AuthMiddleware(tokens *jwt.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Read bearer token
		authHeader := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return response.Unauthorized(c, "Access token required")
		}
		accessToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 2. Validate token
		claims, err := tokens.Verify(accessToken)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 3. Set user info in context
		c.Locals(LocalUserID, claims.UserID())
		c.Locals(LocalEmail, claims.Email)
		c.Locals(LocalUsername, claims.Username)
		c.Locals(LocalRoles, claims.Roles)

		return c.Next()
	}
}

// RoleMiddleware creates role-based authorization middleware.
// It must run after AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles, ok := c.Locals(LocalRoles).([]string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, role := range roles {
			for _, allowed := range allowedRoles {
				if role == string(allowed) {
					return c.Next()
				}
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly middleware allows only the Admin role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// UserID returns the authenticated user ID, or "" outside AuthMiddleware
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}
