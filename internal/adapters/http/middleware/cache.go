package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// NoStore keeps responses carrying credentials out of shared and browser caches
func NoStore() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Process request first
		err := c.Next()

		c.Set(fiber.HeaderCacheControl, "no-store")
		c.Set(fiber.HeaderPragma, "no-cache")

		return err
	}
}
