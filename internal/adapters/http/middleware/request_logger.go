package middleware

import (
	"log/slog"
	"time"

	"langlearn-api/internal/pkg/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestLogger puts a request-scoped logger into the user context and
// logs failed requests
func RequestLogger(base *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(fiber.HeaderXRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, rid)

		l := base.With(
			"request_id", rid,
			"method", c.Method(),
			"path", c.Path(),
			"remote_ip", c.IP(),
		)
		c.SetUserContext(logging.IntoContext(c.UserContext(), l))

		start := time.Now()
		err := c.Next()
		if err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		if err != nil || status >= fiber.StatusInternalServerError {
			l.Error("request failed", "status", status, "duration_ms", time.Since(start).Milliseconds(), "error", errStr(err))
		}
		return nil
	}
}

func errStr(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
