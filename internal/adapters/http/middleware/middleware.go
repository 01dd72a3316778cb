package middleware

import (
	"errors"
	"log/slog"

	"langlearn-api/internal/config"
	"langlearn-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Setup installs the global middleware chain
func Setup(app *fiber.App, cfg *config.Config, log *slog.Logger) {
	app.Use(recover.New())
	app.Use(RequestLogger(log))
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(helmet.New(securityHeaders()))
	app.Use(APIRateLimiter(cfg.APILimit))
	app.Use(logger.New(accessLogConfig(cfg)))
	app.Use(cors.New(corsConfig(cfg)))
}

// APIRateLimiter is the coarse per-IP limit applied to every route.
// Auth endpoints additionally go through AuthRateLimiter.
func APIRateLimiter(cfg config.RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return tooManyRequests(c, cfg.Window)
		},
	})
}

func securityHeaders() helmet.Config {
	return helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "SAMEORIGIN",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
		PermissionPolicy:          "geolocation=(), microphone=(), camera=()",
	}
}

func accessLogConfig(cfg *config.Config) logger.Config {
	if cfg.IsDev() {
		return logger.Config{
			Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
		}
	}
	return logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}
}

// corsConfig allows any origin in dev; credentials require an explicit list
func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowOrigins: cfg.GetAllowedOrigins(),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}
	if c.AllowOrigins != "*" {
		c.AllowCredentials = true
	}
	return c
}

// CustomErrorHandler renders errors that escape handlers in the response envelope
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Code, fe.Message)
	}
	return response.InternalServerError(c, "Internal Server Error")
}
