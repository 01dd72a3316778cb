package middleware

import (
	"fmt"
	"strconv"
	"time"

	"langlearn-api/internal/config"
	"langlearn-api/internal/pkg/logging"
	"langlearn-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the counter for the current window and
// starts the window on first hit. Returns {count, ttl_ms}.
var fixedWindowScript = redis.NewScript(`
	local n = redis.call('INCR', KEYS[1])
	if n == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return { n, redis.call('PTTL', KEYS[1]) }
`)

// AuthRateLimiter limits sensitive auth endpoints per client IP and scope.
// With Redis the window is shared across instances; without it each
// instance limits on its own.
func AuthRateLimiter(rdb *redis.Client, cfg config.RateLimitConfig, scope string) fiber.Handler {
	if rdb == nil {
		return limiter.New(limiter.Config{
			Max:        cfg.Max,
			Expiration: cfg.Window,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP() + "-" + scope
			},
			LimitReached: func(c *fiber.Ctx) error {
				return tooManyRequests(c, cfg.Window)
			},
		})
	}
	return redisRateLimiter(rdb, cfg, scope)
}

func redisRateLimiter(rdb *redis.Client, cfg config.RateLimitConfig, scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("%s:%s:%s", cfg.Prefix, scope, c.IP())

		vals, err := fixedWindowScript.Run(c.UserContext(), rdb, []string{key}, cfg.Window.Milliseconds()).Int64Slice()
		if err != nil || len(vals) != 2 {
			// Fail open: losing Redis must not lock everyone out
			logging.FromContext(c.UserContext()).Warn("rate limiter unavailable", "key", key, "error", err)
			return c.Next()
		}

		count, ttl := vals[0], time.Duration(vals[1])*time.Millisecond
		remaining := int64(cfg.Max) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Max) {
			return tooManyRequests(c, ttl)
		}
		return c.Next()
	}
}

func tooManyRequests(c *fiber.Ctx, retryAfter time.Duration) error {
	secs := int((retryAfter + time.Second - 1) / time.Second)
	return response.TooManyRequests(c, "Too many attempts, please wait before trying again", secs)
}
