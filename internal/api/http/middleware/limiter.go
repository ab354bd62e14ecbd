package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/carolhungwt/physio-doctor-platform/config"
)

// NewLimiterWithRedis keeps a sliding window per client IP in Redis so the
// limit holds across replicas.
func NewLimiterWithRedis(rdb *redis.Client, cfg config.RateLimitConfig) fiber.Handler {
	limit := cfg.Max
	if limit <= 0 {
		limit = 20
	}
	window := time.Duration(cfg.ExpirationSeconds) * time.Second
	if window <= 0 {
		window = 30 * time.Second
	}

	return limiter.New(limiter.Config{
		Storage: fiberredis.NewFromConnection(rdb),

		// sliding window
		Max:               limit,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	})
}
