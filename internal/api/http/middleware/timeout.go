package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Deadline bounds the request context so store calls give up once the
// server's request timeout has passed.
func Deadline(d time.Duration) fiber.Handler {
	return func(c fiber.Ctx) error {
		if d <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.Context(), d)
		defer cancel()
		c.SetContext(ctx)
		return c.Next()
	}
}
