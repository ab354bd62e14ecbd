package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/carolhungwt/physio-doctor-platform/pkg/reqctx"
)

const (
	HeaderRequestID = "X-Request-Id"

	maxRequestIDLen = 128
)

// RequestID reuses a well-formed incoming X-Request-Id or mints a new one,
// echoes it back, and attaches the request metadata to the context so
// services can log it.
func RequestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		rid := c.Get(HeaderRequestID)
		if !acceptableRequestID(rid) {
			rid = uuid.NewString()
			c.Request().Header.Set(HeaderRequestID, rid)
		}
		c.Set(HeaderRequestID, rid)

		c.SetContext(reqctx.WithRequestMeta(c.Context(), &reqctx.RequestMeta{
			RequestID:   rid,
			ClientIP:    c.IP(),
			UserAgent:   c.Get(fiber.HeaderUserAgent),
			RequestedAt: time.Now().UTC(),
		}))
		return c.Next()
	}
}

// acceptableRequestID keeps caller-supplied ids short and printable so they
// are safe to copy into log lines.
func acceptableRequestID(rid string) bool {
	if rid == "" || len(rid) > maxRequestIDLen {
		return false
	}
	for _, r := range rid {
		ok := r == '-' || r == '_' || r == '.' || r == ':' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !ok {
			return false
		}
	}
	return true
}
