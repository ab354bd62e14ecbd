package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	pasetotoken "github.com/carolhungwt/physio-doctor-platform/pkg/paseto"
	"github.com/carolhungwt/physio-doctor-platform/pkg/reqctx"
)

// TokenVerifier is satisfied by *pasetotoken.Manager.
type TokenVerifier interface {
	Verify(token string) (*pasetotoken.Claims, error)
}

// SessionChecker is satisfied by *redis.SessionStore.
type SessionChecker interface {
	Exists(ctx context.Context, sid uuid.UUID) (bool, error)
}

// AuthRequired validates a Bearer PASETO access token and checks the session in Redis.
// On success, stores *pasetotoken.Claims in c.Locals(pasetotoken.CtxKeyClaims)
// and on the request context.
func AuthRequired(tokens TokenVerifier, sessions SessionChecker) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return fiber.ErrUnauthorized
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.ErrUnauthorized
		}

		claims, err := tokens.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.ErrUnauthorized
		}

		// Only access tokens are accepted on protected routes
		if claims.Type != pasetotoken.TokenTypeAccess || claims.SessionID == nil {
			return fiber.ErrUnauthorized
		}

		// A logged-out or rotated-away session kills its access tokens too
		alive, err := sessions.Exists(c.Context(), *claims.SessionID)
		if err != nil || !alive {
			return fiber.ErrUnauthorized
		}

		c.Locals(pasetotoken.CtxKeyClaims, claims)
		c.SetContext(reqctx.WithClaims(c.Context(), claims))
		return c.Next()
	}
}
