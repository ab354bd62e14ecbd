package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/carolhungwt/physio-doctor-platform/pkg/authorize"
	pasetotoken "github.com/carolhungwt/physio-doctor-platform/pkg/paseto"
)

// RequirePermission checks that the caller's role may perform action on
// resource in the system domain. Ownership rules stay in the services.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, ok := pasetotoken.ClaimsFromFiber(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		role, ok := authorize.RoleFromAccount(claims.Role)
		if !ok {
			return fiber.ErrForbidden
		}

		if err := auth.MustEnforce(c.Context(), role, authorize.DomainSys, resource, action); err != nil {
			if errors.Is(err, authorize.ErrForbidden) {
				return fiber.ErrForbidden
			}
			return err
		}

		return c.Next()
	}
}
