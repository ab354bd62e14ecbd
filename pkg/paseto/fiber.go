package pasetotoken

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/carolhungwt/physio-doctor-platform/config"
)

// CtxKeyClaims is the fiber locals key AuthRequired stores verified claims under.
const CtxKeyClaims = "auth.claims"

func ClaimsFromFiber(c fiber.Ctx) (*Claims, bool) {
	cl, ok := c.Locals(CtxKeyClaims).(*Claims)
	return cl, ok && cl != nil
}

// NewPasetoManager builds the token manager from the authentication section.
func NewPasetoManager(cfg *config.Config) (*Manager, error) {
	p := cfg.Authentication.Paseto

	keys, err := KeysFromConfig(p)
	if err != nil {
		return nil, err
	}

	return New(Config{
		Issuer:     p.Issuer,
		Audience:   p.Audience,
		AccessTTL:  time.Duration(p.AccessTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(p.RefreshTTLDays) * 24 * time.Hour,
	}, keys)
}
