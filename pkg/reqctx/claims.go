package reqctx

import (
	"context"

	"github.com/google/uuid"
)

// AuthClaims is what the rest of the code needs from a verified token.
type AuthClaims interface {
	GetUserID() uuid.UUID
	GetSessionID() *uuid.UUID
	GetRole() string
	IsExpired() bool
}

func WithClaims(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, keyClaims, claims)
}

// ClaimsFromContext returns nil for unauthenticated requests.
func ClaimsFromContext(ctx context.Context) AuthClaims {
	claims, _ := ctx.Value(keyClaims).(AuthClaims)
	return claims
}

func IsAuthenticated(ctx context.Context) bool {
	claims := ClaimsFromContext(ctx)
	return claims != nil && !claims.IsExpired()
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return uuid.Nil, false
	}
	return claims.GetUserID(), true
}
