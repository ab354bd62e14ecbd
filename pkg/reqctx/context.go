package reqctx

import (
	"context"
	"log/slog"
	"time"
)

type ctxKey int

const (
	keyRequestMeta ctxKey = iota
	keyClaims
)

// RequestMeta holds per-request metadata set by HTTP middleware.
type RequestMeta struct {
	RequestID   string
	ClientIP    string
	UserAgent   string
	RequestedAt time.Time
}

func WithRequestMeta(ctx context.Context, meta *RequestMeta) context.Context {
	return context.WithValue(ctx, keyRequestMeta, meta)
}

// RequestMetaFromContext returns nil, false if no metadata was attached.
func RequestMetaFromContext(ctx context.Context) (*RequestMeta, bool) {
	meta, ok := ctx.Value(keyRequestMeta).(*RequestMeta)
	return meta, ok && meta != nil
}

// RequestIDFromContext returns "" when RequestMeta is not set.
func RequestIDFromContext(ctx context.Context) string {
	meta, ok := RequestMetaFromContext(ctx)
	if !ok {
		return ""
	}
	return meta.RequestID
}

// Logger returns base annotated with the request id and, when present, the
// authenticated user.
func Logger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		base = base.With("request_id", rid)
	}
	if claims := ClaimsFromContext(ctx); claims != nil {
		base = base.With("user_id", claims.GetUserID().String(), "role", claims.GetRole())
	}
	return base
}
