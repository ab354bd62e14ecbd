// Package reqctx carries request-scoped data through context.Context.
//
// HTTP middleware sets the RequestMeta for every request and the AuthClaims
// for authenticated ones. Services and workers read them back through the
// typed getters here; the context keys themselves are unexported.
//
//	ctx = reqctx.WithRequestMeta(ctx, &reqctx.RequestMeta{RequestID: rid})
//	ctx = reqctx.WithClaims(ctx, claims)
//
//	log := reqctx.Logger(ctx, base)
//	uid, ok := reqctx.UserIDFromContext(ctx)
package reqctx
