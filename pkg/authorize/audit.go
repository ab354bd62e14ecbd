package authorize

import (
	"context"
	"log/slog"
	"time"

	casbin "github.com/casbin/casbin/v2"
)

// AuditedAuthorization logs every decision and policy change of the wrapped
// IAuthorization.
type AuditedAuthorization struct {
	inner  IAuthorization
	logger *slog.Logger
}

func NewAuditedAuthorization(inner IAuthorization, logger *slog.Logger) IAuthorization {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditedAuthorization{inner: inner, logger: logger}
}

func (a *AuditedAuthorization) Enforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) (bool, error) {
	start := time.Now()
	allowed, err := a.inner.Enforce(ctx, role, domain, object, action)

	attrs := []any{
		"role", string(role),
		"domain", string(domain),
		"resource", string(object),
		"action", string(action),
		"allowed", allowed,
		"duration_ms", time.Since(start).Milliseconds(),
	}

	switch {
	case err != nil:
		a.logger.ErrorContext(ctx, "authz_decision", append(attrs, "error", err.Error())...)
	case allowed:
		a.logger.DebugContext(ctx, "authz_decision", attrs...)
	default:
		a.logger.WarnContext(ctx, "authz_decision", attrs...)
	}
	return allowed, err
}

func (a *AuditedAuthorization) MustEnforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, role, domain, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (a *AuditedAuthorization) AddPermission(ctx context.Context, p PermissionPolicy) (bool, error) {
	added, err := a.inner.AddPermission(ctx, p)
	a.logChange(ctx, "add_permission", p, added, err)
	return added, err
}

func (a *AuditedAuthorization) RemovePermission(ctx context.Context, p PermissionPolicy) (bool, error) {
	removed, err := a.inner.RemovePermission(ctx, p)
	a.logChange(ctx, "remove_permission", p, removed, err)
	return removed, err
}

func (a *AuditedAuthorization) logChange(ctx context.Context, op string, p PermissionPolicy, changed bool, err error) {
	attrs := []any{
		"operation", op,
		"role", string(p.Subject),
		"domain", string(p.Domain),
		"resource", string(p.Object),
		"action", string(p.Action),
		"effect", string(p.Effect),
		"changed", changed,
	}
	if err != nil {
		a.logger.ErrorContext(ctx, "authz_permission_change", append(attrs, "error", err.Error())...)
		return
	}
	a.logger.InfoContext(ctx, "authz_permission_change", attrs...)
}

func (a *AuditedAuthorization) Raw() casbin.IEnforcer {
	return a.inner.Raw()
}
