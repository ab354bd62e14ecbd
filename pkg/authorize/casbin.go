package authorize

import (
	"context"
	"errors"
	"fmt"

	casbin "github.com/casbin/casbin/v2"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidArgs = errors.New("invalid authorization arguments")
)

// IAuthorization is the only thing services/middleware should depend on.
type IAuthorization interface {
	// Enforce answers: "may role act on object inside domain?"
	Enforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) (bool, error)

	// MustEnforce returns ErrForbidden if not allowed.
	MustEnforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) error

	AddPermission(ctx context.Context, p PermissionPolicy) (bool, error)
	RemovePermission(ctx context.Context, p PermissionPolicy) (bool, error)

	Raw() casbin.IEnforcer
}

// Authorization is a thin typed wrapper around a casbin enforcer.
type Authorization struct {
	enforcer       casbin.IEnforcer
	superAdminRole Role
}

// NewAuthorization wraps an already-configured enforcer and loads its policy.
func NewAuthorization(e casbin.IEnforcer, superadminBypass bool) (IAuthorization, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: enforcer is nil", ErrInvalidArgs)
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, err
	}

	a := &Authorization{enforcer: e}
	if superadminBypass {
		a.superAdminRole = RoleAdmin
	}
	return a, nil
}

func (a *Authorization) Raw() casbin.IEnforcer { return a.enforcer }

func (a *Authorization) Enforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) (bool, error) {
	_ = ctx

	if role == "" {
		return false, fmt.Errorf("%w: role is empty", ErrInvalidArgs)
	}
	if _, ok := KnownRoles[role]; !ok {
		return false, fmt.Errorf("%w: unknown role: %q", ErrInvalidArgs, role)
	}
	if domain == "" || !IsValidDomain(domain) {
		return false, fmt.Errorf("%w: invalid domain: %q", ErrInvalidArgs, domain)
	}
	if _, ok := KnownResources[object]; !ok {
		return false, fmt.Errorf("%w: unknown resource: %q", ErrInvalidArgs, object)
	}
	if _, ok := KnownActions[action]; !ok {
		return false, fmt.Errorf("%w: unknown action: %q", ErrInvalidArgs, action)
	}

	if a.superAdminRole != "" && role == a.superAdminRole {
		return true, nil
	}

	return a.enforcer.Enforce(string(role), string(domain), string(object), string(action))
}

func (a *Authorization) MustEnforce(ctx context.Context, role Role, domain Domain, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, role, domain, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func validatePolicy(p PermissionPolicy) error {
	if p.Subject == "" || p.Domain == "" || p.Object == "" || p.Action == "" || p.Effect == "" {
		return fmt.Errorf("%w: empty permission fields", ErrInvalidArgs)
	}
	if _, ok := KnownRoles[p.Subject]; !ok {
		return fmt.Errorf("%w: unknown role: %q", ErrInvalidArgs, p.Subject)
	}
	if !IsValidDomain(p.Domain) {
		return fmt.Errorf("%w: invalid domain: %q", ErrInvalidArgs, p.Domain)
	}
	if _, ok := KnownResources[p.Object]; !ok && p.Object != WildcardResource {
		return fmt.Errorf("%w: unknown resource: %q", ErrInvalidArgs, p.Object)
	}
	if _, ok := KnownActions[p.Action]; !ok && p.Action != WildcardAction {
		return fmt.Errorf("%w: unknown action: %q", ErrInvalidArgs, p.Action)
	}
	if p.Effect != EffectAllow && p.Effect != EffectDeny {
		return fmt.Errorf("%w: invalid effect: %q", ErrInvalidArgs, p.Effect)
	}
	return nil
}

func (a *Authorization) AddPermission(ctx context.Context, p PermissionPolicy) (bool, error) {
	_ = ctx
	if err := validatePolicy(p); err != nil {
		return false, err
	}
	return a.enforcer.AddPolicy(string(p.Subject), string(p.Domain), string(p.Object), string(p.Action), string(p.Effect))
}

func (a *Authorization) RemovePermission(ctx context.Context, p PermissionPolicy) (bool, error) {
	_ = ctx
	if err := validatePolicy(p); err != nil {
		return false, err
	}
	return a.enforcer.RemovePolicy(string(p.Subject), string(p.Domain), string(p.Object), string(p.Action), string(p.Effect))
}
