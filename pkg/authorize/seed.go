package authorize

import (
	"context"
	"log/slog"
)

// DefaultPolicies is the baseline permission set. Ownership checks (a doctor
// only updating referrals they issued, and so on) live in the services;
// these rows only gate which role may reach an operation at all.
func DefaultPolicies() []PermissionPolicy {
	allow := func(r Role, obj Resource, act Action) PermissionPolicy {
		return PermissionPolicy{Subject: r, Domain: DomainSys, Object: obj, Action: act, Effect: EffectAllow}
	}

	return []PermissionPolicy{
		{RoleAdmin, DomainSys, WildcardResource, WildcardAction, EffectAllow},

		allow(RoleDoctor, ResourceReferral, ActionCreate),
		allow(RoleDoctor, ResourceReferral, ActionRead),
		allow(RoleDoctor, ResourceReferral, ActionList),
		allow(RoleDoctor, ResourceReferral, ActionUpdate),
		allow(RoleDoctor, ResourceDoctorProfile, ActionManage),
		allow(RoleDoctor, ResourcePatient, ActionRead),
		allow(RoleDoctor, ResourcePatient, ActionList),
		allow(RoleDoctor, ResourceUser, ActionList),
		allow(RoleDoctor, ResourceUser, ActionRead),

		allow(RolePhysio, ResourcePhysioProfile, ActionManage),
		allow(RolePhysio, ResourceReferral, ActionList),
		allow(RolePhysio, ResourceUser, ActionList),
		allow(RolePhysio, ResourceUser, ActionRead),

		allow(RolePatient, ResourcePatientProfile, ActionManage),
		allow(RolePatient, ResourceReferral, ActionRead),
		allow(RolePatient, ResourceReferral, ActionList),
		allow(RolePatient, ResourceUser, ActionList),
		allow(RolePatient, ResourceUser, ActionRead),
	}
}

// SeedDefaultPolicies installs DefaultPolicies. Rows that already exist are
// left alone, so it is safe to run on every boot.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	policies := DefaultPolicies()
	added := 0
	for _, p := range policies {
		ok, err := auth.AddPermission(ctx, p)
		if err != nil {
			logger.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if ok {
			added++
		}
	}

	logger.Info("seeded default RBAC policies", "count", len(policies), "added", added)
	return nil
}
