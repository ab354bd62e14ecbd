package authorize

import "strings"

type Action string
type Resource string
type Role string
type Domain string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionList   Action = "list"

	// manage covers every action except execute.
	ActionManage  Action = "manage"
	ActionExecute Action = "execute"

	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionList: {},
	ActionManage: {}, ActionExecute: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	ResourceUser        Resource = "user"
	ResourceAuthSession Resource = "auth_session"

	ResourceDoctorProfile  Resource = "doctor_profile"
	ResourcePhysioProfile  Resource = "physio_profile"
	ResourcePatientProfile Resource = "patient_profile"

	ResourcePatient  Resource = "patient"
	ResourceReferral Resource = "referral"

	ResourceSystem Resource = "system"
)

var KnownResources = map[Resource]struct{}{
	ResourceUser: {}, ResourceAuthSession: {},
	ResourceDoctorProfile: {}, ResourcePhysioProfile: {}, ResourcePatientProfile: {},
	ResourcePatient: {}, ResourceReferral: {},
	ResourceSystem: {},
}

// ----------------------------
// Roles
// ----------------------------
//
// Policy subjects. Every account carries exactly one of these, derived from
// its stored role, so no per-user grouping rows are kept.

const (
	RolePatient Role = "role:patient"
	RoleDoctor  Role = "role:doctor"
	RolePhysio  Role = "role:physio"
	RoleAdmin   Role = "role:admin"
)

var KnownRoles = map[Role]struct{}{
	RolePatient: {},
	RoleDoctor:  {},
	RolePhysio:  {},
	RoleAdmin:   {},
}

// RoleFromAccount maps an account role ("DOCTOR", "PATIENT", ...) to its
// policy subject. ok is false for anything unknown.
func RoleFromAccount(accountRole string) (Role, bool) {
	r := Role("role:" + strings.ToLower(strings.TrimSpace(accountRole)))
	_, ok := KnownRoles[r]
	return r, ok
}

// ----------------------------
// Domains
// ----------------------------

const (
	DomainSys      Domain = "sys"
	WildcardDomain Domain = "*"
)

func IsValidDomain(d Domain) bool {
	return d == DomainSys || d == WildcardDomain
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// PermissionPolicy is one p row: role, domain, resource, action, eft.
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
