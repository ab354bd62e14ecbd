package authorize

import "testing"

func TestRoleFromAccount(t *testing.T) {
	tests := []struct {
		in     string
		want   Role
		wantOK bool
	}{
		{"DOCTOR", RoleDoctor, true},
		{"PHYSIO", RolePhysio, true},
		{"patient", RolePatient, true},
		{" ADMIN ", RoleAdmin, true},
		{"NURSE", Role("role:nurse"), false},
		{"", Role("role:"), false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := RoleFromAccount(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("RoleFromAccount(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsValidDomain(t *testing.T) {
	if !IsValidDomain(DomainSys) || !IsValidDomain(WildcardDomain) {
		t.Error("sys and wildcard must be valid")
	}
	for _, d := range []Domain{"", "clinic:1", "user:abc"} {
		if IsValidDomain(d) {
			t.Errorf("IsValidDomain(%q) = true", d)
		}
	}
}

func TestDefaultPoliciesAreValid(t *testing.T) {
	for _, p := range DefaultPolicies() {
		if err := validatePolicy(p); err != nil {
			t.Errorf("policy %+v: %v", p, err)
		}
	}
}
