package rbac

import (
	"testing"

	"github.com/readyresponse/dispatch/internal/types"
)

func TestPolicyAllowed(t *testing.T) {
	p, err := NewPolicy()
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}

	cases := []struct {
		role string
		perm string
		want bool
	}{
		{types.RoleCommunity, PermIncidentReport, true},
		{types.RoleAgency, PermIncidentReport, false},
		{types.RoleCoordinator, PermIncidentAssign, true},
		{types.RoleAgency, PermIncidentAssign, false},
		{types.RoleCommunity, PermIncidentAssign, false},
		{types.RoleCommunity, PermIncidentResolve, true},
		{types.RoleAgency, PermIncidentResolve, false},
		{types.RoleAgency, PermResourceCreate, true},
		{types.RoleCoordinator, PermResourceCreate, false},
		{types.RoleCoordinator, PermResourceStatusWrite, true},
		{types.RoleCommunity, PermResourceStatusWrite, false},
		{types.RoleCommunity, PermUserSearch, false},
		{types.RoleAgency, PermLocationWrite, true},
		{types.RoleCoordinator, PermLocationWrite, true},
		{types.RoleCommunity, PermLocationWrite, false},
		{"", PermUserSearch, false},
		{"admin", PermIncidentAssign, false},
	}

	for _, tc := range cases {
		if got := p.Allowed(tc.role, tc.perm); got != tc.want {
			t.Errorf("Allowed(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}
