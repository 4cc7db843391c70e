package rbac

import (
	"fmt"
	"log"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/readyresponse/dispatch/internal/types"
)

// Permissions checked by the services.
const (
	PermIncidentReport      = "incident.report"
	PermIncidentResolve     = "incident.resolve"
	PermIncidentAssign      = "incident.assign"
	PermResourceCreate      = "resource.create"
	PermResourceStatusWrite = "resource.status.write"
	PermUserSearch          = "user.search"
	PermLocationWrite       = "resource.location.write"
)

const modelText = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.act == p.act
`

var defaultRules = [][]string{
	{types.RoleCommunity, PermIncidentReport},
	{types.RoleCoordinator, PermIncidentReport},
	{types.RoleCommunity, PermIncidentResolve},
	{types.RoleCoordinator, PermIncidentResolve},
	{types.RoleCoordinator, PermIncidentAssign},
	{types.RoleAgency, PermResourceCreate},
	{types.RoleCoordinator, PermResourceStatusWrite},
	{types.RoleAgency, PermResourceStatusWrite},
	{types.RoleCoordinator, PermUserSearch},
	{types.RoleAgency, PermUserSearch},
	{types.RoleCoordinator, PermLocationWrite},
	{types.RoleAgency, PermLocationWrite},
}

type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("load rbac model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	for _, rule := range defaultRules {
		if _, err := enforcer.AddPolicy(rule[0], rule[1]); err != nil {
			return nil, fmt.Errorf("add policy %v: %w", rule, err)
		}
	}

	return &Policy{enforcer: enforcer}, nil
}

// MustPolicy is NewPolicy for wiring code where the built-in rules cannot fail.
func MustPolicy() *Policy {
	p, err := NewPolicy()
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Policy) Allowed(role, perm string) bool {
	if p == nil || role == "" || perm == "" {
		return false
	}

	ok, err := p.enforcer.Enforce(role, perm)
	if err != nil {
		log.Printf("rbac: enforce %s/%s: %v", role, perm, err)
		return false
	}

	return ok
}
