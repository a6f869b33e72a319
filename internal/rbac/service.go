package rbac

import (
	"slices"
	"strings"
)

// Policy resolves the permissions granted to a role. Roles are assigned by
// the REST backend; the grants are fixed per deployment.
type Policy struct {
	grants map[string][]string
}

// Grant describes the actions a role holds on one entity.
type Grant struct {
	Entity  string
	Actions []string
}

var (
	allActions = []string{ActionView, ActionEdit, ActionExport}
	readExport = []string{ActionView, ActionExport}
	readOnly   = []string{ActionView}
)

// DefaultPolicy returns the grants for owner, admin, sales and warehouse.
func DefaultPolicy() *Policy {
	everything := func() []Grant {
		out := make([]Grant, 0, 7)
		for _, e := range []string{"locations", "categories", "items", "employees", "users", "expenses", "orders"} {
			out = append(out, Grant{Entity: e, Actions: allActions})
		}
		return out
	}
	return NewPolicy(map[string][]Grant{
		RoleOwner: everything(),
		RoleAdmin: everything(),
		RoleSales: {
			{Entity: "orders", Actions: allActions},
			{Entity: "items", Actions: readExport},
			{Entity: "categories", Actions: readOnly},
			{Entity: "locations", Actions: readOnly},
		},
		RoleWarehouse: {
			{Entity: "items", Actions: allActions},
			{Entity: "categories", Actions: allActions},
			{Entity: "locations", Actions: readExport},
			{Entity: "orders", Actions: readOnly},
		},
	})
}

// NewPolicy builds a policy from per-role grants.
func NewPolicy(roles map[string][]Grant) *Policy {
	p := &Policy{grants: make(map[string][]string, len(roles))}
	for role, grants := range roles {
		var perms []string
		for _, g := range grants {
			for _, action := range g.Actions {
				perms = append(perms, Permission(g.Entity, action))
			}
		}
		slices.Sort(perms)
		p.grants[strings.ToLower(role)] = slices.Compact(perms)
	}
	return p
}

// EffectivePermissions lists the permissions granted to role.
func (p *Policy) EffectivePermissions(role string) []string {
	if p == nil {
		return nil
	}
	return slices.Clone(p.grants[strings.ToLower(strings.TrimSpace(role))])
}

// Allowed reports whether role holds perm.
func (p *Policy) Allowed(role, perm string) bool {
	return hasAnyPermission(p.EffectivePermissions(role), normalizePermissions([]string{perm}))
}
