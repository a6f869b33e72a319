package rbac

import "strings"

// Role names issued by the REST backend.
const (
	RoleOwner     = "owner"
	RoleAdmin     = "admin"
	RoleSales     = "sales"
	RoleWarehouse = "warehouse"
)

// Actions applied to each entity permission.
const (
	ActionView   = "view"
	ActionEdit   = "edit"
	ActionExport = "export"
)

// Permission builds "<entity>.<action>".
func Permission(entity, action string) string {
	return strings.ToLower(entity) + "." + action
}

// Principal describes the authenticated actor.
type Principal struct {
	UserID      string   `json:"user_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}
