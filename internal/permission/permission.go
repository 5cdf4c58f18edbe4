// Package permission maps role names to static capability sets. The mapping
// is pure: once a role is known, no network call is involved in a check.
package permission

type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleCustomer   Role = "customer"
)

type Token string

const (
	ManageProducts Token = "manage_products"
	ManageOrders   Token = "manage_orders"
	ManageUsers    Token = "manage_users"
	ManageContent  Token = "manage_content"
	ViewDashboard  Token = "view_dashboard"
)

// rolePermissions keeps a strict superset ordering:
// superadmin ⊇ admin ⊇ manager ⊇ customer (empty).
var rolePermissions = map[Role][]Token{
	RoleSuperAdmin: {ManageProducts, ManageOrders, ManageUsers, ManageContent, ViewDashboard},
	RoleAdmin:      {ManageProducts, ManageOrders, ManageContent, ViewDashboard},
	RoleManager:    {ManageOrders, ViewDashboard},
	RoleCustomer:   {},
}

// Has reports whether role grants token. Unknown roles and unknown tokens
// both resolve to false.
func Has(role Role, token Token) bool {
	for _, t := range rolePermissions[role] {
		if t == token {
			return true
		}
	}
	return false
}

// Tokens returns a copy of the permission set for role.
func Tokens(role Role) []Token {
	src := rolePermissions[role]
	out := make([]Token, len(src))
	copy(out, src)
	return out
}

// RoleFromName degrades unknown names to the least-privileged tier.
func RoleFromName(name string) Role {
	switch Role(name) {
	case RoleSuperAdmin, RoleAdmin, RoleManager, RoleCustomer:
		return Role(name)
	default:
		return RoleCustomer
	}
}

// IsAdmin reports whether role may enter the admin console at all.
func IsAdmin(role Role) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}
