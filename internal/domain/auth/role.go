package auth

// Package auth contains domain-level types for authentication, sessions and
// role-derived authorization. It is pure and free of framework/adapter concerns.

import "strings"

// Role represents an application's authorization role as stored on a profile.
// Keep string form for easy persistence; unrecognized strings parse to RoleUnknown.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleOpsSupervisor Role = "ops_supervisor"
	RoleFieldStaff    Role = "field_staff"
	RoleSiteManager   Role = "site_manager"
	RoleTenantUser    Role = "tenant_user"
	RoleTenantAdmin   Role = "tenant_admin"
	RoleVendor        Role = "vendor"
	RoleFrontDesk     Role = "front_desk"
	RoleSecurity      Role = "security"

	// RoleUnknown is the explicit variant for any role string not listed above.
	RoleUnknown Role = ""
)

// KnownRoles returns every role in the static permission table.
func KnownRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleOpsSupervisor,
		RoleFieldStaff,
		RoleSiteManager,
		RoleTenantUser,
		RoleTenantAdmin,
		RoleVendor,
		RoleFrontDesk,
		RoleSecurity,
	}
}

// ParseRole maps a raw role string onto the closed role set.
// Matching is exact; "Admin" or " admin" are not admin.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin,
		RoleOpsSupervisor,
		RoleFieldStaff,
		RoleSiteManager,
		RoleTenantUser,
		RoleTenantAdmin,
		RoleVendor,
		RoleFrontDesk,
		RoleSecurity:
		return Role(s)
	default:
		return RoleUnknown
	}
}

// IsKnown reports whether r is one of the roles in the static table.
func (r Role) IsKnown() bool { return r != RoleUnknown && ParseRole(string(r)) == r }

// IsStaff reports whether r belongs to the staff subset.
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleOpsSupervisor, RoleFieldStaff, RoleSiteManager:
		return true
	default:
		return false
	}
}

// String returns the persisted form, or "unknown" for RoleUnknown.
func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}

// NormalizeRoleInput trims and lowercases operator input before parsing.
// Stored profile roles are never normalized; only admin-entered values are.
func NormalizeRoleInput(s string) Role {
	return ParseRole(strings.ToLower(strings.TrimSpace(s)))
}
