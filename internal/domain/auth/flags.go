package auth

// RoleFlags are the booleans derived from the current role.
// Exactly one role flag is true for a known role; IsStaff covers the staff subset.
type RoleFlags struct {
	IsAdmin         bool `json:"isAdmin"`
	IsOpsSupervisor bool `json:"isOpsSupervisor"`
	IsFieldStaff    bool `json:"isFieldStaff"`
	IsSiteManager   bool `json:"isSiteManager"`
	IsTenantUser    bool `json:"isTenantUser"`
	IsTenantAdmin   bool `json:"isTenantAdmin"`
	IsVendor        bool `json:"isVendor"`
	IsFrontDesk     bool `json:"isFrontDesk"`
	IsSecurity      bool `json:"isSecurity"`
	IsStaff         bool `json:"isStaff"`
}

// FlagsFor derives the role flags. RoleUnknown yields all false.
func FlagsFor(role Role) RoleFlags {
	return RoleFlags{
		IsAdmin:         role == RoleAdmin,
		IsOpsSupervisor: role == RoleOpsSupervisor,
		IsFieldStaff:    role == RoleFieldStaff,
		IsSiteManager:   role == RoleSiteManager,
		IsTenantUser:    role == RoleTenantUser,
		IsTenantAdmin:   role == RoleTenantAdmin,
		IsVendor:        role == RoleVendor,
		IsFrontDesk:     role == RoleFrontDesk,
		IsSecurity:      role == RoleSecurity,
		IsStaff:         role.IsStaff(),
	}
}
