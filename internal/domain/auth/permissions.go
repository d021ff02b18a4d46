package auth

// Capability names a single permission flag.
type Capability string

const (
	CanManageUsers          Capability = "can_manage_users"
	CanViewAllRequests      Capability = "can_view_all_requests"
	CanAssignRequests       Capability = "can_assign_requests"
	CanResolveRequests      Capability = "can_resolve_requests"
	CanSubmitRequests       Capability = "can_submit_requests"
	CanManageBookings       Capability = "can_manage_bookings"
	CanRegisterVisitors     Capability = "can_register_visitors"
	CanViewAnalytics        Capability = "can_view_analytics"
	CanViewVendorScorecards Capability = "can_view_vendor_scorecards"
	CanManageProperties     Capability = "can_manage_properties"
)

// AllCapabilities returns the capability keys in table order.
func AllCapabilities() []Capability {
	return []Capability{
		CanManageUsers,
		CanViewAllRequests,
		CanAssignRequests,
		CanResolveRequests,
		CanSubmitRequests,
		CanManageBookings,
		CanRegisterVisitors,
		CanViewAnalytics,
		CanViewVendorScorecards,
		CanManageProperties,
	}
}

// Permissions is the fixed-shape capability record for a role.
type Permissions struct {
	ManageUsers          bool
	ViewAllRequests      bool
	AssignRequests       bool
	ResolveRequests      bool
	SubmitRequests       bool
	ManageBookings       bool
	RegisterVisitors     bool
	ViewAnalytics        bool
	ViewVendorScorecards bool
	ManageProperties     bool
}

// PermissionsFor returns the capability record for a role.
// The second return is false for RoleUnknown, whose record is all false.
func PermissionsFor(role Role) (Permissions, bool) {
	switch role {
	case RoleAdmin:
		return Permissions{
			ManageUsers:          true,
			ViewAllRequests:      true,
			AssignRequests:       true,
			ResolveRequests:      true,
			SubmitRequests:       true,
			ManageBookings:       true,
			RegisterVisitors:     true,
			ViewAnalytics:        true,
			ViewVendorScorecards: true,
			ManageProperties:     true,
		}, true
	case RoleOpsSupervisor:
		return Permissions{
			ViewAllRequests:      true,
			AssignRequests:       true,
			ResolveRequests:      true,
			SubmitRequests:       true,
			ManageBookings:       true,
			RegisterVisitors:     true,
			ViewAnalytics:        true,
			ViewVendorScorecards: true,
		}, true
	case RoleSiteManager:
		return Permissions{
			ViewAllRequests:      true,
			AssignRequests:       true,
			SubmitRequests:       true,
			ManageBookings:       true,
			RegisterVisitors:     true,
			ViewAnalytics:        true,
			ViewVendorScorecards: true,
			ManageProperties:     true,
		}, true
	case RoleFieldStaff:
		return Permissions{
			ResolveRequests: true,
			SubmitRequests:  true,
		}, true
	case RoleTenantUser:
		return Permissions{
			SubmitRequests:   true,
			RegisterVisitors: true,
		}, true
	case RoleTenantAdmin:
		return Permissions{
			SubmitRequests:   true,
			ManageBookings:   true,
			RegisterVisitors: true,
		}, true
	case RoleVendor:
		return Permissions{
			ResolveRequests:      true,
			ViewVendorScorecards: true,
		}, true
	case RoleFrontDesk:
		return Permissions{
			ManageBookings:   true,
			RegisterVisitors: true,
		}, true
	case RoleSecurity:
		return Permissions{
			RegisterVisitors: true,
		}, true
	case RoleUnknown:
		return Permissions{}, false
	default:
		// Role values built by conversion rather than ParseRole.
		return PermissionsFor(ParseRole(string(role)))
	}
}

// Has reports whether the record grants c.
func (p Permissions) Has(c Capability) bool {
	switch c {
	case CanManageUsers:
		return p.ManageUsers
	case CanViewAllRequests:
		return p.ViewAllRequests
	case CanAssignRequests:
		return p.AssignRequests
	case CanResolveRequests:
		return p.ResolveRequests
	case CanSubmitRequests:
		return p.SubmitRequests
	case CanManageBookings:
		return p.ManageBookings
	case CanRegisterVisitors:
		return p.RegisterVisitors
	case CanViewAnalytics:
		return p.ViewAnalytics
	case CanViewVendorScorecards:
		return p.ViewVendorScorecards
	case CanManageProperties:
		return p.ManageProperties
	default:
		return false
	}
}

// Map renders the complete capability map keyed by capability name.
func (p Permissions) Map() map[string]bool {
	out := make(map[string]bool, len(AllCapabilities()))
	for _, c := range AllCapabilities() {
		out[string(c)] = p.Has(c)
	}
	return out
}

// PermissionMap is the published permissions map for a role:
// complete for known roles, empty (non-nil) for unknown ones.
func PermissionMap(role Role) map[string]bool {
	perms, ok := PermissionsFor(role)
	if !ok {
		return map[string]bool{}
	}
	return perms.Map()
}
