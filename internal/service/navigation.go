package service

import (
	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
)

// NavItem is one entry of the role-scoped menu.
type NavItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

type navRule struct {
	item NavItem
	// exactly one of requires / flag gates the item; neither means any approved user
	requires domainauth.Capability
	flag     func(domainauth.RoleFlags) bool
}

var navTable = []navRule{
	{item: NavItem{Key: "dashboard", Label: "Dashboard", Path: "/app/"}},
	{
		item:     NavItem{Key: "requests_new", Label: "Submit request", Path: "/app/requests/new"},
		requires: domainauth.CanSubmitRequests,
	},
	{
		item:     NavItem{Key: "requests_all", Label: "All requests", Path: "/app/requests"},
		requires: domainauth.CanViewAllRequests,
	},
	{
		item:     NavItem{Key: "requests_triage", Label: "Assign work", Path: "/app/requests/triage"},
		requires: domainauth.CanAssignRequests,
	},
	{
		item:     NavItem{Key: "work_orders", Label: "My work orders", Path: "/app/work-orders"},
		requires: domainauth.CanResolveRequests,
	},
	{
		item:     NavItem{Key: "bookings", Label: "Bookings", Path: "/app/bookings"},
		requires: domainauth.CanManageBookings,
	},
	{
		item:     NavItem{Key: "visitors", Label: "Visitors", Path: "/app/visitors"},
		requires: domainauth.CanRegisterVisitors,
	},
	{
		item:     NavItem{Key: "analytics", Label: "Analytics", Path: "/app/analytics"},
		requires: domainauth.CanViewAnalytics,
	},
	{
		item:     NavItem{Key: "vendor_scorecards", Label: "Vendor scorecards", Path: "/app/vendors/scorecards"},
		requires: domainauth.CanViewVendorScorecards,
	},
	{
		item:     NavItem{Key: "properties", Label: "Properties", Path: "/app/properties"},
		requires: domainauth.CanManageProperties,
	},
	{
		item: NavItem{Key: "staff_directory", Label: "Staff directory", Path: "/app/staff"},
		flag: func(f domainauth.RoleFlags) bool { return f.IsStaff },
	},
	{
		item:     NavItem{Key: "users", Label: "User management", Path: "/app/admin/users"},
		requires: domainauth.CanManageUsers,
	},
}

// PendingApprovalItem is the only entry shown to users not yet approved.
var PendingApprovalItem = NavItem{Key: "pending_approval", Label: "Pending approval", Path: "/app/pending"}

// NavigationFor returns the menu for a published state. Anonymous and
// loading states get an empty menu.
func NavigationFor(st domainauth.AuthState) []NavItem {
	if st.IsLoading || !st.IsAuthenticated() {
		return []NavItem{}
	}
	if !st.IsApproved() {
		return []NavItem{PendingApprovalItem}
	}

	out := make([]NavItem, 0, len(navTable))
	for _, rule := range navTable {
		switch {
		case rule.requires != "":
			if !st.Can(rule.requires) {
				continue
			}
		case rule.flag != nil:
			if !rule.flag(st.Flags) {
				continue
			}
		}
		out = append(out, rule.item)
	}
	return out
}
