package domain

import "strings"

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleProvider Role = "PROVIDER"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleProvider:
		return RoleProvider, true
	}
	return "", false
}

// Capability is a single permission checked before a business operation runs.
type Capability string

const (
	CapPlaceOrder          Capability = "order:place"
	CapViewOwnOrders       Capability = "order:read:own"
	CapManageOrders        Capability = "order:manage"
	CapManageUsers         Capability = "user:manage"
	CapManageInventory     Capability = "medicine:manage"
	CapManageNotifications Capability = "notification:manage"
	CapReadNotifications   Capability = "notification:read"
	CapManageSettings      Capability = "setting:manage"
	CapManageInvoices      Capability = "invoice:manage"
	CapUseTemplates        Capability = "template:use"
	CapViewAudit           Capability = "audit:read"
	CapViewAnalytics       Capability = "analytics:read"
	CapViewOwnAnalytics    Capability = "analytics:read:own"
	CapManageReports       Capability = "report:manage"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapViewOwnOrders:       true,
		CapManageOrders:        true,
		CapManageUsers:         true,
		CapManageInventory:     true,
		CapManageNotifications: true,
		CapReadNotifications:   true,
		CapManageSettings:      true,
		CapManageInvoices:      true,
		CapUseTemplates:        true,
		CapViewAudit:           true,
		CapViewAnalytics:       true,
		CapViewOwnAnalytics:    true,
		CapManageReports:       true,
	},
	RoleProvider: {
		CapPlaceOrder:        true,
		CapViewOwnOrders:     true,
		CapReadNotifications: true,
		CapUseTemplates:      true,
		CapViewOwnAnalytics:  true,
		CapManageReports:     true,
	},
}

// Can reports whether the role holds the capability. Unknown roles hold none.
func (r Role) Can(c Capability) bool {
	return roleCapabilities[r][c]
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}
