package domain

import "slices"

type Role string

const (
	RoleCustomer  Role = "customer"
	RoleDriver    Role = "driver"
	RoleInstaller Role = "installer"
	RoleHelpdesk  Role = "helpdesk"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleDriver, RoleInstaller, RoleHelpdesk, RoleAdmin:
		return true
	}
	return false
}

type Capability string

const (
	CapShop                Capability = "shop"
	CapDeliver             Capability = "deliver"
	CapInstall             Capability = "install"
	CapViewDeliveryLog     Capability = "view_delivery_log"
	CapViewInstallationLog Capability = "view_installation_log"
	CapManageInventory     Capability = "manage_inventory"
	CapManageSupport       Capability = "manage_support"
	CapReadAnyInvoice      Capability = "read_any_invoice"
	CapViewAllOrders       Capability = "view_all_orders"
	CapManageTemplates     Capability = "manage_templates"
)

var roleCapabilities = map[Role][]Capability{
	RoleCustomer:  {CapShop},
	RoleDriver:    {CapDeliver, CapViewDeliveryLog},
	RoleInstaller: {CapInstall, CapViewInstallationLog},
	RoleHelpdesk:  {CapViewDeliveryLog, CapViewInstallationLog, CapManageSupport, CapViewAllOrders},
	RoleAdmin: {
		CapShop, CapViewDeliveryLog, CapViewInstallationLog, CapManageInventory,
		CapManageSupport, CapReadAnyInvoice, CapViewAllOrders, CapManageTemplates,
	},
}

// Principal is the authorization context of a request, resolved once and
// passed into every service call.
type Principal struct {
	UserID uint
	Role   Role
	caps   []Capability
}

func NewPrincipal(userID uint, role Role) Principal {
	return Principal{UserID: userID, Role: role, caps: roleCapabilities[role]}
}

// Anonymous is the principal of a request without credentials.
func Anonymous() Principal { return Principal{} }

func (p Principal) Authenticated() bool { return p.UserID != 0 }

func (p Principal) Has(c Capability) bool {
	return slices.Contains(p.caps, c)
}

func (p Principal) Require(c Capability) error {
	if !p.Has(c) {
		return ErrPermissionDenied
	}
	return nil
}

// CanUseCart is true for anonymous shoppers and roles allowed to shop.
func (p Principal) CanUseCart() bool {
	return !p.Authenticated() || p.Has(CapShop)
}

func (p Principal) Capabilities() []Capability {
	return slices.Clone(p.caps)
}
