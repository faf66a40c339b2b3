package domain

import "time"

// Role is a staff member's console role.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleHandleCustomer Role = "handle_customer"
	RoleSuperAdmin     Role = "super_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHandleCustomer, RoleSuperAdmin:
		return true
	}
	return false
}

// Capability is a console action gated by role.
type Capability string

const (
	CapViewDashboard   Capability = "view_dashboard"
	CapManageLeads     Capability = "manage_leads"
	CapViewAnalytics   Capability = "view_analytics"
	CapHandleCustomers Capability = "handle_customers"
	CapManageSettings  Capability = "manage_settings"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin:          {CapViewDashboard, CapManageLeads, CapViewAnalytics},
	RoleHandleCustomer: {CapViewDashboard, CapManageLeads, CapViewAnalytics, CapHandleCustomers},
	RoleSuperAdmin:     {CapViewDashboard, CapManageLeads, CapViewAnalytics, CapHandleCustomers, CapManageSettings},
}

// Can reports whether the role grants the capability. This table is the
// single source of truth for console authorization.
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

// Admin is a staff member. The totals are denormalized caches maintained by
// the backend; use AdminPerformance or the reconciler for authoritative values.
type Admin struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	WhatsAppNumber *string   `json:"whatsapp_number"`
	WhatsAppActive bool      `json:"whatsapp_active"`
	IsActive       bool      `json:"is_active"`
	TotalLeads     int       `json:"total_leads"`
	TotalClosings  int       `json:"total_closings"`
	TotalRevenue   float64   `json:"total_revenue"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Notifiable reports whether the admin's messaging channel can be used.
func (a *Admin) Notifiable() bool {
	return a.WhatsAppActive && a.WhatsAppNumber != nil && *a.WhatsAppNumber != ""
}

// NewAdminRequest is the body for creating a staff member.
type NewAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// AdminInput updates editable admin fields. Nil fields are unchanged.
type AdminInput struct {
	Name           *string `json:"name"`
	Role           *Role   `json:"role"`
	WhatsAppNumber *string `json:"whatsapp_number"`
	WhatsAppActive *bool   `json:"whatsapp_active"`
	IsActive       *bool   `json:"is_active"`
}

// Principal is the authenticated caller of a console operation.
type Principal struct {
	AdminID string
	Role    Role
}

// Require returns ErrForbidden when the principal lacks the capability.
func (p Principal) Require(c Capability) error {
	if !p.Role.Can(c) {
		return &ErrForbidden{Action: string(c)}
	}
	return nil
}
