// Package models holds the database-facing structs shared by repositories,
// services and handlers.
package models

import "time"

// Organization is a tenant: one restaurant or caterer with its public page.
type Organization struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Name          string    `json:"name"`
	City          string    `json:"city"`
	WhatsAppPhone string    `json:"whatsapp_phone"`
	Currency      string    `json:"currency"`
	Published     bool      `json:"published"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Role is a member's role inside an organization.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleStaff:
		return true
	}
	return false
}

// OrganizationMember represents a user's membership in an organization
type OrganizationMember struct {
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrganizationWithRole is an organization as seen by one of its members.
type OrganizationWithRole struct {
	Organization
	Role Role `json:"role"`
}
