// Package auth - scopes.go defines the permission scopes of the dashboard API,
// the scopes each organization role grants, and HasScope for checking them.
package auth

import "github.com/menuhub/menuhub/internal/db/models"

// Scope represents a permission/scope type
type Scope string

const (
	// Organization scopes
	ScopeOrganizationsRead  Scope = "organizations:read"  // View the organization and its members
	ScopeOrganizationsWrite Scope = "organizations:write" // Rename, publish and unpublish

	// Menu import
	ScopeMenusWrite Scope = "menus:write"

	// Customer feedback
	ScopeFeedbackRead Scope = "feedback:read"

	// Integration secrets (payment and delivery provider credentials)
	ScopeSecretsManage Scope = "secrets:manage"

	// QR code generation
	ScopeQRGenerate Scope = "qr:generate"

	// Audit log access
	ScopeAuditRead Scope = "audit:read"

	// Admin scope (wildcard - all permissions)
	ScopeAdmin Scope = "admin"
)

// AllScopes returns all valid scopes
func AllScopes() []Scope {
	return []Scope{
		ScopeOrganizationsRead,
		ScopeOrganizationsWrite,
		ScopeMenusWrite,
		ScopeFeedbackRead,
		ScopeSecretsManage,
		ScopeQRGenerate,
		ScopeAuditRead,
		ScopeAdmin,
	}
}

// HasScope checks if a user has a required scope.
// admin grants everything and organizations:write implies organizations:read.
func HasScope(userScopes []string, required Scope) bool {
	for _, scope := range userScopes {
		switch {
		case scope == string(required), scope == string(ScopeAdmin):
			return true
		case required == ScopeOrganizationsRead && scope == string(ScopeOrganizationsWrite):
			return true
		}
	}
	return false
}

var roleScopes = map[models.Role][]Scope{
	models.RoleOwner: {
		ScopeOrganizationsRead, ScopeOrganizationsWrite, ScopeMenusWrite,
		ScopeFeedbackRead, ScopeSecretsManage, ScopeQRGenerate, ScopeAuditRead,
	},
	models.RoleManager: {
		ScopeOrganizationsRead, ScopeOrganizationsWrite, ScopeMenusWrite,
		ScopeFeedbackRead, ScopeQRGenerate, ScopeAuditRead,
	},
	models.RoleStaff: {
		ScopeOrganizationsRead, ScopeFeedbackRead,
	},
}

// ScopesForRole returns the scopes granted by an organization role. Platform
// admins get the admin wildcard whatever their role; an unknown role grants
// nothing.
func ScopesForRole(role models.Role, isAdmin bool) []string {
	if isAdmin {
		return []string{string(ScopeAdmin)}
	}
	scopes := roleScopes[role]
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		out = append(out, string(s))
	}
	return out
}
