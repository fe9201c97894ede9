// Package middleware provides Gin HTTP middleware for authentication, authorization,
// rate limiting, security headers, error reporting and audit logging.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Recovery → RequestID → Metrics → Logger → CORS → Security → RateLimit → Auth → RBAC → Audit → Handler
//
// Auth populates the user identity; RBAC resolves the caller's role in the
// organization named by the :id route parameter and reads from that context.
// Audit runs after the handler so the response status is known.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/auth"
	"github.com/menuhub/menuhub/internal/db/repositories"
)

// Context keys set by AuthMiddleware and RequireOrgScope.
const (
	UserKey           = "user"
	UserIDKey         = "user_id"
	IsAdminKey        = "is_admin"
	AuthMethodKey     = "auth_method"
	ScopesKey         = "scopes"
	OrganizationIDKey = "organization_id"
	OrgRoleKey        = "org_role"
	ClaimsKey         = "claims"
)

// AuthMiddleware validates the bearer access token and loads the user it
// names. Tokens for deleted users are rejected.
func AuthMiddleware(userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing or malformed authorization header",
			})
			return
		}

		claims, err := auth.ValidateJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		user, err := userRepo.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load user",
			})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User not found",
			})
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Set(IsAdminKey, user.IsAdmin)
		c.Set(AuthMethodKey, "jwt")
		c.Set(ClaimsKey, claims)

		c.Next()
	}
}
