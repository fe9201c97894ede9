// auth.go implements password login, OIDC login, token refresh and the
// current-user endpoint for dashboard users.
package admin

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/auth"
	"github.com/menuhub/menuhub/internal/auth/oidc"
	"github.com/menuhub/menuhub/internal/cache"
	"github.com/menuhub/menuhub/internal/config"
	"github.com/menuhub/menuhub/internal/db/models"
	"github.com/menuhub/menuhub/internal/db/repositories"
	"github.com/menuhub/menuhub/internal/middleware"
)

// oidcStateTTL bounds how long a user may take at the identity provider.
const oidcStateTTL = 10 * time.Minute

// AuthHandlers handles authentication endpoints
type AuthHandlers struct {
	cfg      *config.Config
	userRepo *repositories.UserRepository
	orgRepo  *repositories.OrganizationRepository
	cache    cache.Cache
	provider *oidc.OIDCProvider
}

// NewAuthHandlers creates auth handlers. provider is nil when OIDC login is
// disabled.
func NewAuthHandlers(
	cfg *config.Config,
	userRepo *repositories.UserRepository,
	orgRepo *repositories.OrganizationRepository,
	c cache.Cache,
	provider *oidc.OIDCProvider,
) *AuthHandlers {
	return &AuthHandlers{
		cfg:      cfg,
		userRepo: userRepo,
		orgRepo:  orgRepo,
		cache:    c,
		provider: provider,
	}
}

// pendingLogin is stored in the cache between the OIDC redirect and callback.
type pendingLogin struct {
	Verifier string `json:"verifier"`
}

// generateState generates a random state string for OAuth
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// LoginRequest is the body of a password login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandlers) issueToken(user *models.User) (string, error) {
	return auth.GenerateJWT(user.ID, user.Email, user.IsAdmin, h.cfg.Auth.AccessTokenTTL)
}

func (h *AuthHandlers) expiresIn() int {
	ttl := h.cfg.Auth.AccessTokenTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	return int(ttl.Seconds())
}

// @Summary      Password login
// @Description  Exchanges an email and password for an access token.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        body  body  LoginRequest  true  "Credentials"
// @Success      200  {object}  map[string]interface{}  "token, expires_in, user"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      401  {object}  map[string]interface{}  "Invalid email or password"
// @Router       /api/v1/auth/login [post]
// LoginHandler authenticates with email and password
// POST /api/v1/auth/login
func (h *AuthHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request body",
			})
			return
		}

		user, err := h.userRepo.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
		if err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to look up user",
			})
			return
		}

		var hash *string
		if user != nil && user.HasPassword() {
			hash = user.PasswordHash
		}
		// Unknown users and OIDC-only accounts still pay for a bcrypt comparison.
		if !auth.CheckPasswordOrDummy(req.Password, hash) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid email or password",
			})
			return
		}

		token, err := h.issueToken(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate token",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_in": h.expiresIn(),
			"user":       user,
		})
	}
}

// @Summary      Refresh access token
// @Description  Exchanges a valid token for a fresh one, as long as the original login is within the refresh window.
// @Tags         Authentication
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "token, expires_in"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized or refresh window exceeded"
// @Router       /api/v1/auth/refresh [post]
// RefreshHandler refreshes an existing JWT token
// POST /api/v1/auth/refresh
func (h *AuthHandlers) RefreshHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get(middleware.ClaimsKey)
		claims, ok := v.(*auth.Claims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "User not authenticated",
			})
			return
		}
		if err := auth.CanRefresh(claims, h.cfg.Auth.RefreshWindow, time.Now()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Token is too old to refresh, please log in again",
			})
			return
		}

		// AuthMiddleware reloaded the user, so admin status is current.
		user, ok := currentUser(c)
		if !ok {
			return
		}
		token, err := h.issueToken(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate new token",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_in": h.expiresIn(),
		})
	}
}

// @Summary      Get current user
// @Description  Returns the authenticated user and the organizations they belong to with their role.
// @Tags         Authentication
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "user, organizations"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/auth/me [get]
// MeHandler returns the current authenticated user's information
// GET /api/v1/auth/me
func (h *AuthHandlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		orgs, err := h.orgRepo.ListForUser(c.Request.Context(), user.ID)
		if err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list organizations",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user":          user,
			"organizations": orgs,
		})
	}
}

// @Summary      Initiate OIDC login
// @Description  Redirects the browser to the identity provider.
// @Tags         Authentication
// @Success      302  {object}  string  "Redirects to the authorization URL"
// @Failure      400  {object}  map[string]interface{}  "OIDC provider not configured"
// @Router       /api/v1/auth/oidc/login [get]
// OIDCLoginHandler initiates the OIDC login flow
// GET /api/v1/auth/oidc/login
func (h *AuthHandlers) OIDCLoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.provider == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "OIDC provider not configured",
			})
			return
		}

		state, err := generateState()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate state",
			})
			return
		}
		pending := pendingLogin{Verifier: oidc.NewVerifier()}
		data, _ := json.Marshal(pending)
		if err := h.cache.Set(c.Request.Context(), cache.OIDCStateKey(state), data, oidcStateTTL); err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to store login state",
			})
			return
		}

		c.Redirect(http.StatusFound, h.provider.AuthURL(state, pending.Verifier))
	}
}

// @Summary      OIDC callback
// @Description  Completes the OIDC login and redirects the browser to the web app's /auth/callback page with the token, or with error and error_description.
// @Tags         Authentication
// @Param        code   query  string  true  "Authorization code"
// @Param        state  query  string  true  "State"
// @Success      302  {object}  string  "Redirects to <app>/auth/callback"
// @Router       /api/v1/auth/oidc/callback [get]
// OIDCCallbackHandler handles the OIDC callback
// GET /api/v1/auth/oidc/callback?code=...&state=...
func (h *AuthHandlers) OIDCCallbackHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		frontend := h.cfg.GetAppURL()
		callbackError := func(code, description string) {
			target := fmt.Sprintf("%s/auth/callback?error=%s&error_description=%s",
				frontend, url.QueryEscape(code), url.QueryEscape(description))
			c.Redirect(http.StatusFound, target)
		}

		if h.provider == nil {
			callbackError("provider_not_configured", "OIDC provider is not configured.")
			return
		}
		if errParam := c.Query("error"); errParam != "" {
			callbackError(errParam, c.Query("error_description"))
			return
		}

		ctx := c.Request.Context()
		state := c.Query("state")
		if state == "" {
			callbackError("invalid_state", "Invalid state parameter. Please try logging in again.")
			return
		}
		// Take deletes the state so a callback URL cannot be replayed.
		data, err := h.cache.Take(ctx, cache.OIDCStateKey(state))
		if err != nil {
			if !errors.Is(err, cache.ErrMiss) {
				slog.Warn("failed to read OIDC state", "error", err)
			}
			callbackError("invalid_state", "Invalid state parameter. Please try logging in again.")
			return
		}
		var pending pendingLogin
		if err := json.Unmarshal(data, &pending); err != nil {
			callbackError("invalid_state", "Invalid state parameter. Please try logging in again.")
			return
		}

		identity, err := h.provider.Login(ctx, c.Query("code"), pending.Verifier)
		if err != nil {
			slog.Warn("OIDC login failed", "error", err)
			callbackError("token_exchange_failed", "Failed to exchange authorization code for token.")
			return
		}
		if identity.Email == "" || !identity.EmailVerified {
			callbackError("email_not_verified", "Your identity provider did not return a verified email address.")
			return
		}

		user, err := h.userRepo.GetOrCreateUserFromOIDC(ctx, identity.Subject, identity.Email, identity.Name, h.cfg.Auth.OIDC.AutoProvision)
		if err != nil {
			middleware.ReportError(c, err)
			callbackError("user_creation_failed", "Failed to look up or create your account.")
			return
		}
		if user == nil {
			callbackError("account_not_found", "No account exists for this identity. Ask an administrator for an invitation.")
			return
		}

		token, err := h.issueToken(user)
		if err != nil {
			callbackError("jwt_failed", "Failed to generate an authentication token.")
			return
		}

		slog.Info("OIDC login", "user_id", user.ID)
		c.Redirect(http.StatusFound, fmt.Sprintf("%s/auth/callback?token=%s", frontend, url.QueryEscape(token)))
	}
}
