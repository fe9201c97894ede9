// organizations.go implements tenant provisioning, lookup and publishing.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/cache"
	"github.com/menuhub/menuhub/internal/db/models"
	"github.com/menuhub/menuhub/internal/db/repositories"
	"github.com/menuhub/menuhub/internal/middleware"
	"github.com/menuhub/menuhub/internal/seo"
	"github.com/menuhub/menuhub/internal/slug"
	"github.com/menuhub/menuhub/internal/tags"
	"github.com/menuhub/menuhub/internal/validation"
	"github.com/menuhub/menuhub/internal/whatsapp"
)

const (
	// slugAttempts is how many random suffixes are tried before giving up.
	slugAttempts    = 5
	defaultCurrency = "MAD"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// publicArtifacts drops everything the public API caches for a tenant.
type publicArtifacts struct {
	cache   cache.Cache
	sitemap *seo.Builder
}

func (p publicArtifacts) invalidate(ctx context.Context, orgSlug string) {
	keys := make([]string, 0, len(tags.Locales))
	for _, lang := range tags.Locales {
		keys = append(keys, cache.MenuKey(orgSlug, lang))
	}
	if err := p.cache.Delete(ctx, keys...); err != nil {
		slog.Warn("failed to invalidate cached menus", "slug", orgSlug, "error", err)
	}
	p.sitemap.Invalidate(ctx)
}

// OrganizationHandlers handles organization management endpoints
type OrganizationHandlers struct {
	orgRepo *repositories.OrganizationRepository
	public  publicArtifacts
}

// NewOrganizationHandlers creates a new OrganizationHandlers instance
func NewOrganizationHandlers(orgRepo *repositories.OrganizationRepository, c cache.Cache, sitemap *seo.Builder) *OrganizationHandlers {
	return &OrganizationHandlers{
		orgRepo: orgRepo,
		public:  publicArtifacts{cache: c, sitemap: sitemap},
	}
}

// CreateOrganizationRequest is the body of a new tenant
type CreateOrganizationRequest struct {
	Name          string `json:"name" binding:"required"`
	City          string `json:"city"`
	WhatsAppPhone string `json:"whatsapp_phone"`
	Currency      string `json:"currency"`
}

func (r *CreateOrganizationRequest) normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	r.City = strings.TrimSpace(r.City)
	if r.Name == "" {
		return errors.New("name is required")
	}
	if len([]rune(r.Name)) > validation.MaxNameLength || len([]rune(r.City)) > validation.MaxNameLength {
		return errors.New("name and city must be at most 120 characters")
	}
	r.WhatsAppPhone = whatsapp.NormalizePhone(r.WhatsAppPhone)

	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = defaultCurrency
	}
	if !currencyPattern.MatchString(r.Currency) {
		return errors.New("currency must be a 3-letter ISO 4217 code")
	}
	return nil
}

// @Summary      Create organization
// @Description  Creates a tenant with a generated slug. The caller becomes its owner. New tenants are unpublished.
// @Tags         Organizations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  CreateOrganizationRequest  true  "Organization"
// @Success      201  {object}  map[string]interface{}  "organization, role"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/organizations [post]
// CreateOrganizationHandler creates a new organization
// POST /api/v1/organizations
func (h *OrganizationHandlers) CreateOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req CreateOrganizationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request body",
			})
			return
		}
		if err := req.normalize(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		org := &models.Organization{
			Name:          req.Name,
			City:          req.City,
			WhatsAppPhone: req.WhatsAppPhone,
			Currency:      req.Currency,
		}

		var err error
		for range slugAttempts {
			org.Slug = slug.Generate(org.Name, org.City)
			err = h.orgRepo.CreateWithOwner(c.Request.Context(), org, user.ID)
			if !errors.Is(err, repositories.ErrSlugTaken) {
				break
			}
		}
		if errors.Is(err, repositories.ErrSlugTaken) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Could not allocate a unique slug, please retry",
			})
			return
		}
		if err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create organization",
			})
			return
		}

		slog.Info("organization created", "organization_id", org.ID, "slug", org.Slug, "owner_id", user.ID)
		c.JSON(http.StatusCreated, gin.H{
			"organization": org,
			"role":         models.RoleOwner,
		})
	}
}

// @Summary      List my organizations
// @Description  Lists the organizations the caller is a member of, with the caller's role.
// @Tags         Organizations
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "organizations"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/organizations [get]
// ListOrganizationsHandler lists the caller's organizations
// GET /api/v1/organizations
func (h *OrganizationHandlers) ListOrganizationsHandler() gin.HandlerFunc {
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
			"organizations": orgs,
		})
	}
}

// @Summary      Get organization
// @Description  Retrieves an organization the caller belongs to.
// @Tags         Organizations
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Organization ID"
// @Success      200  {object}  map[string]interface{}  "organization, role"
// @Failure      403  {object}  map[string]interface{}  "Not a member"
// @Failure      404  {object}  map[string]interface{}  "Organization not found"
// @Router       /api/v1/organizations/{id} [get]
// GetOrganizationHandler retrieves a specific organization by ID
// GET /api/v1/organizations/:id
func (h *OrganizationHandlers) GetOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		org, err := h.orgRepo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve organization",
			})
			return
		}
		if org == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Organization not found",
			})
			return
		}

		resp := gin.H{"organization": org}
		if role, ok := middleware.OrgRole(c); ok {
			resp["role"] = role
		}
		c.JSON(http.StatusOK, resp)
	}
}

// PublishRequest toggles public visibility
type PublishRequest struct {
	Published *bool `json:"published" binding:"required"`
}

// @Summary      Publish or unpublish organization
// @Description  Sets whether the organization's public page, menu and sitemap entry are visible.
// @Tags         Organizations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string          true  "Organization ID"
// @Param        body  body  PublishRequest  true  "Visibility"
// @Success      200  {object}  map[string]interface{}  "organization"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      404  {object}  map[string]interface{}  "Organization not found"
// @Router       /api/v1/organizations/{id}/publish [patch]
// PublishHandler toggles the published flag
// PATCH /api/v1/organizations/:id/publish
func (h *OrganizationHandlers) PublishHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PublishRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "published is required",
			})
			return
		}

		org, err := h.orgRepo.SetPublished(c.Request.Context(), c.Param("id"), *req.Published)
		if err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update organization",
			})
			return
		}
		if org == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Organization not found",
			})
			return
		}
		h.public.invalidate(c.Request.Context(), org.Slug)

		c.JSON(http.StatusOK, gin.H{
			"organization": org,
		})
	}
}
