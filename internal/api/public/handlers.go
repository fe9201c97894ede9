// Package public implements the unauthenticated endpoints used by the public
// menu pages: tenant cards, menus, feedback, WhatsApp order links, QR codes,
// and the SEO artifacts.
//
// Every lookup by slug goes through publishedOrg so that a missing tenant and
// an unpublished one produce the same 404.
package public

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/cache"
	"github.com/menuhub/menuhub/internal/config"
	"github.com/menuhub/menuhub/internal/db/models"
	"github.com/menuhub/menuhub/internal/db/repositories"
	"github.com/menuhub/menuhub/internal/middleware"
	"github.com/menuhub/menuhub/internal/qrcode"
	"github.com/menuhub/menuhub/internal/seo"
)

// Handlers serves the public API
type Handlers struct {
	cfg          *config.Config
	orgRepo      *repositories.OrganizationRepository
	menuRepo     *repositories.MenuRepository
	feedbackRepo *repositories.FeedbackRepository
	cache        cache.Cache
	qr           *qrcode.Generator
	sitemap      *seo.Builder
}

// NewHandlers creates the public handlers
func NewHandlers(
	cfg *config.Config,
	orgRepo *repositories.OrganizationRepository,
	menuRepo *repositories.MenuRepository,
	feedbackRepo *repositories.FeedbackRepository,
	c cache.Cache,
	qr *qrcode.Generator,
	sitemap *seo.Builder,
) *Handlers {
	return &Handlers{
		cfg:          cfg,
		orgRepo:      orgRepo,
		menuRepo:     menuRepo,
		feedbackRepo: feedbackRepo,
		cache:        c,
		qr:           qr,
		sitemap:      sitemap,
	}
}

// publishedOrg resolves the :slug parameter to a published organization. It
// writes the error response itself and returns false when the handler must stop.
func (h *Handlers) publishedOrg(c *gin.Context) (*models.Organization, bool) {
	org, err := h.orgRepo.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		middleware.ReportError(c, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load organization",
		})
		return nil, false
	}
	if org == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Organization not found",
		})
		return nil, false
	}
	return org, true
}
