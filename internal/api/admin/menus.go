// menus.go implements the bulk menu import.
package admin

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/menuhub/menuhub/internal/cache"
	"github.com/menuhub/menuhub/internal/db/models"
	"github.com/menuhub/menuhub/internal/db/repositories"
	"github.com/menuhub/menuhub/internal/middleware"
	"github.com/menuhub/menuhub/internal/seo"
	"github.com/menuhub/menuhub/internal/validation"
)

// MenuHandlers handles menu management endpoints
type MenuHandlers struct {
	orgRepo  *repositories.OrganizationRepository
	menuRepo *repositories.MenuRepository
	public   publicArtifacts
}

// NewMenuHandlers creates a new MenuHandlers instance
func NewMenuHandlers(
	orgRepo *repositories.OrganizationRepository,
	menuRepo *repositories.MenuRepository,
	c cache.Cache,
	sitemap *seo.Builder,
) *MenuHandlers {
	return &MenuHandlers{
		orgRepo:  orgRepo,
		menuRepo: menuRepo,
		public:   publicArtifacts{cache: c, sitemap: sitemap},
	}
}

// MenuItemInput is one item of an imported menu. Available defaults to true.
type MenuItemInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"price_cents"`
	Tags        []string `json:"tags"`
	Available   *bool    `json:"available"`
}

// MenuInput is one imported menu. Published defaults to true.
type MenuInput struct {
	Name      string          `json:"name"`
	Published *bool           `json:"published"`
	Items     []MenuItemInput `json:"items"`
}

// ImportMenusRequest replaces every menu of an organization. Array order
// becomes display order.
type ImportMenusRequest struct {
	Menus []MenuInput `json:"menus"`
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func (r ImportMenusRequest) toModels() []models.Menu {
	menus := make([]models.Menu, 0, len(r.Menus))
	for i, in := range r.Menus {
		m := models.Menu{
			Name:      in.Name,
			Position:  i,
			Published: boolOr(in.Published, true),
			Items:     make([]models.MenuItem, 0, len(in.Items)),
		}
		for j, item := range in.Items {
			m.Items = append(m.Items, models.MenuItem{
				Name:        item.Name,
				Description: item.Description,
				PriceCents:  item.PriceCents,
				Tags:        pq.StringArray(item.Tags),
				Available:   boolOr(item.Available, true),
				Position:    j,
			})
		}
		menus = append(menus, m)
	}
	return menus
}

// @Summary      Import menus
// @Description  Replaces all menus and items of the organization in one transaction. The cached public menu and sitemap are invalidated.
// @Tags         Menus
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "Organization ID"
// @Param        body  body  ImportMenusRequest  true  "Menus"
// @Success      200  {object}  map[string]interface{}  "menus, items"
// @Failure      400  {object}  map[string]interface{}  "Invalid menus"
// @Failure      403  {object}  map[string]interface{}  "Insufficient role"
// @Failure      404  {object}  map[string]interface{}  "Organization not found"
// @Router       /api/v1/organizations/{id}/menus [put]
// ImportMenusHandler replaces the organization's menus
// PUT /api/v1/organizations/:id/menus
func (h *MenuHandlers) ImportMenusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ImportMenusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request body",
			})
			return
		}

		menus := req.toModels()
		if err := validation.ValidateMenus(menus); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		ctx := c.Request.Context()
		org, err := h.orgRepo.GetByID(ctx, c.Param("id"))
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

		if err := h.menuRepo.ReplaceAll(ctx, org.ID, menus); err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to import menus",
			})
			return
		}
		h.public.invalidate(ctx, org.Slug)

		items := 0
		for _, m := range menus {
			items += len(m.Items)
		}
		slog.Info("menus imported", "organization_id", org.ID, "menus", len(menus), "items", items)

		c.JSON(http.StatusOK, gin.H{
			"menus": menus,
			"items": items,
		})
	}
}
