package public

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/cache"
	"github.com/menuhub/menuhub/internal/db/models"
	"github.com/menuhub/menuhub/internal/middleware"
	"github.com/menuhub/menuhub/internal/tags"
	"github.com/menuhub/menuhub/internal/whatsapp"
)

const contentTypeJSON = "application/json; charset=utf-8"

type publicMenuItem struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	PriceCents  int64          `json:"price_cents"`
	Price       string         `json:"price"`
	Tags        []tags.Labeled `json:"tags"`
}

type publicMenu struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Items []publicMenuItem `json:"items"`
}

type menuResponse struct {
	Organization string       `json:"organization"`
	Currency     string       `json:"currency"`
	Lang         string       `json:"lang"`
	Menus        []publicMenu `json:"menus"`
}

// renderMenus converts stored menus into the public payload with tag labels
// in lang.
func renderMenus(org *models.Organization, menus []models.Menu, lang string) menuResponse {
	out := menuResponse{
		Organization: org.Slug,
		Currency:     org.Currency,
		Lang:         lang,
		Menus:        make([]publicMenu, 0, len(menus)),
	}
	for _, m := range menus {
		pm := publicMenu{ID: m.ID, Name: m.Name, Items: make([]publicMenuItem, 0, len(m.Items))}
		for _, item := range m.Items {
			pm.Items = append(pm.Items, publicMenuItem{
				ID:          item.ID,
				Name:        item.Name,
				Description: item.Description,
				PriceCents:  item.PriceCents,
				Price:       whatsapp.FormatPrice(item.PriceCents, org.Currency),
				Tags:        tags.LabelAll(item.Tags, lang),
			})
		}
		out.Menus = append(out.Menus, pm)
	}
	return out
}

// @Summary      Get public menu
// @Description  Returns the published menus of an organization with available items. Tag labels follow ?lang= (en, fr, ar; default en). Responses are cached.
// @Tags         Public
// @Produce      json
// @Param        slug  path   string  true   "Organization slug"
// @Param        lang  query  string  false  "Label language"
// @Success      200  {object}  map[string]interface{}  "organization, currency, lang, menus"
// @Failure      404  {object}  map[string]interface{}  "Organization not found"
// @Router       /api/v1/public/{slug}/menu [get]
// GetMenuHandler returns the public menu of an organization
// GET /api/v1/public/:slug/menu?lang=fr
func (h *Handlers) GetMenuHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		org, ok := h.publishedOrg(c)
		if !ok {
			return
		}
		lang := tags.SupportedLocale(c.Query("lang"))

		data, hit, err := cache.GetOrLoad(c.Request.Context(), h.cache, cache.MenuKey(org.Slug, lang), h.cfg.Cache.MenuTTL,
			func(ctx context.Context) ([]byte, error) {
				menus, err := h.menuRepo.ListPublishedWithItems(ctx, org.ID)
				if err != nil {
					return nil, err
				}
				data, err := json.Marshal(renderMenus(org, menus, lang))
				if err != nil {
					return nil, fmt.Errorf("failed to encode menu: %w", err)
				}
				return data, nil
			})
		if err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load menu",
			})
			return
		}

		if hit {
			c.Header("X-Cache", "HIT")
		} else {
			c.Header("X-Cache", "MISS")
		}
		c.Data(http.StatusOK, contentTypeJSON, data)
	}
}
