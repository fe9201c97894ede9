package public

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/telemetry"
	"github.com/menuhub/menuhub/internal/whatsapp"
)

// organizationCard is the public subset of an organization.
type organizationCard struct {
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	City        string  `json:"city"`
	Currency    string  `json:"currency"`
	URL         string  `json:"url"`
	WhatsAppURL *string `json:"whatsapp_url"`
}

// @Summary      Get public organization
// @Description  Returns the public card of a published organization with its WhatsApp contact link.
// @Tags         Public
// @Produce      json
// @Param        slug  path  string  true  "Organization slug"
// @Success      200  {object}  map[string]interface{}  "organization: card"
// @Failure      404  {object}  map[string]interface{}  "Organization not found"
// @Router       /api/v1/public/{slug} [get]
// GetOrganizationHandler returns the public organization card
// GET /api/v1/public/:slug
func (h *Handlers) GetOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		org, ok := h.publishedOrg(c)
		if !ok {
			return
		}

		card := organizationCard{
			Slug:     org.Slug,
			Name:     org.Name,
			City:     org.City,
			Currency: org.Currency,
			URL:      h.cfg.GetAppURL() + "/" + org.Slug,
		}
		if org.WhatsAppPhone != "" {
			link := whatsapp.Link(org.WhatsAppPhone, whatsapp.ContactMessage(org.Name))
			card.WhatsAppURL = &link
			telemetry.WhatsAppLinksTotal.WithLabelValues("contact").Inc()
		}

		c.JSON(http.StatusOK, gin.H{
			"organization": card,
		})
	}
}
