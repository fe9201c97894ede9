package public

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/middleware"
	"github.com/menuhub/menuhub/internal/validation"
)

// @Summary      Stream QR code
// @Description  Renders a PNG QR code pointing at the organization's public menu, optionally for one table. The image is not stored.
// @Tags         Public
// @Produce      png
// @Param        slug   path   string  true   "Organization slug"
// @Param        table  query  string  false  "Table label"
// @Param        size   query  int     false  "Edge length in pixels"
// @Success      200  {file}    binary
// @Failure      400  {object}  map[string]interface{}  "Invalid table label"
// @Failure      404  {object}  map[string]interface{}  "Organization not found"
// @Router       /api/v1/public/{slug}/qr.png [get]
// QRCodeHandler streams a QR code PNG
// GET /api/v1/public/:slug/qr.png?table=12&size=512
func (h *Handlers) QRCodeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		table := c.Query("table")
		if err := validation.ValidateTableLabel(table); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		// Unparsable sizes select the default.
		size, _ := strconv.Atoi(c.Query("size"))

		org, ok := h.publishedOrg(c)
		if !ok {
			return
		}

		png, err := h.qr.PNG(org.Slug, table, size)
		if err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to render QR code",
			})
			return
		}

		c.Header("Cache-Control", "public, max-age=3600")
		c.Data(http.StatusOK, "image/png", png)
	}
}
