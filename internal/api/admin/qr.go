package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/db/repositories"
	"github.com/menuhub/menuhub/internal/middleware"
	"github.com/menuhub/menuhub/internal/qrcode"
	"github.com/menuhub/menuhub/internal/validation"
)

// QRHandlers renders printable QR codes into storage
type QRHandlers struct {
	orgRepo *repositories.OrganizationRepository
	qr      *qrcode.Generator
}

// NewQRHandlers creates a new QRHandlers instance
func NewQRHandlers(orgRepo *repositories.OrganizationRepository, qr *qrcode.Generator) *QRHandlers {
	return &QRHandlers{orgRepo: orgRepo, qr: qr}
}

// GenerateQRRequest selects the table and PNG size. Both are optional.
type GenerateQRRequest struct {
	Table string `json:"table"`
	Size  int    `json:"size"`
}

// @Summary      Generate QR code
// @Description  Renders a QR code for the organization's public menu, optionally for one table, and stores it. Unpublished organizations may generate codes ahead of launch.
// @Tags         QR
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "Organization ID"
// @Param        body  body  GenerateQRRequest  false "Table and size"
// @Success      201  {object}  map[string]interface{}  "qr"
// @Failure      400  {object}  map[string]interface{}  "Invalid table label"
// @Failure      404  {object}  map[string]interface{}  "Organization not found"
// @Router       /api/v1/organizations/{id}/qr [post]
// GenerateQRHandler stores a QR code and returns its URL
// POST /api/v1/organizations/:id/qr
func (h *QRHandlers) GenerateQRHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GenerateQRRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": "Invalid request body",
				})
				return
			}
		}
		req.Table = strings.TrimSpace(req.Table)
		if err := validation.ValidateTableLabel(req.Table); err != nil {
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

		stored, err := h.qr.Store(ctx, org.Slug, req.Table, req.Size)
		if err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate QR code",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"qr": stored,
		})
	}
}
