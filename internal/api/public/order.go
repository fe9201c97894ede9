package public

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/db/models"
	"github.com/menuhub/menuhub/internal/middleware"
	"github.com/menuhub/menuhub/internal/telemetry"
	"github.com/menuhub/menuhub/internal/validation"
	"github.com/menuhub/menuhub/internal/whatsapp"
)

// OrderLineRequest is one requested item
type OrderLineRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// OrderRequest is the body of a WhatsApp order
type OrderRequest struct {
	Items []OrderLineRequest `json:"items"`
	Table string             `json:"table"`
	Note  string             `json:"note"`
}

// validate checks the request shape and merges repeated items, keeping the
// order of first appearance.
func (r OrderRequest) validate() ([]OrderLineRequest, error) {
	if len(r.Items) == 0 {
		return nil, fmt.Errorf("at least one item is required")
	}
	if len(r.Items) > validation.MaxOrderLines {
		return nil, fmt.Errorf("at most %d items can be ordered", validation.MaxOrderLines)
	}
	if err := validation.ValidateTableLabel(r.Table); err != nil {
		return nil, err
	}
	if err := validation.ValidateOrderNote(r.Note); err != nil {
		return nil, err
	}

	merged := make([]OrderLineRequest, 0, len(r.Items))
	index := make(map[string]int, len(r.Items))
	for _, line := range r.Items {
		if err := validation.ValidateOrderLine(line.ItemID, line.Quantity); err != nil {
			return nil, err
		}
		if i, ok := index[line.ItemID]; ok {
			merged[i].Quantity += line.Quantity
			if err := validation.ValidateOrderLine(line.ItemID, merged[i].Quantity); err != nil {
				return nil, err
			}
			continue
		}
		index[line.ItemID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

// @Summary      Build WhatsApp order
// @Description  Builds a pre-filled WhatsApp order message from menu item IDs and quantities and returns the wa.me link. Items must belong to the organization and be available.
// @Tags         Public
// @Accept       json
// @Produce      json
// @Param        slug  path  string        true  "Organization slug"
// @Param        body  body  OrderRequest  true  "Order"
// @Success      200  {object}  map[string]interface{}  "link, message, total_cents, total"
// @Failure      400  {object}  map[string]interface{}  "Invalid order"
// @Failure      404  {object}  map[string]interface{}  "Organization not found"
// @Failure      409  {object}  map[string]interface{}  "Organization has no WhatsApp number"
// @Router       /api/v1/public/{slug}/whatsapp/order [post]
// WhatsAppOrderHandler builds a wa.me order link
// POST /api/v1/public/:slug/whatsapp/order
func (h *Handlers) WhatsAppOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request body",
			})
			return
		}
		lines, err := req.validate()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		org, ok := h.publishedOrg(c)
		if !ok {
			return
		}
		if org.WhatsAppPhone == "" {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Organization does not accept WhatsApp orders",
			})
			return
		}

		ids := make([]string, len(lines))
		for i, l := range lines {
			ids[i] = l.ItemID
		}
		items, err := h.menuRepo.GetOrderableItems(c.Request.Context(), ids)
		if err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load menu items",
			})
			return
		}
		byID := make(map[string]models.OrderableItem, len(items))
		for _, item := range items {
			byID[item.ID] = item
		}

		order := whatsapp.Order{
			Restaurant: org.Name,
			Table:      req.Table,
			Currency:   org.Currency,
			Note:       req.Note,
		}
		for _, l := range lines {
			item, found := byID[l.ItemID]
			// Items of other tenants are reported exactly like unknown ones.
			if !found || item.OrganizationID != org.ID {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":   "Menu item not found",
					"item_id": l.ItemID,
				})
				return
			}
			if !item.Available {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":   "Menu item is not available",
					"item_id": l.ItemID,
				})
				return
			}
			order.Lines = append(order.Lines, whatsapp.OrderLine{
				Name:           item.Name,
				Quantity:       l.Quantity,
				UnitPriceCents: item.PriceCents,
			})
		}

		message := order.Message()
		telemetry.WhatsAppLinksTotal.WithLabelValues("order").Inc()

		c.JSON(http.StatusOK, gin.H{
			"link":        whatsapp.Link(org.WhatsAppPhone, message),
			"message":     message,
			"total_cents": order.TotalCents(),
			"total":       whatsapp.FormatPrice(order.TotalCents(), org.Currency),
		})
	}
}
