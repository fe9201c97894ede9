package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/db/repositories"
	"github.com/menuhub/menuhub/internal/middleware"
)

// AuditHandlers serves an organization's audit trail
type AuditHandlers struct {
	auditRepo *repositories.AuditRepository
}

// NewAuditHandlers creates a new AuditHandlers instance
func NewAuditHandlers(auditRepo *repositories.AuditRepository) *AuditHandlers {
	return &AuditHandlers{auditRepo: auditRepo}
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": name + " must be an RFC 3339 timestamp",
		})
		return nil, false
	}
	return &t, true
}

// @Summary      List audit logs
// @Description  Lists mutations recorded for the organization, newest first.
// @Tags         Audit
// @Security     Bearer
// @Produce      json
// @Param        id             path   string  true   "Organization ID"
// @Param        resource_type  query  string  false  "Filter by resource type"
// @Param        user_id        query  string  false  "Filter by acting user"
// @Param        start_date     query  string  false  "RFC 3339 lower bound"
// @Param        end_date       query  string  false  "RFC 3339 upper bound"
// @Param        page           query  int     false  "Page number (default 1)"
// @Param        per_page       query  int     false  "Items per page (default 20, max 100)"
// @Success      200  {object}  map[string]interface{}  "audit_logs, pagination"
// @Failure      400  {object}  map[string]interface{}  "Invalid date"
// @Failure      403  {object}  map[string]interface{}  "Insufficient role"
// @Router       /api/v1/organizations/{id}/audit-logs [get]
// ListAuditLogsHandler lists audit logs with filters
// GET /api/v1/organizations/:id/audit-logs
func (h *AuditHandlers) ListAuditLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param("id")
		filters := repositories.AuditFilters{OrganizationID: &orgID}
		if v := c.Query("resource_type"); v != "" {
			filters.ResourceType = &v
		}
		if v := c.Query("user_id"); v != "" {
			filters.UserID = &v
		}
		var ok bool
		if filters.StartDate, ok = parseTimeQuery(c, "start_date"); !ok {
			return
		}
		if filters.EndDate, ok = parseTimeQuery(c, "end_date"); !ok {
			return
		}

		page, perPage, offset := pagination(c)
		logs, total, err := h.auditRepo.ListAuditLogs(c.Request.Context(), filters, perPage, offset)
		if err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list audit logs",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"audit_logs": logs,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}
