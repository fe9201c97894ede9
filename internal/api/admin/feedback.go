package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/db/repositories"
	"github.com/menuhub/menuhub/internal/middleware"
)

// FeedbackHandlers serves customer feedback to organization members
type FeedbackHandlers struct {
	feedbackRepo *repositories.FeedbackRepository
}

// NewFeedbackHandlers creates a new FeedbackHandlers instance
func NewFeedbackHandlers(feedbackRepo *repositories.FeedbackRepository) *FeedbackHandlers {
	return &FeedbackHandlers{feedbackRepo: feedbackRepo}
}

// @Summary      List feedback
// @Description  Lists customer feedback for the organization, newest first.
// @Tags         Feedback
// @Security     Bearer
// @Produce      json
// @Param        id        path   string  true   "Organization ID"
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        per_page  query  int     false  "Items per page (default 20, max 100)"
// @Success      200  {object}  map[string]interface{}  "feedback, pagination"
// @Failure      403  {object}  map[string]interface{}  "Not a member"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/organizations/{id}/feedback [get]
// ListFeedbackHandler lists feedback with pagination
// GET /api/v1/organizations/:id/feedback
func (h *FeedbackHandlers) ListFeedbackHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, perPage, offset := pagination(c)

		feedback, total, err := h.feedbackRepo.ListByOrganization(c.Request.Context(), c.Param("id"), perPage, offset)
		if err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list feedback",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"feedback": feedback,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}
