package public

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/db/models"
	"github.com/menuhub/menuhub/internal/middleware"
	"github.com/menuhub/menuhub/internal/telemetry"
	"github.com/menuhub/menuhub/internal/validation"
	"github.com/menuhub/menuhub/internal/whatsapp"
)

// FeedbackRequest is the body of a customer rating
type FeedbackRequest struct {
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Table         string `json:"table"`
}

// toFeedback turns blank optional fields into NULLs.
func (r FeedbackRequest) toFeedback(orgID string) *models.Feedback {
	fb := &models.Feedback{
		OrganizationID: orgID,
		Rating:         r.Rating,
		Comment:        validation.AsOptionalField(r.Comment),
		CustomerName:   validation.AsOptionalField(r.CustomerName),
		TableLabel:     validation.AsOptionalField(r.Table),
	}
	if phone := whatsapp.NormalizePhone(r.CustomerPhone); phone != "" {
		fb.CustomerPhone = &phone
	}
	return fb
}

// @Summary      Submit feedback
// @Description  Stores a customer rating (1 to 5) with an optional comment. Rate limited per client.
// @Tags         Public
// @Accept       json
// @Produce      json
// @Param        slug  path  string           true  "Organization slug"
// @Param        body  body  FeedbackRequest  true  "Rating"
// @Success      201  {object}  map[string]interface{}  "id, created_at"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      404  {object}  map[string]interface{}  "Organization not found"
// @Failure      429  {object}  map[string]interface{}  "Rate limit exceeded"
// @Router       /api/v1/public/{slug}/feedback [post]
// SubmitFeedbackHandler stores customer feedback
// POST /api/v1/public/:slug/feedback
func (h *Handlers) SubmitFeedbackHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req FeedbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request body",
			})
			return
		}

		fb := req.toFeedback("")
		if err := validation.ValidateFeedback(fb.Rating, fb.Comment, fb.CustomerName, fb.TableLabel); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		org, ok := h.publishedOrg(c)
		if !ok {
			return
		}
		fb.OrganizationID = org.ID

		if err := h.feedbackRepo.Create(c.Request.Context(), fb); err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to save feedback",
			})
			return
		}
		telemetry.FeedbackSubmittedTotal.WithLabelValues(strconv.Itoa(fb.Rating)).Inc()

		c.JSON(http.StatusCreated, gin.H{
			"id":         fb.ID,
			"created_at": fb.CreatedAt,
		})
	}
}
