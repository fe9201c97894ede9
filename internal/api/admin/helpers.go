// Package admin implements the authenticated dashboard API: login, tenant
// provisioning, publishing, menu import, feedback, integration secrets, QR
// codes and the audit trail.
package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/db/models"
	"github.com/menuhub/menuhub/internal/middleware"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// currentUser returns the user set by AuthMiddleware, answering 401 when it
// is missing.
func currentUser(c *gin.Context) (*models.User, bool) {
	v, _ := c.Get(middleware.UserKey)
	user, ok := v.(*models.User)
	if !ok || user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return nil, false
	}
	return user, true
}

// pagination parses page and per_page, clamping invalid values to defaults.
func pagination(c *gin.Context) (page, perPage, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}
	return page, perPage, (page - 1) * perPage
}
