package public

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/middleware"
	"github.com/menuhub/menuhub/internal/seo"
)

// SitemapHandler serves the cached sitemap
// GET /sitemap.xml
func (h *Handlers) SitemapHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := h.sitemap.Sitemap(c.Request.Context())
		if err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to build sitemap",
			})
			return
		}
		c.Header("Cache-Control", "public, max-age=3600")
		c.Data(http.StatusOK, seo.ContentTypeXML, data)
	}
}

// RobotsHandler serves robots.txt
// GET /robots.txt
func (h *Handlers) RobotsHandler() gin.HandlerFunc {
	robots := []byte(seo.BuildRobots(h.sitemap.BaseURL()))
	return func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=86400")
		c.Data(http.StatusOK, seo.ContentTypeText, robots)
	}
}
