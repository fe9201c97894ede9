// files.go serves objects of the local storage backend, which has no URL of
// its own. Cloud backends hand out signed URLs instead.
package public

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/middleware"
	"github.com/menuhub/menuhub/internal/storage"
)

// ServeFileHandler streams a stored object
// GET /files/*filepath
func ServeFileHandler(store storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := storage.CleanKey(c.Param("filepath"))
		if err != nil || key == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid file path",
			})
			return
		}

		obj, err := store.Stat(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"error": "File not found",
				})
				return
			}
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to get file metadata",
			})
			return
		}

		reader, err := store.Open(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"error": "File not found",
				})
				return
			}
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to read file",
			})
			return
		}
		defer reader.Close()

		contentType := obj.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		headers := map[string]string{
			"Cache-Control": "public, max-age=86400",
		}
		if obj.Checksum != "" {
			headers["X-Checksum-SHA256"] = obj.Checksum
		}
		c.DataFromReader(http.StatusOK, obj.Size, contentType, reader, headers)
	}
}
