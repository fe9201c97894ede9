// secrets.go exposes integration credentials. Values are write-only: reads
// return a masked hint.
package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/middleware"
	"github.com/menuhub/menuhub/internal/services"
)

// SecretHandlers handles integration secret endpoints
type SecretHandlers struct {
	secrets *services.SecretsService
}

// NewSecretHandlers creates a new SecretHandlers instance
func NewSecretHandlers(secrets *services.SecretsService) *SecretHandlers {
	return &SecretHandlers{secrets: secrets}
}

// PutSecretRequest carries the plaintext value to store
type PutSecretRequest struct {
	Value string `json:"value"`
}

// @Summary      List secrets
// @Description  Lists the organization's integration secrets with masked hints.
// @Tags         Secrets
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Organization ID"
// @Success      200  {object}  map[string]interface{}  "secrets"
// @Failure      403  {object}  map[string]interface{}  "Insufficient role"
// @Router       /api/v1/organizations/{id}/secrets [get]
// ListSecretsHandler lists secrets without their values
// GET /api/v1/organizations/:id/secrets
func (h *SecretHandlers) ListSecretsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		secrets, err := h.secrets.List(c.Request.Context(), c.Param("id"))
		if err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list secrets",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"secrets": secrets,
		})
	}
}

// @Summary      Store secret
// @Description  Encrypts and stores a credential for an integration provider, replacing any previous value.
// @Tags         Secrets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id        path  string            true  "Organization ID"
// @Param        provider  path  string            true  "Provider name"
// @Param        body      body  PutSecretRequest  true  "Secret value"
// @Success      200  {object}  map[string]interface{}  "secret"
// @Failure      400  {object}  map[string]interface{}  "Invalid provider or empty value"
// @Router       /api/v1/organizations/{id}/secrets/{provider} [put]
// PutSecretHandler stores a secret
// PUT /api/v1/organizations/:id/secrets/:provider
func (h *SecretHandlers) PutSecretHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PutSecretRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request body",
			})
			return
		}

		summary, err := h.secrets.Put(c.Request.Context(), c.Param("id"), c.Param("provider"), req.Value)
		if errors.Is(err, services.ErrInvalidProvider) || errors.Is(err, services.ErrEmptySecret) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		if err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to store secret",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"secret": summary,
		})
	}
}

// @Summary      Delete secret
// @Tags         Secrets
// @Security     Bearer
// @Produce      json
// @Param        id        path  string  true  "Organization ID"
// @Param        provider  path  string  true  "Provider name"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      404  {object}  map[string]interface{}  "Secret not found"
// @Router       /api/v1/organizations/{id}/secrets/{provider} [delete]
// DeleteSecretHandler deletes a secret
// DELETE /api/v1/organizations/:id/secrets/:provider
func (h *SecretHandlers) DeleteSecretHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		deleted, err := h.secrets.Delete(c.Request.Context(), c.Param("id"), c.Param("provider"))
		if errors.Is(err, services.ErrInvalidProvider) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		if err != nil {
			middleware.ReportError(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to delete secret",
			})
			return
		}
		if !deleted {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Secret not found",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Secret deleted successfully",
		})
	}
}
