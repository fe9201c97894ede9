// audit.go records authenticated mutations in audit_logs and copies them to
// the configured external shippers.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/audit"
	"github.com/menuhub/menuhub/internal/config"
	"github.com/menuhub/menuhub/internal/db/models"
	"github.com/menuhub/menuhub/internal/safego"
)

// AuditRecorder persists audit rows. *repositories.AuditRepository satisfies it.
type AuditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// auditWriteTimeout bounds the background database write and shipping.
const auditWriteTimeout = 5 * time.Second

// AuditMiddleware logs mutations after the handler ran. Reads and preflights
// are never recorded; failed requests only when cfg.LogFailedRequests is set.
// recorder and shipper may be nil.
func AuditMiddleware(recorder AuditRecorder, shipper audit.Shipper, cfg *config.AuditConfig) gin.HandlerFunc {
	logFailed := cfg != nil && cfg.LogFailedRequests

	return func(c *gin.Context) {
		c.Next()

		method := c.Request.Method
		if method == http.MethodOptions || method == http.MethodGet || method == http.MethodHead {
			return
		}
		status := c.Writer.Status()
		if status >= 400 && !logFailed {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		action, resourceType := describeAction(method, route)

		ip := c.ClientIP()
		entry := &models.AuditLog{
			Action:    action,
			IPAddress: &ip,
			CreatedAt: time.Now().UTC(),
			Metadata: map[string]interface{}{
				"status_code": status,
				"route":       method + " " + route,
			},
		}
		if resourceType != "" {
			entry.ResourceType = &resourceType
		}
		if userID := c.GetString(UserIDKey); userID != "" {
			entry.UserID = &userID
		}
		if orgID := c.GetString(OrganizationIDKey); orgID != "" {
			entry.OrganizationID = &orgID
		}
		if resourceID := resourceIDFrom(c); resourceID != "" {
			entry.ResourceID = &resourceID
		}
		if m := c.GetString(AuthMethodKey); m != "" {
			entry.Metadata["auth_method"] = m
		}
		if id := RequestID(c); id != "" {
			entry.Metadata["request_id"] = id
		}

		safego.Go("audit-write", func() {
			ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
			defer cancel()

			if recorder != nil {
				if err := recorder.CreateAuditLog(ctx, entry); err != nil {
					slog.Error("failed to write audit log", "action", entry.Action, "error", err)
				}
			}
			if shipper != nil {
				if err := shipper.Ship(ctx, toLogEntry(entry, status)); err != nil {
					slog.Warn("failed to ship audit log", "action", entry.Action, "error", err)
				}
			}
		})
	}
}

// describeAction names a mutation after the resource its route touches.
// Routes outside the known resources keep "METHOD /route".
func describeAction(method, route string) (action, resourceType string) {
	switch {
	case strings.Contains(route, "/menus"):
		return "menu.import", "menu"
	case strings.Contains(route, "/secrets"):
		if method == http.MethodDelete {
			return "secret.delete", "secret"
		}
		return "secret.put", "secret"
	case strings.Contains(route, "/qr"):
		return "qr.generate", "qr"
	case strings.Contains(route, "/publish"):
		return "organization.publish", "organization"
	case strings.Contains(route, "/organizations"):
		if method == http.MethodPost {
			return "organization.create", "organization"
		}
		return "organization.update", "organization"
	case strings.Contains(route, "/auth/"):
		return "auth." + route[strings.LastIndex(route, "/")+1:], "user"
	}
	return method + " " + route, ""
}

// resourceIDFrom prefers the most specific route parameter.
func resourceIDFrom(c *gin.Context) string {
	if p := c.Param("provider"); p != "" {
		return p
	}
	return c.Param(OrgIDParam)
}

func toLogEntry(l *models.AuditLog, status int) *audit.LogEntry {
	e := &audit.LogEntry{
		Timestamp:  l.CreatedAt,
		Action:     l.Action,
		StatusCode: status,
		Metadata:   l.Metadata,
	}
	if l.UserID != nil {
		e.UserID = *l.UserID
	}
	if l.OrganizationID != nil {
		e.OrganizationID = *l.OrganizationID
	}
	if l.ResourceType != nil {
		e.ResourceType = *l.ResourceType
	}
	if l.IPAddress != nil {
		e.IPAddress = *l.IPAddress
	}
	return e
}
