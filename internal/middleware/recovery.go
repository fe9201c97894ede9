package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/sentry"
)

const reporterKey = "error_reporter"

// SentryRecovery replaces gin.Recovery: a panicking handler is logged,
// reported to Sentry and answered with 500. It also makes the client
// available to ReportError. client may be nil.
func SentryRecovery(client *sentry.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client != nil {
			c.Set(reporterKey, client)
		}

		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if r == http.ErrAbortHandler {
				panic(r)
			}

			stack := string(debug.Stack())
			slog.Error("panic recovered",
				"panic", r,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"request_id", RequestID(c),
				"stack", stack,
			)

			if client != nil {
				client.CaptureAsync(&sentry.Event{
					Level:   sentry.LevelFatal,
					Message: fmt.Sprint(r),
					Exception: &sentry.Exception{Values: []sentry.ExceptionValue{
						{Type: "panic", Value: fmt.Sprint(r)},
					}},
					Request: sentry.RequestFromHTTP(c.Request),
					Tags:    requestTags(c),
					Extra:   map[string]any{"stack": stack},
				})
			}

			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				return
			}
			c.Abort()
		}()

		c.Next()
	}
}

// ReportError sends err to Sentry in the background when SentryRecovery
// installed a client. Handlers call it for failures answered with 5xx.
func ReportError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	v, ok := c.Get(reporterKey)
	if !ok {
		return
	}
	client, ok := v.(*sentry.Client)
	if !ok {
		return
	}
	client.CaptureAsync(&sentry.Event{
		Level:     sentry.LevelError,
		Message:   err.Error(),
		Exception: sentry.ExceptionFrom(err),
		Request:   sentry.RequestFromHTTP(c.Request),
		Tags:      requestTags(c),
	})
}

func requestTags(c *gin.Context) map[string]string {
	tags := map[string]string{"route": c.FullPath()}
	if id := RequestID(c); id != "" {
		tags["request_id"] = id
	}
	if orgID := c.GetString(OrganizationIDKey); orgID != "" {
		tags["organization_id"] = orgID
	}
	return tags
}
