// Package telemetry provides application-level observability for MenuHub.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// served by the side-channel HTTP server started by cmd/server:
//
//	GET http://<host>:<MENUHUB_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint is not served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template)
//   - Public surface counters: QR codes, feedback, WhatsApp links, sitemap builds
//   - Error reporting outcomes (sent / dropped / throttled / disabled)
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/public/:slug/menu)
// rather than the raw request URL, so tenant slugs never become label values.
// Likewise no metric below is labelled by organization.
package telemetry

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ---------------------------------------------------------------------------
// HTTP
// ---------------------------------------------------------------------------

var (
	// HTTPRequestsTotal counts every HTTP request, labelled by method, route
	// template and status code.
	//
	//	sum(rate(menuhub_http_requests_total{status=~"5.."}[5m]))
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuhub_http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and route template.
	//
	//	histogram_quantile(0.95, sum by (le, path) (rate(menuhub_http_request_duration_seconds_bucket[5m])))
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "menuhub_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
)

// ---------------------------------------------------------------------------
// Public surface
// ---------------------------------------------------------------------------

var (
	// QRCodesGeneratedTotal counts rendered QR codes by kind ("menu" or "table")
	// and whether the PNG was stored or streamed.
	QRCodesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuhub_qr_codes_generated_total",
			Help: "Total number of QR codes rendered, by kind and delivery.",
		},
		[]string{"kind", "delivery"},
	)

	// FeedbackSubmittedTotal counts accepted public feedback submissions by rating.
	FeedbackSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuhub_feedback_submitted_total",
			Help: "Total number of feedback submissions accepted, by star rating.",
		},
		[]string{"rating"},
	)

	// WhatsAppLinksTotal counts wa.me links handed out, by kind ("contact" or "order").
	WhatsAppLinksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuhub_whatsapp_links_total",
			Help: "Total number of WhatsApp deep links built, by kind.",
		},
		[]string{"kind"},
	)

	// SitemapBuildsTotal counts sitemap renders by trigger ("request" or "job").
	SitemapBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuhub_sitemap_builds_total",
			Help: "Total number of sitemap renders, by trigger.",
		},
		[]string{"trigger"},
	)

	// SitemapOrganizations is the number of published organizations in the last sitemap built.
	SitemapOrganizations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "menuhub_sitemap_organizations",
			Help: "Number of published organizations in the most recently built sitemap.",
		},
	)
)

// ---------------------------------------------------------------------------
// Error reporting
// ---------------------------------------------------------------------------

// SentryEventsTotal counts error events by outcome. Reporting failures never
// surface to callers; this counter is the only place they show up.
//
//	rate(menuhub_sentry_events_total{result="dropped"}[15m]) > 0
var SentryEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "menuhub_sentry_events_total",
		Help: "Total number of error events handled by the Sentry poster, by result.",
	},
	[]string{"result"},
)

// ---------------------------------------------------------------------------
// Database
// ---------------------------------------------------------------------------

// DBOpenConnections mirrors sql.DBStats.OpenConnections.
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "menuhub_db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// DBInUseConnections mirrors sql.DBStats.InUse.
var DBInUseConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "menuhub_db_in_use_connections",
		Help: "Current number of database connections in use.",
	},
)

// StartDBStatsCollector polls the pool every 30s until ctx is cancelled.
func StartDBStatsCollector(ctx context.Context, db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := db.PingContext(ctx); err != nil {
					slog.Warn("db stats collector: database unreachable", "error", err)
					continue
				}
				recordDBStats(db.Stats())
			}
		}
	}()
}

func recordDBStats(stats sql.DBStats) {
	DBOpenConnections.Set(float64(stats.OpenConnections))
	DBInUseConnections.Set(float64(stats.InUse))
}
