package telemetry

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// Registration is checked through Describe because *Vec metrics without any
// observed label combination are absent from Gather output.
func TestMetrics_Registered(t *testing.T) {
	cases := map[string]prometheus.Collector{
		"menuhub_http_requests_total":           HTTPRequestsTotal,
		"menuhub_http_request_duration_seconds": HTTPRequestDuration,
		"menuhub_qr_codes_generated_total":      QRCodesGeneratedTotal,
		"menuhub_feedback_submitted_total":      FeedbackSubmittedTotal,
		"menuhub_whatsapp_links_total":          WhatsAppLinksTotal,
		"menuhub_sitemap_builds_total":          SitemapBuildsTotal,
		"menuhub_sitemap_organizations":         SitemapOrganizations,
		"menuhub_sentry_events_total":           SentryEventsTotal,
		"menuhub_db_open_connections":           DBOpenConnections,
		"menuhub_db_in_use_connections":         DBInUseConnections,
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			ch := make(chan *prometheus.Desc, 4)
			c.Describe(ch)
			close(ch)
			for desc := range ch {
				if strings.Contains(desc.String(), `fqName: "`+name+`"`) {
					return
				}
			}
			t.Errorf("no descriptor named %q", name)
		})
	}

	// Registering again must fail, proving promauto put them in the default registry.
	if err := prometheus.DefaultRegisterer.Register(SentryEventsTotal); err == nil {
		t.Error("SentryEventsTotal was not registered with the default registry")
	}
}

func TestCounters_Increment(t *testing.T) {
	cases := []struct {
		name   string
		cv     *prometheus.CounterVec
		labels []string
	}{
		{"http", HTTPRequestsTotal, []string{"GET", "/api/v1/public/:slug/menu", "200"}},
		{"qr", QRCodesGeneratedTotal, []string{"table", "stored"}},
		{"feedback", FeedbackSubmittedTotal, []string{"5"}},
		{"whatsapp", WhatsAppLinksTotal, []string{"order"}},
		{"sitemap", SitemapBuildsTotal, []string{"job"}},
		{"sentry", SentryEventsTotal, []string{"dropped"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.cv.WithLabelValues(tc.labels...)
			before := testutil.ToFloat64(c)
			c.Inc()
			if got := testutil.ToFloat64(c); got != before+1 {
				t.Errorf("counter = %v, want %v", got, before+1)
			}
		})
	}
}

func TestHTTPRequestDuration_Observe(t *testing.T) {
	const path = "/api/v1/public/:slug/feedback"
	HTTPRequestDuration.WithLabelValues("POST", path).Observe(0.042)

	ch := make(chan prometheus.Metric, 32)
	HTTPRequestDuration.Collect(ch)
	close(ch)
	for m := range ch {
		var dm dto.Metric
		if err := m.Write(&dm); err != nil {
			t.Fatalf("Write: %v", err)
		}
		for _, lp := range dm.GetLabel() {
			if lp.GetName() == "path" && lp.GetValue() == path && dm.GetHistogram().GetSampleCount() > 0 {
				return
			}
		}
	}
	t.Errorf("no samples recorded for %s", path)
}

func TestRecordDBStats(t *testing.T) {
	recordDBStats(sql.DBStats{OpenConnections: 7, InUse: 3})

	if got := testutil.ToFloat64(DBOpenConnections); got != 7 {
		t.Errorf("open connections = %v, want 7", got)
	}
	if got := testutil.ToFloat64(DBInUseConnections); got != 3 {
		t.Errorf("in-use connections = %v, want 3", got)
	}
}

func TestSitemapOrganizations_Set(t *testing.T) {
	SitemapOrganizations.Set(12)
	if got := testutil.ToFloat64(SitemapOrganizations); got != 12 {
		t.Errorf("sitemap organizations = %v, want 12", got)
	}
}
