// Package seo renders sitemap.xml and robots.txt for the public web app.
// Only published organizations are listed.
package seo

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/menuhub/menuhub/internal/db/models"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ContentTypeXML and ContentTypeText are the response types of the artifacts.
const (
	ContentTypeXML  = "application/xml; charset=utf-8"
	ContentTypeText = "text/plain; charset=utf-8"
)

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type staticPage struct {
	path       string
	changeFreq string
	priority   string
}

// staticPages are the marketing pages of the web app.
var staticPages = []staticPage{
	{"/", "weekly", "1.0"},
	{"/pricing", "monthly", "0.7"},
	{"/about", "monthly", "0.5"},
	{"/contact", "monthly", "0.5"},
}

// BuildSitemap renders the urlset for baseURL. Static pages carry now as
// lastmod; each organization carries its own updated_at. Unpublished
// organizations in orgs are skipped.
func BuildSitemap(baseURL string, orgs []*models.Organization, now time.Time) ([]byte, error) {
	base := strings.TrimRight(baseURL, "/")
	set := urlSet{Xmlns: sitemapNS}

	today := now.UTC().Format(time.DateOnly)
	for _, p := range staticPages {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        base + p.path,
			LastMod:    today,
			ChangeFreq: p.changeFreq,
			Priority:   p.priority,
		})
	}

	for _, org := range orgs {
		if org == nil || !org.Published {
			continue
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        base + "/" + url.PathEscape(org.Slug),
			LastMod:    org.UpdatedAt.UTC().Format(time.DateOnly),
			ChangeFreq: "daily",
			Priority:   "0.8",
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, fmt.Errorf("failed to encode sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// BuildRobots renders robots.txt: everything is crawlable except the
// dashboard and the API, and the sitemap is referenced.
func BuildRobots(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /dashboard/\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "Sitemap: %s/sitemap.xml\n", base)
	return b.String()
}
