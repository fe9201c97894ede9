package seo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/menuhub/menuhub/internal/cache"
	"github.com/menuhub/menuhub/internal/db/models"
	"github.com/menuhub/menuhub/internal/telemetry"
)

// PublishedLister lists organizations visible to the public.
type PublishedLister interface {
	ListPublished(ctx context.Context) ([]*models.Organization, error)
}

// Builder serves the sitemap from cache and rebuilds it from the database on
// a miss or when warmed.
type Builder struct {
	orgs    PublishedLister
	cache   cache.Cache
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

// NewBuilder creates a sitemap Builder.
func NewBuilder(orgs PublishedLister, c cache.Cache, baseURL string, ttl time.Duration) *Builder {
	return &Builder{orgs: orgs, cache: c, baseURL: baseURL, ttl: ttl, now: time.Now}
}

// BaseURL is the origin used in sitemap and robots entries.
func (b *Builder) BaseURL() string {
	return b.baseURL
}

func (b *Builder) build(ctx context.Context, trigger string) ([]byte, error) {
	orgs, err := b.orgs.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list published organizations: %w", err)
	}
	data, err := BuildSitemap(b.baseURL, orgs, b.now())
	if err != nil {
		return nil, err
	}
	telemetry.SitemapBuildsTotal.WithLabelValues(trigger).Inc()
	telemetry.SitemapOrganizations.Set(float64(len(orgs)))
	return data, nil
}

// Sitemap returns the cached sitemap, building it on a miss.
func (b *Builder) Sitemap(ctx context.Context) ([]byte, error) {
	data, _, err := cache.GetOrLoad(ctx, b.cache, cache.SitemapKey, b.ttl, func(ctx context.Context) ([]byte, error) {
		return b.build(ctx, "request")
	})
	return data, err
}

// Warm rebuilds the sitemap and replaces the cached copy.
func (b *Builder) Warm(ctx context.Context) error {
	data, err := b.build(ctx, "job")
	if err != nil {
		return err
	}
	if err := b.cache.Set(ctx, cache.SitemapKey, data, b.ttl); err != nil {
		slog.Warn("failed to cache sitemap", "error", err)
	}
	return nil
}

// Invalidate drops the cached sitemap so the next request rebuilds it.
func (b *Builder) Invalidate(ctx context.Context) {
	if err := b.cache.Delete(ctx, cache.SitemapKey); err != nil {
		slog.Warn("failed to invalidate sitemap", "error", err)
	}
}
