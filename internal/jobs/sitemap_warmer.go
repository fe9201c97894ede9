// Package jobs contains background workers that run on a schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/menuhub/menuhub/internal/safego"
)

// DefaultSitemapWarmSchedule rebuilds the sitemap every 15 minutes.
const DefaultSitemapWarmSchedule = "*/15 * * * *"

// warmTimeout bounds a single rebuild.
const warmTimeout = 30 * time.Second

// Warmer rebuilds a cached artifact. *seo.Builder satisfies it.
type Warmer interface {
	Warm(ctx context.Context) error
}

// SitemapWarmer keeps the cached sitemap fresh so crawlers rarely hit a
// cold rebuild.
type SitemapWarmer struct {
	warmer   Warmer
	schedule cron.Schedule
	spec     string
	cron     *cron.Cron
	job      cron.Job
	wg       sync.WaitGroup
}

// NewSitemapWarmer parses a standard five-field cron spec. An empty spec
// uses DefaultSitemapWarmSchedule.
func NewSitemapWarmer(warmer Warmer, spec string) (*SitemapWarmer, error) {
	if spec == "" {
		spec = DefaultSitemapWarmSchedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid sitemap warm schedule %q: %w", spec, err)
	}
	return &SitemapWarmer{warmer: warmer, schedule: schedule, spec: spec}, nil
}

// Start runs one warm-up immediately, then follows the schedule until Stop
// is called or ctx is cancelled.
func (w *SitemapWarmer) Start(ctx context.Context) {
	w.cron = cron.New(cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})))
	id := w.cron.Schedule(w.schedule, cron.FuncJob(func() { w.RunOnce(ctx) }))
	// The startup run shares the wrapped job, so it is recovered and never
	// overlaps a scheduled tick.
	w.job = w.cron.Entry(id).WrappedJob
	w.cron.Start()
	slog.Info("sitemap warmer started", "schedule", w.spec)

	w.wg.Add(1)
	safego.Go("sitemap-warm", func() {
		defer w.wg.Done()
		w.job.Run()
	})
	go func() {
		<-ctx.Done()
		w.Stop()
	}()
}

// Stop halts the scheduler and waits for a running warm-up to finish.
func (w *SitemapWarmer) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	w.wg.Wait()
}

// RunOnce rebuilds the sitemap, logging instead of returning failures.
func (w *SitemapWarmer) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, warmTimeout)
	defer cancel()

	start := time.Now()
	if err := w.warmer.Warm(ctx); err != nil {
		slog.Error("sitemap warm-up failed", "error", err)
		return
	}
	slog.Debug("sitemap warmed", "duration", time.Since(start))
}

// cronLogger routes cron's internal messages through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
