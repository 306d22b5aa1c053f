package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/board-crawler/internal/board"
	"github.com/JakeFAU/board-crawler/internal/metrics"
	"github.com/JakeFAU/board-crawler/internal/notify"
	"github.com/JakeFAU/board-crawler/internal/pipeline"
	"github.com/JakeFAU/board-crawler/internal/postdate"
	"github.com/JakeFAU/board-crawler/internal/snapshot"
)

const bootstrapLabel = "1st API"

// Plan is everything resolved before the listing pages are fetched.
type Plan struct {
	Site      board.Site
	Search    board.SearchConfig
	Reference time.Time
}

// Outcome summarizes a finished crawl.
type Outcome struct {
	RunID     string
	Report    pipeline.Report
	Snapshot  snapshot.Snapshot
	Published []snapshot.Published
}

// Prepare fetches the bootstrap payload and resolves the site, the word lists
// and the reference instant. Any failure here aborts the run.
func (a *App) Prepare(ctx context.Context) (Plan, error) {
	start := time.Now()
	var payload board.Bootstrap
	err := a.fetcher.FetchJSON(ctx, a.cfg.APIURL, bootstrapLabel, &payload)
	metrics.ObserveFetch(a.cfg.APIURL, metrics.StageBootstrap, 0, time.Since(start), err)
	if err != nil {
		return Plan{}, fmt.Errorf("fetch bootstrap payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return Plan{}, err
	}

	search := payload.SearchConfig()
	search.SearchWords = a.cfg.SearchWords(search.SearchWords)

	var candidates []any
	if a.cfg.ReferenceInstant != "" {
		candidates = append(candidates, a.cfg.ReferenceInstant)
	}
	candidates = append(candidates, payload.NowCandidate())
	reference := postdate.ResolveReferenceInstant(a.clock.Now(), candidates...)

	plan := Plan{Site: payload.Site(), Search: search, Reference: reference}
	a.logger.Info("bootstrap resolved",
		zap.String("origin", plan.Site.Origin),
		zap.String("mode", a.cfg.Mode),
		zap.Strings("search_words", search.SearchWords),
		zap.Strings("ignore_age", search.IgnoreAge),
		zap.Strings("ignore_sex", search.IgnoreSex),
		zap.Strings("ignore_name", search.IgnoreName),
		zap.Time("reference", reference),
	)
	return plan, nil
}

func (a *App) pipeline() *pipeline.Pipeline {
	return pipeline.New(a.fetcher, pipeline.Options{
		Mode:       a.cfg.Mode,
		Pages:      a.cfg.Pages,
		MaxPostAge: a.cfg.MaxPostAge(),
	}, a.logger)
}

// Discover runs the listing half of the pipeline only and returns the threads
// a crawl would visit.
func (a *App) Discover(ctx context.Context) ([]board.ThreadMeta, []pipeline.Failure, error) {
	plan, err := a.Prepare(ctx)
	if err != nil {
		return nil, nil, err
	}
	threads, failures := a.pipeline().CollectThreads(ctx, plan.Site, plan.Search)
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("discover threads: %w", err)
	}
	return threads, failures, nil
}

// Crawl performs a full run: bootstrap, pipeline, snapshot publish and
// notification. Snapshot publish errors are fatal; notification and metrics
// errors are logged.
func (a *App) Crawl(ctx context.Context) (Outcome, error) {
	start := a.clock.Now()
	runID, err := a.ids.NewID()
	if err != nil {
		return Outcome{}, err
	}
	logger := a.logger.With(zap.String("run_id", runID))

	plan, err := a.Prepare(ctx)
	if err != nil {
		return Outcome{}, err
	}

	report, err := a.pipeline().Run(ctx, plan.Site, plan.Search, plan.Reference)
	if err != nil {
		return Outcome{}, err
	}

	snap := snapshot.Build(
		runID,
		a.clock.Now(),
		a.cfg.Mode,
		a.cfg.Pages,
		a.cfg.MaxPostAgeMinutes,
		report.Results,
		a.cfg.Snapshot.DropEmptyThreads,
	)
	outcome := Outcome{RunID: runID, Report: report, Snapshot: snap}

	if len(a.sinks) > 0 {
		publisher := snapshot.NewPublisher(a.sinks, a.cfg.Snapshot.Filename, a.hasher, logger)
		published, err := publisher.Publish(ctx, snap)
		outcome.Published = published
		if err != nil {
			return outcome, err
		}
	} else {
		logger.Info("no snapshot sinks configured; skipping publish")
	}

	finished := a.clock.Now()
	metrics.MarkRunCompleted(finished)
	a.notify(ctx, logger, outcome, finished.Sub(start))
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			logger.Warn("metrics textfile not written", zap.String("path", path), zap.Error(err))
		}
	}

	if n := len(report.Failures); n > 0 {
		logger.Warn("run completed with skipped pages", zap.Int("failures", n))
	}
	return outcome, nil
}

func (a *App) notify(ctx context.Context, logger *zap.Logger, outcome Outcome, took time.Duration) {
	if a.notifier == nil {
		return
	}
	locations := make([]string, 0, len(outcome.Published))
	for _, p := range outcome.Published {
		locations = append(locations, p.Location)
	}
	summary := notify.Summary{
		RunID:     outcome.RunID,
		Mode:      a.cfg.Mode,
		Pages:     a.cfg.Pages,
		Threads:   len(outcome.Snapshot.Results),
		Posts:     board.PostCount(outcome.Snapshot.Results),
		Failures:  len(outcome.Report.Failures),
		Locations: locations,
		Took:      took,
	}
	if err := a.notifier.Notify(ctx, summary.Message()); err != nil {
		logger.Warn("completion notification failed", zap.Error(err))
	}
}
