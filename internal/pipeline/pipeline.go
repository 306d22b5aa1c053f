// Package pipeline sequences a single crawl pass: listing pages, thread
// discovery, thread pages and post filtering.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/board-crawler/internal/board"
	"github.com/JakeFAU/board-crawler/internal/extract"
	"github.com/JakeFAU/board-crawler/internal/filter"
	"github.com/JakeFAU/board-crawler/internal/metrics"
)

// Stage marks how far a run progressed.
type Stage string

// Pipeline stages, in order.
const (
	StageConfigured        Stage = "CONFIGURED"
	StageListingFetched    Stage = "LISTING_FETCHED"
	StageThreadsDiscovered Stage = "THREADS_DISCOVERED"
	StageThreadsFetched    Stage = "THREADS_FETCHED"
	StageDone              Stage = "DONE"
)

// Options is the per-run configuration handed to the orchestrator.
type Options struct {
	Mode  string
	Pages []int
	// MaxPostAge is the age window; zero or less disables it.
	MaxPostAge time.Duration
}

// Failure records one listing or thread fetch that was skipped.
type Failure struct {
	Stage string
	Label string
	URL   string
	Err   error
}

func (f Failure) Error() string {
	return f.Err.Error()
}

// Report is the outcome of Run.
type Report struct {
	Stage    Stage
	Threads  []board.ThreadMeta
	Results  []board.ThreadResult
	Failures []Failure
}

// Pipeline runs crawl passes against a board.
type Pipeline struct {
	fetcher board.Fetcher
	opts    Options
	logger  *zap.Logger
}

// New constructs a Pipeline.
func New(fetcher board.Fetcher, opts Options, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger.Named("pipeline"),
	}
}

// Run executes one complete pass. Per-item fetch failures are reported in the
// Report; the returned error is reserved for a canceled context.
func (p *Pipeline) Run(
	ctx context.Context,
	site board.Site,
	search board.SearchConfig,
	reference time.Time,
) (Report, error) {
	report := Report{Stage: StageConfigured, Results: []board.ThreadResult{}}
	p.logger.Info("run started",
		zap.String("mode", p.opts.Mode),
		zap.Ints("pages", p.opts.Pages),
		zap.Duration("max_post_age", p.opts.MaxPostAge),
		zap.Time("reference", reference),
	)

	threads, failures := p.CollectThreads(ctx, site, search)
	report.Threads = threads
	report.Failures = append(report.Failures, failures...)
	report.Stage = StageThreadsDiscovered
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("collect threads: %w", err)
	}
	if len(threads) == 0 {
		p.logger.Info("no threads matched the search words")
		report.Stage = StageDone
		return report, nil
	}

	postFilter := filter.NewPostFilter(search, p.opts.MaxPostAge, reference)
	results, failures := p.CrawlThreads(ctx, threads, postFilter)
	report.Results = results
	report.Failures = append(report.Failures, failures...)
	report.Stage = StageThreadsFetched
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("crawl threads: %w", err)
	}

	report.Stage = StageDone
	p.logger.Info("run finished",
		zap.Int("threads", len(results)),
		zap.Int("posts", board.PostCount(results)),
		zap.Int("failures", len(report.Failures)),
	)
	return report, nil
}

// CollectThreads fetches every listing page, merges the thread records in
// page order and narrows them to the titles matching the search words.
func (p *Pipeline) CollectThreads(
	ctx context.Context,
	site board.Site,
	search board.SearchConfig,
) ([]board.ThreadMeta, []Failure) {
	urls := site.ListURLs(p.opts.Pages)
	labels := make([]string, len(urls))
	for i, page := range p.opts.Pages {
		labels[i] = fmt.Sprintf("List p=%d", page)
	}

	pages, failures := p.fetchAll(ctx, metrics.StageList, urls, labels)

	var refs []board.ThreadRef
	for _, markup := range pages {
		if markup == nil {
			continue
		}
		refs = append(refs, extract.ExtractThreads(*markup)...)
	}
	unique := filter.Dedupe(refs)
	matched := filter.MatchTitles(unique, search.SearchWords)
	metrics.ObserveThreads("discovered", len(unique))
	metrics.ObserveThreads("matched", len(matched))

	threads := make([]board.ThreadMeta, 0, len(matched))
	for _, ref := range matched {
		threads = append(threads, board.ThreadMeta{
			ID:    ref.ID,
			Title: ref.Title,
			URL:   site.ThreadURL(ref.ID),
		})
	}
	p.logger.Debug("threads discovered",
		zap.Int("pages_ok", len(pages)-len(failures)),
		zap.Int("unique", len(unique)),
		zap.Int("matched", len(threads)),
	)
	return threads, failures
}

// CrawlThreads fetches every thread and filters its posts. Threads whose
// fetch failed are omitted; the rest keep their input order.
func (p *Pipeline) CrawlThreads(
	ctx context.Context,
	threads []board.ThreadMeta,
	postFilter *filter.PostFilter,
) ([]board.ThreadResult, []Failure) {
	urls := make([]string, len(threads))
	labels := make([]string, len(threads))
	for i, thread := range threads {
		urls[i] = thread.URL
		labels[i] = fmt.Sprintf("Thread %d", i+1)
	}

	pages, failures := p.fetchAll(ctx, metrics.StageThread, urls, labels)

	results := make([]board.ThreadResult, 0, len(threads))
	for i, markup := range pages {
		if markup == nil {
			continue
		}
		extracted := extract.ExtractPosts(*markup)
		kept, rejected := postFilter.Apply(extracted)
		if kept == nil {
			kept = []board.Post{}
		}
		metrics.ObservePosts("kept", len(kept))
		for reason, n := range rejected {
			metrics.ObservePosts(string(reason), n)
		}
		if len(rejected) > 0 {
			p.logger.Debug("posts rejected",
				zap.String("thread", threads[i].URL),
				zap.Any("reasons", rejected),
			)
		}
		results = append(results, board.ThreadResult{
			ThreadURL:   threads[i].URL,
			ThreadTitle: threads[i].Title,
			Posts:       kept,
		})
	}
	metrics.ObserveThreads("crawled", len(results))
	return results, failures
}

// fetchAll fetches every URL concurrently. Each goroutine writes only its own
// slot, so a nil entry marks a failed fetch.
func (p *Pipeline) fetchAll(
	ctx context.Context,
	stage string,
	urls, labels []string,
) ([]*string, []Failure) {
	bodies := make([]*string, len(urls))
	errs := make([]error, len(urls))

	var g errgroup.Group
	for i := range urls {
		g.Go(func() error {
			start := time.Now()
			body, err := p.fetcher.FetchText(ctx, urls[i], labels[i])
			metrics.ObserveFetch(urls[i], stage, len(body), time.Since(start), err)
			if err != nil {
				errs[i] = err
				return nil
			}
			bodies[i] = &body
			return nil
		})
	}
	_ = g.Wait() // goroutines never return an error

	var failures []Failure
	for i, err := range errs {
		if err == nil {
			continue
		}
		p.logger.Warn("fetch failed",
			zap.String("stage", stage),
			zap.String("label", labels[i]),
			zap.String("url", urls[i]),
			zap.Error(err),
		)
		failures = append(failures, Failure{Stage: stage, Label: labels[i], URL: urls[i], Err: err})
	}
	return bodies, failures
}
