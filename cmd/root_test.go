package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/board-crawler/internal/app"
	"github.com/JakeFAU/board-crawler/internal/board"
	"github.com/JakeFAU/board-crawler/internal/config"
	"github.com/JakeFAU/board-crawler/internal/pipeline"
	"github.com/JakeFAU/board-crawler/internal/snapshot"
)

type fakeApp struct {
	cfg      config.Config
	outcome  app.Outcome
	threads  []board.ThreadMeta
	failures []pipeline.Failure
	err      error
	closed   bool
}

func (f *fakeApp) Close()                { f.closed = true }
func (f *fakeApp) Logger() *zap.Logger   { return zap.NewNop() }
func (f *fakeApp) Config() config.Config { return f.cfg }

func (f *fakeApp) Crawl(context.Context) (app.Outcome, error) {
	return f.outcome, f.err
}

func (f *fakeApp) Discover(context.Context) ([]board.ThreadMeta, []pipeline.Failure, error) {
	return f.threads, f.failures, f.err
}

// useFakeApp swaps the factory for the duration of the test and records the
// options it was called with.
func useFakeApp(t *testing.T, fake *fakeApp) *options {
	t.Helper()
	t.Setenv("BOARD_API_URL", "https://bootstrap.example.com/api")
	t.Setenv("ENV_FILE", "does-not-exist.env")

	var seen options
	orig := newApp
	newApp = func(_ context.Context, cfg config.Config, opts options) (App, error) {
		fake.cfg = cfg
		seen = opts
		return fake, nil
	}
	t.Cleanup(func() { newApp = orig })
	return &seen
}

func TestCrawlPrintsPublishedLocations(t *testing.T) {
	fake := &fakeApp{outcome: app.Outcome{
		RunID:     "run-1",
		Published: []snapshot.Published{{Sink: "local", Location: "file:///tmp/board_results.json"}},
	}}
	seen := useFakeApp(t, fake)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"crawl"}, &out))
	assert.Equal(t, "local\tfile:///tmp/board_results.json\n", out.String())
	assert.False(t, seen.dryRun)
	assert.True(t, fake.closed)
	assert.Equal(t, "https://bootstrap.example.com/api", fake.cfg.APIURL)
}

func TestCrawlDryRunPrintsSnapshot(t *testing.T) {
	fake := &fakeApp{outcome: app.Outcome{
		Snapshot: snapshot.Snapshot{Mode: "BASIC", Pages: []int{1}, Results: []board.ThreadResult{}},
	}}
	seen := useFakeApp(t, fake)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"crawl", "--dry-run"}, &out))
	assert.True(t, seen.dryRun)
	assert.Contains(t, out.String(), `"mode": "BASIC"`)
	assert.Contains(t, out.String(), `"results": []`)
}

func TestCrawlFailure(t *testing.T) {
	fake := &fakeApp{err: errors.New("HTTP 500 @ 1st API")}
	useFakeApp(t, fake)

	err := run(context.Background(), []string{"crawl"}, &bytes.Buffer{})
	require.ErrorContains(t, err, "run crawl: HTTP 500 @ 1st API")
	assert.True(t, fake.closed)
}

func TestThreadsCommand(t *testing.T) {
	fake := &fakeApp{
		threads: []board.ThreadMeta{
			{ID: "1", Title: "Tokyo Meetup", URL: "https://b.example/public/thread/index?id=1"},
		},
		failures: []pipeline.Failure{{Stage: "list", Label: "List p=2", Err: errors.New("HTTP 503 @ List p=2")}},
	}
	useFakeApp(t, fake)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"threads"}, &out))
	assert.Equal(t, "https://b.example/public/thread/index?id=1\tTokyo Meetup\n", out.String())
}

func TestConfigErrorStopsBeforeApp(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("BOARD_API_URL", "")
	t.Setenv("API_URL", "")

	called := false
	orig := newApp
	newApp = func(context.Context, config.Config, options) (App, error) {
		called = true
		return &fakeApp{}, nil
	}
	t.Cleanup(func() { newApp = orig })

	err := run(context.Background(), []string{"crawl"}, &bytes.Buffer{})
	require.ErrorIs(t, err, config.ErrMissingAPIURL)
	assert.False(t, called)
}

func TestResolveAppWithoutInit(t *testing.T) {
	t.Parallel()

	_, err := resolveApp(context.Background())
	require.EqualError(t, err, "application services not initialized")
}

func TestRootDescribesFilteredSnapshot(t *testing.T) {
	t.Parallel()

	long := newRootCmd().Long
	assert.Contains(t, long, "pass the exclusion lists and the age window")
	assert.NotContains(t, long, "unfiltered")
}
