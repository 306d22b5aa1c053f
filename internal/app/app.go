// Package app builds the run's collaborators from configuration and drives a
// crawl from the bootstrap fetch to the published snapshot.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/board-crawler/internal/board"
	"github.com/JakeFAU/board-crawler/internal/clock/system"
	"github.com/JakeFAU/board-crawler/internal/config"
	collyfetcher "github.com/JakeFAU/board-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/board-crawler/internal/hash/sha256"
	"github.com/JakeFAU/board-crawler/internal/id/uuid"
	"github.com/JakeFAU/board-crawler/internal/logging"
	"github.com/JakeFAU/board-crawler/internal/notify/discord"
	"github.com/JakeFAU/board-crawler/internal/publisher/gist"
	"github.com/JakeFAU/board-crawler/internal/publisher/pubsub"
	"github.com/JakeFAU/board-crawler/internal/snapshot"
	"github.com/JakeFAU/board-crawler/internal/storage/gcs"
	"github.com/JakeFAU/board-crawler/internal/storage/local"
)

// App holds the collaborators for one process. Every field can be replaced
// through an Option, which is how tests swap in fakes.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	fetcher  board.Fetcher
	sinks    []snapshot.Sink
	notifier board.Notifier
	clock    board.Clock
	ids      board.IDGenerator
	hasher   board.Hasher
	closers  []func() error

	clientOptions []option.ClientOption
	sinksSet      bool
}

// Option overrides one collaborator.
type Option func(*App)

// WithLogger sets the logger instead of building one from config.
func WithLogger(l *zap.Logger) Option { return func(a *App) { a.logger = l } }

// WithFetcher sets the fetcher.
func WithFetcher(f board.Fetcher) Option { return func(a *App) { a.fetcher = f } }

// WithSinks replaces the configured snapshot sinks. Passing none disables
// publishing.
func WithSinks(s ...snapshot.Sink) Option {
	return func(a *App) {
		a.sinks = s
		a.sinksSet = true
	}
}

// WithClientOptions passes options to the Google Cloud clients behind the
// gcs and pubsub sinks.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(a *App) { a.clientOptions = append(a.clientOptions, opts...) }
}

// WithNotifier sets the completion notifier.
func WithNotifier(n board.Notifier) Option { return func(a *App) { a.notifier = n } }

// WithClock sets the clock.
func WithClock(c board.Clock) Option { return func(a *App) { a.clock = c } }

// WithIDGenerator sets the run ID source.
func WithIDGenerator(g board.IDGenerator) Option { return func(a *App) { a.ids = g } }

// New builds an App from cfg. Collaborators not supplied through opts are
// created from the configuration; unset optional ones stay nil.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		logger, err := logging.New(logging.Options{
			Development: cfg.Logging.Development,
			Quiet:       cfg.Logging.Quiet,
			Level:       cfg.Logging.Level,
		})
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		a.logger = logger
	}
	if a.fetcher == nil {
		a.fetcher = collyfetcher.New(collyfetcher.Config{
			UserAgent: cfg.HTTP.UserAgent,
			Timeout:   cfg.HTTP.Timeout,
		}, a.logger.Named("fetcher"))
	}
	if a.clock == nil {
		a.clock = system.New()
	}
	if a.ids == nil {
		a.ids = uuid.New()
	}
	if a.hasher == nil {
		a.hasher = sha256.New()
	}
	if !a.sinksSet {
		sinks, err := a.buildSinks(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.sinks = sinks
	}
	if a.notifier == nil && cfg.Discord.WebhookURL != "" {
		n, err := discord.New(discord.Config{
			WebhookURL: cfg.Discord.WebhookURL,
			Username:   cfg.Discord.Username,
			AvatarURL:  cfg.Discord.AvatarURL,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init discord notifier: %w", err)
		}
		a.notifier = n
	}

	a.logger.Debug("application services initialized",
		zap.Int("sinks", len(a.sinks)),
		zap.Bool("notifier", a.notifier != nil),
	)
	return a, nil
}

func (a *App) buildSinks(ctx context.Context) ([]snapshot.Sink, error) {
	var sinks []snapshot.Sink
	if dir := a.cfg.Snapshot.Dir; dir != "" {
		store, err := local.New(local.Config{BaseDir: dir})
		if err != nil {
			return nil, fmt.Errorf("init local snapshot sink: %w", err)
		}
		a.logger.Info("using local snapshot sink", zap.String("dir", dir))
		sinks = append(sinks, snapshot.Sink{Name: "local", Store: store})
	}
	if bucket := a.cfg.Snapshot.GCSBucket; bucket != "" {
		store, client, err := gcs.Dial(ctx, gcs.Config{Bucket: bucket, Prefix: a.cfg.Snapshot.Prefix}, a.clientOptions...)
		if err != nil {
			return nil, fmt.Errorf("init gcs snapshot sink: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.logger.Info("using gcs snapshot sink", zap.String("bucket", bucket))
		sinks = append(sinks, snapshot.Sink{Name: "gcs", Store: store})
	}
	if token := a.cfg.Gist.Token; token != "" {
		client, err := gist.New(gist.Config{
			Token:       token,
			Description: a.cfg.Gist.Description,
			Public:      a.cfg.Gist.Public,
			BaseURL:     a.cfg.Gist.BaseURL,
			UserAgent:   a.cfg.HTTP.UserAgent,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("init gist sink: %w", err)
		}
		a.logger.Info("using gist snapshot sink")
		sinks = append(sinks, snapshot.Sink{Name: "gist", Store: client})
	}
	if topic := a.cfg.Snapshot.PubSubTopic; topic != "" {
		store, closeFn, err := pubsub.Dial(ctx, pubsub.Config{
			ProjectID: a.cfg.Snapshot.PubSubProject,
			TopicID:   topic,
		}, a.clientOptions...)
		if err != nil {
			return nil, fmt.Errorf("init pubsub snapshot sink: %w", err)
		}
		a.closers = append(a.closers, closeFn)
		a.logger.Info("using pubsub snapshot sink", zap.String("topic", topic))
		sinks = append(sinks, snapshot.Sink{Name: "pubsub", Store: store})
	}
	return sinks, nil
}

// Logger returns the run logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config {
	return a.cfg
}

// Close releases clients and flushes the logger.
func (a *App) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Warn("error closing client", zap.Error(err))
		}
	}
	a.closers = nil
	if a.logger != nil {
		_ = a.logger.Sync() //nolint:errcheck // stderr sync fails on some terminals
	}
}
