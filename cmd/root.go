package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/board-crawler/internal/app"
	"github.com/JakeFAU/board-crawler/internal/board"
	"github.com/JakeFAU/board-crawler/internal/config"
	"github.com/JakeFAU/board-crawler/internal/logging"
	notifymemory "github.com/JakeFAU/board-crawler/internal/notify/memory"
	"github.com/JakeFAU/board-crawler/internal/pipeline"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App is the slice of *app.App the commands use, so tests can inject a fake.
type App interface {
	Close()
	Logger() *zap.Logger
	Config() config.Config
	Crawl(ctx context.Context) (app.Outcome, error)
	Discover(ctx context.Context) ([]board.ThreadMeta, []pipeline.Failure, error)
}

// options collects the flags that shape how the App is built.
type options struct {
	configPath string
	dryRun     bool
}

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(ctx context.Context, cfg config.Config, opts options) (App, error) {
	var appOpts []app.Option
	if opts.dryRun {
		// Dry runs neither publish nor announce; the summary stays in memory.
		appOpts = append(appOpts, app.WithSinks(), app.WithNotifier(notifymemory.New()))
	}
	return app.New(ctx, cfg, appOpts...)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "board-crawler",
		Short: "Collects recent posts from a regional message board.",
		Long: `board-crawler fetches a bootstrap payload, paginates the board's listing,
keeps the threads whose titles match the search words and writes the posts of
those threads that pass the exclusion lists and the age window as a JSON snapshot.`,
		SilenceUsage: true,

		// Load configuration and build the application before any subcommand runs.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			appInstance, err := newApp(cmd.Context(), cfg, *opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (yaml, json or toml)")

	cmd.AddCommand(newCrawlCmd(opts))
	cmd.AddCommand(newThreadsCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		stop()
		logger, lerr := logging.New(logging.Options{})
		if lerr != nil {
			fmt.Fprintf(os.Stderr, "command execution failed: %v\n", err)
			os.Exit(1)
		}
		logger.Fatal("Command execution failed", zap.Error(err))
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	return root.ExecuteContext(ctx)
}
